package deck

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/yungbote/paperdeck-backend/internal/platform/logger"
)

type fakeRenderer struct {
	mu    sync.Mutex
	calls map[string]int
	dir   string
	fail  map[string]bool
}

func (f *fakeRenderer) Render(_ context.Context, formula, name string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = map[string]int{}
	}
	key := formula + "|" + name
	f.calls[key]++
	if f.fail[name] {
		return "", errors.New("render exploded")
	}
	path := filepath.Join(f.dir, name+".png")
	if err := os.WriteFile(path, []byte("png"), 0o644); err != nil {
		return "", err
	}
	return path, nil
}

func TestEnrich_RendersFormulasOncePerUniquePair(t *testing.T) {
	r := &fakeRenderer{dir: t.TempDir()}
	e := NewEnricher(r, logger.Nop(), 4)

	outline := &Outline{Content: []OutlineSlide{
		{Title: "A", FormulaImages: []FormulaRef{{Formula: "E=mc^2", Name: "energy"}}},
		{Title: "B", FormulaImages: []FormulaRef{{Formula: "E=mc^2", Name: "energy"}}},
	}}

	deck, warnings, err := e.Enrich(context.Background(), outline, nil)
	if err != nil {
		t.Fatalf("Enrich: %v", err)
	}
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
	if got := r.calls["E=mc^2|energy"]; got != 1 {
		t.Fatalf("expected 1 render call, got %d", got)
	}
	for i, slide := range deck.Content {
		got := slide.FormulaImages[0].Formula
		if !strings.HasSuffix(got, "energy.png") {
			t.Fatalf("slide %d: expected rendered path, got %q", i, got)
		}
	}
}

func TestEnrich_RenderFailureKeepsLatexAndWarns(t *testing.T) {
	r := &fakeRenderer{dir: t.TempDir(), fail: map[string]bool{"bad": true}}
	e := NewEnricher(r, logger.Nop(), 2)

	outline := &Outline{Content: []OutlineSlide{
		{Title: "A", FormulaImages: []FormulaRef{{Formula: "\\frac{a}{b}", Name: "bad"}}},
	}}

	deck, warnings, err := e.Enrich(context.Background(), outline, nil)
	if err != nil {
		t.Fatalf("Enrich: %v", err)
	}
	if len(warnings) != 1 {
		t.Fatalf("expected 1 warning, got %v", warnings)
	}
	if got := deck.Content[0].FormulaImages[0].Formula; got != "\\frac{a}{b}" {
		t.Fatalf("expected raw latex kept, got %q", got)
	}
}

func TestEnrich_ResolvesFiguresCaseInsensitively(t *testing.T) {
	dir := t.TempDir()
	figPath := filepath.Join(dir, "fig1.png")
	if err := os.WriteFile(figPath, []byte("png"), 0o644); err != nil {
		t.Fatalf("write figure: %v", err)
	}
	e := NewEnricher(&fakeRenderer{dir: dir}, logger.Nop(), 2)

	outline := &Outline{Content: []OutlineSlide{
		{Title: "A", Picture: []string{"figure 1"}},
	}}
	deck, warnings, err := e.Enrich(context.Background(), outline, map[string]string{"Figure 1": figPath})
	if err != nil {
		t.Fatalf("Enrich: %v", err)
	}
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
	if got := deck.Content[0].Picture[0]; got != figPath {
		t.Fatalf("expected %q, got %q", figPath, got)
	}
}

func TestEnrich_MissingFigureBecomesMarkerWithWarning(t *testing.T) {
	e := NewEnricher(&fakeRenderer{dir: t.TempDir()}, logger.Nop(), 2)

	outline := &Outline{Content: []OutlineSlide{
		{Title: "A", Picture: []string{"Figure 9"}},
	}}
	deck, warnings, err := e.Enrich(context.Background(), outline, map[string]string{})
	if err != nil {
		t.Fatalf("Enrich: %v", err)
	}
	if len(warnings) != 1 {
		t.Fatalf("expected 1 warning, got %v", warnings)
	}
	if got := deck.Content[0].Picture[0]; got != "[Missing image: Figure 9]" {
		t.Fatalf("unexpected marker: %q", got)
	}
}

func TestImageIndex_TagsFormulasAndFigures(t *testing.T) {
	deck := &EnrichedDeck{Content: []EnrichedSlide{
		{
			FormulaImages: []FormulaImage{{Formula: "/tmp/out/energy.png", Name: "energy"}},
			Picture:       []string{"/tmp/figs/fig1.jpg", "[Missing image: Figure 2]"},
		},
	}}
	idx := deck.ImageIndex()
	if idx["energy.png"] != ImageFormula {
		t.Fatalf("expected energy.png tagged formula, got %q", idx["energy.png"])
	}
	if idx["fig1.jpg"] != ImageFigure {
		t.Fatalf("expected fig1.jpg tagged figure, got %q", idx["fig1.jpg"])
	}
	if len(idx) != 2 {
		t.Fatalf("markers must not be indexed, got %v", idx)
	}
}
