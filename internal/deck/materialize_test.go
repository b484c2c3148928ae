package deck

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/yungbote/paperdeck-backend/internal/platform/logger"
)

type fakeSlide struct {
	layout   string
	texts    map[int][]string
	pictures map[int]string
	failPic  bool
}

func (s *fakeSlide) HasPlaceholder(index int) bool {
	return index >= 0 && index < 16
}

func (s *fakeSlide) SetText(index int, paragraphs []string) error {
	s.texts[index] = paragraphs
	return nil
}

func (s *fakeSlide) InsertPicture(index int, imagePath string) error {
	if s.failPic {
		return errors.New("picture rejected")
	}
	s.pictures[index] = imagePath
	return nil
}

type fakeDeck struct {
	layouts  []string
	slides   []*fakeSlide
	failAdds map[string]bool
}

func (d *fakeDeck) LayoutNames() []string { return d.layouts }

func (d *fakeDeck) AddSlide(layoutName string) (TargetSlide, error) {
	if d.failAdds[layoutName] {
		return nil, errors.New("add failed")
	}
	s := &fakeSlide{layout: layoutName, texts: map[int][]string{}, pictures: map[int]string{}}
	d.slides = append(d.slides, s)
	return s, nil
}

func newTestMaterializer(t *testing.T) (*Materializer, string, string) {
	t.Helper()
	formulas := t.TempDir()
	figures := t.TempDir()
	return NewMaterializer(logger.Nop(), formulas, figures, nil), formulas, figures
}

func TestMaterialize_FillsTextAndListPlaceholders(t *testing.T) {
	m, _, _ := newTestMaterializer(t)
	target := &fakeDeck{layouts: []string{"Title Slide", "Content Slide"}}

	slides := []AssignedSlide{
		{SlideName: "Title Slide", Placeholders: map[string]any{
			"Title 1_0":    "A Study of Things",
			"Subtitle 2_1": "With subtitles",
		}},
		{SlideName: "Content Slide", Placeholders: map[string]any{
			"Content Placeholder 2_1": []any{"first", "second"},
			"Text Placeholder 3_2":    "line one\nline two\nline three",
		}},
	}

	res, err := m.Materialize(context.Background(), target, slides, nil)
	if err != nil {
		t.Fatalf("Materialize: %v", err)
	}
	if res.Appended != 2 || res.Skipped != 0 {
		t.Fatalf("appended=%d skipped=%d, want 2/0", res.Appended, res.Skipped)
	}
	if got := target.slides[0].texts[0]; len(got) != 1 || got[0] != "A Study of Things" {
		t.Fatalf("title text: %v", got)
	}
	if got := target.slides[1].texts[1]; len(got) != 2 || got[1] != "second" {
		t.Fatalf("list text: %v", got)
	}
	// Embedded newlines become one paragraph per line.
	if got := target.slides[1].texts[2]; len(got) != 3 || got[0] != "line one" || got[2] != "line three" {
		t.Fatalf("newline split: %v", got)
	}
	for _, sr := range res.Slides {
		if sr.State != StateAppended {
			t.Fatalf("slide %d state %s, want APPENDED", sr.Index, sr.State)
		}
	}
}

func TestMaterialize_UnknownLayoutIsSkippedOthersSurvive(t *testing.T) {
	m, _, _ := newTestMaterializer(t)
	target := &fakeDeck{layouts: []string{"Title Slide"}}

	slides := []AssignedSlide{
		{SlideName: "Imaginary", Placeholders: map[string]any{"Title 1_0": "x"}},
		{SlideName: "Title Slide", Placeholders: map[string]any{"Title 1_0": "kept"}},
	}

	res, err := m.Materialize(context.Background(), target, slides, nil)
	if err != nil {
		t.Fatalf("Materialize: %v", err)
	}
	if res.Appended != 1 || res.Skipped != 1 {
		t.Fatalf("appended=%d skipped=%d, want 1/1", res.Appended, res.Skipped)
	}
	if res.Slides[0].State != StateSkipped {
		t.Fatalf("slide 0 state %s, want SKIPPED", res.Slides[0].State)
	}
	if len(target.slides) != 1 || target.slides[0].texts[0][0] != "kept" {
		t.Fatalf("surviving slide not filled: %+v", target.slides)
	}
	if len(res.Warnings) != 1 || !strings.Contains(res.Warnings[0], "Imaginary") {
		t.Fatalf("expected skip warning, got %v", res.Warnings)
	}
}

func TestMaterialize_InsertsImagesByTaggedKind(t *testing.T) {
	m, formulas, _ := newTestMaterializer(t)
	imgPath := filepath.Join(formulas, "energy.png")
	if err := os.WriteFile(imgPath, []byte("png"), 0o644); err != nil {
		t.Fatalf("write image: %v", err)
	}
	target := &fakeDeck{layouts: []string{"Formula Slide"}}

	// The assignment carries a stale absolute path; the basename resolves
	// under the formulas dir because the index tags it as a formula.
	slides := []AssignedSlide{
		{SlideName: "Formula Slide", Placeholders: map[string]any{
			"Picture Placeholder 2_13": "/stale/path/energy.png",
		}},
	}
	images := ImageIndex{"energy.png": ImageFormula}

	res, err := m.Materialize(context.Background(), target, slides, images)
	if err != nil {
		t.Fatalf("Materialize: %v", err)
	}
	if res.Appended != 1 {
		t.Fatalf("appended=%d, want 1", res.Appended)
	}
	if got := target.slides[0].pictures[13]; got != imgPath {
		t.Fatalf("picture path %q, want %q", got, imgPath)
	}
}

func TestMaterialize_MissingImageDegradesToMarkerText(t *testing.T) {
	m, _, _ := newTestMaterializer(t)
	target := &fakeDeck{layouts: []string{"Formula Slide"}}

	slides := []AssignedSlide{
		{SlideName: "Formula Slide", Placeholders: map[string]any{
			"Picture Placeholder 2_13": "/nowhere/ghost.png",
		}},
	}

	res, err := m.Materialize(context.Background(), target, slides, ImageIndex{"ghost.png": ImageFigure})
	if err != nil {
		t.Fatalf("Materialize: %v", err)
	}
	if res.Appended != 1 {
		t.Fatalf("appended=%d, want 1", res.Appended)
	}
	got := target.slides[0].texts[13]
	if len(got) != 1 || got[0] != "[Missing image: ghost.png]" {
		t.Fatalf("expected marker text, got %v", got)
	}
}

func TestMaterialize_ShapeFailureDoesNotSinkSlide(t *testing.T) {
	m, _, _ := newTestMaterializer(t)
	target := &fakeDeck{layouts: []string{"Content Slide"}}

	slides := []AssignedSlide{
		{SlideName: "Content Slide", Placeholders: map[string]any{
			"bogus-key":               "ignored",
			"Content Placeholder 2_1": "fine",
		}},
	}

	res, err := m.Materialize(context.Background(), target, slides, nil)
	if err != nil {
		t.Fatalf("Materialize: %v", err)
	}
	if res.Appended != 1 {
		t.Fatalf("appended=%d, want 1", res.Appended)
	}
	if len(res.Warnings) != 1 || !strings.Contains(res.Warnings[0], "bogus-key") {
		t.Fatalf("expected shape warning, got %v", res.Warnings)
	}
	if got := target.slides[0].texts[1]; len(got) != 1 || got[0] != "fine" {
		t.Fatalf("good shape lost: %v", got)
	}
}
