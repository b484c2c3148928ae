package deck

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/yungbote/paperdeck-backend/internal/platform/logger"
)

// TargetDeck is the writable presentation the materializer appends slides
// to.
type TargetDeck interface {
	LayoutNames() []string
	AddSlide(layoutName string) (TargetSlide, error)
}

// TargetSlide is a freshly appended slide addressed by placeholder index.
type TargetSlide interface {
	HasPlaceholder(index int) bool
	SetText(index int, paragraphs []string) error
	InsertPicture(index int, imagePath string) error
}

// SlideState tracks a single assigned slide through materialization.
type SlideState string

const (
	StatePending        SlideState = "PENDING"
	StateLayoutResolved SlideState = "LAYOUT_RESOLVED"
	StateShapesFilled   SlideState = "SHAPES_FILLED"
	StateAppended       SlideState = "APPENDED"
	StateSkipped        SlideState = "SKIPPED"
)

type SlideResult struct {
	Index     int
	SlideName string
	State     SlideState
}

type MaterializeResult struct {
	Slides   []SlideResult
	Appended int
	Skipped  int
	Warnings []string
}

// Materializer fills a target deck from a parsed layout assignment. Shape
// level failures degrade that shape only; the slide and the rest of the deck
// keep going.
type Materializer struct {
	log         *logger.Logger
	formulasDir string
	figuresDir  string
	optimize    func(ctx context.Context, path string) (string, error)
}

func NewMaterializer(log *logger.Logger, formulasDir, figuresDir string, optimize func(ctx context.Context, path string) (string, error)) *Materializer {
	return &Materializer{log: log, formulasDir: formulasDir, figuresDir: figuresDir, optimize: optimize}
}

// Materialize walks the assigned slides in order and appends each one whose
// layout exists in the target deck. Placeholder keys within a slide are
// processed in sorted order so output is deterministic.
func (m *Materializer) Materialize(ctx context.Context, deck TargetDeck, slides []AssignedSlide, images ImageIndex) (*MaterializeResult, error) {
	known := map[string]bool{}
	for _, name := range deck.LayoutNames() {
		known[name] = true
	}

	res := &MaterializeResult{}
	for i, assigned := range slides {
		sr := SlideResult{Index: i, SlideName: assigned.SlideName, State: StatePending}

		if !known[assigned.SlideName] {
			sr.State = StateSkipped
			res.Skipped++
			res.Warnings = append(res.Warnings, fmt.Sprintf("slide %d: layout %q not in template, skipped", i, assigned.SlideName))
			m.log.Warn("layout not in template", "slide", i, "layout", assigned.SlideName)
			res.Slides = append(res.Slides, sr)
			continue
		}
		sr.State = StateLayoutResolved

		slide, err := deck.AddSlide(assigned.SlideName)
		if err != nil {
			sr.State = StateSkipped
			res.Skipped++
			res.Warnings = append(res.Warnings, fmt.Sprintf("slide %d: adding layout %q failed: %v", i, assigned.SlideName, err))
			m.log.Warn("add slide failed", "slide", i, "layout", assigned.SlideName, "error", err)
			res.Slides = append(res.Slides, sr)
			continue
		}

		keys := make([]string, 0, len(assigned.Placeholders))
		for k := range assigned.Placeholders {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		for _, key := range keys {
			if err := m.fillShape(ctx, slide, key, assigned.Placeholders[key], images); err != nil {
				res.Warnings = append(res.Warnings, fmt.Sprintf("slide %d (%s) placeholder %s: %v", i, assigned.SlideName, key, err))
				m.log.Warn("placeholder fill failed", "slide", i, "key", key, "error", err)
			}
		}
		sr.State = StateShapesFilled

		sr.State = StateAppended
		res.Appended++
		res.Slides = append(res.Slides, sr)
	}
	return res, nil
}

func (m *Materializer) fillShape(ctx context.Context, slide TargetSlide, key string, value any, images ImageIndex) error {
	_, idx, err := SplitKey(key)
	if err != nil {
		return err
	}
	if !slide.HasPlaceholder(idx) {
		return fmt.Errorf("no placeholder with index %d", idx)
	}

	content := Classify(value, images)
	switch content.Kind {
	case KindText:
		return slide.SetText(idx, splitParagraphs(content.Text))
	case KindTextList:
		paragraphs := make([]string, 0, len(content.List))
		for _, item := range content.List {
			paragraphs = append(paragraphs, splitParagraphs(item)...)
		}
		return slide.SetText(idx, paragraphs)
	case KindImage:
		path, ok := m.resolveImage(content.Image)
		if !ok {
			// Degrade to a visible marker rather than an empty shape.
			return slide.SetText(idx, []string{missingImageMarker(filepath.Base(content.Image.Path))})
		}
		if m.optimize != nil {
			if optimized, err := m.optimize(ctx, path); err == nil {
				path = optimized
			} else {
				m.log.Warn("image optimization failed", "path", path, "error", err)
			}
		}
		if err := slide.InsertPicture(idx, path); err != nil {
			return fmt.Errorf("inserting %s: %w", filepath.Base(path), err)
		}
		return nil
	default:
		return fmt.Errorf("unhandled content kind %d", content.Kind)
	}
}

// splitParagraphs turns embedded newlines into separate paragraphs; the
// assignment agent is told to use \n for line breaks and a raw newline
// inside one text run renders as nothing.
func splitParagraphs(text string) []string {
	if !strings.Contains(text, "\n") {
		return []string{text}
	}
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	paragraphs := make([]string, 0, len(lines))
	for _, line := range lines {
		paragraphs = append(paragraphs, strings.TrimRight(line, "\r"))
	}
	return paragraphs
}

// resolveImage accepts the path as given when it exists, otherwise retries
// under the kind's render directory by basename.
func (m *Materializer) resolveImage(img ImagePath) (string, bool) {
	if fileExists(img.Path) {
		return img.Path, true
	}
	dir := m.figuresDir
	if img.Kind == ImageFormula {
		dir = m.formulasDir
	}
	candidate := filepath.Join(dir, filepath.Base(img.Path))
	if fileExists(candidate) {
		return candidate, true
	}
	return "", false
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
