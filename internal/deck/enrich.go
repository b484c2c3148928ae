package deck

import (
	"context"
	"fmt"
	"os"
	"strings"
	"unicode"

	"golang.org/x/sync/errgroup"

	"github.com/yungbote/paperdeck-backend/internal/platform/logger"
)

// FormulaRenderer turns a LaTeX fragment into an image on disk and returns
// the image path.
type FormulaRenderer interface {
	Render(ctx context.Context, formula, name string) (string, error)
}

type Enricher struct {
	renderer    FormulaRenderer
	log         *logger.Logger
	concurrency int
}

func NewEnricher(renderer FormulaRenderer, log *logger.Logger, concurrency int) *Enricher {
	if concurrency < 1 {
		concurrency = 4
	}
	return &Enricher{renderer: renderer, log: log, concurrency: concurrency}
}

type renderTask struct {
	formula string
	name    string
}

// Enrich renders every formula reference in the outline and resolves figure
// references against the extracted-figure index. Rendering failures and
// unresolved figures downgrade to text markers and a warning instead of
// failing the deck.
func (e *Enricher) Enrich(ctx context.Context, outline *Outline, figures map[string]string) (*EnrichedDeck, []string, error) {
	if outline == nil {
		return nil, nil, fmt.Errorf("enrich: nil outline")
	}

	tasks := []renderTask{}
	seen := map[renderTask]bool{}
	for _, slide := range outline.Content {
		for _, f := range slide.FormulaImages {
			t := renderTask{formula: f.Formula, name: f.Name}
			if f.Formula == "" || seen[t] {
				continue
			}
			seen[t] = true
			tasks = append(tasks, t)
		}
	}

	rendered := make([]string, len(tasks))
	renderErrs := make([]error, len(tasks))
	if len(tasks) > 0 {
		g, gctx := errgroup.WithContext(ctx)
		limit := e.concurrency
		if len(tasks) < limit {
			limit = len(tasks)
		}
		g.SetLimit(limit)
		for i, t := range tasks {
			i, t := i, t
			g.Go(func() error {
				path, err := e.renderer.Render(gctx, t.formula, t.name)
				if err != nil {
					renderErrs[i] = err
					return nil
				}
				rendered[i] = path
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, nil, err
		}
	}

	paths := map[renderTask]string{}
	var warnings []string
	for i, t := range tasks {
		if renderErrs[i] != nil {
			warnings = append(warnings, fmt.Sprintf("formula %q failed to render: %v", t.name, renderErrs[i]))
			e.log.Warn("formula render failed", "name", t.name, "error", renderErrs[i])
			continue
		}
		paths[t] = rendered[i]
	}

	out := &EnrichedDeck{Content: make([]EnrichedSlide, 0, len(outline.Content))}
	for _, slide := range outline.Content {
		es := EnrichedSlide{
			Title:    slide.Title,
			Subtitle: slide.Subtitle,
			Text:     slide.Text,
		}
		for _, f := range slide.FormulaImages {
			fi := FormulaImage{Formula: f.Formula, Name: f.Name}
			if p, ok := paths[renderTask{formula: f.Formula, name: f.Name}]; ok {
				fi.Formula = p
			}
			es.FormulaImages = append(es.FormulaImages, fi)
		}
		for _, ref := range slide.Picture {
			path, ok := resolveFigure(ref, figures)
			if !ok {
				warnings = append(warnings, fmt.Sprintf("figure %q not found among extracted figures", ref))
				e.log.Warn("figure not found", "ref", ref)
				es.Picture = append(es.Picture, missingImageMarker(ref))
				continue
			}
			if _, err := os.Stat(path); err != nil {
				warnings = append(warnings, fmt.Sprintf("figure %q resolved to missing file %s", ref, path))
				e.log.Warn("figure file missing", "ref", ref, "path", path)
				es.Picture = append(es.Picture, missingImageMarker(ref))
				continue
			}
			es.Picture = append(es.Picture, path)
		}
		out.Content = append(out.Content, es)
	}
	return out, warnings, nil
}

// resolveFigure looks a figure reference up by its exact key first, then by
// the capitalized form the extractor stores ("figure 1" -> "Figure 1").
func resolveFigure(ref string, figures map[string]string) (string, bool) {
	key := strings.TrimSpace(ref)
	if p, ok := figures[key]; ok {
		return p, true
	}
	if p, ok := figures[capitalizeKey(key)]; ok {
		return p, true
	}
	return "", false
}

func capitalizeKey(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(strings.ToLower(s))
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

func missingImageMarker(ref string) string {
	return fmt.Sprintf("[Missing image: %s]", ref)
}
