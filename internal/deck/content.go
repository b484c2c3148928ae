package deck

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Outline is the raw slide outline produced by the slide generation model,
// as persisted in slides_data.json.
type Outline struct {
	Content []OutlineSlide `json:"content"`
}

type OutlineSlide struct {
	Title         string       `json:"title"`
	Subtitle      string       `json:"subtitle,omitempty"`
	Text          []string     `json:"text,omitempty"`
	FormulaImages []FormulaRef `json:"formula_images,omitempty"`
	Picture       []string     `json:"picture,omitempty"`
}

type FormulaRef struct {
	Formula string `json:"formula"`
	Name    string `json:"name"`
}

// EnrichedDeck is the outline after formula rendering and figure resolution,
// persisted as updated_slides_data.json. Pictures and formulas carry their
// resolved image paths; image kind is decided here, once, and never
// re-inferred downstream.
type EnrichedDeck struct {
	Content []EnrichedSlide `json:"content"`
}

type EnrichedSlide struct {
	Title         string         `json:"title"`
	Subtitle      string         `json:"subtitle,omitempty"`
	Text          []string       `json:"text,omitempty"`
	FormulaImages []FormulaImage `json:"formula_images,omitempty"`
	Picture       []string       `json:"picture,omitempty"`
}

type FormulaImage struct {
	// Formula holds the rendered image path after enrichment, or the raw
	// LaTeX source when rendering failed.
	Formula string `json:"formula"`
	Name    string `json:"name"`
}

type ImageKind string

const (
	ImageFormula ImageKind = "formula"
	ImageFigure  ImageKind = "figure"
)

// ImageIndex maps a rendered image basename to the kind the enrichment stage
// assigned it. The materializer consults it instead of sniffing substrings.
type ImageIndex map[string]ImageKind

func (d *EnrichedDeck) ImageIndex() ImageIndex {
	idx := ImageIndex{}
	for _, slide := range d.Content {
		for _, f := range slide.FormulaImages {
			if isImagePath(f.Formula) {
				idx[filepath.Base(f.Formula)] = ImageFormula
			}
		}
		for _, p := range slide.Picture {
			if isImagePath(p) {
				idx[filepath.Base(p)] = ImageFigure
			}
		}
	}
	return idx
}

// ContentKind tags a placeholder value once so downstream dispatch never has
// to guess.
type ContentKind int

const (
	KindText ContentKind = iota
	KindTextList
	KindImage
)

type Content struct {
	Kind  ContentKind
	Text  string
	List  []string
	Image ImagePath
}

type ImagePath struct {
	Path string
	Kind ImageKind
}

var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
}

func isImagePath(s string) bool {
	return imageExtensions[strings.ToLower(filepath.Ext(strings.TrimSpace(s)))]
}

// Classify tags a raw placeholder value from agent JSON. Strings that passed
// through enrichment are recognized via the image index; substring hints are
// the fallback for paths the agent produced on its own.
func Classify(v any, images ImageIndex) Content {
	switch t := v.(type) {
	case nil:
		return Content{Kind: KindText, Text: ""}
	case []any:
		list := make([]string, 0, len(t))
		for _, item := range t {
			if s, ok := item.(string); ok {
				list = append(list, s)
			}
		}
		return Content{Kind: KindTextList, List: list}
	case []string:
		return Content{Kind: KindTextList, List: t}
	case string:
		if isImagePath(t) {
			kind, ok := images[filepath.Base(strings.TrimSpace(t))]
			if !ok {
				kind = guessImageKind(t)
			}
			return Content{Kind: KindImage, Image: ImagePath{Path: strings.TrimSpace(t), Kind: kind}}
		}
		return Content{Kind: KindText, Text: t}
	default:
		return Content{Kind: KindText, Text: stringify(v)}
	}
}

func guessImageKind(path string) ImageKind {
	lower := strings.ToLower(path)
	if strings.Contains(lower, "formula") {
		return ImageFormula
	}
	return ImageFigure
}

func stringify(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
