package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"

	"github.com/yungbote/paperdeck-backend/internal/platform/envutil"
	"github.com/yungbote/paperdeck-backend/internal/platform/logger"
	"github.com/yungbote/paperdeck-backend/internal/store"
)

// FormulaRenderer draws LaTeX fragments as PNG images under the formulas
// dir. Rendering is typographic, not a TeX engine: the de-dollared source is
// drawn with a math-friendly face, which is enough for slide-sized formulas.
type FormulaRenderer struct {
	log         *logger.Logger
	db          *store.DB
	formulasDir string
	face        font.Face
	fontErr     error
}

const (
	formulaFontSize = 36.0
	formulaPadding  = 24
)

func NewFormulaRenderer(baseLog *logger.Logger, db *store.DB, formulasDir string) *FormulaRenderer {
	r := &FormulaRenderer{
		log:         baseLog.With("service", "FormulaRenderer"),
		db:          db,
		formulasDir: formulasDir,
	}
	r.face, r.fontErr = loadFontFace()
	if r.fontErr != nil {
		r.log.Warn("formula font unavailable, rendering disabled", "error", r.fontErr)
	}
	return r
}

func loadFontFace() (font.Face, error) {
	path := envutil.String("FORMULA_FONT_PATH", "/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf")
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading font %s: %w", path, err)
	}
	parsed, err := truetype.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parsing font %s: %w", path, err)
	}
	return truetype.NewFace(parsed, &truetype.Options{Size: formulaFontSize, DPI: 96}), nil
}

var unsafeNameRe = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

func sanitizeName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		name = "formula"
	}
	return unsafeNameRe.ReplaceAllString(name, "_")
}

func renderHash(formula, name string) string {
	sum := sha256.Sum256([]byte(formula + "|" + name))
	return hex.EncodeToString(sum[:])
}

// Render produces (or reuses) the PNG for a formula. Identical
// (formula, name) pairs hit the content-addressed cache across runs.
func (r *FormulaRenderer) Render(ctx context.Context, formula, name string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if r.fontErr != nil {
		return "", r.fontErr
	}

	hash := renderHash(formula, name)
	if r.db != nil {
		if rec, err := r.db.LookupRender(hash); err == nil && rec != nil {
			if info, err := os.Stat(rec.Path); err == nil && !info.IsDir() {
				return rec.Path, nil
			}
		}
	}

	if err := os.MkdirAll(r.formulasDir, 0o755); err != nil {
		return "", fmt.Errorf("creating formulas dir: %w", err)
	}
	outPath := filepath.Join(r.formulasDir, sanitizeName(name)+".png")

	text := strings.Trim(strings.TrimSpace(formula), "$")
	if text == "" {
		return "", fmt.Errorf("empty formula for %q", name)
	}

	measure := gg.NewContext(1, 1)
	measure.SetFontFace(r.face)
	w, h := measure.MeasureString(text)

	dc := gg.NewContext(int(w)+2*formulaPadding, int(h)+2*formulaPadding)
	dc.SetRGBA(0, 0, 0, 0)
	dc.Clear()
	dc.SetFontFace(r.face)
	dc.SetRGB(0, 0, 0)
	dc.DrawStringAnchored(text, float64(dc.Width())/2, float64(dc.Height())/2, 0.5, 0.5)
	if err := dc.SavePNG(outPath); err != nil {
		return "", fmt.Errorf("writing %s: %w", outPath, err)
	}

	if r.db != nil {
		if err := r.db.SaveRender(&store.RenderRecord{Hash: hash, Formula: formula, Name: name, Path: outPath}); err != nil {
			r.log.Warn("render cache write failed", "error", err)
		}
	}
	return outPath, nil
}
