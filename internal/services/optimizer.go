package services

import (
	"context"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	xdraw "golang.org/x/image/draw"

	"github.com/yungbote/paperdeck-backend/internal/platform/logger"
)

// ImageOptimizer downscales oversized figures before they are inserted into
// slides. Images at or under the width cap pass through untouched.
type ImageOptimizer struct {
	log      *logger.Logger
	maxWidth int
	quality  int
}

func NewImageOptimizer(baseLog *logger.Logger) *ImageOptimizer {
	return &ImageOptimizer{
		log:      baseLog.With("service", "ImageOptimizer"),
		maxWidth: 1280,
		quality:  85,
	}
}

// Optimize returns the path to use for insertion. Any failure falls back to
// the original path so a bad image never blocks a slide.
func (o *ImageOptimizer) Optimize(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return path, err
	}
	f, err := os.Open(path)
	if err != nil {
		return path, fmt.Errorf("opening %s: %w", path, err)
	}
	src, _, err := image.Decode(f)
	f.Close()
	if err != nil {
		return path, fmt.Errorf("decoding %s: %w", path, err)
	}

	bounds := src.Bounds()
	if bounds.Dx() <= o.maxWidth {
		return path, nil
	}

	ratio := float64(o.maxWidth) / float64(bounds.Dx())
	height := int(float64(bounds.Dy()) * ratio)
	dst := image.NewRGBA(image.Rect(0, 0, o.maxWidth, height))
	// JPEG has no alpha channel; composite onto white so transparent PNG
	// regions (formula renders) do not come out black.
	xdraw.Draw(dst, dst.Bounds(), image.White, image.Point{}, xdraw.Src)
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, xdraw.Over, nil)

	ext := filepath.Ext(path)
	outPath := strings.TrimSuffix(path, ext) + "_optimized.jpg"
	out, err := os.Create(outPath)
	if err != nil {
		return path, fmt.Errorf("creating %s: %w", outPath, err)
	}
	defer out.Close()
	if err := jpeg.Encode(out, dst, &jpeg.Options{Quality: o.quality}); err != nil {
		os.Remove(outPath)
		return path, fmt.Errorf("encoding %s: %w", outPath, err)
	}
	o.log.Debug("downscaled image", "path", path, "width", o.maxWidth)
	return outPath, nil
}
