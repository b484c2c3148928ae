package services

import (
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/yungbote/paperdeck-backend/internal/platform/logger"
)

func writeWidePNG(t *testing.T, transparent bool) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 1600, 200))
	if !transparent {
		for y := 0; y < 200; y++ {
			for x := 0; x < 1600; x++ {
				img.Set(x, y, color.RGBA{R: 200, G: 200, B: 200, A: 255})
			}
		}
	}
	// A dark stripe down the middle, like a rendered glyph.
	for y := 80; y < 120; y++ {
		for x := 0; x < 1600; x++ {
			img.Set(x, y, color.RGBA{A: 255})
		}
	}
	path := filepath.Join(t.TempDir(), "figure.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return path
}

func TestOptimize_PassesThroughSmallImages(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 640, 480))
	path := filepath.Join(t.TempDir(), "small.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
	f.Close()

	got, err := NewImageOptimizer(logger.Nop()).Optimize(context.Background(), path)
	if err != nil {
		t.Fatalf("Optimize: %v", err)
	}
	if got != path {
		t.Fatalf("expected original path back, got %s", got)
	}
}

func TestOptimize_DownscalesOversizedImages(t *testing.T) {
	path := writeWidePNG(t, false)

	got, err := NewImageOptimizer(logger.Nop()).Optimize(context.Background(), path)
	if err != nil {
		t.Fatalf("Optimize: %v", err)
	}
	if !strings.HasSuffix(got, "_optimized.jpg") {
		t.Fatalf("expected optimized jpg, got %s", got)
	}
	f, err := os.Open(got)
	if err != nil {
		t.Fatalf("open optimized: %v", err)
	}
	defer f.Close()
	out, err := jpeg.Decode(f)
	if err != nil {
		t.Fatalf("decode optimized: %v", err)
	}
	if out.Bounds().Dx() != 1280 {
		t.Fatalf("width = %d, want 1280", out.Bounds().Dx())
	}
}

func TestOptimize_TransparentRegionsBecomeWhite(t *testing.T) {
	path := writeWidePNG(t, true)

	got, err := NewImageOptimizer(logger.Nop()).Optimize(context.Background(), path)
	if err != nil {
		t.Fatalf("Optimize: %v", err)
	}
	f, err := os.Open(got)
	if err != nil {
		t.Fatalf("open optimized: %v", err)
	}
	defer f.Close()
	out, err := jpeg.Decode(f)
	if err != nil {
		t.Fatalf("decode optimized: %v", err)
	}
	// A pixel that was fully transparent in the source.
	r, g, b, _ := out.At(10, 10).RGBA()
	if r>>8 < 240 || g>>8 < 240 || b>>8 < 240 {
		t.Fatalf("transparent region rendered as (%d,%d,%d), want near white", r>>8, g>>8, b>>8)
	}
	// The stripe itself stays dark.
	r, _, _, _ = out.At(10, 80).RGBA()
	if r>>8 > 100 {
		t.Fatalf("glyph region rendered as %d, want dark", r>>8)
	}
}
