package services

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"

	"github.com/yungbote/paperdeck-backend/internal/platform/logger"
	"github.com/yungbote/paperdeck-backend/internal/platform/mistral"
	"github.com/yungbote/paperdeck-backend/internal/store"
)

func TestExtractFigureTag(t *testing.T) {
	cases := []struct {
		name     string
		markdown string
		imageID  string
		want     string
	}{
		{
			name:     "caption on next line",
			markdown: "Some text.\n![alt text](img-0.jpeg)\nFigure 3: model architecture",
			imageID:  "img-0.jpeg",
			want:     "Figure 3",
		},
		{
			name:     "case insensitive",
			markdown: "![](IMG-1.JPEG)\nfigure 12 shows the loss curve",
			imageID:  "IMG-1.JPEG",
			want:     "figure 12",
		},
		{
			name:     "no caption after image",
			markdown: "![alt](img-2.jpeg)\nThe results are summarized below.",
			imageID:  "img-2.jpeg",
			want:     "",
		},
		{
			name:     "image id not in page",
			markdown: "![alt](img-0.jpeg)\nFigure 1",
			imageID:  "other.jpeg",
			want:     "",
		},
		{
			name:     "id with regex metacharacters",
			markdown: "![](fig(a).jpeg)\nFigure 7",
			imageID:  "fig(a).jpeg",
			want:     "Figure 7",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ExtractFigureTag(tc.markdown, tc.imageID); got != tc.want {
				t.Fatalf("ExtractFigureTag = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestSaveFigures(t *testing.T) {
	figuresDir := t.TempDir()
	artifacts, err := store.NewArtifacts(t.TempDir())
	if err != nil {
		t.Fatalf("NewArtifacts: %v", err)
	}
	svc := NewFigureService(logger.Nop(), nil, artifacts, figuresDir)

	payload := base64.StdEncoding.EncodeToString([]byte("jpeg bytes"))
	ocr := &mistral.OCRResponse{
		Pages: []mistral.OCRPage{
			{
				Index:    0,
				Markdown: "![architecture](img-0.jpeg)\nFigure 1: overview",
				Images: []mistral.OCRImage{
					{ID: "img-0.jpeg", ImageBase64: "data:image/jpeg;base64," + payload},
				},
			},
			{
				Index:    2,
				Markdown: "no caption here",
				Images: []mistral.OCRImage{
					{ID: "img-5.jpeg", ImageBase64: payload},
					{ID: "broken.jpeg", ImageBase64: "%%% not base64 %%%"},
				},
			},
		},
	}

	metadata, err := svc.SaveFigures(ocr)
	if err != nil {
		t.Fatalf("SaveFigures: %v", err)
	}

	if got := metadata["Figure 1"]; got != filepath.Join(figuresDir, "img-0.jpeg") {
		t.Fatalf("captioned figure path = %q", got)
	}
	// Pages without a caption fall back to a positional key.
	if got := metadata["Figure_2_0"]; got != filepath.Join(figuresDir, "img-5.jpeg") {
		t.Fatalf("fallback figure path = %q", got)
	}
	if len(metadata) != 2 {
		t.Fatalf("metadata = %v, want undecodable image skipped", metadata)
	}

	data, err := os.ReadFile(filepath.Join(figuresDir, "img-0.jpeg"))
	if err != nil {
		t.Fatalf("read saved figure: %v", err)
	}
	if string(data) != "jpeg bytes" {
		t.Fatalf("saved bytes = %q", data)
	}

	var stored map[string]string
	if err := artifacts.Load(store.FiguresMetadataFile, &stored); err != nil {
		t.Fatalf("load metadata artifact: %v", err)
	}
	if stored["Figure 1"] == "" {
		t.Fatalf("metadata artifact missing captioned key: %v", stored)
	}

	loaded, err := svc.StoredMetadata()
	if err != nil {
		t.Fatalf("StoredMetadata: %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("StoredMetadata = %v", loaded)
	}
}

func TestSaveFigures_NilResponse(t *testing.T) {
	artifacts, err := store.NewArtifacts(t.TempDir())
	if err != nil {
		t.Fatalf("NewArtifacts: %v", err)
	}
	svc := NewFigureService(logger.Nop(), nil, artifacts, t.TempDir())
	if _, err := svc.SaveFigures(nil); err == nil {
		t.Fatalf("expected error for missing OCR payload")
	}
}
