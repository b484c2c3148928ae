package services

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/yungbote/paperdeck-backend/internal/platform/apierr"
	"github.com/yungbote/paperdeck-backend/internal/platform/logger"
	"github.com/yungbote/paperdeck-backend/internal/platform/mistral"
	"github.com/yungbote/paperdeck-backend/internal/store"
)

type FigureService interface {
	OCRFromURL(ctx context.Context, documentURL string) (*mistral.OCRResponse, error)
	OCRFromPDF(ctx context.Context, filename string, pdf []byte) (*mistral.OCRResponse, error)
	SaveFigures(ocr *mistral.OCRResponse) (map[string]string, error)
	StoredMetadata() (map[string]string, error)
}

type figureService struct {
	log        *logger.Logger
	ai         mistral.Client
	artifacts  *store.Artifacts
	figuresDir string
}

func NewFigureService(baseLog *logger.Logger, ai mistral.Client, artifacts *store.Artifacts, figuresDir string) FigureService {
	return &figureService{
		log:        baseLog.With("service", "FigureService"),
		ai:         ai,
		artifacts:  artifacts,
		figuresDir: figuresDir,
	}
}

func (s *figureService) OCRFromURL(ctx context.Context, documentURL string) (*mistral.OCRResponse, error) {
	if documentURL == "" {
		return nil, apierr.BadRequest("MISSING_URL", fmt.Errorf("document_url is required"))
	}
	s.log.Info("running OCR", "source", "url")
	return s.ai.ProcessOCR(ctx, documentURL, true)
}

func (s *figureService) OCRFromPDF(ctx context.Context, filename string, pdf []byte) (*mistral.OCRResponse, error) {
	if !strings.HasSuffix(strings.ToLower(filename), ".pdf") {
		return nil, apierr.BadRequest("NOT_A_PDF", fmt.Errorf("PDF files only"))
	}
	fileID, err := s.ai.UploadFile(ctx, filepath.Base(filename), pdf)
	if err != nil {
		return nil, fmt.Errorf("uploading pdf for OCR: %w", err)
	}
	signedURL, err := s.ai.SignedURL(ctx, fileID)
	if err != nil {
		return nil, fmt.Errorf("signing pdf url: %w", err)
	}
	s.log.Info("running OCR", "source", "pdf")
	return s.ai.ProcessOCR(ctx, signedURL, true)
}

// SaveFigures decodes every base64 page image from an OCR response into the
// figures dir and records the caption-derived key for each.
func (s *figureService) SaveFigures(ocr *mistral.OCRResponse) (map[string]string, error) {
	if ocr == nil {
		return nil, apierr.BadRequest("MISSING_OCR", fmt.Errorf("ocr_response is required"))
	}
	if err := os.MkdirAll(s.figuresDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating figures dir: %w", err)
	}

	metadata := map[string]string{}
	for _, page := range ocr.Pages {
		for i, image := range page.Images {
			imageID := image.ID
			if imageID == "" {
				imageID = fmt.Sprintf("figure_%d_%d.jpeg", page.Index, i)
			}
			data := image.ImageBase64
			if data == "" {
				continue
			}
			// Data URIs carry a "data:image/...;base64," prefix.
			if idx := strings.Index(data, ","); idx >= 0 {
				data = data[idx+1:]
			}
			raw, err := base64.StdEncoding.DecodeString(data)
			if err != nil {
				s.log.Warn("skipping undecodable figure", "id", imageID, "error", err)
				continue
			}
			savePath := filepath.Join(s.figuresDir, filepath.Base(imageID))
			if err := os.WriteFile(savePath, raw, 0o644); err != nil {
				return nil, fmt.Errorf("saving figure %s: %w", imageID, err)
			}
			key := ExtractFigureTag(page.Markdown, imageID)
			if key == "" {
				key = fmt.Sprintf("Figure_%d_%d", page.Index, i)
			}
			metadata[key] = savePath
		}
	}

	if err := s.artifacts.Save(store.FiguresMetadataFile, metadata); err != nil {
		return nil, err
	}
	s.log.Info("saved figures", "count", len(metadata))
	return metadata, nil
}

func (s *figureService) StoredMetadata() (map[string]string, error) {
	metadata := map[string]string{}
	if !s.artifacts.Exists(store.FiguresMetadataFile) {
		return metadata, nil
	}
	if err := s.artifacts.Load(store.FiguresMetadataFile, &metadata); err != nil {
		return nil, err
	}
	return metadata, nil
}

// ExtractFigureTag finds the "Figure N" caption that directly follows an
// image reference in page markdown. It returns "" when no caption follows.
func ExtractFigureTag(markdown, imageID string) string {
	pattern := `(?i)!\[.*?\]\(` + regexp.QuoteMeta(imageID) + `\)\s*[\r\n]+(Figure\s+\d+)`
	re, err := regexp.Compile(pattern)
	if err != nil {
		return ""
	}
	m := re.FindStringSubmatch(markdown)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}
