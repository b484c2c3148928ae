package services

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/yungbote/paperdeck-backend/internal/deck"
	"github.com/yungbote/paperdeck-backend/internal/platform/logger"
	"github.com/yungbote/paperdeck-backend/internal/pptx"
	"github.com/yungbote/paperdeck-backend/internal/store"
)

type TemplateService interface {
	Resolve(name string) (string, error)
	ExtractLayout(templateName string) (deck.LayoutSchema, error)
	ConvertPlaceholders() ([]deck.NormalizedLayout, error)
}

type templateService struct {
	log       *logger.Logger
	uploadDir string
	artifacts *store.Artifacts
}

func NewTemplateService(baseLog *logger.Logger, uploadDir string, artifacts *store.Artifacts) TemplateService {
	return &templateService{
		log:       baseLog.With("service", "TemplateService"),
		uploadDir: uploadDir,
		artifacts: artifacts,
	}
}

// Resolve maps a template name to a file in the upload dir. An exact match
// wins; otherwise the dir is scanned case-insensitively so "Template.PPTX"
// still resolves "template.pptx".
func (s *templateService) Resolve(name string) (string, error) {
	if name == "" {
		name = "template.pptx"
	}
	if !strings.HasSuffix(strings.ToLower(name), ".pptx") {
		name += ".pptx"
	}
	exact := filepath.Join(s.uploadDir, name)
	if info, err := os.Stat(exact); err == nil && !info.IsDir() {
		return exact, nil
	}

	entries, err := os.ReadDir(s.uploadDir)
	if err != nil {
		return "", fmt.Errorf("reading template dir %s: %w", s.uploadDir, err)
	}
	var available []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(strings.ToLower(entry.Name()), ".pptx") {
			continue
		}
		available = append(available, entry.Name())
		if strings.EqualFold(entry.Name(), name) {
			return filepath.Join(s.uploadDir, entry.Name()), nil
		}
	}
	return "", &deck.TemplateNotFoundError{Name: name, Available: available}
}

func (s *templateService) ExtractLayout(templateName string) (deck.LayoutSchema, error) {
	path, err := s.Resolve(templateName)
	if err != nil {
		return nil, err
	}
	pres, err := pptx.Open(path)
	if err != nil {
		return nil, &deck.TemplateParseError{Path: path, Err: err}
	}
	schema := deck.SchemaFromTemplate(pres.Layouts())
	if err := s.artifacts.Save(store.LayoutDetailsFile, schema); err != nil {
		return nil, err
	}
	s.log.Info("extracted template layout", "template", path, "layouts", len(schema))
	return schema, nil
}

func (s *templateService) ConvertPlaceholders() ([]deck.NormalizedLayout, error) {
	var schema deck.LayoutSchema
	if err := s.artifacts.Load(store.LayoutDetailsFile, &schema); err != nil {
		return nil, err
	}
	norm, err := deck.Normalize(schema)
	if err != nil {
		return nil, err
	}
	if err := s.artifacts.Save(store.ProcessedLayoutFile, norm); err != nil {
		return nil, err
	}
	s.log.Info("normalized placeholder keys", "layouts", len(norm))
	return norm, nil
}
