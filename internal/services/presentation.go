package services

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/yungbote/paperdeck-backend/internal/deck"
	"github.com/yungbote/paperdeck-backend/internal/platform/apierr"
	"github.com/yungbote/paperdeck-backend/internal/platform/logger"
	"github.com/yungbote/paperdeck-backend/internal/pptx"
	"github.com/yungbote/paperdeck-backend/internal/store"
)

type GenerateOptions struct {
	TemplateName   string
	OutputFilename string
	OptimizeImages bool
}

type GenerateResult struct {
	Path     string   `json:"path"`
	Added    int      `json:"slides_added"`
	Skipped  int      `json:"slides_skipped"`
	Warnings []string `json:"warnings,omitempty"`
	RunID    string   `json:"run_id"`
}

type PresentationService interface {
	ProcessSlidesData(ctx context.Context) (*deck.EnrichedDeck, []string, error)
	Generate(ctx context.Context, opts GenerateOptions) (*GenerateResult, error)
	OutputPath(filename string) (string, error)
	CleanupData(shouldClean bool) (string, error)
}

type presentationService struct {
	log         *logger.Logger
	artifacts   *store.Artifacts
	db          *store.DB
	templates   TemplateService
	enricher    *deck.Enricher
	figures     FigureService
	optimizer   *ImageOptimizer
	formulasDir string
	figuresDir  string
	outputDir   string
}

func NewPresentationService(
	baseLog *logger.Logger,
	artifacts *store.Artifacts,
	db *store.DB,
	templates TemplateService,
	enricher *deck.Enricher,
	figures FigureService,
	optimizer *ImageOptimizer,
	formulasDir, figuresDir, outputDir string,
) PresentationService {
	return &presentationService{
		log:         baseLog.With("service", "PresentationService"),
		artifacts:   artifacts,
		db:          db,
		templates:   templates,
		enricher:    enricher,
		figures:     figures,
		optimizer:   optimizer,
		formulasDir: formulasDir,
		figuresDir:  figuresDir,
		outputDir:   outputDir,
	}
}

// ProcessSlidesData runs the enrichment stage: formulas rendered, figure
// references resolved, tags assigned.
func (s *presentationService) ProcessSlidesData(ctx context.Context) (*deck.EnrichedDeck, []string, error) {
	var outline deck.Outline
	if err := s.artifacts.Load(store.SlidesDataFile, &outline); err != nil {
		return nil, nil, apierr.NotFound("NO_SLIDES_DATA",
			fmt.Errorf("slides_data.json not found, run slide-data-gen first"))
	}
	figures, err := s.figures.StoredMetadata()
	if err != nil {
		s.log.Warn("could not load figures metadata", "error", err)
		figures = map[string]string{}
	}

	enriched, warnings, err := s.enricher.Enrich(ctx, &outline, figures)
	if err != nil {
		return nil, nil, err
	}
	if err := s.artifacts.Save(store.UpdatedSlidesDataFile, enriched); err != nil {
		return nil, nil, err
	}
	return enriched, warnings, nil
}

// pptxDeck adapts a pptx presentation to the materializer's target deck.
type pptxDeck struct {
	p *pptx.Presentation
}

func (d *pptxDeck) LayoutNames() []string { return d.p.LayoutNames() }

func (d *pptxDeck) AddSlide(layoutName string) (deck.TargetSlide, error) {
	return d.p.AddSlideFromLayout(layoutName)
}

// Generate materializes the assignment into the template, saves a temporary
// deck, then reconciles away the template's own slides and writes the final
// file.
func (s *presentationService) Generate(ctx context.Context, opts GenerateOptions) (*GenerateResult, error) {
	start := time.Now()
	if opts.OutputFilename == "" {
		opts.OutputFilename = "modified_presentation.pptx"
	}

	run := &store.GenerationRun{
		TemplateName: opts.TemplateName,
		Status:       store.RunStatusRunning,
	}
	if s.db != nil {
		if err := s.db.CreateRun(run); err != nil {
			s.log.Warn("could not record generation run", "error", err)
		}
	}
	result, err := s.generate(ctx, opts)
	if s.db != nil {
		if err != nil {
			run.Status = store.RunStatusFailed
			run.Error = err.Error()
		} else {
			run.Status = store.RunStatusCompleted
			run.SlideCount = result.Added
			run.DeckPath = result.Path
			if len(result.Warnings) > 0 {
				if raw, merr := json.Marshal(result.Warnings); merr == nil {
					run.Warnings = datatypes.JSON(raw)
				}
			}
			result.RunID = run.ID.String()
		}
		if uerr := s.db.UpdateRun(run); uerr != nil {
			s.log.Warn("could not update generation run", "error", uerr)
		}
	}
	if err == nil {
		s.log.Info("presentation generated", "path", result.Path, "added", result.Added, "elapsed", time.Since(start).String())
	}
	return result, err
}

func (s *presentationService) generate(ctx context.Context, opts GenerateOptions) (*GenerateResult, error) {
	templatePath, err := s.templates.Resolve(opts.TemplateName)
	if err != nil {
		return nil, err
	}

	var doc struct {
		Slides []deck.AssignedSlide `json:"slides"`
	}
	if err := s.artifacts.Load(store.ExecutionAgentFile, &doc); err != nil {
		return nil, apierr.NotFound("NO_EXECUTION_DATA",
			fmt.Errorf("execution_agent.json not found, run execution-agent-parsing first"))
	}
	if len(doc.Slides) == 0 {
		return nil, apierr.BadRequest("EMPTY_ASSIGNMENT",
			fmt.Errorf("execution agent data contains no slides"))
	}

	var enriched deck.EnrichedDeck
	images := deck.ImageIndex{}
	if err := s.artifacts.Load(store.UpdatedSlidesDataFile, &enriched); err == nil {
		images = enriched.ImageIndex()
	}

	pres, err := pptx.Open(templatePath)
	if err != nil {
		return nil, &deck.TemplateParseError{Path: templatePath, Err: err}
	}

	var optimize func(ctx context.Context, path string) (string, error)
	if opts.OptimizeImages && s.optimizer != nil {
		optimize = s.optimizer.Optimize
	}
	materializer := deck.NewMaterializer(s.log, s.formulasDir, s.figuresDir, optimize)

	res, err := materializer.Materialize(ctx, &pptxDeck{p: pres}, doc.Slides, images)
	if err != nil {
		return nil, err
	}
	if res.Appended == 0 {
		return nil, apierr.BadRequest("NO_SLIDES_ADDED",
			fmt.Errorf("no slides could be added to the presentation"))
	}

	if err := os.MkdirAll(s.outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output dir: %w", err)
	}
	tempPath := filepath.Join(s.outputDir, "temp_"+uuid.NewString()+".pptx")
	if err := pres.Save(tempPath); err != nil {
		return nil, fmt.Errorf("saving intermediate deck: %w", err)
	}
	defer os.Remove(tempPath)

	// The base count comes from reopening the pristine template, not from
	// any count captured before slides were appended.
	freshTemplate, err := pptx.Open(templatePath)
	if err != nil {
		return nil, fmt.Errorf("reopening template: %w", err)
	}
	baseCount := freshTemplate.SlideCount()

	final, err := pptx.Open(tempPath)
	if err != nil {
		return nil, fmt.Errorf("reopening generated deck: %w", err)
	}
	warnings, err := deck.Reconcile(final, baseCount, s.log)
	if err != nil {
		return nil, err
	}
	res.Warnings = append(res.Warnings, warnings...)

	outputPath := filepath.Join(s.outputDir, filepath.Base(opts.OutputFilename))
	if err := final.Save(outputPath); err != nil {
		return nil, fmt.Errorf("saving final deck: %w", err)
	}

	return &GenerateResult{
		Path:     outputPath,
		Added:    res.Appended,
		Skipped:  res.Skipped,
		Warnings: res.Warnings,
	}, nil
}

func (s *presentationService) OutputPath(filename string) (string, error) {
	if filename == "" {
		filename = "modified_presentation.pptx"
	}
	path := filepath.Join(s.outputDir, filepath.Base(filename))
	if info, err := os.Stat(path); err != nil || info.IsDir() {
		return "", apierr.NotFound("NOT_FOUND", fmt.Errorf("presentation file not found"))
	}
	return path, nil
}

// CleanupData clears the rendered-asset dirs. It only acts on explicit
// opt-in so a successful generation never wipes its own inputs.
func (s *presentationService) CleanupData(shouldClean bool) (string, error) {
	if !shouldClean {
		return "No cleanup performed - set should_clean=true to perform cleanup", nil
	}
	for _, dir := range []string{s.figuresDir, s.formulasDir} {
		entries, err := os.ReadDir(dir)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return "", fmt.Errorf("reading %s: %w", dir, err)
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			if err := os.Remove(filepath.Join(dir, entry.Name())); err != nil {
				return "", fmt.Errorf("removing %s: %w", entry.Name(), err)
			}
		}
	}
	return "Successfully cleaned up data directories", nil
}
