package app

import (
	"github.com/yungbote/paperdeck-backend/internal/deck"
	"github.com/yungbote/paperdeck-backend/internal/platform/logger"
	"github.com/yungbote/paperdeck-backend/internal/services"
)

type Services struct {
	Template     services.TemplateService
	Analysis     services.AnalysisService
	Figure       services.FigureService
	Slides       services.SlidesService
	Presentation services.PresentationService
	Podcast      services.PodcastService
	Chat         services.ChatService
	Renderer     *services.FormulaRenderer
}

func wireServices(log *logger.Logger, cfg Config, clients Clients) Services {
	log.Info("Wiring services...")

	templates := services.NewTemplateService(log, cfg.Paths.UploadDir, clients.Artifacts)
	renderer := services.NewFormulaRenderer(log, clients.DB, cfg.Paths.FormulasDir)
	enricher := deck.NewEnricher(renderer, log, cfg.Concurrency)
	figures := services.NewFigureService(log, clients.Mistral, clients.Artifacts, cfg.Paths.FiguresDir)
	optimizer := services.NewImageOptimizer(log)

	return Services{
		Template: templates,
		Analysis: services.NewAnalysisService(log, clients.Mistral, clients.Artifacts, cfg.Paths.UploadDir, clients.Redis),
		Figure:   figures,
		Slides:   services.NewSlidesService(log, clients.Mistral, clients.Artifacts, templates),
		Presentation: services.NewPresentationService(
			log, clients.Artifacts, clients.DB, templates, enricher, figures, optimizer,
			cfg.Paths.FormulasDir, cfg.Paths.FiguresDir, cfg.Paths.OutputDir,
		),
		Podcast:  services.NewPodcastService(log, clients.Mistral, clients.MediaTools, clients.DB, cfg.Paths.PodcastDir),
		Chat:     services.NewChatService(log, clients.Mistral, clients.Vectors),
		Renderer: renderer,
	}
}
