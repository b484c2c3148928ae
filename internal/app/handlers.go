package app

import (
	"github.com/yungbote/paperdeck-backend/internal/handlers"
	"github.com/yungbote/paperdeck-backend/internal/platform/logger"
)

type Handlers struct {
	Analysis     *handlers.AnalysisHandler
	Figure       *handlers.FigureHandler
	Slides       *handlers.SlidesHandler
	Presentation *handlers.PresentationHandler
	Podcast      *handlers.PodcastHandler
	Chat         *handlers.ChatHandler
	Runs         *handlers.RunsHandler
}

func wireHandlers(log *logger.Logger, svcs Services, clients Clients) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Analysis:     handlers.NewAnalysisHandler(svcs.Analysis),
		Figure:       handlers.NewFigureHandler(svcs.Figure),
		Slides:       handlers.NewSlidesHandler(svcs.Slides),
		Presentation: handlers.NewPresentationHandler(svcs.Presentation, svcs.Template),
		Podcast:      handlers.NewPodcastHandler(svcs.Podcast),
		Chat:         handlers.NewChatHandler(svcs.Chat),
		Runs:         handlers.NewRunsHandler(clients.DB),
	}
}
