package app

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/paperdeck-backend/internal/server"
)

func wireRouter(cfg Config, h Handlers, mw Middleware) *gin.Engine {
	return server.NewRouter(server.RouterConfig{
		AnalysisHandler:     h.Analysis,
		FigureHandler:       h.Figure,
		SlidesHandler:       h.Slides,
		PresentationHandler: h.Presentation,
		PodcastHandler:      h.Podcast,
		ChatHandler:         h.Chat,
		RunsHandler:         h.Runs,
		RequestID:           mw.RequestID,
		AllowOrigins:        cfg.AllowOrigins,
		FiguresDir:          cfg.Paths.FiguresDir,
	})
}
