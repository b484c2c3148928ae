package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/yungbote/paperdeck-backend/internal/handlers"
	"github.com/yungbote/paperdeck-backend/internal/middleware"
)

type RouterConfig struct {
	AnalysisHandler     *handlers.AnalysisHandler
	FigureHandler       *handlers.FigureHandler
	SlidesHandler       *handlers.SlidesHandler
	PresentationHandler *handlers.PresentationHandler
	PodcastHandler      *handlers.PodcastHandler
	ChatHandler         *handlers.ChatHandler
	RunsHandler         *handlers.RunsHandler
	RequestID           *middleware.RequestIDMiddleware
	AllowOrigins        []string
	FiguresDir          string
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	origins := cfg.AllowOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000", "http://localhost:5173"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With", "X-Request-ID"},
		AllowCredentials: true,
	}))
	router.Use(cfg.RequestID.Attach())

	router.GET("/healthcheck", handlers.HealthCheck)

	// Analysis
	router.GET("/student-levels", cfg.AnalysisHandler.StudentLevels)
	router.POST("/analyze/url", cfg.AnalysisHandler.AnalyzeURL)
	router.POST("/analyze/pdf", cfg.AnalysisHandler.AnalyzePDF)
	router.GET("/use-generated-prerequisite", cfg.AnalysisHandler.StoredPrerequisites)

	// Figures
	router.POST("/ocr-figure-url", cfg.FigureHandler.OCRFromURL)
	router.POST("/ocr-figure-pdf", cfg.FigureHandler.OCRFromPDF)
	router.POST("/save-figures", cfg.FigureHandler.SaveFigures)
	router.GET("/figures-metadata", cfg.FigureHandler.ListFigures)
	if cfg.FiguresDir != "" {
		router.Static("/figures", cfg.FiguresDir)
	}

	// Slide content
	router.POST("/slide-data-gen", cfg.SlidesHandler.SlideDataGen)
	router.POST("/enhance-slides-agent", cfg.SlidesHandler.EnhanceSlides)
	router.POST("/execution-agent-parsing", cfg.SlidesHandler.ExecutionAgentParsing)

	// Presentation pipeline
	router.POST("/extract-template-layout", cfg.PresentationHandler.ExtractTemplateLayout)
	router.POST("/convert-placeholders", cfg.PresentationHandler.ConvertPlaceholders)
	router.POST("/process-slides-data", cfg.PresentationHandler.ProcessSlidesData)
	router.POST("/generate-presentation", cfg.PresentationHandler.Generate)
	router.GET("/download-presentation", cfg.PresentationHandler.Download)
	router.POST("/cleanup-data", cfg.PresentationHandler.CleanupData)

	// Podcast
	router.POST("/generate-podcast", cfg.PodcastHandler.Generate)
	router.GET("/podcast/:filename", cfg.PodcastHandler.GetFile)

	// Paper chat
	router.POST("/init-session", cfg.ChatHandler.InitSession)
	router.POST("/ingest/url", cfg.ChatHandler.IngestURL)
	router.POST("/ingest/file", cfg.ChatHandler.IngestFile)
	router.POST("/query", cfg.ChatHandler.Query)
	router.POST("/chat", cfg.ChatHandler.Chat)
	router.GET("/collections", cfg.ChatHandler.Collections)

	// History
	router.GET("/runs", cfg.RunsHandler.List)

	return router
}
