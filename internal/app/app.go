package app

import (
	"fmt"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/paperdeck-backend/internal/platform/logger"
)

type App struct {
	Log      *logger.Logger
	Cfg      Config
	Clients  Clients
	Services Services
	Router   *gin.Engine
}

func New() (*App, error) {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	log.Info("Loading configuration...")
	cfg := LoadConfig(log)
	if err := cfg.Paths.EnsureDirs(); err != nil {
		log.Sync()
		return nil, fmt.Errorf("prepare data dirs: %w", err)
	}

	clients, err := wireClients(log, cfg)
	if err != nil {
		log.Sync()
		return nil, err
	}
	svcs := wireServices(log, cfg, clients)
	handlers := wireHandlers(log, svcs, clients)
	mw := wireMiddleware(log)
	router := wireRouter(cfg, handlers, mw)

	return &App{
		Log:      log,
		Cfg:      cfg,
		Clients:  clients,
		Services: svcs,
		Router:   router,
	}, nil
}

func (a *App) Run() error {
	addr := ":" + a.Cfg.Port
	a.Log.Info("Starting server", "addr", addr)
	return a.Router.Run(addr)
}
