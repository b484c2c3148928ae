package app

import (
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/yungbote/paperdeck-backend/internal/platform/logger"
	"github.com/yungbote/paperdeck-backend/internal/platform/media"
	"github.com/yungbote/paperdeck-backend/internal/platform/mistral"
	"github.com/yungbote/paperdeck-backend/internal/store"
)

type Clients struct {
	Mistral    mistral.Client
	Redis      *redis.Client
	MediaTools media.Tools
	DB         *store.DB
	Artifacts  *store.Artifacts
	Vectors    *store.VectorStore
}

func wireClients(log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")

	ai, err := mistral.NewClient(log)
	if err != nil {
		return Clients{}, fmt.Errorf("init mistral client: %w", err)
	}

	var rdb *redis.Client
	if strings.TrimSpace(cfg.RedisAddr) != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		log.Info("redis cache enabled", "addr", cfg.RedisAddr)
	}

	db, err := store.NewDB(cfg.Paths.DBPath)
	if err != nil {
		return Clients{}, fmt.Errorf("init sqlite store: %w", err)
	}

	artifacts, err := store.NewArtifacts(cfg.Paths.MetadataDir)
	if err != nil {
		return Clients{}, fmt.Errorf("init artifact store: %w", err)
	}

	return Clients{
		Mistral:    ai,
		Redis:      rdb,
		MediaTools: media.New(log),
		DB:         db,
		Artifacts:  artifacts,
		Vectors:    store.NewVectorStore(4),
	}, nil
}
