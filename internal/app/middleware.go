package app

import (
	"github.com/yungbote/paperdeck-backend/internal/middleware"
	"github.com/yungbote/paperdeck-backend/internal/platform/logger"
)

type Middleware struct {
	RequestID *middleware.RequestIDMiddleware
}

func wireMiddleware(log *logger.Logger) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		RequestID: middleware.NewRequestIDMiddleware(log),
	}
}
