package app

import (
	httpH "github.com/yungbote/neurogarden-backend/internal/http/handlers"
	"github.com/yungbote/neurogarden-backend/internal/platform/logger"
)

type Handlers struct {
	Health    *httpH.HealthHandler
	Retention *httpH.RetentionHandler
}

func wireHandlers(log *logger.Logger, serviceset Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:    httpH.NewHealthHandler(),
		Retention: httpH.NewRetentionHandler(serviceset.Retention),
	}
}
