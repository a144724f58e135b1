package app

import (
	"github.com/gin-gonic/gin"

	apphttp "github.com/yungbote/neurogarden-backend/internal/http"
	"github.com/yungbote/neurogarden-backend/internal/observability"
	"github.com/yungbote/neurogarden-backend/internal/platform/logger"
)

func routerConfig(log *logger.Logger, cfg Config, metrics *observability.Metrics, handlerset Handlers) apphttp.RouterConfig {
	serviceName := ""
	if cfg.Otel.Enabled {
		serviceName = cfg.Otel.ServiceName
	}
	return apphttp.RouterConfig{
		Log:              log,
		Metrics:          metrics,
		ServiceName:      serviceName,
		CORSOrigins:      cfg.CORSOrigins,
		RetentionHandler: handlerset.Retention,
		HealthHandler:    handlerset.Health,
	}
}

func wireRouter(log *logger.Logger, cfg Config, metrics *observability.Metrics, handlerset Handlers) *gin.Engine {
	log.Info("Wiring router...")
	return apphttp.NewRouter(routerConfig(log, cfg, metrics, handlerset))
}
