package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/neurogarden-backend/internal/http/handlers"
	httpMW "github.com/yungbote/neurogarden-backend/internal/http/middleware"
	"github.com/yungbote/neurogarden-backend/internal/observability"
	"github.com/yungbote/neurogarden-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log         *logger.Logger
	Metrics     *observability.Metrics
	ServiceName string
	CORSOrigins []string

	RetentionHandler *httpH.RetentionHandler
	HealthHandler    *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachRequestContext())
	r.Use(httpMW.RequestLogger(cfg.Log, "/healthcheck", "/metrics"))
	r.Use(httpMW.Metrics(cfg.Metrics, "/healthcheck", "/metrics"))
	r.Use(httpMW.CORS(cfg.CORSOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapF(cfg.Metrics.WriteHTTP))
	}

	api := r.Group("/api")
	{
		// Retention
		if cfg.RetentionHandler != nil {
			api.POST("/items/:id/enrich", cfg.RetentionHandler.Enrich)
			api.POST("/items/:id/summary", cfg.RetentionHandler.Summary)
			api.POST("/items/:id/recall", cfg.RetentionHandler.SubmitRecall)
			api.POST("/items/:id/review", cfg.RetentionHandler.RecordReview)
			api.GET("/review/due", cfg.RetentionHandler.ListDue)
		}
	}

	return r
}
