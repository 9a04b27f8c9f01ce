package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/coursegen-backend/internal/http/handlers"
	httpMW "github.com/yungbote/coursegen-backend/internal/http/middleware"
	"github.com/yungbote/coursegen-backend/internal/observability"
	"github.com/yungbote/coursegen-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	Metrics        *observability.Metrics
	ServiceName    string
	AllowedOrigins []string

	GenerationHandler *httpH.GenerationHandler
	NormHandler       *httpH.NormHandler
	HealthHandler     *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.AllowedOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	api := r.Group("/api")
	{
		// Generation
		if cfg.GenerationHandler != nil {
			api.POST("/courses/generate", cfg.GenerationHandler.Generate)
			api.GET("/generations", cfg.GenerationHandler.ListRuns)
			api.GET("/generations/:id", cfg.GenerationHandler.GetRun)
		}

		// Norms
		if cfg.NormHandler != nil {
			api.GET("/norms", cfg.NormHandler.List)
			api.GET("/norms/search", cfg.NormHandler.Search)
			api.GET("/norms/:id/sommaire", cfg.NormHandler.Sommaire)
		}
	}

	return r
}
