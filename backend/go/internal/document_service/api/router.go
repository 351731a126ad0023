package api

import (
	"context"
	"net/http"
	"time"

	"Paggo/backend/go/pkg/logger"
	"Paggo/backend/go/pkg/ratelimiter"

	"github.com/gin-gonic/gin"
)

// HealthCheck reports whether one dependency is reachable.
type HealthCheck func(ctx context.Context) error

// RouterConfig holds everything the router needs besides the handler.
type RouterConfig struct {
	JwtSecret      string
	Limiter        ratelimiter.KeyedRateLimiter // nil disables rate limiting
	MetricsPath    string
	MetricsHandler http.Handler // nil disables /metrics
	HealthChecks   map[string]HealthCheck
	Logger         *logger.Logger
}

// SetupRouter builds the gin engine for the document service.
func SetupRouter(h *Handler, rc RouterConfig) *gin.Engine {
	if rc.Logger == nil {
		rc.Logger = logger.Discard()
	}

	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(rc.Logger))

	r.GET("/healthz", healthHandler(rc.HealthChecks))
	if rc.MetricsHandler != nil {
		r.GET(rc.MetricsPath, gin.WrapH(rc.MetricsHandler))
	}

	apiV1 := r.Group("/api/v1")
	{
		auth := apiV1.Group("/auth")
		{
			auth.POST("/register", h.Register)
			auth.POST("/login", h.Login)
		}

		docs := apiV1.Group("/documents")
		docs.Use(AuthMiddleware(rc.JwtSecret))
		if rc.Limiter != nil {
			docs.Use(RateLimit(rc.Limiter))
		}
		{
			docs.POST("/upload", h.Upload)
			docs.GET("/history", h.History)
			docs.GET("", h.List)
			docs.GET("/:id", h.Get)
			docs.POST("/:id/chat", h.Chat)
			docs.GET("/:id/download", h.Download)
			docs.DELETE("/:id", h.Delete)
		}
	}

	return r
}

func healthHandler(checks map[string]HealthCheck) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		status := http.StatusOK
		results := make(map[string]string, len(checks))
		for name, check := range checks {
			if err := check(ctx); err != nil {
				results[name] = err.Error()
				status = http.StatusServiceUnavailable
				continue
			}
			results[name] = "ok"
		}
		c.JSON(status, gin.H{"status": http.StatusText(status), "checks": results})
	}
}
