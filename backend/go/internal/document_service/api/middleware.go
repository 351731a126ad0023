package api

import (
	"net/http"
	"strings"
	"time"

	"Paggo/backend/go/internal/document_service/service"
	"Paggo/backend/go/internal/models"
	"Paggo/backend/go/pkg/logger"
	"Paggo/backend/go/pkg/ratelimiter"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	ctxUserID = "userID"
	ctxLogger = "logger"

	traceHeader = "X-Trace-Id"
)

// AuthMiddleware validates the bearer token and stores the user id in the
// context.
func AuthMiddleware(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header is required"})
			return
		}

		// expected format: "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header format must be Bearer <token>"})
			return
		}

		userID, err := service.ParseToken(jwtSecret, parts[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}
		c.Set(ctxUserID, userID)
		if log, ok := c.Get(ctxLogger); ok {
			c.Set(ctxLogger, log.(*logger.Logger).WithTrace(c.GetHeader(traceHeader), userID))
		}
		c.Next()
	}
}

// RequestLogger assigns a trace id to each request, exposes a request scoped
// logger to handlers and logs the outcome once the request completes.
func RequestLogger(base *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID := c.GetHeader(traceHeader)
		if traceID == "" {
			traceID = uuid.NewString()
			c.Request.Header.Set(traceHeader, traceID)
		}
		c.Header(traceHeader, traceID)
		c.Set(ctxLogger, base.WithTrace(traceID, ""))

		start := time.Now()
		c.Next()

		log := requestLogger(c).WithRequest(models.RequestInfo{
			Method:     c.Request.Method,
			Path:       c.FullPath(),
			RemoteAddr: c.ClientIP(),
			UserAgent:  c.Request.UserAgent(),
			Status:     c.Writer.Status(),
			LatencyMs:  time.Since(start).Milliseconds(),
		})
		switch {
		case c.Writer.Status() >= http.StatusInternalServerError:
			log.Error("request failed")
		case c.Writer.Status() >= http.StatusBadRequest:
			log.Warn("request rejected")
		default:
			log.Info("request completed")
		}
	}
}

// RateLimit limits each authenticated user independently. It must run after
// AuthMiddleware.
func RateLimit(limiter ratelimiter.KeyedRateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.Allow(c.GetString(ctxUserID)) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Too Many Requests"})
			return
		}
		c.Next()
	}
}

func requestLogger(c *gin.Context) *logger.Logger {
	if v, ok := c.Get(ctxLogger); ok {
		if log, ok := v.(*logger.Logger); ok {
			return log
		}
	}
	return logger.Discard()
}
