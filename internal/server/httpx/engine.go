// Package httpx holds the gin plumbing shared by the web and api apps:
// engine construction with logging and recovery middleware, the health
// endpoint and a context-driven HTTP server runner.
package httpx

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dmitrijs2005/goblog/internal/logging"
)

// NewEngine returns a gin engine in release mode with Recovery and
// RequestLogger installed.
func NewEngine(logger logging.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(Recovery(logger), RequestLogger(logger))

	return r
}

// RequestLogger logs one line per request after it has been served.
func RequestLogger(logger logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		args := []any{
			"method", c.Request.Method,
			"path", path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
			"client_ip", c.ClientIP(),
		}
		if len(c.Errors) > 0 {
			args = append(args, "errors", c.Errors.String())
		}

		switch status := c.Writer.Status(); {
		case status >= http.StatusInternalServerError:
			logger.Error(c.Request.Context(), "request", args...)
		default:
			logger.Info(c.Request.Context(), "request", args...)
		}
	}
}

// Recovery turns a handler panic into a logged 500.
func Recovery(logger logging.Logger) gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(nil, func(c *gin.Context, recovered any) {
		logger.Error(c.Request.Context(), "panic recovered", "panic", recovered, "path", c.Request.URL.Path)
		c.AbortWithStatus(http.StatusInternalServerError)
	})
}

// Health answers with the static liveness document.
func Health(app, version string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"app":     app,
			"version": version,
		})
	}
}

// NoStore marks the response as not cacheable. Used on pages that depend on
// who is logged in.
func NoStore() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", "no-store, no-cache, must-revalidate, private")
		c.Header("Pragma", "no-cache")
		c.Header("Expires", "0")
		c.Next()
	}
}
