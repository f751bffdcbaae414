package config

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
)

func PerformanceLogger(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		latency := time.Since(start)
		log.Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", latency,
		)

		if latency > 200*time.Millisecond {
			log.Warn("slow request", "method", c.Request.Method, "path", c.Request.URL.Path, "latency", latency)
		}
	}
}
