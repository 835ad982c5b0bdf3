package main

import (
	"net/http"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// requestLogger logs every request after it has been handled, at a level
// chosen by status code.
func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if userID, ok := c.Get("user_id"); ok {
			fields = append(fields, zap.Any("user_id", userID))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		switch {
		case status >= http.StatusInternalServerError:
			logger.Error("request", fields...)
		case status >= http.StatusBadRequest:
			logger.Warn("request", fields...)
		default:
			logger.Info("request", fields...)
		}
	}
}

// recovery turns a handler panic into a logged 500.
func recovery(logger *zap.Logger, m *metricsManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logger.Error("panic recovered",
					zap.Any("error", err),
					zap.String("stacktrace", string(debug.Stack())),
					zap.String("path", c.Request.URL.Path),
					zap.String("method", c.Request.Method),
				)
				if m != nil {
					m.CounterPanics.Inc()
				}
				if !c.Writer.Written() {
					apiError(c, http.StatusInternalServerError, "internal server error")
				}
				c.Abort()
			}
		}()
		c.Next()
	}
}

// corsMiddleware allows the configured web client origin.
func corsMiddleware(clientURL string) gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOrigins:     []string{clientURL},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	})
}

// requestMetrics counts requests by method and status and observes latency.
func requestMetrics(m *metricsManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		m.GaugeRequests.Inc()
		defer m.GaugeRequests.Dec()

		c.Next()

		m.HistRequestDuration.Observe(time.Since(start).Seconds())
		m.CounterRequests.WithLabelValues(c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
	}
}
