package httpapi

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	slowRequest     = 200 * time.Millisecond
	requestIDHeader = "X-Request-ID"
)

// AccessLog пишет строку на каждый запрос и предупреждает о медленных.
func AccessLog(log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		reqID := c.GetHeader(requestIDHeader)
		if reqID == "" {
			reqID = uuid.NewString()
		}
		c.Header(requestIDHeader, reqID)
		c.Next()
		latency := time.Since(start)

		entry := log.WithFields(logrus.Fields{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"latency":    latency.String(),
			"client":     c.ClientIP(),
			"request_id": reqID,
		})
		switch {
		case c.Writer.Status() >= 500:
			entry.Error("request")
		case latency > slowRequest:
			entry.Warn("slow request")
		default:
			entry.Info("request")
		}
	}
}

// RequestTimeout ограничивает контекст запроса; хранилище и платёжный шлюз
// получают этот контекст и прерываются по дедлайну.
func RequestTimeout(d time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if d <= 0 {
			c.Next()
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
