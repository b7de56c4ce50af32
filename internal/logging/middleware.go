package logging

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"caelus/backend/internal/metrics"
)

const (
	// RequestIDHeader carries the per-request correlation id.
	RequestIDHeader = "X-Request-ID"
	loggerKey       = "logger"
)

// RequestLogger returns middleware that logs requests through logrus and
// updates the counter registry.
func RequestLogger(reg *metrics.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		req := c.Request
		rid := req.Header.Get(RequestIDHeader)
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Header(RequestIDHeader, rid)

		entry := logrus.WithFields(logrus.Fields{
			"request_id": rid,
			"method":     req.Method,
			"path":       req.URL.Path,
			"remote_ip":  c.ClientIP(),
		})
		c.Set(loggerKey, entry)

		c.Next()

		status := c.Writer.Status()
		labels := map[string]string{
			"method": req.Method,
			"path":   c.FullPath(),
			"status": statusClass(status),
		}
		reg.Inc(req.Context(), metrics.HTTPRequests, labels, 1)

		entry = entry.WithFields(logrus.Fields{
			"status":   status,
			"duration": time.Since(start),
		})
		if status >= 500 || len(c.Errors) > 0 {
			reg.Inc(req.Context(), metrics.HTTPRequestErrors, labels, 1)
			if len(c.Errors) > 0 {
				entry = entry.WithError(c.Errors.Last())
			}
			entry.Error("http request failed")
			return
		}
		entry.Info("http request served")
	}
}

// FromContext returns the request-scoped logger set by RequestLogger, or the
// standard logger when none is attached.
func FromContext(c *gin.Context) *logrus.Entry {
	if c != nil {
		if v, ok := c.Get(loggerKey); ok {
			if entry, ok := v.(*logrus.Entry); ok {
				return entry
			}
		}
	}
	return logrus.NewEntry(logrus.StandardLogger())
}

func statusClass(code int) string {
	if code < 100 || code >= 600 {
		return "0"
	}
	return strconv.Itoa(code/100) + "xx"
}
