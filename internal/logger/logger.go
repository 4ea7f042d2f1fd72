package logger

import (
	"os"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

var (
	initOnce sync.Once
	base     *logrus.Logger
)

// Get returns the process-wide logrus logger, initializing it on first use.
// LOG_LEVEL and LOG_FORMAT (json|text) control output; defaults are info/json.
func Get() *logrus.Logger {
	initOnce.Do(func() {
		base = logrus.New()
		base.SetOutput(os.Stdout)

		level, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL"))
		if err != nil {
			level = logrus.InfoLevel
		}
		base.SetLevel(level)

		if strings.EqualFold(os.Getenv("LOG_FORMAT"), "text") {
			base.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
		} else {
			base.SetFormatter(&logrus.JSONFormatter{})
		}
	})
	return base
}

// FromGinContext returns a request-scoped log entry enriched with the
// request id set by the RequestID middleware.
func FromGinContext(c *gin.Context) *logrus.Entry {
	entry := logrus.NewEntry(Get())
	if c == nil {
		return entry
	}
	if requestID := c.GetString("request_id"); requestID != "" {
		entry = entry.WithField("request_id", requestID)
	}
	entry = entry.WithFields(logrus.Fields{
		"method": c.Request.Method,
		"path":   c.Request.URL.Path,
	})
	return entry
}

// WithField is a convenience wrapper over the package logger
func WithField(key string, value interface{}) *logrus.Entry {
	return Get().WithField(key, value)
}
