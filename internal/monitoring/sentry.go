// Package monitoring wires Sentry error tracking into the service.
package monitoring

import (
	"time"

	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SentryConfig configures the Sentry client.
type SentryConfig struct {
	DSN              string
	Environment      string
	Release          string
	ServiceName      string
	TracesSampleRate float64
}

// SentryMonitor reports errors and panics to Sentry. With an empty DSN it is
// disabled and every method is a no-op apart from panic recovery.
type SentryMonitor struct {
	enabled bool
	logger  *zap.Logger
}

// NewSentryMonitor initializes the global Sentry hub. The returned monitor is
// always usable, even alongside an error.
func NewSentryMonitor(cfg *SentryConfig, logger *zap.Logger) (*SentryMonitor, error) {
	m := &SentryMonitor{logger: logger}
	if cfg == nil || cfg.DSN == "" {
		logger.Info("Sentry disabled: no DSN configured")
		return m, nil
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.DSN,
		Environment:      cfg.Environment,
		Release:          cfg.Release,
		ServerName:       cfg.ServiceName,
		TracesSampleRate: cfg.TracesSampleRate,
		AttachStacktrace: true,
	})
	if err != nil {
		return m, err
	}
	m.enabled = true
	logger.Info("Sentry initialized", zap.String("environment", cfg.Environment))
	return m, nil
}

// Enabled reports whether events are sent.
func (m *SentryMonitor) Enabled() bool {
	return m != nil && m.enabled
}

// GinMiddleware attaches a per-request hub. Panics are re-raised for
// RecoveryMiddleware.
func (m *SentryMonitor) GinMiddleware() gin.HandlerFunc {
	if !m.Enabled() {
		return func(c *gin.Context) { c.Next() }
	}
	return sentrygin.New(sentrygin.Options{Repanic: true, Timeout: 2 * time.Second})
}

// RecoveryMiddleware turns panics into 500 responses and logs them.
func (m *SentryMonitor) RecoveryMiddleware() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		if m != nil && m.logger != nil {
			m.logger.Error("panic recovered", zap.Any("panic", recovered), zap.String("path", c.Request.URL.Path))
		}
		c.AbortWithStatusJSON(500, gin.H{"error": "internal server error"})
	})
}

// CaptureError reports err with the request's hub when one is attached.
func (m *SentryMonitor) CaptureError(c *gin.Context, err error) {
	if !m.Enabled() || err == nil {
		return
	}
	if hub := sentrygin.GetHubFromContext(c); hub != nil {
		hub.CaptureException(err)
		return
	}
	sentry.CaptureException(err)
}

// Flush waits for buffered events.
func (m *SentryMonitor) Flush(timeout time.Duration) {
	if !m.Enabled() {
		return
	}
	sentry.Flush(timeout)
}
