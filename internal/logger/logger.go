// Package logger configures the application's logging, monitoring, and
// observability.
//
// It uses zerolog for structured logging and integrates with New Relic to
// forward logs and correlate them with distributed traces. When no New
// Relic license key is configured, everything degrades to plain zerolog.
package logger

import (
	"fmt"
	"io"
	"os"

	"github.com/newrelic/go-agent/v3/integrations/logcontext-v2/zerologWriter"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/rs/zerolog"

	"github.com/voltride/voltride/internal/config"
)

// LoggerService owns the New Relic application instance, if any. It exists
// so the rest of the app can ask "is APM on?" without importing agent
// bootstrap details.
type LoggerService struct {
	nrApp *newrelic.Application
}

// GetApplication returns the New Relic application, or nil when APM is not
// configured.
func (s *LoggerService) GetApplication() *newrelic.Application {
	if s == nil {
		return nil
	}
	return s.nrApp
}

// New builds the application logger and the observability service from
// config.
//
// Behavior:
//   - level and format come from the observability block
//   - "console" format uses zerolog's human-friendly console writer,
//     intended for local development
//   - when a New Relic license key is present, the agent is started and
//     log output is routed through the zerologWriter integration so log
//     lines carry trace linking metadata
func New(cfg *config.Config) (*zerolog.Logger, *LoggerService, error) {
	level, err := zerolog.ParseLevel(cfg.Observability.GetLogLevel())
	if err != nil {
		return nil, nil, fmt.Errorf("parsing log level: %w", err)
	}

	service := &LoggerService{}

	if key := cfg.Observability.NewRelic.LicenseKey; key != "" {
		nrApp, err := newrelic.NewApplication(
			newrelic.ConfigAppName(cfg.Observability.ServiceName),
			newrelic.ConfigLicense(key),
			newrelic.ConfigDistributedTracerEnabled(cfg.Observability.NewRelic.DistributedTracingEnabled),
			newrelic.ConfigAppLogForwardingEnabled(cfg.Observability.NewRelic.AppLogForwardingEnabled),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("initializing new relic: %w", err)
		}
		service.nrApp = nrApp
	}

	var out io.Writer = os.Stdout
	if cfg.Observability.Logging.Format == "console" {
		out = zerolog.ConsoleWriter{Out: os.Stderr}
	} else if service.nrApp != nil && cfg.Observability.NewRelic.AppLogForwardingEnabled {
		// JSON output only: the console writer's ANSI decoration would
		// corrupt forwarded log lines.
		out = zerologWriter.New(os.Stdout, service.nrApp)
	}

	logger := zerolog.New(out).
		Level(level).
		With().
		Timestamp().
		Str("service", cfg.Observability.ServiceName).
		Str("env", cfg.Observability.Environment).
		Logger()

	return &logger, service, nil
}

// WithTraceContext returns a child logger carrying the transaction's trace
// and span ids, so log lines can be joined with distributed traces.
func WithTraceContext(logger zerolog.Logger, txn *newrelic.Transaction) zerolog.Logger {
	if txn == nil {
		return logger
	}
	md := txn.GetTraceMetadata()
	return logger.With().
		Str("trace.id", md.TraceID).
		Str("span.id", md.SpanID).
		Logger()
}

// NewPgxLogger builds the logger handed to the pgx tracelog adapter,
// pinned to the application's level.
func NewPgxLogger(level zerolog.Level) zerolog.Logger {
	return zerolog.New(os.Stdout).
		Level(level).
		With().
		Timestamp().
		Str("component", "pgx").
		Logger()
}

// GetPgxTraceLogLevel maps the application log level to a pgx tracelog
// level. SQL logging is debug-grade noise; anything above debug only gets
// error-level query logs.
func GetPgxTraceLogLevel(level zerolog.Level) int {
	// tracelog levels: 0 none, 1 error, 2 warn, 3 info, 4 debug, 5 trace.
	switch level {
	case zerolog.TraceLevel:
		return 5
	case zerolog.DebugLevel:
		return 4
	default:
		return 1
	}
}
