// Package cmd provides common initialization functions for command-line applications.
package cmd

import (
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/dukex/taskflow/pkg/dates"
	"github.com/dukex/taskflow/pkg/oracle"
)

// OracleConfig selects the chat-completion model used for date escalation.
type OracleConfig struct {
	APIKey   string
	BaseURL  string
	Model    string
	Timeout  time.Duration
	DayFirst bool
}

// NewDateResolver builds the date resolver. Escalation is only enabled when an
// API key is configured.
func NewDateResolver(logger *slog.Logger, tracer trace.Tracer, config OracleConfig) *dates.Resolver {
	opts := []dates.Option{
		dates.WithLogger(logger),
		dates.WithDayFirst(config.DayFirst),
	}

	if config.Timeout > 0 {
		opts = append(opts, dates.WithOracleTimeout(config.Timeout))
	}

	client := oracle.NewClient(oracle.Config{
		APIKey:  config.APIKey,
		BaseURL: config.BaseURL,
		Model:   config.Model,
	}, logger, tracer)

	if client.Enabled() {
		opts = append(opts, dates.WithOracle(client))
	} else {
		logger.Info("Date oracle disabled, no API key configured")
	}

	return dates.NewResolver(opts...)
}
