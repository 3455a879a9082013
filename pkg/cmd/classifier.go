package cmd

import (
	"log/slog"

	"github.com/dukex/taskflow/pkg/config"
	"github.com/dukex/taskflow/pkg/intent"
)

// NewClassifier builds the intent classifier, reading a custom pattern table
// from patternsFile when one is given.
func NewClassifier(logger *slog.Logger, patternsFile string) (*intent.Classifier, error) {
	if patternsFile == "" {
		return intent.NewClassifier(logger), nil
	}

	patterns, err := config.LoadPatterns(patternsFile)
	if err != nil {
		return nil, err
	}

	logger.Info("Loaded intent patterns", "file", patternsFile)

	return intent.NewClassifierWithPatterns(logger, patterns)
}
