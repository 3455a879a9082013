package cmd

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukex/taskflow/pkg/persistence/file"
)

func TestParsePersistenceProvider(t *testing.T) {
	assert.Equal(t, "postgres", parsePersistenceProvider("postgres://u:p@localhost/db"))
	assert.Equal(t, "postgresql", parsePersistenceProvider("postgresql://localhost/db"))
	assert.Equal(t, "file", parsePersistenceProvider("file:///tmp/data"))
	assert.Equal(t, "file", parsePersistenceProvider("./data"))
	assert.Equal(t, "file", parsePersistenceProvider("mongodb://localhost"))
}

func TestNewPersistence_File(t *testing.T) {
	store, err := NewPersistence(t.Context(), slog.Default(), "file://"+t.TempDir(), "", 0)
	require.NoError(t, err)

	assert.IsType(t, &file.Persistence{}, store)
	require.NoError(t, store.HealthCheck(t.Context()))
}

func TestNewEventBus(t *testing.T) {
	bus, err := NewEventBus("", "", slog.Default())
	require.NoError(t, err)
	require.NoError(t, bus.Close())

	_, err = NewEventBus("kafka", "", slog.Default())
	require.Error(t, err)

	_, err = NewEventBus("rabbitmq", "", slog.Default())
	require.ErrorContains(t, err, "unsupported event bus provider")
}

func TestNewDateResolver_WithoutKey(t *testing.T) {
	resolver := NewDateResolver(slog.Default(), nil, OracleConfig{Timeout: time.Second})

	result := resolver.ResolveWithOracle(t.Context(), "tomorrow")
	assert.False(t, result.Success)
}

func TestNewClassifier(t *testing.T) {
	classifier, err := NewClassifier(slog.Default(), "")
	require.NoError(t, err)
	assert.NotNil(t, classifier)

	path := filepath.Join(t.TempDir(), "patterns.yaml")
	require.NoError(t, os.WriteFile(path, []byte("add:\n  - pattern: '(unclosed'\n"), 0o600))

	_, err = NewClassifier(slog.Default(), path)
	require.ErrorContains(t, err, "add pattern 0")
}
