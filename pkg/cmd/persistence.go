package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dukex/taskflow/pkg/persistence"
	"github.com/dukex/taskflow/pkg/persistence/file"
	"github.com/dukex/taskflow/pkg/persistence/postgresql"
	"github.com/dukex/taskflow/pkg/persistence/redis"
)

var supportedPersistenceProviders = []string{"file", "postgres", "postgresql"}

// NewPersistence opens the store named by databaseURL and, when cacheURL is
// set, puts a Redis conversation cache in front of it.
func NewPersistence(
	ctx context.Context,
	logger *slog.Logger,
	databaseURL string,
	cacheURL string,
	cacheTTL time.Duration,
) (persistence.Persistence, error) {
	var base persistence.Persistence

	switch parsePersistenceProvider(databaseURL) {
	case "postgres", "postgresql":
		store, err := postgresql.NewPersistence(ctx, logger, databaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to open postgres persistence: %w", err)
		}

		base = store
	default:
		base = file.NewPersistence(databaseURL)
	}

	if cacheURL == "" {
		return base, nil
	}

	client, err := redis.NewClient(ctx, logger, cacheURL)
	if err != nil {
		_ = base.Close(ctx)

		return nil, err
	}

	if cacheTTL <= 0 {
		cacheTTL = redis.DefaultTTL
	}

	return redis.WithCache(logger, base, client, cacheTTL), nil
}

func parsePersistenceProvider(databaseURL string) string {
	parts := strings.Split(databaseURL, "://")

	provider := parts[0]
	for _, supported := range supportedPersistenceProviders {
		if provider == supported {
			return provider
		}
	}

	return "file"
}
