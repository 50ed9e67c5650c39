// Package cmd provides common initialization functions for command-line
// applications.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dukex/textpipe/pkg/persistence"
	"github.com/dukex/textpipe/pkg/persistence/file"
	"github.com/dukex/textpipe/pkg/persistence/postgresql"
)

// NewPersistence builds a persistence backend from a database URL. A
// postgres:// or postgresql:// URL selects the PostgreSQL backend; anything
// else falls back to the file backend rooted at the URL path.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) persistence.Persistence {
	switch parsePersistenceProvider(databaseURL) {
	case "postgres", "postgresql":
		p, err := postgresql.NewPersistence(ctx, logger, databaseURL)
		if err != nil {
			panic(fmt.Errorf("failed to create PostgreSQL persistence: %w", err))
		}

		return p
	default:
		return file.NewPersistence(databaseURL)
	}
}

func parsePersistenceProvider(databaseURL string) string {
	provider, _, found := strings.Cut(databaseURL, "://")
	if !found {
		return "file"
	}

	return provider
}
