// Package cmd wires shared infrastructure for the binaries: store and event
// bus construction from configuration values.
package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/landdiv/landflow/pkg/store"
	"github.com/landdiv/landflow/pkg/store/file"
	"github.com/landdiv/landflow/pkg/store/mongodb"
	"github.com/landdiv/landflow/pkg/store/postgresql"
)

var supportedStoreProviders = []string{"file", "postgres", "postgresql", "mongodb"}

// NewStore creates a document store from a database URL, selected by scheme.
// Anything without a recognized scheme is treated as a file path.
func NewStore(ctx context.Context, databaseURL string) (store.Store, error) {
	switch parseStoreProvider(databaseURL) {
	case "postgres", "postgresql":
		return postgresql.NewStore(ctx, databaseURL)
	case "mongodb":
		return mongodb.NewStore(ctx, databaseURL)
	default:
		return file.NewStore(databaseURL), nil
	}
}

func parseStoreProvider(databaseURL string) string {
	provider, _, found := strings.Cut(databaseURL, "://")
	if !found {
		return "file"
	}

	for _, supported := range supportedStoreProviders {
		if provider == supported {
			return provider
		}
	}

	return "file"
}

// MustNewStore is NewStore for main wiring paths where a broken database URL
// is fatal.
func MustNewStore(ctx context.Context, databaseURL string) store.Store {
	s, err := NewStore(ctx, databaseURL)
	if err != nil {
		panic(fmt.Errorf("failed to create store: %w", err))
	}

	return s
}
