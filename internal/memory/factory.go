package memory

import (
	"context"
	"fmt"

	"github.com/Domnoval/THE-37TH-MOVE/internal/storage"
)

// NewStore creates a postgres or sqlite backed store when configured, otherwise in-memory.
func NewStore(ctx context.Context, databaseURL string) (Store, error) {
	backend, dsn, err := storage.Classify(databaseURL)
	if err != nil {
		return nil, err
	}
	switch backend {
	case storage.BackendPostgres:
		return NewPostgresStore(ctx, dsn)
	case storage.BackendSQLite:
		return NewSQLiteStore(ctx, dsn)
	case storage.BackendMemory:
		return NewInMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unsupported memory backend %q", backend)
	}
}
