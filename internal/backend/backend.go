// Package backend selects the storage implementation from configuration.
package backend

import (
	"fmt"
	"log/slog"

	"contas/internal/config"
	"contas/internal/storage"
	"contas/internal/storage/memory"
)

// Open creates the store named by cfg.DataBackend. The caller owns Close.
func Open(cfg *config.Config) (storage.Store, error) {
	switch cfg.DataBackend {
	case "sqlite":
		store, err := storage.NewSQLiteStore(cfg.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("initialize sqlite store: %w", err)
		}
		slog.Info("Initialized sqlite backend", "db_path", cfg.SQLiteDBPath)
		return store, nil
	case "memory":
		slog.Info("Initialized memory backend")
		return memory.NewStore(), nil
	default:
		return nil, fmt.Errorf("invalid data backend: %s", cfg.DataBackend)
	}
}
