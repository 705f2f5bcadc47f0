package repository

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"smart-grocery/internal/config"
)

// ErrNotFound is returned by Load when nothing is stored under the key.
var ErrNotFound = errors.New("repository: blob not found")

// BlobStore persists opaque serialized records under fixed keys.
type BlobStore interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// NewBlobStore opens the backend selected in cfg.
func NewBlobStore(cfg config.StorageConfig, log *zap.SugaredLogger) (BlobStore, error) {
	switch cfg.Backend {
	case config.BackendSQLite:
		db, err := NewDB(cfg.DatabaseURL, log)
		if err != nil {
			return nil, err
		}
		return NewStateRepository(db), nil
	case config.BackendFile:
		return NewFileStateRepository(cfg.Dir)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
