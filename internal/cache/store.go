// internal/cache/store.go
package cache

import (
	"context"
	"errors"
	"fmt"

	"mentionscope/internal/common/config"
	"mentionscope/internal/common/logger"
	"mentionscope/internal/models"
)

// ErrNotFound is returned by Load when no snapshot has been persisted yet.
var ErrNotFound = errors.New("cache: snapshot not found")

// Store persists the snapshot document. The document is read wholesale at
// the start of a run and rewritten wholesale at the end; stores never do
// partial updates.
type Store interface {
	Load(ctx context.Context) (*models.CacheDocument, error)
	Save(ctx context.Context, doc *models.CacheDocument) error
}

// NewStore builds the configured snapshot store.
func NewStore(cfg config.Config, log logger.Logger) (Store, error) {
	switch cfg.Cache.Store {
	case "file":
		return NewFileStore(cfg.Cache.Path), nil
	case "redis":
		return NewRedisStore(cfg.Database.Redis, cfg.Cache, log)
	case "elasticsearch":
		return NewElasticStore(cfg.Database.Elasticsearch, cfg.Cache, log)
	default:
		return nil, fmt.Errorf("unknown cache store %q", cfg.Cache.Store)
	}
}
