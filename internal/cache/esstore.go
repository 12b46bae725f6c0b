// internal/cache/esstore.go
package cache

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"mentionscope/internal/common/config"
	"mentionscope/internal/common/logger"
	"mentionscope/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
)

// ElasticStore persists the snapshot as a single document in an index,
// keyed by the configured document id.
type ElasticStore struct {
	client *elasticsearch.Client
	index  string
	docID  string
	logger logger.Logger
}

// NewElasticStore connects an Elasticsearch-backed store.
func NewElasticStore(cfg config.ElasticsearchConfig, cacheCfg config.CacheConfig, log logger.Logger) (*ElasticStore, error) {
	esCfg := elasticsearch.Config{
		Addresses: cfg.Addresses,
	}
	if cfg.Username != "" {
		esCfg.Username = cfg.Username
		esCfg.Password = cfg.Password
	}

	es, err := elasticsearch.NewClient(esCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create elasticsearch client: %w", err)
	}

	return &ElasticStore{
		client: es,
		index:  cfg.Index,
		docID:  cacheCfg.Key,
		logger: log,
	}, nil
}

// Ping tests the Elasticsearch connection.
func (s *ElasticStore) Ping() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	res, err := s.client.Ping(s.client.Ping.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("elasticsearch ping failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("elasticsearch ping error: %s", res.Status())
	}
	return nil
}

// Load reads the snapshot document, returning ErrNotFound when absent.
func (s *ElasticStore) Load(ctx context.Context) (*models.CacheDocument, error) {
	res, err := s.client.Get(s.index, s.docID, s.client.Get.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot %s/%s: %w", s.index, s.docID, err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if res.IsError() {
		return nil, fmt.Errorf("failed to read snapshot %s/%s: %s", s.index, s.docID, res.Status())
	}

	var envelope struct {
		Found  bool                 `json:"found"`
		Source models.CacheDocument `json:"_source"`
	}
	if err := json.NewDecoder(res.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot %s/%s: %w", s.index, s.docID, err)
	}
	if !envelope.Found {
		return nil, ErrNotFound
	}
	return &envelope.Source, nil
}

// Save indexes the snapshot document, replacing the previous version.
func (s *ElasticStore) Save(ctx context.Context, doc *models.CacheDocument) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	res, err := s.client.Index(
		s.index,
		bytes.NewReader(data),
		s.client.Index.WithDocumentID(s.docID),
		s.client.Index.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("failed to write snapshot %s/%s: %w", s.index, s.docID, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("failed to write snapshot %s/%s: %s", s.index, s.docID, res.Status())
	}
	return nil
}
