// internal/cache/esstore_test.go
package cache

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mentionscope/internal/common/config"
	"mentionscope/internal/common/logger"
	"mentionscope/internal/models"
)

// fakeElastic is a minimal single-document Elasticsearch stand-in.
type fakeElastic struct {
	mu  sync.Mutex
	doc *models.CacheDocument
}

func (f *fakeElastic) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")

		f.mu.Lock()
		defer f.mu.Unlock()

		switch r.Method {
		case http.MethodGet, http.MethodHead:
			if f.doc == nil {
				w.WriteHeader(http.StatusNotFound)
				json.NewEncoder(w).Encode(map[string]interface{}{"found": false})
				return
			}
			json.NewEncoder(w).Encode(map[string]interface{}{
				"found":   true,
				"_source": f.doc,
			})
		case http.MethodPut, http.MethodPost:
			var doc models.CacheDocument
			require.NoError(t, json.NewDecoder(r.Body).Decode(&doc))
			f.doc = &doc
			json.NewEncoder(w).Encode(map[string]interface{}{"result": "created"})
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	}
}

func testElasticStore(t *testing.T) (*ElasticStore, *fakeElastic) {
	t.Helper()
	fake := &fakeElastic{}
	server := httptest.NewServer(fake.handler(t))
	t.Cleanup(server.Close)

	store, err := NewElasticStore(
		config.ElasticsearchConfig{Addresses: []string{server.URL}, Index: "mentionscope"},
		config.CacheConfig{Key: "snapshot"},
		logger.NewTest(t),
	)
	require.NoError(t, err)
	return store, fake
}

func TestElasticStoreRoundTrip(t *testing.T) {
	store, _ := testElasticStore(t)

	require.NoError(t, store.Save(context.Background(), sampleDocument()))

	loaded, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, sampleDocument(), loaded)
}

func TestElasticStoreMissing(t *testing.T) {
	store, _ := testElasticStore(t)
	_, err := store.Load(context.Background())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestElasticStoreReplacesDocument(t *testing.T) {
	store, fake := testElasticStore(t)

	require.NoError(t, store.Save(context.Background(), sampleDocument()))

	updated := sampleDocument()
	updated.ConfigHash = "def456"
	require.NoError(t, store.Save(context.Background(), updated))

	assert.Equal(t, "def456", fake.doc.ConfigHash)
}
