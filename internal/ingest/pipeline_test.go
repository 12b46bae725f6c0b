// internal/ingest/pipeline_test.go
package ingest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mentionscope/internal/cache"
	"mentionscope/internal/collect"
	"mentionscope/internal/common/config"
	"mentionscope/internal/common/logger"
	"mentionscope/internal/models"
)

// memStore is an in-memory Store recording save calls.
type memStore struct {
	mu    sync.Mutex
	doc   *models.CacheDocument
	saves int
	fail  error
}

func (s *memStore) Load(_ context.Context) (*models.CacheDocument, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.doc == nil {
		return nil, cache.ErrNotFound
	}
	return s.doc, nil
}

func (s *memStore) Save(_ context.Context, doc *models.CacheDocument) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return s.fail
	}
	s.doc = doc
	s.saves++
	return nil
}

// staticCollector returns a fixed batch and counts invocations.
type staticCollector struct {
	mu      sync.Mutex
	batch   []models.Mention
	ratings []models.MarketRating
	err     error
	calls   int
}

func (c *staticCollector) Collect(_ context.Context) ([]models.Mention, error) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	return c.batch, c.err
}

func (c *staticCollector) CollectRatings(_ context.Context) ([]models.MarketRating, error) {
	return c.ratings, nil
}

func testPipelineConfig() *config.Config {
	return &config.Config{
		Fetch: config.FetchConfig{Workers: 2, TimeoutMs: 1000, SlownessMs: 10000},
		Cache: config.CacheConfig{Store: "file", TTLHours: 24},
		Business: config.BusinessConfig{
			Principal: config.ActorEntry{Name: "Acme"},
			Actors:    []config.ActorEntry{{Name: "Globex"}},
			Geographies: []config.GeoEntry{
				{Name: "Chile", Aliases: []string{"chile"}},
			},
			Sources: map[string]config.SourceEntry{
				"news": {Enabled: true},
				"app":  {Enabled: true, StoreKind: "app"},
				"old":  {Enabled: false},
			},
			Vocabulary:   config.VocabularyEntry{Triggers: []string{"outage"}, Outage: []string{"service down"}},
			LookbackDays: 730,
		},
	}
}

func recentMention(id, source, actor string) models.Mention {
	return models.Mention{
		ID:          id,
		Source:      source,
		Actor:       actor,
		Text:        "report about " + actor,
		PublishedAt: time.Now().UTC().Format(time.RFC3339),
	}
}

func TestRunPersistsDocument(t *testing.T) {
	cfg := testPipelineConfig()
	store := &memStore{}
	news := &staticCollector{batch: []models.Mention{
		recentMention("n1", "news", "Acme"),
		recentMention("n2", "news", "Globex"),
	}}

	p := New(cfg, store, []collect.Named{{Name: "news", Collector: news}}, nil, nil, logger.NewTest(t))

	doc, err := p.Run(context.Background(), false, nil)
	require.NoError(t, err)
	require.NotNil(t, doc)

	assert.Equal(t, config.Hash(cfg.Business), doc.ConfigHash)
	assert.Equal(t, []string{"app", "news"}, doc.SourcesEnabled)
	assert.Len(t, doc.Items, 2)
	assert.Equal(t, 2, doc.Stats.Total)
	for _, m := range doc.Items {
		assert.NotEmpty(t, m.Sentiment, "every item leaves the pipeline labeled")
		assert.NotEmpty(t, m.Provider)
	}
	assert.Equal(t, 1, store.saves)
	assert.Equal(t, doc, store.doc)
}

func TestRunReusesFreshSnapshot(t *testing.T) {
	cfg := testPipelineConfig()
	prior := &models.CacheDocument{
		GeneratedAt:    time.Now().UTC().Add(-time.Hour).Format(time.RFC3339),
		ConfigHash:     config.Hash(cfg.Business),
		SourcesEnabled: []string{"app", "news", "old"},
		Items: []models.Mention{
			recentMention("n1", "news", "Acme"),
			recentMention("o1", "old", "Acme"),
		},
		Stats: models.RunStats{Total: 2},
	}
	store := &memStore{doc: prior}

	// No collectors registered for this run: nothing new to fetch.
	p := New(cfg, store, nil, nil, nil, logger.NewTest(t))

	doc, err := p.Run(context.Background(), false, nil)
	require.NoError(t, err)

	assert.Equal(t, prior.GeneratedAt, doc.GeneratedAt, "reuse returns the prior snapshot")
	assert.Equal(t, []string{"app", "news"}, doc.SourcesEnabled)
	require.Len(t, doc.Items, 1, "items re-filtered to the enabled source set")
	assert.Equal(t, "n1", doc.Items[0].ID)
	assert.Equal(t, 0, store.saves, "reuse never rewrites the snapshot")
}

func TestRunRefreshesWhenCollectorsActive(t *testing.T) {
	cfg := testPipelineConfig()
	prior := &models.CacheDocument{
		GeneratedAt: time.Now().UTC().Add(-time.Hour).Format(time.RFC3339),
		ConfigHash:  config.Hash(cfg.Business),
	}
	store := &memStore{doc: prior}
	news := &staticCollector{batch: []models.Mention{recentMention("n1", "news", "Acme")}}

	p := New(cfg, store, []collect.Named{{Name: "news", Collector: news}}, nil, nil, logger.NewTest(t))

	doc, err := p.Run(context.Background(), false, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, news.calls, "an active collector forces a refresh")
	assert.NotEqual(t, prior.GeneratedAt, doc.GeneratedAt)
	assert.Equal(t, 1, store.saves)
}

func TestRunForceBypassesReuse(t *testing.T) {
	cfg := testPipelineConfig()
	prior := &models.CacheDocument{
		GeneratedAt: time.Now().UTC().Add(-time.Hour).Format(time.RFC3339),
		ConfigHash:  config.Hash(cfg.Business),
	}
	store := &memStore{doc: prior}

	p := New(cfg, store, nil, nil, nil, logger.NewTest(t))

	_, err := p.Run(context.Background(), true, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, store.saves)
}

func TestRunMergesAgainstPriorSnapshot(t *testing.T) {
	cfg := testPipelineConfig()
	priorItem := recentMention("n1", "news", "Acme")
	priorItem.Sentiment = models.SentimentNegative
	prior := &models.CacheDocument{
		GeneratedAt: time.Now().UTC().Add(-48 * time.Hour).Format(time.RFC3339), // expired
		ConfigHash:  config.Hash(cfg.Business),
		Items:       []models.Mention{priorItem},
	}
	store := &memStore{doc: prior}
	news := &staticCollector{batch: []models.Mention{
		recentMention("n1", "news", "Acme"), // same identity
		recentMention("n2", "news", "Acme"),
	}}

	p := New(cfg, store, []collect.Named{{Name: "news", Collector: news}}, nil, nil, logger.NewTest(t))

	doc, err := p.Run(context.Background(), false, nil)
	require.NoError(t, err)
	assert.Len(t, doc.Items, 2, "same identity merges, new identity appends")
}

func TestRunCollectorFailureIsDegradedNotFatal(t *testing.T) {
	cfg := testPipelineConfig()
	store := &memStore{}
	news := &staticCollector{batch: []models.Mention{recentMention("n1", "news", "Acme")}}
	broken := &staticCollector{err: errors.New("upstream 503")}

	p := New(cfg, store, []collect.Named{
		{Name: "news", Collector: news},
		{Name: "app", Collector: broken},
	}, nil, nil, logger.NewTest(t))

	doc, err := p.Run(context.Background(), false, nil)
	require.NoError(t, err, "a failed collector degrades the run, never fails it")
	assert.Len(t, doc.Items, 1)
	assert.Contains(t, doc.Stats.Note, "app")
	assert.Contains(t, doc.Stats.Note, "error")
}

func TestRunPersistenceFailureIsFatal(t *testing.T) {
	cfg := testPipelineConfig()
	store := &memStore{fail: errors.New("disk full")}
	news := &staticCollector{batch: []models.Mention{recentMention("n1", "news", "Acme")}}

	p := New(cfg, store, []collect.Named{{Name: "news", Collector: news}}, nil, nil, logger.NewTest(t))

	_, err := p.Run(context.Background(), false, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PERSISTENCE_FAILED")
}

func TestRunCollectsRatingsAndGrowsHistory(t *testing.T) {
	cfg := testPipelineConfig()
	point := models.MarketRating{
		Source: "app", Actor: "Acme", Geo: "Chile", AppID: "123",
		Rating: 4.2, RatingCount: 900,
		CollectedAt: time.Now().UTC().Format(time.RFC3339),
	}
	prior := &models.CacheDocument{
		GeneratedAt: time.Now().UTC().Add(-48 * time.Hour).Format(time.RFC3339),
		ConfigHash:  config.Hash(cfg.Business),
		MarketRatings: []models.MarketRating{
			{Source: "app", Actor: "Acme", Geo: "Chile", AppID: "123", Rating: 4.0, RatingCount: 800},
		},
		MarketRatingsHistory: []models.MarketRating{
			{Source: "app", Actor: "Acme", Geo: "Chile", AppID: "123", Rating: 4.0, RatingCount: 800},
		},
	}
	store := &memStore{doc: prior}
	app := &staticCollector{ratings: []models.MarketRating{point}}

	var mirrored []models.MarketRating
	mirror := historyFunc(func(_ context.Context, points []models.MarketRating) error {
		mirrored = append(mirrored, points...)
		return nil
	})

	p := New(cfg, store, []collect.Named{{Name: "app", Collector: app}}, nil, mirror, logger.NewTest(t))

	doc, err := p.Run(context.Background(), false, nil)
	require.NoError(t, err)

	require.Len(t, doc.MarketRatings, 1)
	assert.Equal(t, 4.2, doc.MarketRatings[0].Rating)
	assert.Len(t, doc.MarketRatingsHistory, 2, "changed value appends a history point")
	require.Len(t, mirrored, 1)
	assert.Equal(t, 4.2, mirrored[0].Rating)
}

func TestRunMirrorFailureIsNoteLevel(t *testing.T) {
	cfg := testPipelineConfig()
	store := &memStore{}
	app := &staticCollector{ratings: []models.MarketRating{{
		Source: "app", Actor: "Acme", AppID: "123", Rating: 4.2, RatingCount: 900,
	}}}

	mirror := historyFunc(func(_ context.Context, _ []models.MarketRating) error {
		return errors.New("relation missing")
	})

	p := New(cfg, store, []collect.Named{{Name: "app", Collector: app}}, nil, mirror, logger.NewTest(t))

	doc, err := p.Run(context.Background(), false, nil)
	require.NoError(t, err, "mirror failures degrade the run, never fail it")
	assert.Contains(t, doc.Stats.Note, "history")
}

func TestRunReportsProgressMilestones(t *testing.T) {
	cfg := testPipelineConfig()
	store := &memStore{}
	news := &staticCollector{batch: []models.Mention{recentMention("n1", "news", "Acme")}}

	p := New(cfg, store, []collect.Named{{Name: "news", Collector: news}}, nil, nil, logger.NewTest(t))

	var stages []string
	lastPct := -1
	monotonic := true
	_, err := p.Run(context.Background(), false, func(stage string, pct int, _ map[string]any) {
		stages = append(stages, stage)
		if pct < lastPct {
			monotonic = false
		}
		lastPct = pct
	})
	require.NoError(t, err)

	assert.Equal(t, "load", stages[0])
	assert.Equal(t, "done", stages[len(stages)-1])
	assert.Contains(t, stages, "collect")
	assert.Contains(t, stages, "persist")
	assert.True(t, monotonic, "progress percentages never go backwards")
}

// historyFunc adapts a function to the History interface.
type historyFunc func(ctx context.Context, points []models.MarketRating) error

func (f historyFunc) Append(ctx context.Context, points []models.MarketRating) error {
	return f(ctx, points)
}
