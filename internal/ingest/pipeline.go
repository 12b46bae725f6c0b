// internal/ingest/pipeline.go
package ingest

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"mentionscope/internal/actors"
	"mentionscope/internal/balance"
	"mentionscope/internal/cache"
	"mentionscope/internal/collect"
	"mentionscope/internal/common/config"
	stderrors "mentionscope/internal/common/errors"
	"mentionscope/internal/common/logger"
	"mentionscope/internal/enrich"
	"mentionscope/internal/merge"
	"mentionscope/internal/models"
	"mentionscope/internal/noise"
	"mentionscope/internal/sentiment"
)

// Progress reports pipeline milestones to the caller. Callbacks are
// advisory; a lost callback must not affect correctness.
type Progress func(stage string, pct int, meta map[string]any)

// History mirrors appended rating points into an external sink. Mirror
// failures become diagnostic notes, never run failures.
type History interface {
	Append(ctx context.Context, points []models.MarketRating) error
}

// Pipeline sequences the ingest stages over one target: load snapshot,
// reuse gate, collect, enrich, filter, classify, merge, balance, persist.
type Pipeline struct {
	cfg        *config.Config
	store      cache.Store
	history    History // nil when no mirror is configured
	collectors []collect.Named
	classifier sentiment.Classifier // nil when disabled
	logger     logger.Logger
	now        func() time.Time
}

// New assembles the pipeline. Collectors are matched to sources by name;
// collectors for disabled sources are skipped at run time.
func New(cfg *config.Config, store cache.Store, collectors []collect.Named, classifier sentiment.Classifier, history History, log logger.Logger) *Pipeline {
	return &Pipeline{
		cfg:        cfg,
		store:      store,
		history:    history,
		collectors: collectors,
		classifier: classifier,
		logger:     log,
		now:        time.Now,
	}
}

// Run executes one ingest run and returns the persisted document. A
// returned document with notes means "succeeded, possibly degraded"; a
// returned error means the run did not complete.
func (p *Pipeline) Run(ctx context.Context, force bool, progress Progress) (*models.CacheDocument, error) {
	runID := uuid.NewString()
	log := p.logger.With(map[string]interface{}{"runId": runID})
	report := func(stage string, pct int, meta map[string]any) {
		if progress != nil {
			progress(stage, pct, meta)
		}
	}
	report("load", 0, map[string]any{"runId": runID})

	existing, err := p.store.Load(ctx)
	switch {
	case errors.Is(err, cache.ErrNotFound):
		existing = nil
	case err != nil:
		// A broken prior snapshot is recoverable by re-ingesting.
		log.Warn("prior snapshot unreadable, re-ingesting", map[string]interface{}{"error": err.Error()})
		existing = nil
	}

	hash := config.Hash(p.cfg.Business)
	enabled := p.cfg.Business.EnabledSources()
	active := p.activeCollectors(enabled)

	controller := cache.NewController(p.cfg.Cache.TTLHours, log)
	if controller.ShouldReuse(existing, hash, force, len(active)) {
		doc := existing.FilterSources(enabled)
		report("reuse", 100, map[string]any{"items": len(doc.Items)})
		return doc, nil
	}

	notes := &stderrors.NoteCollector{}
	registry := actors.New(p.cfg.Business)

	report("collect", 10, map[string]any{"collectors": len(active)})
	orchestrator := collect.NewOrchestrator(
		p.cfg.Fetch.Workers,
		p.cfg.Fetch.Timeout(),
		config.GetDuration(p.cfg.Fetch.SlownessMs),
		p.cfg.Fetch.ForceDiagnostics,
		log,
	)
	batch := orchestrator.Fetch(ctx, active, notes, func(done, total int, collector string) {
		report("collect", 10+30*done/max(total, 1), map[string]any{"collector": collector})
	})

	report("enrich", 45, map[string]any{"items": len(batch)})
	enricher := enrich.New(p.cfg.Business, registry, log)
	engine := sentiment.NewEngine(p.cfg.Business, p.classifier, log)
	filter := noise.New(p.cfg.Business, registry)

	batch = p.processBatch(ctx, batch, enricher, filter, engine, notes, true)

	report("merge", 60, nil)
	var prior []models.Mention
	if existing != nil {
		prior = existing.Items
	}
	merged := merge.Mentions(prior, batch)

	report("balance", 70, nil)
	balancer := balance.New(p.cfg.Business, registry, log)
	merged, passes := balancer.Balance(ctx, merged, func(rctx context.Context, queries []balance.Query) []models.Mention {
		round := p.runQueries(rctx, orchestrator, queries, notes)
		return p.processBatch(rctx, round, enricher, filter, engine, notes, false)
	})
	if passes > 0 {
		log.Info("balancer finished", map[string]interface{}{"passes": passes})
	}

	report("ratings", 85, nil)
	latest, grown, appended := p.collectRatings(ctx, active, existing, notes)
	if p.history != nil && len(appended) > 0 {
		if err := p.history.Append(ctx, appended); err != nil {
			notes.AddError("history", stderrors.NewHistoryMirrorError(err))
			log.Warn("ratings mirror failed", map[string]interface{}{"error": err.Error()})
		}
	}

	doc := &models.CacheDocument{
		GeneratedAt:          p.now().UTC().Format(time.RFC3339),
		ConfigHash:           hash,
		SourcesEnabled:       enabled,
		Items:                merged,
		MarketRatings:        latest,
		MarketRatingsHistory: grown,
		Stats: models.RunStats{
			Total: len(merged),
			Note:  notes.Summary(),
		},
	}

	report("persist", 95, map[string]any{"items": len(merged)})
	if err := p.store.Save(ctx, doc); err != nil {
		return nil, stderrors.NewPersistenceFailedError("save snapshot", err)
	}

	log.Info("ingest run complete", map[string]interface{}{
		"items":   len(merged),
		"ratings": len(latest),
	})
	report("done", 100, map[string]any{"items": len(merged)})
	return doc, nil
}

// activeCollectors filters the registered collectors to the enabled
// source set.
func (p *Pipeline) activeCollectors(enabled []string) []collect.Named {
	allow := make(map[string]bool, len(enabled))
	for _, s := range enabled {
		allow[s] = true
	}
	var out []collect.Named
	for _, nc := range p.collectors {
		if allow[nc.Name] {
			out = append(out, nc)
		}
	}
	return out
}

// processBatch runs the sequential in-memory stages over one batch. The
// noise note is recorded only for the main batch; balancer rounds reuse
// the same filter silently.
func (p *Pipeline) processBatch(ctx context.Context, batch []models.Mention, enricher *enrich.Enricher, filter *noise.Filter, engine *sentiment.Engine, notes *stderrors.NoteCollector, noteDrops bool) []models.Mention {
	batch = enricher.Enrich(batch)
	kept, drops := filter.Apply(batch)
	if noteDrops && len(drops) > 0 {
		notes.Add(noise.Note(drops))
	}
	return engine.Apply(ctx, kept, notes)
}

// runQueries fans the balancer's targeted queries out to the
// query-capable collectors, isolating failures the same way Fetch does.
func (p *Pipeline) runQueries(ctx context.Context, orchestrator *collect.Orchestrator, queries []balance.Query, notes *stderrors.NoteCollector) []models.Mention {
	byName := make(map[string]collect.QueryCollector, len(p.collectors))
	for _, nc := range p.collectors {
		if qc, ok := nc.Collector.(collect.QueryCollector); ok {
			byName[nc.Name] = qc
		}
	}

	var targeted []collect.Named
	for _, q := range queries {
		qc, ok := byName[q.Source]
		if !ok {
			continue
		}
		query := q.Text
		targeted = append(targeted, collect.Named{
			Name: q.Source,
			Collector: collect.CollectorFunc(func(cctx context.Context) ([]models.Mention, error) {
				batch, err := qc.CollectQuery(cctx, query)
				for i := range batch {
					batch[i].Signals.Query = query
				}
				return batch, err
			}),
		})
	}
	return orchestrator.Fetch(ctx, targeted, notes, nil)
}

// collectRatings gathers aggregate listing ratings from rating-capable
// collectors, reduces them to latest-per-listing and append-merges the
// history against the prior document.
func (p *Pipeline) collectRatings(ctx context.Context, active []collect.Named, existing *models.CacheDocument, notes *stderrors.NoteCollector) (latest, grown, appended []models.MarketRating) {
	var points []models.MarketRating
	for _, nc := range active {
		rc, ok := nc.Collector.(collect.RatingCollector)
		if !ok {
			continue
		}
		rctx, cancel := context.WithTimeout(ctx, p.cfg.Fetch.Timeout())
		got, err := rc.CollectRatings(rctx)
		cancel()
		if err != nil {
			notes.AddError(nc.Name, stderrors.NewCollectorFailedError(nc.Name, err))
			continue
		}
		points = append(points, got...)
	}

	// Carry sources forward: a listing unseen this run keeps its last
	// known rating rather than vanishing from the document.
	var priorLatest, priorHistory []models.MarketRating
	if existing != nil {
		priorLatest = existing.MarketRatings
		priorHistory = existing.MarketRatingsHistory
	}
	latest = merge.LatestRatings(append(append([]models.MarketRating{}, priorLatest...), points...))
	grown, appended = merge.RatingsHistory(priorHistory, latest)
	return latest, grown, appended
}
