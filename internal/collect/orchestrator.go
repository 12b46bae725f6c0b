// internal/collect/orchestrator.go
package collect

import (
	"context"
	"fmt"
	"sync"
	"time"

	stderrors "mentionscope/internal/common/errors"
	"mentionscope/internal/common/logger"
	"mentionscope/internal/common/metrics"
	"mentionscope/internal/models"
)

// DefaultWorkers bounds concurrent collector invocations when the
// configuration does not say otherwise.
const DefaultWorkers = 6

// Progress is invoked once per completed or abandoned collector.
// Callbacks are advisory; a lost callback must not affect correctness.
type Progress func(done, total int, collector string)

// Orchestrator runs collectors concurrently with a bounded worker count
// and a per-collector timeout. One collector's failure or hang never
// blocks or fails the batch.
//
// A collector past its timeout is abandoned: its result channel is
// buffered so the late send completes, but the output is discarded. The
// collector's own goroutine leaks if the underlying call ignores context
// cancellation; the contract is "ignore late results", not "guarantee
// resource reclamation".
type Orchestrator struct {
	workers          int
	timeout          time.Duration
	slowness         time.Duration
	forceDiagnostics bool
	logger           logger.Logger
}

// NewOrchestrator builds a fetch orchestrator. Zero workers falls back to
// DefaultWorkers.
func NewOrchestrator(workers int, timeout, slowness time.Duration, forceDiagnostics bool, log logger.Logger) *Orchestrator {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &Orchestrator{
		workers:          workers,
		timeout:          timeout,
		slowness:         slowness,
		forceDiagnostics: forceDiagnostics,
		logger:           log,
	}
}

type collectResult struct {
	mentions []models.Mention
	err      error
}

// Fetch runs every collector and returns the combined batch. Per-collector
// failures, timeouts and panics become diagnostic notes, never errors.
func (o *Orchestrator) Fetch(ctx context.Context, collectors []Named, notes *stderrors.NoteCollector, progress Progress) []models.Mention {
	total := len(collectors)
	if total == 0 {
		return nil
	}

	var (
		mu    sync.Mutex
		wg    sync.WaitGroup
		batch []models.Mention
		done  int
		sem   = make(chan struct{}, o.workers)
	)

	report := func(name string) {
		mu.Lock()
		done++
		d := done
		mu.Unlock()
		if progress != nil {
			progress(d, total, name)
		}
	}

	for _, nc := range collectors {
		wg.Add(1)
		go func(nc Named) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			start := time.Now()
			mentions, err := o.runOne(ctx, nc)
			elapsed := time.Since(start)
			metrics.CollectorDuration.WithLabelValues(nc.Name).Observe(elapsed.Seconds())

			switch {
			case err != nil:
				notes.AddError(nc.Name, err)
				o.logger.Warn("collector failed", map[string]interface{}{
					"collector": nc.Name,
					"error":     err.Error(),
				})
			default:
				metrics.CollectorRuns.WithLabelValues(nc.Name, "ok").Inc()
				if elapsed > o.slowness || o.forceDiagnostics {
					notes.Add(fmt.Sprintf("%s: %d items in %.1fs", nc.Name, len(mentions), elapsed.Seconds()))
				}
				o.logger.Info("collector finished", map[string]interface{}{
					"collector": nc.Name,
					"items":     len(mentions),
					"elapsedMs": elapsed.Milliseconds(),
				})
				mu.Lock()
				batch = append(batch, mentions...)
				mu.Unlock()
			}

			report(nc.Name)
		}(nc)
	}

	wg.Wait()
	return batch
}

// runOne invokes a single collector with its own deadline, recovering
// panics and abandoning results that arrive after the deadline.
func (o *Orchestrator) runOne(ctx context.Context, nc Named) ([]models.Mention, error) {
	cctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	// Buffered so a late send never blocks the abandoned goroutine forever.
	resCh := make(chan collectResult, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				metrics.CollectorRuns.WithLabelValues(nc.Name, "panic").Inc()
				resCh <- collectResult{err: stderrors.NewCollectorPanicError(nc.Name, r)}
			}
		}()
		mentions, err := nc.Collector.Collect(cctx)
		resCh <- collectResult{mentions: mentions, err: err}
	}()

	select {
	case res := <-resCh:
		if res.err != nil {
			if se, ok := res.err.(*stderrors.StandardError); ok {
				return nil, se
			}
			metrics.CollectorRuns.WithLabelValues(nc.Name, "error").Inc()
			return nil, stderrors.NewCollectorFailedError(nc.Name, res.err)
		}
		return res.mentions, nil
	case <-cctx.Done():
		metrics.CollectorRuns.WithLabelValues(nc.Name, "timeout").Inc()
		return nil, stderrors.NewCollectorTimeoutError(nc.Name, o.timeout)
	}
}
