// internal/collect/collector.go
package collect

import (
	"context"

	"mentionscope/internal/models"
)

// Collector produces one batch of normalized mentions from an upstream
// source. Implementations live outside this core; they may be slow or fail
// and the orchestrator isolates both. Calling Collect twice for the same
// configured range should return a similar-or-overlapping batch; the
// identity-based merge handles overlap.
type Collector interface {
	Collect(ctx context.Context) ([]models.Mention, error)
}

// QueryCollector is implemented by sources capable of arbitrary queries.
// The coverage balancer only targets these.
type QueryCollector interface {
	Collector
	CollectQuery(ctx context.Context, query string) ([]models.Mention, error)
}

// RatingCollector is implemented by store-front sources that expose
// aggregate listing ratings alongside mentions.
type RatingCollector interface {
	CollectRatings(ctx context.Context) ([]models.MarketRating, error)
}

// Named pairs a collector with its source name.
type Named struct {
	Name      string
	Collector Collector
}

// CollectorFunc adapts a function to the Collector interface.
type CollectorFunc func(ctx context.Context) ([]models.Mention, error)

// Collect implements Collector.
func (f CollectorFunc) Collect(ctx context.Context) ([]models.Mention, error) {
	return f(ctx)
}
