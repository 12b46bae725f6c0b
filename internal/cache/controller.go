// internal/cache/controller.go
package cache

import (
	"time"

	"mentionscope/internal/common/logger"
	"mentionscope/internal/common/metrics"
	"mentionscope/internal/models"
)

// Controller is the reuse gate over the persisted snapshot. A snapshot is
// reused only when nothing could have changed it: same configuration
// hash, within the TTL, not forced, and no collectors active this run.
type Controller struct {
	ttl    time.Duration
	now    func() time.Time
	logger logger.Logger
}

// NewController builds the reuse gate for the configured TTL.
func NewController(ttlHours int, log logger.Logger) *Controller {
	return &Controller{
		ttl:    time.Duration(ttlHours) * time.Hour,
		now:    time.Now,
		logger: log,
	}
}

// ShouldReuse decides whether the existing snapshot can serve this run.
func (c *Controller) ShouldReuse(existing *models.CacheDocument, configHash string, force bool, activeCollectors int) bool {
	reason := c.evaluate(existing, configHash, force, activeCollectors)
	if reason == "" {
		metrics.CacheReuse.WithLabelValues("reuse").Inc()
		c.logger.Info("reusing cached snapshot", map[string]interface{}{
			"generatedAt": existing.GeneratedAt,
		})
		return true
	}

	metrics.CacheReuse.WithLabelValues("refresh").Inc()
	c.logger.Info("refreshing snapshot", map[string]interface{}{"reason": reason})
	return false
}

// evaluate returns the first refresh reason, or "" when the snapshot may
// be reused.
func (c *Controller) evaluate(existing *models.CacheDocument, configHash string, force bool, activeCollectors int) string {
	if force {
		return "forced"
	}
	if existing == nil {
		return "no_snapshot"
	}
	if existing.ConfigHash != configHash {
		return "config_changed"
	}
	generated, err := time.Parse(time.RFC3339, existing.GeneratedAt)
	if err != nil {
		return "unparseable_timestamp"
	}
	if c.now().Sub(generated) >= c.ttl {
		return "expired"
	}
	if activeCollectors > 0 {
		return "collectors_active"
	}
	return ""
}
