// internal/collect/registry.go
package collect

import (
	"sort"
	"sync"

	"mentionscope/internal/common/config"
	"mentionscope/internal/common/logger"
)

// Builder constructs the collector for one configured source. Concrete
// source adapters register themselves from init in deployment builds.
type Builder func(name string, src config.SourceEntry, log logger.Logger) (Collector, error)

var (
	buildersMu sync.RWMutex
	builders   = map[string]Builder{}
)

// Register makes a builder available under a source name. Registering the
// same name twice replaces the earlier builder.
func Register(name string, b Builder) {
	buildersMu.Lock()
	defer buildersMu.Unlock()
	builders[name] = b
}

// Build instantiates collectors for every enabled source with a
// registered builder. Enabled sources without a builder are skipped with
// a warning; they can still be served from the cached snapshot.
func Build(biz config.BusinessConfig, log logger.Logger) []Named {
	buildersMu.RLock()
	defer buildersMu.RUnlock()

	names := make([]string, 0, len(builders))
	for name := range builders {
		names = append(names, name)
	}
	sort.Strings(names)

	var out []Named
	for _, name := range names {
		src, ok := biz.SourceFor(name)
		if !ok || !src.Enabled {
			continue
		}
		c, err := builders[name](name, src, log)
		if err != nil {
			log.Warn("collector builder failed", map[string]interface{}{
				"source": name,
				"error":  err.Error(),
			})
			continue
		}
		out = append(out, Named{Name: name, Collector: c})
	}

	for _, name := range biz.EnabledSources() {
		if _, ok := builders[name]; !ok {
			log.Warn("no collector registered for enabled source", map[string]interface{}{
				"source": name,
			})
		}
	}
	return out
}
