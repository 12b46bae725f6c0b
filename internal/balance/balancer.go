// internal/balance/balancer.go
package balance

import (
	"context"
	"sort"
	"strings"

	"mentionscope/internal/actors"
	"mentionscope/internal/common/config"
	"mentionscope/internal/common/logger"
	"mentionscope/internal/common/metrics"
	"mentionscope/internal/merge"
	"mentionscope/internal/models"
	"mentionscope/internal/textutil"
)

// Query targets one under-represented coverage cell through one
// query-capable source.
type Query struct {
	Source string
	Actor  string
	Geo    string
	Text   string
}

// RoundFunc runs one collection round for the synthesized queries and
// returns the fully processed new mentions. The pipeline wires this to
// the query-capable collectors plus the enrichment, filter and sentiment
// stages, so every balancer pass sees pipeline-grade items.
type RoundFunc func(ctx context.Context, queries []Query) []models.Mention

// Balancer is the iterative query-expansion loop guaranteeing a minimum
// sample size per (geography, actor) cell. It is a bounded best-effort
// fixpoint: it stops at the pass cap, when every cell meets its minimum,
// or immediately when a pass makes no progress.
type Balancer struct {
	biz      config.BusinessConfig
	registry *actors.Registry
	logger   logger.Logger
}

// New builds a balancer over the merged business configuration.
func New(biz config.BusinessConfig, registry *actors.Registry, log logger.Logger) *Balancer {
	return &Balancer{biz: biz, registry: registry, logger: log}
}

// Balance runs up to MaxPasses rounds and returns the merged result plus
// the number of passes executed.
func (b *Balancer) Balance(ctx context.Context, current []models.Mention, round RoundFunc) ([]models.Mention, int) {
	floors := b.biz.Balancer
	if floors.MinPerGeo <= 0 && floors.MinPerActor <= 0 {
		return current, 0
	}
	sources := b.querySources()
	if len(sources) == 0 {
		return current, 0
	}

	passes := 0
	for passes < floors.MaxPasses {
		deficitGeos, deficitActors := b.deficits(current)
		if len(deficitGeos) == 0 && len(deficitActors) == 0 {
			break
		}

		queries := b.buildQueries(sources, deficitGeos, deficitActors)
		if len(queries) == 0 {
			break
		}

		passes++
		metrics.BalancerPasses.Inc()
		b.logger.Info("balancer pass", map[string]interface{}{
			"pass":          passes,
			"deficitGeos":   deficitGeos,
			"deficitActors": deficitActors,
			"queries":       len(queries),
		})

		added := round(ctx, queries)
		if len(added) == 0 {
			// A pass that produced nothing cannot make the next one
			// better; a cell's minimum may simply be unreachable.
			break
		}

		mergedBatch := merge.Mentions(current, added)
		if len(mergedBatch) == len(current) {
			break // only already-known identities came back
		}
		current = mergedBatch
	}

	return current, passes
}

// deficits computes the under-represented geos and actors from the
// current merged state.
func (b *Balancer) deficits(current []models.Mention) ([]string, []string) {
	geoCount := make(map[string]int)
	actorCount := make(map[string]int)
	for _, m := range current {
		if m.Geo != "" {
			geoCount[textutil.Fold(m.Geo)]++
		}
		if m.Actor != "" {
			actorCount[textutil.Fold(m.Actor)]++
		}
	}

	var geos []string
	if b.biz.Balancer.MinPerGeo > 0 {
		for _, g := range b.biz.Geographies {
			if geoCount[textutil.Fold(g.Name)] < b.biz.Balancer.MinPerGeo {
				geos = append(geos, g.Name)
			}
		}
	}

	var lagging []string
	if b.biz.Balancer.MinPerActor > 0 {
		for _, name := range b.trackedActors() {
			if actorCount[textutil.Fold(name)] < b.biz.Balancer.MinPerActor {
				lagging = append(lagging, name)
			}
		}
	}

	return geos, lagging
}

func (b *Balancer) trackedActors() []string {
	var out []string
	if p := b.registry.Principal(); p != "" {
		out = append(out, p)
	}
	for _, a := range b.biz.Actors {
		out = append(out, a.Name)
	}
	return textutil.Dedup(out)
}

// querySources returns the enabled sources capable of arbitrary queries,
// sorted for deterministic fan-out.
func (b *Balancer) querySources() []string {
	var out []string
	for name, src := range b.biz.Sources {
		if src.Enabled && src.SupportsQuery {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// buildQueries expands the configured templates for the deficit cells,
// bounded by the per-pass and per-source caps.
func (b *Balancer) buildQueries(sources, deficitGeos, deficitActors []string) []Query {
	principal := b.registry.Principal()

	type cell struct{ actor, geo string }
	var cells []cell
	for _, geo := range deficitGeos {
		cells = append(cells, cell{actor: principal, geo: geo})
	}
	for _, actor := range deficitActors {
		cells = append(cells, cell{actor: actor})
	}

	term := ""
	if len(b.biz.Vocabulary.ContextTerms) > 0 {
		term = b.biz.Vocabulary.ContextTerms[0]
	}

	var out []Query
	perSource := make(map[string]int, len(sources))
	for _, c := range cells {
		if c.actor == "" && c.geo == "" {
			continue
		}
		text := b.expandTemplate(c.actor, c.geo, term)
		if text == "" {
			continue
		}
		for _, src := range sources {
			if perSource[src] >= b.biz.Balancer.MaxPerSource {
				continue
			}
			if len(out) >= b.biz.Balancer.MaxQueriesPerPass {
				return out
			}
			out = append(out, Query{Source: src, Actor: c.actor, Geo: c.geo, Text: text})
			perSource[src]++
		}
	}
	return out
}

func (b *Balancer) expandTemplate(actor, geo, term string) string {
	template := "{actor} {geo} {term}"
	if len(b.biz.Templates) > 0 {
		template = b.biz.Templates[0]
	}
	text := strings.ReplaceAll(template, "{actor}", actor)
	text = strings.ReplaceAll(text, "{geo}", geo)
	text = strings.ReplaceAll(text, "{term}", term)
	return strings.Join(strings.Fields(text), " ")
}
