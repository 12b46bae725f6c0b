// internal/enrich/enrich.go
package enrich

import (
	"strings"
	"time"

	"mentionscope/internal/actors"
	"mentionscope/internal/common/config"
	"mentionscope/internal/common/logger"
	"mentionscope/internal/models"
	"mentionscope/internal/textutil"
)

// Enricher applies the normalization stage: time-window filtering, geo
// inference and actor backfill for store sources. Identity fields are
// never touched.
type Enricher struct {
	biz      config.BusinessConfig
	registry *actors.Registry
	logger   logger.Logger
	now      func() time.Time

	domainGeo map[string]string // site domain -> geo name
}

// New builds an enricher over the merged business configuration.
func New(biz config.BusinessConfig, registry *actors.Registry, log logger.Logger) *Enricher {
	domainGeo := make(map[string]string)
	for _, geo := range biz.Geographies {
		for _, d := range geo.Domains {
			domainGeo[strings.ToLower(d)] = geo.Name
		}
	}
	return &Enricher{
		biz:       biz,
		registry:  registry,
		logger:    log,
		now:       time.Now,
		domainGeo: domainGeo,
	}
}

// Enrich processes the batch and returns the mentions that survive the
// time-window filter, each stamped with inferred geo/actor signals.
func (e *Enricher) Enrich(batch []models.Mention) []models.Mention {
	cutoff := e.now().AddDate(0, 0, -e.lookbackDays())
	out := make([]models.Mention, 0, len(batch))

	for _, m := range batch {
		if m.CollectedAt == "" {
			m.CollectedAt = e.now().UTC().Format(time.RFC3339)
		}
		if d := m.EffectiveDate(); !d.IsZero() && d.Before(cutoff) {
			continue
		}

		e.backfillStoreActor(&m)
		if m.Actor != "" {
			m.Actor = e.registry.Canonicalize(m.Actor)
		}
		if m.Geo == "" {
			e.inferGeo(&m)
		}

		out = append(out, m)
	}
	return out
}

func (e *Enricher) lookbackDays() int {
	if e.biz.LookbackDays > 0 {
		return e.biz.LookbackDays
	}
	return 730
}

// inferGeo tries the inference methods in confidence order; the first
// match wins and stamps its provenance into the geoSource signal.
func (e *Enricher) inferGeo(m *models.Mention) {
	if geo, ok := e.geoFromActor(m); ok {
		m.Geo = geo
		m.Signals.GeoSource = models.GeoFromActor
		return
	}
	if geo, ok := e.geoFromContent(m); ok {
		m.Geo = geo
		m.Signals.GeoSource = models.GeoFromContent
		return
	}
	if geo, ok := e.geoFromSourceDomain(m); ok {
		m.Geo = geo
		m.Signals.GeoSource = models.GeoFromSource
	}
}

// geoFromActor inherits the geo when exactly one geography claims the
// mention's actor.
func (e *Enricher) geoFromActor(m *models.Mention) (string, bool) {
	if m.Actor == "" {
		return "", false
	}
	geos := e.registry.GeosClaiming(m.Actor)
	if len(geos) == 1 {
		return geos[0], true
	}
	return "", false
}

// geoFromContent scans the title first, then title+body, for a configured
// geography name or alias. Short aliases match as whole tokens only.
func (e *Enricher) geoFromContent(m *models.Mention) (string, bool) {
	for _, text := range []string{m.Title, m.Title + " " + m.Text} {
		if text == "" || strings.TrimSpace(text) == "" {
			continue
		}
		for _, geo := range e.biz.Geographies {
			terms := append([]string{geo.Name}, geo.Aliases...)
			if _, ok := textutil.ContainsAny(text, terms); ok {
				return geo.Name, true
			}
		}
	}
	return "", false
}

// geoFromSourceDomain maps the publishing site to a geo via the configured
// domain table, checking the URL, the site signal, and domain-like
// substrings found in the title and body.
func (e *Enricher) geoFromSourceDomain(m *models.Mention) (string, bool) {
	candidates := []string{
		textutil.DomainOf(m.URL),
		textutil.DomainOf(m.Signals.Site),
	}
	for _, field := range []string{m.Title, m.Text} {
		for _, word := range strings.Fields(field) {
			if d := textutil.DomainOf(word); d != "" {
				candidates = append(candidates, d)
			}
		}
	}

	for _, domain := range candidates {
		if domain == "" {
			continue
		}
		if geo, ok := e.lookupDomain(domain); ok {
			return geo, true
		}
	}
	return "", false
}

// lookupDomain matches the domain or any of its parent domains against
// the configured table, so "m.news.example.cl" hits an "example.cl" entry.
func (e *Enricher) lookupDomain(domain string) (string, bool) {
	for domain != "" {
		if geo, ok := e.domainGeo[domain]; ok {
			return geo, true
		}
		i := strings.Index(domain, ".")
		if i < 0 {
			break
		}
		rest := domain[i+1:]
		if !strings.Contains(rest, ".") {
			break
		}
		domain = rest
	}
	return "", false
}

// backfillStoreActor stamps the actor for app-store/play-store mentions
// carrying an authoritative listing identifier. Exact match only; text
// inference never applies to store sources.
func (e *Enricher) backfillStoreActor(m *models.Mention) {
	if m.Actor != "" {
		return
	}
	src, ok := e.biz.SourceFor(m.Source)
	if !ok || src.StoreKind == "" {
		return
	}

	switch src.StoreKind {
	case "app":
		if m.Signals.AppID != "" {
			if actor, ok := e.biz.AppActors[m.Signals.AppID]; ok {
				m.Actor = actor
				m.Signals.ActorSource = "app_id"
			}
		}
	case "play":
		if m.Signals.PackageID != "" {
			if actor, ok := e.biz.PkgActors[m.Signals.PackageID]; ok {
				m.Actor = actor
				m.Signals.ActorSource = "package_id"
			}
		}
	}
}
