// internal/actors/registry.go
package actors

import (
	"sort"
	"sync"

	"mentionscope/internal/common/config"
	"mentionscope/internal/textutil"
)

// Registry resolves free-text actor names to canonical identities via the
// configured alias tables. Canonicalize is best-effort normalization, not a
// membership test: unknown names pass through unchanged.
type Registry struct {
	principal  string
	toCanon    map[string]string   // folded alias -> canonical
	fromCanon  map[string][]string // canonical -> searchable terms (canonical first)
	actorGeos  map[string][]string // canonical -> geos claiming the actor
	geoAllowed map[string]map[string]bool // geo -> allowed canonical set (nil = no list)
}

// New builds a registry from the merged business configuration. With no
// principal configured it falls back to the first alias-map entry; with
// neither, lookups return empty results rather than erroring.
func New(biz config.BusinessConfig) *Registry {
	r := &Registry{
		toCanon:    make(map[string]string),
		fromCanon:  make(map[string][]string),
		actorGeos:  make(map[string][]string),
		geoAllowed: make(map[string]map[string]bool),
	}

	r.addActor(biz.Principal.Name, biz.Principal.Aliases)
	r.principal = biz.Principal.Name

	for _, a := range biz.Actors {
		r.addActor(a.Name, a.Aliases)
		for _, geo := range a.Geos {
			r.claim(a.Name, geo)
		}
	}

	// Free-form alias maps; sorted for a deterministic principal fallback.
	canons := make([]string, 0, len(biz.Aliases))
	for canon := range biz.Aliases {
		canons = append(canons, canon)
	}
	sort.Strings(canons)
	for _, canon := range canons {
		r.addActor(canon, biz.Aliases[canon])
	}
	if r.principal == "" && len(canons) > 0 {
		r.principal = canons[0]
	}

	for _, geo := range biz.Geographies {
		if len(geo.AllowedActors) == 0 {
			continue
		}
		allowed := make(map[string]bool, len(geo.AllowedActors))
		for _, name := range geo.AllowedActors {
			canon := r.Canonicalize(name)
			allowed[canon] = true
			r.claim(canon, geo.Name)
		}
		r.geoAllowed[textutil.Fold(geo.Name)] = allowed
	}

	return r
}

func (r *Registry) addActor(name string, aliases []string) {
	if name == "" {
		return
	}
	key := textutil.Fold(name)
	if _, exists := r.fromCanon[name]; !exists {
		r.fromCanon[name] = []string{name}
	}
	if _, exists := r.toCanon[key]; !exists {
		r.toCanon[key] = name
	}
	for _, alias := range aliases {
		ak := textutil.Fold(alias)
		if ak == "" {
			continue
		}
		if _, exists := r.toCanon[ak]; !exists {
			r.toCanon[ak] = name
		}
		r.fromCanon[name] = append(r.fromCanon[name], alias)
	}
	r.fromCanon[name] = textutil.Dedup(r.fromCanon[name])
}

func (r *Registry) claim(actor, geo string) {
	for _, g := range r.actorGeos[actor] {
		if g == geo {
			return
		}
	}
	r.actorGeos[actor] = append(r.actorGeos[actor], geo)
}

// Canonicalize returns the canonical spelling for a free-text actor name,
// or the input unchanged when no alias matches.
func (r *Registry) Canonicalize(name string) string {
	if canon, ok := r.toCanon[textutil.Fold(name)]; ok {
		return canon
	}
	return name
}

// Principal returns the canonical principal actor name, or "".
func (r *Registry) Principal() string {
	return r.principal
}

// PrincipalTerms returns the deduplicated union of the principal's
// canonical name and all its aliases, used to seed search queries.
func (r *Registry) PrincipalTerms() []string {
	if r.principal == "" {
		return nil
	}
	return r.TermsFor(r.principal)
}

// TermsFor returns the searchable terms for a canonical actor: the
// canonical name first, then its aliases.
func (r *Registry) TermsFor(canonical string) []string {
	terms := r.fromCanon[r.Canonicalize(canonical)]
	out := make([]string, len(terms))
	copy(out, terms)
	return out
}

// IsKnown reports whether the name resolves to a configured actor.
func (r *Registry) IsKnown(name string) bool {
	_, ok := r.toCanon[textutil.Fold(name)]
	return ok
}

// GeosClaiming returns the geographies affiliated with the actor, either
// via per-actor geo scoping or a geography's allow-list.
func (r *Registry) GeosClaiming(actor string) []string {
	geos := r.actorGeos[r.Canonicalize(actor)]
	out := make([]string, len(geos))
	copy(out, geos)
	return out
}

// AllowedInGeo reports whether the actor may appear in the geography.
// A geography without an allow-list accepts every actor.
func (r *Registry) AllowedInGeo(actor, geo string) bool {
	allowed, ok := r.geoAllowed[textutil.Fold(geo)]
	if !ok {
		return true
	}
	return allowed[r.Canonicalize(actor)]
}

// HasGeoAllowList reports whether the geography configures an allow-list.
func (r *Registry) HasGeoAllowList(geo string) bool {
	_, ok := r.geoAllowed[textutil.Fold(geo)]
	return ok
}

// Cache owns one registry instance per config hash. It replaces the
// source's module-level alias cache keyed by file mtime: invalidation is
// explicit via the loader's hash, never filesystem polling.
type Cache struct {
	mu       sync.Mutex
	hash     string
	registry *Registry
}

// For returns the cached registry when hash matches the cached one,
// rebuilding it otherwise.
func (c *Cache) For(biz config.BusinessConfig, hash string) *Registry {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.registry == nil || c.hash != hash {
		c.registry = New(biz)
		c.hash = hash
	}
	return c.registry
}
