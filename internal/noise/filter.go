// internal/noise/filter.go
package noise

import (
	"fmt"
	"sort"
	"strings"

	"mentionscope/internal/actors"
	"mentionscope/internal/common/config"
	"mentionscope/internal/common/metrics"
	"mentionscope/internal/models"
	"mentionscope/internal/textutil"
)

// Drop rule names, used as counter keys and metric labels.
const (
	RuleMissingActor   = "missing_actor"
	RuleActorNotInText = "actor_not_in_text"
	RuleMissingContext = "missing_context"
	RuleGeoNotAllowed  = "geo_not_allowed"
	RuleGuardedActor   = "guarded_actor"
	RuleNoiseTerm      = "noise_term"
)

// Filter is the multi-stage admission filter. Rules short-circuit on the
// first failure; every drop increments a named counter. Drops are
// diagnostics, never failures.
type Filter struct {
	biz      config.BusinessConfig
	registry *actors.Registry
	guards   map[string]bool
}

// New builds the filter over the merged business configuration.
func New(biz config.BusinessConfig, registry *actors.Registry) *Filter {
	guards := make(map[string]bool, len(biz.Vocabulary.GuardActors))
	for _, g := range biz.Vocabulary.GuardActors {
		guards[textutil.Fold(g)] = true
	}
	return &Filter{biz: biz, registry: registry, guards: guards}
}

// Apply returns the admitted mentions and the per-rule drop counts.
func (f *Filter) Apply(batch []models.Mention) ([]models.Mention, map[string]int) {
	kept := make([]models.Mention, 0, len(batch))
	drops := make(map[string]int)

	for _, m := range batch {
		if rule, dropped := f.check(&m); dropped {
			drops[rule]++
			metrics.MentionsDropped.WithLabelValues(rule).Inc()
			continue
		}
		kept = append(kept, m)
	}
	return kept, drops
}

// check runs the rules in order and returns the first failing rule.
func (f *Filter) check(m *models.Mention) (string, bool) {
	src, _ := f.biz.SourceFor(m.Source)
	body := m.Title + " " + m.Text
	hasContext := f.matchesContext(body)

	if src.ActorRequired {
		if m.Actor == "" && !f.hasActorHint(m) {
			return RuleMissingActor, true
		}
		if m.Actor != "" && !f.actorInText(m.Actor, body) {
			return RuleActorNotInText, true
		}
	}

	if src.ContextRequired && !hasContext {
		return RuleMissingContext, true
	}

	// Cross-market bleed guard: only recognized actors are subject to the
	// per-geography allow-list; unknown actors pass through unfiltered.
	if m.Actor != "" && m.Geo != "" &&
		f.registry.IsKnown(m.Actor) &&
		f.registry.HasGeoAllowList(m.Geo) &&
		!f.registry.AllowedInGeo(m.Actor, m.Geo) {
		return RuleGeoNotAllowed, true
	}

	if m.Actor != "" && f.guards[textutil.Fold(m.Actor)] && !hasContext {
		return RuleGuardedActor, true
	}

	if _, noisy := textutil.ContainsAny(body, f.biz.Vocabulary.NoiseTerms); noisy && !hasContext {
		return RuleNoiseTerm, true
	}

	return "", false
}

func (f *Filter) matchesContext(text string) bool {
	if len(f.biz.Vocabulary.ContextTerms) == 0 {
		return false
	}
	_, ok := textutil.ContainsAny(text, f.biz.Vocabulary.ContextTerms)
	return ok
}

// actorInText requires the attributed actor, or one of its aliases, to
// literally appear in the mention text. Guards against loose upstream
// query matching.
func (f *Filter) actorInText(actor, text string) bool {
	terms := f.registry.TermsFor(actor)
	if len(terms) == 0 {
		terms = []string{actor}
	}
	_, ok := textutil.ContainsAny(text, terms)
	return ok
}

func (f *Filter) hasActorHint(m *models.Mention) bool {
	return len(m.Signals.ActorHints) > 0 ||
		m.Signals.AppID != "" ||
		m.Signals.PackageID != "" ||
		m.Signals.ActorSource != ""
}

// Note formats the drop counts as a single diagnostic note, or "" when
// nothing was dropped.
func Note(drops map[string]int) string {
	if len(drops) == 0 {
		return ""
	}
	rules := make([]string, 0, len(drops))
	for rule := range drops {
		rules = append(rules, rule)
	}
	sort.Strings(rules)

	parts := make([]string, 0, len(rules))
	for _, rule := range rules {
		parts = append(parts, fmt.Sprintf("%s=%d", rule, drops[rule]))
	}
	return "filtered: " + strings.Join(parts, " ")
}
