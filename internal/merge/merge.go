// internal/merge/merge.go
package merge

import (
	"mentionscope/internal/models"
	"mentionscope/internal/textutil"
)

// geoRank orders geo provenance by confidence. A geo with no recorded
// provenance was asserted directly by a collector and ranks highest,
// alongside actor-derived geos.
func geoRank(geoSource string) int {
	switch geoSource {
	case models.GeoFromContent:
		return 2
	case models.GeoFromSource:
		return 1
	default:
		return 3 // explicit or actor-derived
	}
}

// Mentions merges the incoming batch into the existing snapshot, keyed by
// (source, id). New keys are inserted as-is; existing keys are reconciled
// field by field. The function is idempotent: merging a list with itself
// returns the same list, which is what the incremental ingest path
// depends on.
func Mentions(existing, incoming []models.Mention) []models.Mention {
	out := make([]models.Mention, 0, len(existing)+len(incoming))
	index := make(map[models.MentionKey]int, len(existing))

	for _, m := range existing {
		if !m.Valid() {
			continue
		}
		if i, seen := index[m.Key()]; seen {
			out[i] = reconcile(out[i], m)
			continue
		}
		index[m.Key()] = len(out)
		out = append(out, m)
	}

	for _, m := range incoming {
		if !m.Valid() {
			continue
		}
		if i, seen := index[m.Key()]; seen {
			out[i] = reconcile(out[i], m)
			continue
		}
		index[m.Key()] = len(out)
		out = append(out, m)
	}

	return out
}

// reconcile merges one incoming observation into the existing one with
// the same identity. Identity fields are never touched.
func reconcile(old, in models.Mention) models.Mention {
	out := old

	out.Language = fillEmpty(old.Language, in.Language)
	out.PublishedAt = fillEmpty(old.PublishedAt, in.PublishedAt)
	out.CollectedAt = fillEmpty(old.CollectedAt, in.CollectedAt)
	out.Author = fillEmpty(old.Author, in.Author)
	out.URL = fillEmpty(old.URL, in.URL)
	out.Title = fillEmpty(old.Title, in.Title)

	// Richer content wins: text is replaced only when strictly longer.
	if len(in.Text) > len(old.Text) {
		out.Text = in.Text
	}

	// Provenance-aware geo: a lower-confidence inference never overwrites
	// a higher-confidence one.
	if in.Geo != "" {
		if old.Geo == "" || geoRank(in.Signals.GeoSource) >= geoRank(old.Signals.GeoSource) {
			out.Geo = in.Geo
			out.Signals.GeoSource = in.Signals.GeoSource
		}
	}

	// Store identifiers are authoritative for actors; otherwise the first
	// attribution stands.
	if in.Actor != "" {
		authoritative := in.Signals.ActorSource == "app_id" || in.Signals.ActorSource == "package_id"
		if old.Actor == "" || authoritative {
			out.Actor = in.Actor
			out.Signals.ActorSource = in.Signals.ActorSource
		}
	}

	// Sentiment from the newer observation wins unless the mention is
	// locked by a manual override.
	locked := old.ManualOverride != nil || old.Provider == models.ProviderManualOverride
	if !locked && in.Sentiment != "" {
		out.Sentiment = in.Sentiment
		out.Score = in.Score
		out.Provider = in.Provider
	}
	if old.ManualOverride == nil && in.ManualOverride != nil {
		out.ManualOverride = in.ManualOverride
	}

	out.Signals = reconcileSignals(out.Signals, in.Signals)
	out.Aspects = unionStrings(old.Aspects, in.Aspects)

	return out
}

func reconcileSignals(old, in models.Signals) models.Signals {
	out := old

	if in.Stars != 0 {
		out.Stars = in.Stars
	}
	out.ReplyText = fillEmpty(old.ReplyText, in.ReplyText)
	out.ReplyAuthor = fillEmpty(old.ReplyAuthor, in.ReplyAuthor)
	out.ReplyAt = fillEmpty(old.ReplyAt, in.ReplyAt)
	out.Query = fillEmpty(old.Query, in.Query)
	out.Site = fillEmpty(old.Site, in.Site)
	out.AppID = fillEmpty(old.AppID, in.AppID)
	out.PackageID = fillEmpty(old.PackageID, in.PackageID)

	// List-valued signals are unioned and deduplicated.
	out.ActorHints = unionStrings(old.ActorHints, in.ActorHints)

	if len(in.Extra) > 0 {
		merged := make(map[string]string, len(old.Extra)+len(in.Extra))
		for k, v := range old.Extra {
			merged[k] = v
		}
		for k, v := range in.Extra {
			if _, exists := merged[k]; !exists {
				merged[k] = v
			}
		}
		out.Extra = merged
	}

	return out
}

func fillEmpty(old, in string) string {
	if old == "" {
		return in
	}
	return old
}

func unionStrings(a, b []string) []string {
	if len(b) == 0 {
		return a
	}
	return textutil.Dedup(append(append([]string{}, a...), b...))
}
