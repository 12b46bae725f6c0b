// internal/models/document.go
package models

// RunStats carries run-level counters plus a free-text diagnostic note
// assembled from per-collector and per-filter events.
type RunStats struct {
	Total int    `json:"total"`
	Note  string `json:"note,omitempty"`
}

// CacheDocument is the single persisted artifact of an ingest run. It is
// read wholesale at the start of a run and rewritten wholesale at the end;
// only the ratings history is append-merged against the prior document.
type CacheDocument struct {
	GeneratedAt          string         `json:"generatedAt"` // RFC 3339
	ConfigHash           string         `json:"configHash"`
	SourcesEnabled       []string       `json:"sourcesEnabled"`
	Items                []Mention      `json:"items"`
	MarketRatings        []MarketRating `json:"marketRatings,omitempty"`
	MarketRatingsHistory []MarketRating `json:"marketRatingsHistory,omitempty"`
	Stats                RunStats       `json:"stats"`
}

// FilterSources returns a copy of the document with items and ratings
// restricted to the given enabled source set. The enabled set can shrink
// between requests without forcing re-ingest.
func (d *CacheDocument) FilterSources(enabled []string) *CacheDocument {
	allow := make(map[string]bool, len(enabled))
	for _, s := range enabled {
		allow[s] = true
	}

	out := &CacheDocument{
		GeneratedAt:          d.GeneratedAt,
		ConfigHash:           d.ConfigHash,
		SourcesEnabled:       enabled,
		MarketRatingsHistory: d.MarketRatingsHistory,
		Stats:                d.Stats,
	}
	for _, m := range d.Items {
		if allow[m.Source] {
			out.Items = append(out.Items, m)
		}
	}
	for _, r := range d.MarketRatings {
		if allow[r.Source] {
			out.MarketRatings = append(out.MarketRatings, r)
		}
	}
	out.Stats.Total = len(out.Items)
	return out
}
