// internal/models/mention.go
package models

import "time"

// Sentiment labels. An unset sentiment is the empty string.
const (
	SentimentPositive = "positive"
	SentimentNeutral  = "neutral"
	SentimentNegative = "negative"
)

// Provider tags recording which mechanism produced a mention's sentiment.
const (
	ProviderStars          = "stars"
	ProviderRules          = "rules"
	ProviderExternal       = "external"
	ProviderManualOverride = "manual_override"
	ProviderSourceRule     = "source_rule"
)

// Geo provenance values stamped into Signals.GeoSource during inference.
const (
	GeoFromActor   = "actor"
	GeoFromContent = "content"
	GeoFromSource  = "source"
)

// Mention is one normalized observation of an actor from one source.
// Identity is the (Source, ID) pair; everything else may be refined
// over the mention's lifetime.
type Mention struct {
	ID          string  `json:"id"`
	Source      string  `json:"source"`
	Geo         string  `json:"geo,omitempty"`
	Actor       string  `json:"actor,omitempty"`
	Language    string  `json:"language,omitempty"`
	PublishedAt string  `json:"publishedAt,omitempty"` // RFC 3339
	CollectedAt string  `json:"collectedAt,omitempty"` // RFC 3339
	Author      string  `json:"author,omitempty"`
	URL         string  `json:"url,omitempty"`
	Title       string  `json:"title,omitempty"`
	Text        string  `json:"text,omitempty"`
	Sentiment   string  `json:"sentiment,omitempty"`
	Score       float64 `json:"score,omitempty"` // [-1, 1]
	Provider    string  `json:"sentimentProvider,omitempty"`

	Signals Signals  `json:"signals,omitempty"`
	Aspects []string `json:"aspects,omitempty"`

	ManualOverride *ManualOverride `json:"manualOverride,omitempty"`
}

// Signals is the typed bag of source-specific metadata. Known signal kinds
// get explicit fields; anything else lands in Extra.
type Signals struct {
	Stars       int      `json:"stars,omitempty"` // 1-5 review rating, 0 = absent
	ReplyText   string   `json:"replyText,omitempty"`
	ReplyAuthor string   `json:"replyAuthor,omitempty"`
	ReplyAt     string   `json:"replyAt,omitempty"`
	Query       string   `json:"query,omitempty"` // query that surfaced the mention
	GeoSource   string   `json:"geoSource,omitempty"`
	ActorSource string   `json:"actorSource,omitempty"`
	Site        string   `json:"site,omitempty"` // publishing domain/site
	AppID       string   `json:"appId,omitempty"`
	PackageID   string   `json:"packageId,omitempty"`
	ActorHints  []string `json:"actorHints,omitempty"` // loose upstream attributions

	Extra map[string]string `json:"extra,omitempty"`
}

// ManualOverride pins operator-set values that no later run may change.
type ManualOverride struct {
	Geo       string  `json:"geo,omitempty"`
	Sentiment string  `json:"sentiment,omitempty"`
	Score     float64 `json:"score,omitempty"`
	Note      string  `json:"note,omitempty"`
}

// Key returns the merge identity of the mention.
func (m *Mention) Key() MentionKey {
	return MentionKey{Source: m.Source, ID: m.ID}
}

// Valid reports whether the mention carries the identity fields required
// for merging. Invalid mentions are dropped before merge.
func (m *Mention) Valid() bool {
	return m.Source != "" && m.ID != ""
}

// EffectiveDate returns the published time, falling back to the collected
// time, or the zero time when neither parses.
func (m *Mention) EffectiveDate() time.Time {
	if t, err := time.Parse(time.RFC3339, m.PublishedAt); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339, m.CollectedAt); err == nil {
		return t
	}
	return time.Time{}
}

// MentionKey is the composite merge key.
type MentionKey struct {
	Source string
	ID     string
}

// IsEmpty reports whether the signals bag carries nothing.
func (s Signals) IsEmpty() bool {
	return s.Stars == 0 && s.ReplyText == "" && s.ReplyAuthor == "" && s.ReplyAt == "" &&
		s.Query == "" && s.GeoSource == "" && s.ActorSource == "" && s.Site == "" &&
		s.AppID == "" && s.PackageID == "" && len(s.ActorHints) == 0 && len(s.Extra) == 0
}
