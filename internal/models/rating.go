// internal/models/rating.go
package models

// MarketRating is a point-in-time aggregate rating for one app listing.
type MarketRating struct {
	Source      string  `json:"source"`
	Actor       string  `json:"actor"`
	Geo         string  `json:"geo,omitempty"`
	AppID       string  `json:"appId,omitempty"`
	PackageID   string  `json:"packageId,omitempty"`
	Rating      float64 `json:"rating"`
	RatingCount int64   `json:"ratingCount"`
	URL         string  `json:"url,omitempty"`
	Name        string  `json:"name,omitempty"`
	CollectedAt string  `json:"collectedAt"` // RFC 3339
}

// RatingKey identifies the listing a rating point belongs to. The history
// keeps a time series per key, appending only on material change.
type RatingKey struct {
	Source    string
	Actor     string
	Geo       string
	AppID     string
	PackageID string
}

// Key returns the listing identity of the rating point.
func (r *MarketRating) Key() RatingKey {
	return RatingKey{
		Source:    r.Source,
		Actor:     r.Actor,
		Geo:       r.Geo,
		AppID:     r.AppID,
		PackageID: r.PackageID,
	}
}

// SameValue reports whether two points are materially equal, i.e. neither
// the rating value nor the rating count changed.
func (r *MarketRating) SameValue(other *MarketRating) bool {
	return r.Rating == other.Rating && r.RatingCount == other.RatingCount
}
