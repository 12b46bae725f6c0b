// internal/merge/ratings.go
package merge

import "mentionscope/internal/models"

// RatingsHistory appends the latest rating points to the history, keeping
// it an append-only log with dedup-on-equality: a point is appended only
// when its rating value or count differs from the last-known point for
// its (source, actor, geo, appId, packageId) key. Returns the grown
// history and the points actually appended.
func RatingsHistory(history, latest []models.MarketRating) ([]models.MarketRating, []models.MarketRating) {
	last := make(map[models.RatingKey]models.MarketRating, len(history))
	for _, p := range history {
		last[p.Key()] = p // later entries supersede earlier ones
	}

	out := history
	var appended []models.MarketRating
	for _, p := range latest {
		if prev, seen := last[p.Key()]; seen && prev.SameValue(&p) {
			continue
		}
		out = append(out, p)
		appended = append(appended, p)
		last[p.Key()] = p
	}
	return out, appended
}

// LatestRatings reduces a batch of rating points to one point per key,
// keeping the last observation.
func LatestRatings(points []models.MarketRating) []models.MarketRating {
	index := make(map[models.RatingKey]int, len(points))
	var out []models.MarketRating
	for _, p := range points {
		if i, seen := index[p.Key()]; seen {
			out[i] = p
			continue
		}
		index[p.Key()] = len(out)
		out = append(out, p)
	}
	return out
}
