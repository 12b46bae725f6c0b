// internal/sentiment/rules.go
package sentiment

import (
	"mentionscope/internal/common/config"
	"mentionscope/internal/models"
	"mentionscope/internal/textutil"
)

// Bucket weights for the ordered phrase categories, strongest first.
const (
	weightSecurity     = 1.0
	weightOutage       = 0.8
	weightPricing      = 0.6
	weightSupport      = 0.4
	weightFeeRelief    = 1.0
	weightCompensation = 0.8
	weightRestored     = 0.6
	weightImprovement  = 0.4

	tokenBonus    = 0.1
	tokenBonusCap = 0.3

	// Minimum margin between the bucket scores for a non-neutral label.
	labelMargin = 0.15
	// Signed score assigned to near-tie neutrals, reflecting which side
	// was marginally ahead.
	nearTieScore = 0.05
)

type category struct {
	phrases []string
	weight  float64
}

// RuleScorer is the rule-based sentiment engine built from the curated
// domain vocabulary.
type RuleScorer struct {
	triggers []string
	negative []category
	positive []category
	negTokens []string
	posTokens []string
}

// NewRuleScorer compiles the configured vocabulary.
func NewRuleScorer(vocab config.VocabularyEntry) *RuleScorer {
	return &RuleScorer{
		triggers: vocab.Triggers,
		negative: []category{
			{vocab.Security, weightSecurity},
			{vocab.Outage, weightOutage},
			{vocab.Pricing, weightPricing},
			{vocab.Support, weightSupport},
		},
		positive: []category{
			{vocab.FeeRelief, weightFeeRelief},
			{vocab.Compensation, weightCompensation},
			{vocab.Restored, weightRestored},
			{vocab.Improvement, weightImprovement},
		},
		negTokens: vocab.NegativeTokens,
		posTokens: vocab.PositiveTokens,
	}
}

// Score labels the text. Without any trigger vocabulary present the result
// is forced neutral/0.0: no evidence means no opinion, which keeps
// unrelated corporate or macro text from producing false positives.
func (r *RuleScorer) Score(text string) (string, float64) {
	if !r.triggered(text) {
		return models.SentimentNeutral, 0.0
	}

	neg := r.bucketScore(text, r.negative, r.negTokens)
	pos := r.bucketScore(text, r.positive, r.posTokens)

	switch {
	case neg-pos >= labelMargin:
		return models.SentimentNegative, -clamp(neg)
	case pos-neg >= labelMargin:
		return models.SentimentPositive, clamp(pos)
	case neg > pos:
		return models.SentimentNeutral, -nearTieScore
	case pos > neg:
		return models.SentimentNeutral, nearTieScore
	default:
		return models.SentimentNeutral, 0.0
	}
}

func (r *RuleScorer) triggered(text string) bool {
	_, ok := textutil.ContainsAny(text, r.triggers)
	return ok
}

// bucketScore takes the strongest matched category weight plus a small
// additive bonus per generic token hit, capped.
func (r *RuleScorer) bucketScore(text string, categories []category, tokens []string) float64 {
	var score float64
	for _, c := range categories {
		if _, ok := textutil.ContainsAny(text, c.phrases); ok {
			score = c.weight
			break // categories are ordered strongest first
		}
	}

	var bonus float64
	for _, tok := range tokens {
		if textutil.ContainsTerm(text, tok) {
			bonus += tokenBonus
			if bonus >= tokenBonusCap {
				bonus = tokenBonusCap
				break
			}
		}
	}

	return clamp(score + bonus)
}

func clamp(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}
