// internal/sentiment/engine.go
package sentiment

import (
	"context"

	"mentionscope/internal/common/config"
	stderrors "mentionscope/internal/common/errors"
	"mentionscope/internal/common/logger"
	"mentionscope/internal/common/metrics"
	"mentionscope/internal/models"
)

// Classifier is the optional remote sentiment capability. Any failure
// falls back to the rule-based result; the external path can never yield
// "no sentiment at all".
type Classifier interface {
	Classify(ctx context.Context, text, actor, geo, language string) (label string, score float64, err error)
}

// Engine assigns each mention a terminal sentiment state with a score in
// [-1, 1], stamped with the provider tag of the mechanism that decided.
type Engine struct {
	biz        config.BusinessConfig
	rules      *RuleScorer
	classifier Classifier // nil when disabled
	logger     logger.Logger
}

// NewEngine builds the engine. Pass a nil classifier when no external
// capability is configured.
func NewEngine(biz config.BusinessConfig, classifier Classifier, log logger.Logger) *Engine {
	return &Engine{
		biz:        biz,
		rules:      NewRuleScorer(biz.Vocabulary),
		classifier: classifier,
		logger:     log,
	}
}

// Apply classifies the whole batch in place, recording classifier
// failures as diagnostic notes.
func (e *Engine) Apply(ctx context.Context, batch []models.Mention, notes *stderrors.NoteCollector) []models.Mention {
	for i := range batch {
		e.classify(ctx, &batch[i], notes)
	}
	return batch
}

// sourceRuleScore is the score stamped by source-level hard overrides,
// e.g. outage trackers that are negative by nature.
const sourceRuleScore = -0.8

func (e *Engine) classify(ctx context.Context, m *models.Mention, notes *stderrors.NoteCollector) {
	// Manual-override lock: operator-set values are never reprocessed,
	// not even by source-level rules.
	if m.ManualOverride != nil && m.ManualOverride.Sentiment != "" {
		m.Sentiment = m.ManualOverride.Sentiment
		m.Score = m.ManualOverride.Score
		m.Provider = models.ProviderManualOverride
		metrics.SentimentLabeled.WithLabelValues(m.Provider, m.Sentiment).Inc()
		return
	}
	if m.Provider == models.ProviderManualOverride {
		return
	}

	src, _ := e.biz.SourceFor(m.Source)

	// Star-rating shortcut, only when a rating is actually present.
	if stars := m.Signals.Stars; stars >= 1 && stars <= 5 {
		m.Sentiment, m.Score = starSentiment(stars)
		m.Provider = models.ProviderStars
	} else {
		label, score := e.rules.Score(m.Title + " " + m.Text)
		m.Sentiment, m.Score = label, score
		m.Provider = models.ProviderRules

		if e.classifier != nil {
			if extLabel, extScore, err := e.classifier.Classify(ctx, m.Text, m.Actor, m.Geo, m.Language); err != nil {
				notes.AddError(m.Source, stderrors.NewClassifierFailedError(err))
				e.logger.Warn("classifier fallback to rules", map[string]interface{}{
					"source": m.Source,
					"id":     m.ID,
					"error":  err.Error(),
				})
			} else {
				m.Sentiment, m.Score = extLabel, extScore
				m.Provider = models.ProviderExternal
			}
		}
	}

	// Source-level hard override wins over stars, rules and the external
	// classifier alike.
	if src.AlwaysNegative {
		m.Sentiment = models.SentimentNegative
		m.Score = sourceRuleScore
		m.Provider = models.ProviderSourceRule
	}

	metrics.SentimentLabeled.WithLabelValues(m.Provider, m.Sentiment).Inc()
}

// starSentiment maps a 1-5 star rating directly to a label and score.
func starSentiment(stars int) (string, float64) {
	score := clamp(float64(stars-3) / 2)
	switch {
	case stars >= 4:
		return models.SentimentPositive, score
	case stars <= 2:
		return models.SentimentNegative, score
	default:
		return models.SentimentNeutral, score
	}
}
