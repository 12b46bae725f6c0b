// internal/sentiment/classifier.go
package sentiment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"mentionscope/internal/common/config"
	"mentionscope/internal/models"
)

// HTTPClassifier calls a remote sentiment endpoint with a strict
// text-in/label-out contract. Timeouts, malformed responses and missing
// fields are all plain errors; the engine falls back to rules on any of
// them.
type HTTPClassifier struct {
	cfg    config.ClassifierConfig
	client *http.Client
}

// NewHTTPClassifier builds the classifier client with its own timeout,
// independent of the collector-level timeout.
func NewHTTPClassifier(cfg config.ClassifierConfig) *HTTPClassifier {
	return &HTTPClassifier{
		cfg: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout(),
		},
	}
}

type classifyRequest struct {
	Text     string `json:"text"`
	Actor    string `json:"actor,omitempty"`
	Geo      string `json:"geo,omitempty"`
	Language string `json:"language,omitempty"`
}

type classifyResponse struct {
	Sentiment string   `json:"sentiment"`
	Score     *float64 `json:"score"`
}

// Classify implements the Classifier interface.
func (c *HTTPClassifier) Classify(ctx context.Context, text, actor, geo, language string) (string, float64, error) {
	payload, err := json.Marshal(classifyRequest{
		Text:     text,
		Actor:    actor,
		Geo:      geo,
		Language: language,
	})
	if err != nil {
		return "", 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL, bytes.NewReader(payload))
	if err != nil {
		return "", 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", 0, fmt.Errorf("classifier returned %d", resp.StatusCode)
	}

	var out classifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", 0, fmt.Errorf("classifier response malformed: %w", err)
	}

	switch out.Sentiment {
	case models.SentimentPositive, models.SentimentNeutral, models.SentimentNegative:
	default:
		return "", 0, fmt.Errorf("classifier returned unknown sentiment %q", out.Sentiment)
	}
	if out.Score == nil {
		return "", 0, fmt.Errorf("classifier response missing score")
	}
	if *out.Score < -1 || *out.Score > 1 {
		return "", 0, fmt.Errorf("classifier score %v out of range", *out.Score)
	}

	return out.Sentiment, *out.Score, nil
}
