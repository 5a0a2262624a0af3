package tools

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Classification is the classify tool's verdict on one comment.
type Classification struct {
	SentimentLabel     string   `json:"sentiment_label"`
	SentimentScore     float64  `json:"sentiment_score"`
	SentimentIntensity float64  `json:"sentiment_intensity"`
	Stance             string   `json:"stance"`
	Aspects            []string `json:"aspects"`
	Confidence         float64  `json:"confidence"`
	ModelVersion       string   `json:"model_version"`
	CILow              *float64 `json:"ci_low,omitempty"`
	CIHigh             *float64 `json:"ci_high,omitempty"`
}

// Classifier produces sentiment and stance for normalized comment text.
// Language is the ISO code detected at ingest, empty when unknown.
type Classifier interface {
	Classify(ctx context.Context, text, language string) (*Classification, error)
	Health(ctx context.Context) error
}

type classifyClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClassifyClient creates a Classifier talking to the classify tool.
func NewClassifyClient(baseURL string, timeout time.Duration, logger *zap.Logger) Classifier {
	return &classifyClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.Named("classify_client"),
	}
}

var _ Classifier = (*classifyClient)(nil)

func (c *classifyClient) Classify(ctx context.Context, text, language string) (*Classification, error) {
	endpoint, err := joinURL(c.baseURL, "classify")
	if err != nil {
		return nil, &ToolError{Tool: "classify", Kind: ErrKindUnreachable, Err: err}
	}

	request := struct {
		Text     string `json:"text"`
		Language string `json:"language,omitempty"`
	}{Text: text, Language: language}

	var result Classification
	if err := postJSON(ctx, c.httpClient, "classify", endpoint, request, &result); err != nil {
		return nil, err
	}

	c.logger.Debug("Classification complete",
		zap.String("sentiment", result.SentimentLabel),
		zap.String("stance", result.Stance),
		zap.Float64("confidence", result.Confidence))

	return &result, nil
}

func (c *classifyClient) Health(ctx context.Context) error {
	return checkHealth(ctx, c.httpClient, "classify", c.baseURL)
}
