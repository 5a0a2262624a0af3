package tools

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// IngestResult is the ingest tool's output for one text: PII-masked text,
// detected language, normalization and an embedding vector.
type IngestResult struct {
	PIIMasked      string    `json:"pii_masked"`
	Language       string    `json:"language"`
	NormalizedText string    `json:"normalized_text"`
	Embedding      []float32 `json:"embedding"`
	Confidence     float64   `json:"confidence"`
}

// Ingester masks PII, detects language, normalizes and embeds free text.
type Ingester interface {
	Process(ctx context.Context, text string) (*IngestResult, error)
	Health(ctx context.Context) error
}

type ingestClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewIngestClient creates an Ingester talking to the ingest tool.
func NewIngestClient(baseURL string, timeout time.Duration, logger *zap.Logger) Ingester {
	return &ingestClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.Named("ingest_client"),
	}
}

var _ Ingester = (*ingestClient)(nil)

func (c *ingestClient) Process(ctx context.Context, text string) (*IngestResult, error) {
	endpoint, err := joinURL(c.baseURL, "process")
	if err != nil {
		return nil, &ToolError{Tool: "ingest", Kind: ErrKindUnreachable, Err: err}
	}

	request := struct {
		Text string `json:"text"`
	}{Text: text}

	var result IngestResult
	if err := postJSON(ctx, c.httpClient, "ingest", endpoint, request, &result); err != nil {
		return nil, err
	}

	c.logger.Debug("Ingest complete",
		zap.String("language", result.Language),
		zap.Int("embedding_dims", len(result.Embedding)))

	return &result, nil
}

func (c *ingestClient) Health(ctx context.Context) error {
	return checkHealth(ctx, c.httpClient, "ingest", c.baseURL)
}
