package tools

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// SummaryResult is the summarize tool's output for one comment.
type SummaryResult struct {
	Summary      string  `json:"summary"`
	Confidence   float64 `json:"confidence"`
	ModelVersion string  `json:"model_version"`
}

// Summarizer produces a neutral summary of a comment, optionally anchored to
// the clause the comment was linked to.
type Summarizer interface {
	Summarize(ctx context.Context, text, clauseRef string) (*SummaryResult, error)
	Health(ctx context.Context) error
}

type summarizeClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewSummarizeClient creates a Summarizer talking to the summarize tool.
func NewSummarizeClient(baseURL string, timeout time.Duration, logger *zap.Logger) Summarizer {
	return &summarizeClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.Named("summarize_client"),
	}
}

var _ Summarizer = (*summarizeClient)(nil)

func (c *summarizeClient) Summarize(ctx context.Context, text, clauseRef string) (*SummaryResult, error) {
	endpoint, err := joinURL(c.baseURL, "summarize")
	if err != nil {
		return nil, &ToolError{Tool: "summarize", Kind: ErrKindUnreachable, Err: err}
	}

	request := struct {
		Text      string `json:"text"`
		ClauseRef string `json:"clause_ref,omitempty"`
	}{Text: text, ClauseRef: clauseRef}

	var result SummaryResult
	if err := postJSON(ctx, c.httpClient, "summarize", endpoint, request, &result); err != nil {
		return nil, err
	}

	c.logger.Debug("Summarization complete",
		zap.String("model_version", result.ModelVersion))

	return &result, nil
}

func (c *summarizeClient) Health(ctx context.Context) error {
	return checkHealth(ctx, c.httpClient, "summarize", c.baseURL)
}
