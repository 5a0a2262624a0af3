package tools

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ClauseInput is one draft clause offered to the linker as a candidate.
type ClauseInput struct {
	ClauseRef string    `json:"clause_ref"`
	Text      string    `json:"text"`
	Embedding []float32 `json:"embedding,omitempty"`
}

// ClauseMatch details why one clause matched.
type ClauseMatch struct {
	ClauseRef       string  `json:"clause_ref"`
	SimilarityScore float64 `json:"similarity_score"`
	MatchType       string  `json:"match_type"`
	ClauseText      string  `json:"clause_text"`
}

// LinkRequest carries one comment for linking. The remote linker looks up
// the draft's clause set by DraftID on its side; CommentEmbedding and
// Clauses feed the in-process linker only and never go over the wire.
type LinkRequest struct {
	CommentText      string
	DraftID          uuid.UUID
	CommentEmbedding []float32
	Clauses          []ClauseInput
}

// LinkResult is the linker's verdict: candidate refs ordered by score,
// per-match detail, and the top score as overall confidence.
type LinkResult struct {
	ClauseCandidates []string      `json:"clause_candidates"`
	DetailedMatches  []ClauseMatch `json:"detailed_matches"`
	Confidence       float64       `json:"confidence"`
}

// ClauseLinker links a comment to the draft clauses it talks about. The
// in-process implementation lives in pkg/services; this client is for
// deployments running the linker as its own service.
type ClauseLinker interface {
	Link(ctx context.Context, req *LinkRequest) (*LinkResult, error)
	Health(ctx context.Context) error
}

type clauseLinkClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClauseLinkClient creates a ClauseLinker talking to a remote linker.
func NewClauseLinkClient(baseURL string, timeout time.Duration, logger *zap.Logger) ClauseLinker {
	return &clauseLinkClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.Named("clauselink_client"),
	}
}

var _ ClauseLinker = (*clauseLinkClient)(nil)

func (c *clauseLinkClient) Link(ctx context.Context, req *LinkRequest) (*LinkResult, error) {
	endpoint, err := joinURL(c.baseURL, "link")
	if err != nil {
		return nil, &ToolError{Tool: "clauselink", Kind: ErrKindUnreachable, Err: err}
	}

	request := struct {
		Text    string    `json:"text"`
		DraftID uuid.UUID `json:"draft_id"`
	}{Text: req.CommentText, DraftID: req.DraftID}

	var result LinkResult
	if err := postJSON(ctx, c.httpClient, "clauselink", endpoint, request, &result); err != nil {
		return nil, err
	}

	c.logger.Debug("Clause linking complete",
		zap.Strings("candidates", result.ClauseCandidates),
		zap.Float64("confidence", result.Confidence))

	return &result, nil
}

func (c *clauseLinkClient) Health(ctx context.Context) error {
	return checkHealth(ctx, c.httpClient, "clauselink", c.baseURL)
}
