package tools

import "context"

// MockIngester is a configurable mock for testing pipeline stages.
// Set the function fields to control behavior in tests.
type MockIngester struct {
	// ProcessFunc is called when Process is invoked.
	// If nil, returns a result echoing the input text.
	ProcessFunc func(ctx context.Context, text string) (*IngestResult, error)

	// HealthFunc is called when Health is invoked. If nil, returns nil.
	HealthFunc func(ctx context.Context) error

	// Call tracking for verification
	ProcessCalls int
	HealthCalls  int
}

// Process implements Ingester.
func (m *MockIngester) Process(ctx context.Context, text string) (*IngestResult, error) {
	m.ProcessCalls++
	if m.ProcessFunc != nil {
		return m.ProcessFunc(ctx, text)
	}
	return &IngestResult{PIIMasked: text, NormalizedText: text, Language: "en"}, nil
}

// Health implements Ingester.
func (m *MockIngester) Health(ctx context.Context) error {
	m.HealthCalls++
	if m.HealthFunc != nil {
		return m.HealthFunc(ctx)
	}
	return nil
}

var _ Ingester = (*MockIngester)(nil)

// MockClassifier is a configurable mock Classifier.
type MockClassifier struct {
	// ClassifyFunc is called when Classify is invoked.
	// If nil, returns a neutral classification with confidence 0.9.
	ClassifyFunc func(ctx context.Context, text, language string) (*Classification, error)

	// HealthFunc is called when Health is invoked. If nil, returns nil.
	HealthFunc func(ctx context.Context) error

	ClassifyCalls int
	HealthCalls   int
}

// Classify implements Classifier.
func (m *MockClassifier) Classify(ctx context.Context, text, language string) (*Classification, error) {
	m.ClassifyCalls++
	if m.ClassifyFunc != nil {
		return m.ClassifyFunc(ctx, text, language)
	}
	return &Classification{
		SentimentLabel: "neutral",
		SentimentScore: 0.5,
		Stance:         "neutral",
		Confidence:     0.9,
		ModelVersion:   "mock-classifier",
	}, nil
}

// Health implements Classifier.
func (m *MockClassifier) Health(ctx context.Context) error {
	m.HealthCalls++
	if m.HealthFunc != nil {
		return m.HealthFunc(ctx)
	}
	return nil
}

var _ Classifier = (*MockClassifier)(nil)

// MockClauseLinker is a configurable mock ClauseLinker.
type MockClauseLinker struct {
	// LinkFunc is called when Link is invoked.
	// If nil, returns an empty result with confidence 0.
	LinkFunc func(ctx context.Context, req *LinkRequest) (*LinkResult, error)

	// HealthFunc is called when Health is invoked. If nil, returns nil.
	HealthFunc func(ctx context.Context) error

	LinkCalls   int
	HealthCalls int
}

// Link implements ClauseLinker.
func (m *MockClauseLinker) Link(ctx context.Context, req *LinkRequest) (*LinkResult, error) {
	m.LinkCalls++
	if m.LinkFunc != nil {
		return m.LinkFunc(ctx, req)
	}
	return &LinkResult{ClauseCandidates: []string{}, Confidence: 0}, nil
}

// Health implements ClauseLinker.
func (m *MockClauseLinker) Health(ctx context.Context) error {
	m.HealthCalls++
	if m.HealthFunc != nil {
		return m.HealthFunc(ctx)
	}
	return nil
}

var _ ClauseLinker = (*MockClauseLinker)(nil)

// MockSummarizer is a configurable mock Summarizer.
type MockSummarizer struct {
	// SummarizeFunc is called when Summarize is invoked.
	// If nil, returns a fixed summary.
	SummarizeFunc func(ctx context.Context, text, clauseRef string) (*SummaryResult, error)

	// HealthFunc is called when Health is invoked. If nil, returns nil.
	HealthFunc func(ctx context.Context) error

	SummarizeCalls int
	HealthCalls    int
}

// Summarize implements Summarizer.
func (m *MockSummarizer) Summarize(ctx context.Context, text, clauseRef string) (*SummaryResult, error) {
	m.SummarizeCalls++
	if m.SummarizeFunc != nil {
		return m.SummarizeFunc(ctx, text, clauseRef)
	}
	return &SummaryResult{Summary: "mock summary", Confidence: 0.9, ModelVersion: "mock-summarizer"}, nil
}

// Health implements Summarizer.
func (m *MockSummarizer) Health(ctx context.Context) error {
	m.HealthCalls++
	if m.HealthFunc != nil {
		return m.HealthFunc(ctx)
	}
	return nil
}

var _ Summarizer = (*MockSummarizer)(nil)
