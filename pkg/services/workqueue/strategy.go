package workqueue

import "sync"

// ConcurrencyStrategy controls how tasks are allowed to start concurrently.
// The strategy tracks running tasks and decides whether a new one may start.
// Model tasks call the analysis tools; data tasks are local database work
// (deduplication, keyword extraction).
type ConcurrencyStrategy interface {
	// CanStartModel returns true if a model task can start given current state
	CanStartModel() bool
	// CanStartData returns true if a data task can start given current state
	CanStartData() bool
	// OnStartModel is called when a model task starts
	OnStartModel()
	// OnStartData is called when a data task starts
	OnStartData()
	// OnCompleteModel is called when a model task completes
	OnCompleteModel()
	// OnCompleteData is called when a data task completes
	OnCompleteData()
}

// SerializedStrategy serializes both model and data tasks: only one of each
// can run at a time, but a model task and a data task can run in parallel.
type SerializedStrategy struct {
	mu           sync.Mutex
	modelRunning bool
	dataRunning  bool
}

// NewSerializedStrategy creates a strategy that serializes model tasks
// (only one at a time) and serializes data tasks (only one at a time).
func NewSerializedStrategy() *SerializedStrategy {
	return &SerializedStrategy{}
}

func (s *SerializedStrategy) CanStartModel() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.modelRunning
}

func (s *SerializedStrategy) CanStartData() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.dataRunning
}

func (s *SerializedStrategy) OnStartModel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.modelRunning = true
}

func (s *SerializedStrategy) OnStartData() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dataRunning = true
}

func (s *SerializedStrategy) OnCompleteModel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.modelRunning = false
}

func (s *SerializedStrategy) OnCompleteData() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dataRunning = false
}

// ThrottledModelStrategy allows up to maxConcurrent model tasks to run in
// parallel. Data tasks are still serialized (only one at a time). This is
// the production strategy: comment processing runs maxConcurrent wide while
// dedupe/keyword jobs stay single-file.
type ThrottledModelStrategy struct {
	mu            sync.Mutex
	maxConcurrent int
	modelRunning  int
	dataRunning   bool
}

// NewThrottledModelStrategy creates a strategy that allows up to
// maxConcurrent model tasks in parallel while serializing data tasks.
func NewThrottledModelStrategy(maxConcurrent int) *ThrottledModelStrategy {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &ThrottledModelStrategy{
		maxConcurrent: maxConcurrent,
	}
}

func (s *ThrottledModelStrategy) CanStartModel() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.modelRunning < s.maxConcurrent
}

func (s *ThrottledModelStrategy) CanStartData() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.dataRunning
}

func (s *ThrottledModelStrategy) OnStartModel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.modelRunning++
}

func (s *ThrottledModelStrategy) OnStartData() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dataRunning = true
}

func (s *ThrottledModelStrategy) OnCompleteModel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.modelRunning > 0 {
		s.modelRunning--
	}
}

func (s *ThrottledModelStrategy) OnCompleteData() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dataRunning = false
}
