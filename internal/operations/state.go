package operations

import (
	"sync"
	"time"

	"loanmerge/internal/analytics"
	"loanmerge/internal/merge"
	"loanmerge/internal/table"
)

// RunStatus is the overall status of a pipeline run
type RunStatus string

const (
	RunStatusPending   RunStatus = "pending"
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
	RunStatusCancelled RunStatus = "cancelled"
)

// RunState carries the data passed between steps plus the per-step states.
// Steps run sequentially, so the data fields are written by one goroutine at
// a time; the mutex guards the bookkeeping read by observers.
type RunState struct {
	mu sync.RWMutex

	ID        string     `json:"id"`
	Status    RunStatus  `json:"status"`
	StartTime time.Time  `json:"start_time"`
	EndTime   *time.Time `json:"end_time,omitempty"`
	Error     error      `json:"-"`

	steps map[string]*StepState
	order []string

	// Tables are the local inputs in declared order.
	Tables []table.Named `json:"-"`
	// Auxiliary is the remote table, nil when not fetched.
	Auxiliary *table.Table `json:"-"`
	// Merged is the merge result.
	Merged *table.Table `json:"-"`
	// MergeReport describes the joins that produced Merged.
	MergeReport merge.Report `json:"merge_report"`
	// OutputPath is where Merged was written.
	OutputPath string `json:"output_path,omitempty"`
	// Metrics holds the metric tables when the metrics step ran.
	Metrics *analytics.Report `json:"-"`
}

// NewRunState creates a new run state
func NewRunState(id string) *RunState {
	return &RunState{
		ID:        id,
		Status:    RunStatusPending,
		StartTime: time.Now(),
		steps:     make(map[string]*StepState),
	}
}

// Start marks the run as running
func (r *RunState) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Status = RunStatusRunning
	r.StartTime = time.Now()
}

// Complete marks the run as completed
func (r *RunState) Complete() {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	r.EndTime = &now
	r.Status = RunStatusCompleted
}

// Fail marks the run as failed
func (r *RunState) Fail(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	r.EndTime = &now
	r.Status = RunStatusFailed
	r.Error = err
}

// Cancel marks the run as cancelled
func (r *RunState) Cancel(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	r.EndTime = &now
	r.Status = RunStatusCancelled
	r.Error = err
}

// GetStatus returns the run status
func (r *RunState) GetStatus() RunStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.Status
}

// SetStep registers the state of a Step
func (r *RunState) SetStep(state *StepState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.steps[state.ID]; !ok {
		r.order = append(r.order, state.ID)
	}
	r.steps[state.ID] = state
}

// GetStep returns the state of a specific Step
func (r *RunState) GetStep(id string) *StepState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.steps[id]
}

// Steps returns the step states in execution order
func (r *RunState) Steps() []*StepState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*StepState, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.steps[id])
	}
	return out
}

// Duration returns the run duration so far
func (r *RunState) Duration() time.Duration {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.EndTime != nil {
		return r.EndTime.Sub(r.StartTime)
	}
	return time.Since(r.StartTime)
}
