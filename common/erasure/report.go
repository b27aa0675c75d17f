package erasure

import "time"

// Stage is a point in the life of one erasure operation
type Stage string

const (
	StageIdle          Stage = "idle"
	StageIntrospecting Stage = "introspecting"
	StagePlanning      Stage = "planning"
	StageDeleting      Stage = "deleting"
	StageFinalizing    Stage = "finalizing"
	StageCommitted     Stage = "committed"
	StageAborted       Stage = "aborted"
)

// StepResult records what one plan step removed
type StepResult struct {
	Table   string   `json:"table"`
	Columns []string `json:"columns"`
	Role    Role     `json:"role"`
	Rows    int64    `json:"rows"`
}

// Report is the diagnostic record of one erasure operation.
// Operators get it verbatim; self-service callers never see it.
type Report struct {
	AccountID   string        `json:"account_id"`
	Stage       Stage         `json:"stage"`
	FailedStage Stage         `json:"failed_stage,omitempty"`
	Steps       []StepResult  `json:"steps"`
	Cleared     []StepResult  `json:"cleared,omitempty"`
	RootRows    int64         `json:"root_rows"`
	Duration    time.Duration `json:"duration_ns"`
	Error       string        `json:"error,omitempty"`
}

// DependentRows sums the rows removed by plan steps
func (r *Report) DependentRows() int64 {
	var total int64
	for _, s := range r.Steps {
		total += s.Rows
	}
	return total
}

func (r *Report) advance(stage Stage) {
	r.Stage = stage
}

// abort moves the report to aborted, remembering where it failed
func (r *Report) abort(err error) {
	r.FailedStage = r.Stage
	r.Stage = StageAborted
	r.Error = err.Error()
}
