package harness

import (
	"github.com/roach88/gridprefs/internal/controller"
)

// TraceEvent records what one step did to the grid.
type TraceEvent struct {
	Step int    `json:"step"`
	Op   string `json:"op"`

	// Writes are the native writes recorded during the step, refreshes
	// included, rendered as "kind" or "kind:key".
	Writes []string `json:"writes"`

	// RunID is the pipeline run id for apply_profile and reset_defaults.
	RunID string `json:"runId,omitempty"`

	// Errors are the codes of every error the step produced.
	Errors []string `json:"errors,omitempty"`
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true when every step expectation and assertion held.
	Pass bool `json:"pass"`

	// Trace has one event per step.
	Trace []TraceEvent `json:"trace"`

	// Errors lists failed expectations and assertions.
	Errors []string `json:"errors,omitempty"`

	// Notifications counts store notifications per category.
	Notifications map[string]int `json:"notifications"`

	// Reports holds the apply report of each step that produced one,
	// keyed by step index.
	Reports map[int]*controller.ApplyReport `json:"-"`

	// State is the final JSON document json_path assertions run against.
	State []byte `json:"-"`

	writes []string
}

// NewResult creates an empty passing result.
func NewResult() *Result {
	return &Result{
		Pass:          true,
		Trace:         []TraceEvent{},
		Errors:        []string{},
		Notifications: map[string]int{},
		Reports:       map[int]*controller.ApplyReport{},
	}
}

// AddError records a failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// DataWrites returns every recorded write except refreshes, in order.
func (r *Result) DataWrites() []string {
	return r.writes
}
