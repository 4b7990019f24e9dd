package harness

import "github.com/roach88/avada/internal/rotation"

// TraceEvent records one handled intent.
type TraceEvent struct {
	Turn       int                 `json:"turn"`
	Session    string              `json:"session"`
	Platform   string              `json:"platform"`
	Intent     string              `json:"intent"`
	Handler    string              `json:"handler"`
	Selection  *rotation.Selection `json:"selection,omitempty"`
	Speech     string              `json:"speech,omitempty"`
	EndSession bool                `json:"end_session,omitempty"`
}

// FinalState is the persisted profile after the last session.
type FinalState struct {
	Rotations    rotation.Set `json:"rotations"`
	SessionCount int          `json:"session_count"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every assertion held.
	Pass bool `json:"pass"`

	// Trace lists every handled intent in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains assertion failure messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Final is the stored profile, nil if nothing was persisted.
	Final *FinalState `json:"final,omitempty"`

	// Actions lists stored analytics actions for the scenario user, in order.
	Actions []string `json:"actions,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Spells returns the picks of a category from turns that advanced the
// rotation, skipping empty pools.
func (r *Result) Spells(c rotation.Category) []int {
	var ids []int
	for _, e := range r.Trace {
		if e.Selection == nil {
			continue
		}
		if pick := e.Selection.Of(c); pick.OK {
			ids = append(ids, pick.ID)
		}
	}
	return ids
}
