package models

import "time"

type State string

const (
	StateReceived     State = "received"
	StateFetching     State = "fetching"
	StateTranscribing State = "transcribing"
	StateExtracting   State = "extracting"
	StateCleanup      State = "cleanup"
	StateDone         State = "done"
	StateFailed       State = "failed"
)

// Terminal reports whether no further transitions are possible.
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed
}

// Run is the history row kept for one pipeline invocation. It never holds
// audio or transcript content.
type Run struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	Route     string    `json:"route"`
	State     State     `json:"state"`
	Source    string    `json:"source,omitempty"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewRun(id, url, route string) *Run {
	now := time.Now()
	return &Run{
		ID:        id,
		URL:       url,
		Route:     route,
		State:     StateReceived,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// IsStale checks if the run has been stuck in a non-terminal state for too long
func (r *Run) IsStale(timeout time.Duration) bool {
	if r.State.Terminal() {
		return false
	}
	return time.Since(r.UpdatedAt) > timeout
}
