package runstore

import "time"

// Status is the coarse outcome of a run.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Run is one journal entry.
type Run struct {
	ID             string
	Workflow       string
	SessionID      string
	SessionDir     string
	UserPrompt     string
	EmotionalState string
	// State is the last orchestrator state reached.
	State        string
	Status       Status
	IntentKind   string
	MusicType    string
	MusicKind    string
	ArtifactPath string
	Placeholder  bool
	ErrorMessage string
	ErrorKind    string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	FinishedAt   time.Time
}

// Transition is one recorded state change.
type Transition struct {
	State string
	At    time.Time
}

// Duration returns the wall time of a finished run, or zero.
func (r Run) Duration() time.Duration {
	if r.FinishedAt.IsZero() || r.CreatedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.CreatedAt)
}
