package history

import "time"

// Outcome describes how a connection ended.
type Outcome string

const (
	// OutcomeEmptyRequest means the client sent nothing before closing.
	OutcomeEmptyRequest Outcome = "empty_request"
	// OutcomeLaunchFailed means the shell could not be started.
	OutcomeLaunchFailed Outcome = "launch_failed"
	// OutcomeCompleted means the command ran and its output was streamed.
	OutcomeCompleted Outcome = "completed"
	// OutcomeClientGone means the client stopped reading before output ended.
	OutcomeClientGone Outcome = "client_gone"
)

// Entry is one handled connection.
type Entry struct {
	ID            string
	Command       string
	Outcome       Outcome
	ExitCode      *int
	RequestBytes  int
	ResponseBytes int64
	StartedAt     time.Time
	FinishedAt    time.Time
}

// Duration reports how long the connection was handled.
func (e Entry) Duration() time.Duration {
	if e.FinishedAt.Before(e.StartedAt) {
		return 0
	}
	return e.FinishedAt.Sub(e.StartedAt)
}
