package ask

import (
	"errors"
	"fmt"

	"github.com/latticelabs/helix/pkg/models"
)

// ErrQueueFull rejects a submission when the pending FIFO is at its
// limit. The API surfaces it as 429 concurrency_exhausted.
var ErrQueueFull = errors.New("ask queue full")

// RunError couples a stable failure reason with the stage that failed.
type RunError struct {
	Reason string // models.Reason* value
	Stage  string // tool name of the failing stage
	Err    error
}

func (e *RunError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s at %s", e.Reason, e.Stage)
	}
	return fmt.Sprintf("%s at %s: %v", e.Reason, e.Stage, e.Err)
}

func (e *RunError) Unwrap() error { return e.Err }

// ReasonOf extracts the failure reason from an orchestrator error.
// Untyped errors read as generation failures.
func ReasonOf(err error) string {
	var runErr *RunError
	if errors.As(err, &runErr) {
		return runErr.Reason
	}
	return models.ReasonGenerationFailed
}
