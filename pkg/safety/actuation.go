package safety

import (
	"errors"
	"fmt"
	"regexp"
	"sort"

	"github.com/latticelabs/helix/pkg/models"
)

// Declared actions state intent only. Direct motor or actuator commands
// belong to the controller and never to model output.
var (
	forbiddenActionRe = regexp.MustCompile(`(?i)motor|actuat`)
	forbiddenParamRe  = regexp.MustCompile(`(?i)motor|torque|servo`)
)

// BoundaryViolationError rejects a run that tries to command hardware
// directly. Nothing is evaluated, no artifact is produced, and no trace
// row is recorded.
type BoundaryViolationError struct {
	ActionID string
	Field    string // "kind", "label", or "param <key>"
}

func (e *BoundaryViolationError) Error() string {
	return fmt.Sprintf("%s: action %q %s commands hardware", models.ReasonControllerBoundary, e.ActionID, e.Field)
}

// IsBoundaryViolation reports whether err is a controller boundary
// rejection.
func IsBoundaryViolation(err error) bool {
	var violation *BoundaryViolationError
	return errors.As(err, &violation)
}

// CheckActuation screens every declared action before any evaluation
// runs. Param keys are checked in sorted order so the reported field is
// stable.
func CheckActuation(actions []models.AdapterAction) error {
	for _, action := range actions {
		if forbiddenActionRe.MatchString(action.Kind) {
			return &BoundaryViolationError{ActionID: action.ID, Field: "kind"}
		}
		if forbiddenActionRe.MatchString(action.Label) {
			return &BoundaryViolationError{ActionID: action.ID, Field: "label"}
		}
		keys := make([]string, 0, len(action.Params))
		for key := range action.Params {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			if forbiddenParamRe.MatchString(key) {
				return &BoundaryViolationError{ActionID: action.ID, Field: "param " + key}
			}
		}
	}
	return nil
}
