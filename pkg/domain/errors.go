package domain

import (
	"errors"
	"fmt"
)

// ErrWorkflowNotFound is returned when a proposal id has no workflow.
var ErrWorkflowNotFound = errors.New("workflow not found")

// ErrWorkflowExists is returned when a submission targets a proposal id with
// an active (non-terminal) workflow. Restart requires the prior workflow to
// have reached a terminal stage.
var ErrWorkflowExists = errors.New("workflow already active for proposal")

// ErrDuplicateVote is returned when a (user, proposal) pair already has a
// recorded historical vote.
var ErrDuplicateVote = errors.New("vote already cast for proposal")

// ErrStageMismatch is returned when a stage result does not correspond to the
// workflow's current stage.
var ErrStageMismatch = errors.New("stage result does not match current stage")

// ValidationError rejects a malformed submission at the boundary, before it
// enters the state machine.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// IsValidation reports whether err is a boundary validation failure.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
