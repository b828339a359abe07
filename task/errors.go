package task

import (
	"errors"
	"fmt"
)

// ErrConditionsFailed is the canonical error appended to a Task that was
// cancelled before or during condition evaluation. It stands in for the
// condition failures that were never (or only partially) collected.
var ErrConditionsFailed = errors.New("task conditions failed")

// ConditionError reports a single failed precondition. Condition failures
// accumulate on the owning Task in declaration order, regardless of the
// order in which the evaluations completed.
type ConditionError struct {
	// Condition is the name of the condition that failed.
	Condition string
	// Err is the failure reason reported by the condition.
	Err error
}

// Error implements the error interface.
func (e *ConditionError) Error() string {
	return fmt.Sprintf("condition %q failed: %v", e.Condition, e.Err)
}

// Unwrap returns the underlying failure reason.
func (e *ConditionError) Unwrap() error {
	return e.Err
}
