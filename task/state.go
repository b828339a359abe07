package task

// State is the lifecycle state of a Task. States are strictly ordered and a
// Task only ever moves forward through them, so states can be compared with
// the usual < and >= operators.
type State int32

const (
	// Initialized is the state of a freshly constructed Task.
	Initialized State = iota
	// Pending indicates the Task has been admitted by a scheduler and is
	// waiting for its dependencies to be satisfied.
	Pending
	// EvaluatingConditions indicates the Task is running its precondition
	// checks concurrently.
	EvaluatingConditions
	// Ready indicates condition evaluation has completed (successfully or
	// not) and the Task may be executed.
	Ready
	// Executing indicates the work body is running.
	Executing
	// Finishing indicates the finish sequence is in progress.
	Finishing
	// Finished is the terminal, absorbing state.
	Finished
)

// String returns the human-readable name of the state.
func (s State) String() string {
	switch s {
	case Initialized:
		return "Initialized"
	case Pending:
		return "Pending"
	case EvaluatingConditions:
		return "EvaluatingConditions"
	case Ready:
		return "Ready"
	case Executing:
		return "Executing"
	case Finishing:
		return "Finishing"
	case Finished:
		return "Finished"
	default:
		return "Unknown"
	}
}

// canTransition reports whether moving from s to next is a legal step.
//
// The Finishing state is reachable both from Executing (the normal path) and
// directly from Ready: a Task whose conditions failed, or which was cancelled
// before execution started, finishes without its work body ever running.
func (s State) canTransition(next State) bool {
	switch s {
	case Initialized:
		return next == Pending
	case Pending:
		return next == EvaluatingConditions
	case EvaluatingConditions:
		return next == Ready
	case Ready:
		return next == Executing || next == Finishing
	case Executing:
		return next == Finishing
	case Finishing:
		return next == Finished
	default:
		return false
	}
}
