package task

import (
	"context"
	"sync"
)

// Condition is an asynchronous precondition a Task must satisfy before it is
// allowed to run. Conditions are typically stateless policy objects: they do
// not own Tasks and may be reused across many of them.
type Condition interface {
	// Name identifies the condition in diagnostics. For exclusive
	// conditions it doubles as the exclusivity category name.
	Name() string

	// Exclusive reports whether tasks carrying this condition must be
	// serialized process-wide under the condition's name.
	Exclusive() bool

	// DependencyForTask returns an extra dependency the condition
	// contributes to its owning Task, or nil. The scheduler queries this
	// before the Task enters condition evaluation and is responsible for
	// admitting the returned task.
	DependencyForTask(t *Task) *Task

	// Evaluate checks the condition for the given Task. A nil return means
	// satisfied; any error is the failure reason. Evaluate runs on an
	// arbitrary goroutine, concurrently with other conditions of the same
	// Task.
	Evaluate(ctx context.Context, t *Task) error
}

// evaluateConditions fans the condition list out to concurrent evaluation
// and invokes done exactly once, after every evaluation has completed.
//
// Failures are delivered in declaration order, not completion order: each
// evaluation writes into a result slot indexed by the condition's original
// position, and the failure list is built by scanning the slots after the
// join barrier. If the Task was cancelled at any point before the barrier
// fires, the canonical ErrConditionsFailed is appended.
//
// The caller returns immediately; done arrives on a separate goroutine.
func evaluateConditions(ctx context.Context, conds []Condition, t *Task, done func(failures []error)) {
	results := make([]error, len(conds))

	var wg sync.WaitGroup
	wg.Add(len(conds))
	for i, c := range conds {
		go func(i int, c Condition) {
			defer wg.Done()
			results[i] = c.Evaluate(ctx, t)
		}(i, c)
	}

	go func() {
		wg.Wait()
		var failures []error
		for i, err := range results {
			if err != nil {
				failures = append(failures, &ConditionError{
					Condition: conds[i].Name(),
					Err:       err,
				})
			}
		}
		if t.IsCancelled() {
			failures = append(failures, ErrConditionsFailed)
		}
		done(failures)
	}()
}
