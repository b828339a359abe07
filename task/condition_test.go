package task

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubCondition is a configurable test condition: it sleeps for delay, then
// reports err (nil means satisfied).
type stubCondition struct {
	name      string
	exclusive bool
	dep       *Task
	delay     time.Duration
	err       error
}

func (c stubCondition) Name() string                     { return c.name }
func (c stubCondition) Exclusive() bool                  { return c.exclusive }
func (c stubCondition) DependencyForTask(tk *Task) *Task { return c.dep }

func (c stubCondition) Evaluate(ctx context.Context, tk *Task) error {
	if c.delay > 0 {
		time.Sleep(c.delay)
	}
	return c.err
}

func TestConditions_FailuresReportedInDeclarationOrder(t *testing.T) {
	// A fails slowly, B fails fast, C succeeds: the failure list must still
	// read [A, B], positional rather than temporal.
	errA := errors.New("a denied")
	errB := errors.New("b denied")
	tk := New("diagnosed", nil)
	tk.AddCondition(stubCondition{name: "A", delay: 50 * time.Millisecond, err: errA})
	tk.AddCondition(stubCondition{name: "B", delay: 5 * time.Millisecond, err: errB})
	tk.AddCondition(stubCondition{name: "C"})

	tk.WillEnqueue()
	tk.DependenciesResolved(context.Background())
	waitForState(t, tk, Ready)

	failures := tk.Errors()
	require.Len(t, failures, 2)

	var first, second *ConditionError
	require.ErrorAs(t, failures[0], &first)
	require.ErrorAs(t, failures[1], &second)
	assert.Equal(t, "A", first.Condition)
	assert.Equal(t, "B", second.Condition)
	assert.ErrorIs(t, failures[0], errA)
	assert.ErrorIs(t, failures[1], errB)
}

func TestConditions_EvaluationIsAsynchronous(t *testing.T) {
	tk := New("async", nil)
	tk.AddCondition(stubCondition{name: "slow", delay: 100 * time.Millisecond})

	tk.WillEnqueue()
	start := time.Now()
	tk.DependenciesResolved(context.Background())
	issued := time.Since(start)

	assert.Less(t, issued, 50*time.Millisecond,
		"DependenciesResolved must return without waiting for evaluations")
	assert.Equal(t, EvaluatingConditions, tk.State())
	waitForState(t, tk, Ready)
	assert.NoError(t, tk.Err())
}

func TestConditions_CancellationRaceAppendsCanonicalError(t *testing.T) {
	tk := New("raced", nil)
	tk.AddCondition(stubCondition{name: "slow", delay: 50 * time.Millisecond})

	tk.WillEnqueue()
	tk.DependenciesResolved(context.Background())
	tk.Cancel()

	waitForState(t, tk, Ready)
	failures := tk.Errors()
	require.NotEmpty(t, failures)
	assert.ErrorIs(t, failures[len(failures)-1], ErrConditionsFailed,
		"cancellation before the barrier appends the canonical error last")
}

func TestConditions_NoConditions(t *testing.T) {
	tk := New("unconditional", nil)
	tk.WillEnqueue()
	tk.DependenciesResolved(context.Background())
	waitForState(t, tk, Ready)
	assert.NoError(t, tk.Err())
}

func TestConditionError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := &ConditionError{Condition: "Gate", Err: cause}
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "Gate")
	assert.Contains(t, err.Error(), "root cause")
}
