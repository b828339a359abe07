package cond

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/taskgrid/task"
)

// runToFinished drives a task through the full scheduler contract.
func runToFinished(t *testing.T, tk *task.Task) {
	t.Helper()
	tk.WillEnqueue()
	tk.DependenciesResolved(context.Background())
	require.Eventually(t, func() bool { return tk.State() == task.Ready }, time.Second, time.Millisecond)
	tk.Execute(context.Background())
	require.Eventually(t, tk.IsFinished, time.Second, time.Millisecond)
}

func TestNoFailedDependencies(t *testing.T) {
	t.Run("clean dependencies pass", func(t *testing.T) {
		dep := task.NewFunc("ok-dep", func(ctx context.Context, tk *task.Task) error { return nil })
		runToFinished(t, dep)

		tk := task.New("guarded", nil)
		tk.AddDependency(dep)
		err := NoFailedDependencies().Evaluate(context.Background(), tk)
		assert.NoError(t, err)
	})

	t.Run("failed dependency rejects", func(t *testing.T) {
		dep := task.NewFunc("bad-dep", func(ctx context.Context, tk *task.Task) error {
			return errors.New("boom")
		})
		runToFinished(t, dep)

		tk := task.New("guarded", nil)
		tk.AddDependency(dep)
		err := NoFailedDependencies().Evaluate(context.Background(), tk)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bad-dep")
	})

	t.Run("cancelled dependency rejects", func(t *testing.T) {
		dep := task.New("cancelled-dep", nil)
		dep.Cancel()

		tk := task.New("guarded", nil)
		tk.AddDependency(dep)
		err := NoFailedDependencies().Evaluate(context.Background(), tk)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cancelled")
	})
}

func TestMutuallyExclusive(t *testing.T) {
	c := MutuallyExclusive("database")
	assert.Equal(t, "database", c.Name())
	assert.True(t, c.Exclusive())
	assert.Nil(t, c.DependencyForTask(task.New("t", nil)))
	assert.NoError(t, c.Evaluate(context.Background(), task.New("t", nil)))
}

func TestNegate(t *testing.T) {
	failing := stub{name: "Gate", err: errors.New("denied")}
	passing := stub{name: "Gate"}

	assert.NoError(t, Negate(failing).Evaluate(context.Background(), nil))
	err := Negate(passing).Evaluate(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpectedly satisfied")
	assert.Equal(t, "NotGate", Negate(passing).Name())
}

func TestSilent(t *testing.T) {
	dep := task.New("contributed", nil)
	inner := stub{name: "Gate", dep: dep, err: errors.New("denied")}

	silenced := Silent(inner)
	assert.Nil(t, silenced.DependencyForTask(task.New("t", nil)),
		"Silent suppresses the contributed dependency")
	assert.Error(t, silenced.Evaluate(context.Background(), nil),
		"Silent still evaluates the wrapped condition")
	assert.Equal(t, "SilentGate", silenced.Name())
}

// stub is a minimal configurable condition for combinator tests.
type stub struct {
	name string
	dep  *task.Task
	err  error
}

func (s stub) Name() string                               { return s.name }
func (s stub) Exclusive() bool                            { return false }
func (s stub) DependencyForTask(tk *task.Task) *task.Task { return s.dep }

func (s stub) Evaluate(ctx context.Context, tk *task.Task) error { return s.err }
