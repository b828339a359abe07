// Package cond provides reusable precondition implementations and
// combinators for the task package's Condition contract.
package cond

import (
	"context"
	"fmt"

	"github.com/vk/taskgrid/task"
)

// noFailedDeps fails when any dependency of the task finished with errors or
// was cancelled.
type noFailedDeps struct{}

// NoFailedDependencies returns a condition that is satisfied only if none of
// the task's dependencies were cancelled or finished with errors. It is
// evaluated after the scheduler has reported all dependencies finished, so
// the dependency outcomes are stable by the time it runs.
func NoFailedDependencies() task.Condition {
	return noFailedDeps{}
}

func (noFailedDeps) Name() string { return "NoFailedDependencies" }

func (noFailedDeps) Exclusive() bool { return false }

func (noFailedDeps) DependencyForTask(t *task.Task) *task.Task { return nil }

func (noFailedDeps) Evaluate(ctx context.Context, t *task.Task) error {
	for _, dep := range t.Dependencies() {
		if dep.IsCancelled() {
			return fmt.Errorf("dependency %q was cancelled", dep.Name())
		}
		if err := dep.Err(); err != nil {
			return fmt.Errorf("dependency %q failed: %w", dep.Name(), err)
		}
	}
	return nil
}

// mutuallyExclusive is always satisfied; its only effect is declaring an
// exclusivity category under its name.
type mutuallyExclusive struct {
	category string
}

// MutuallyExclusive returns a condition that serializes all tasks carrying
// it under the given category name, process-wide. The condition itself
// always evaluates successfully.
func MutuallyExclusive(category string) task.Condition {
	return mutuallyExclusive{category: category}
}

func (c mutuallyExclusive) Name() string { return c.category }

func (mutuallyExclusive) Exclusive() bool { return true }

func (mutuallyExclusive) DependencyForTask(t *task.Task) *task.Task { return nil }

func (mutuallyExclusive) Evaluate(ctx context.Context, t *task.Task) error { return nil }

// negated inverts the wrapped condition's result.
type negated struct {
	inner task.Condition
}

// Negate returns a condition satisfied exactly when the wrapped condition
// fails. Exclusivity and the contributed dependency are passed through
// unchanged.
func Negate(c task.Condition) task.Condition {
	return negated{inner: c}
}

func (c negated) Name() string { return "Not" + c.inner.Name() }

func (c negated) Exclusive() bool { return c.inner.Exclusive() }

func (c negated) DependencyForTask(t *task.Task) *task.Task {
	return c.inner.DependencyForTask(t)
}

func (c negated) Evaluate(ctx context.Context, t *task.Task) error {
	if err := c.inner.Evaluate(ctx, t); err != nil {
		return nil
	}
	return fmt.Errorf("condition %q was unexpectedly satisfied", c.inner.Name())
}

// silent suppresses the wrapped condition's contributed dependency.
type silent struct {
	inner task.Condition
}

// Silent returns the wrapped condition with its contributed dependency
// suppressed: the condition is still evaluated, but the task gains no extra
// dependency edge from it.
func Silent(c task.Condition) task.Condition {
	return silent{inner: c}
}

func (c silent) Name() string { return "Silent" + c.inner.Name() }

func (c silent) Exclusive() bool { return c.inner.Exclusive() }

func (silent) DependencyForTask(t *task.Task) *task.Task { return nil }

func (c silent) Evaluate(ctx context.Context, t *task.Task) error {
	return c.inner.Evaluate(ctx, t)
}
