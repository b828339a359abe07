package config

import "time"

// Workload is the format-agnostic representation of a user's workload
// definition: the set of tasks to coordinate, with their dependency edges,
// exclusivity categories, and precondition settings.
type Workload struct {
	Tasks []*Task
}

// Task is the format-agnostic representation of a `task` block.
type Task struct {
	// Name is the unique, human-readable task name.
	Name string
	// Command is the argv of the command the task runs.
	Command []string
	// DependsOn lists the names of tasks that must finish first.
	DependsOn []string
	// Exclusive lists exclusivity category names; tasks sharing a category
	// never run concurrently, process-wide.
	Exclusive []string
	// RequireEnv lists environment variables that must be set for the task
	// to be allowed to run.
	RequireEnv []string
	// AllowFailedDeps disables the default precondition that every
	// dependency must have finished without errors.
	AllowFailedDeps bool
	// Timeout cancels the task if its execution exceeds the duration.
	// Zero means no timeout.
	Timeout time.Duration
}
