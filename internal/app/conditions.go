package app

import (
	"context"
	"fmt"
	"os"

	"github.com/vk/taskgrid/task"
)

// envCondition fails when the named environment variable is unset or empty.
type envCondition struct {
	variable string
}

func requireEnv(variable string) task.Condition {
	return envCondition{variable: variable}
}

func (c envCondition) Name() string { return "RequireEnv(" + c.variable + ")" }

func (envCondition) Exclusive() bool { return false }

func (envCondition) DependencyForTask(t *task.Task) *task.Task { return nil }

func (c envCondition) Evaluate(ctx context.Context, t *task.Task) error {
	if os.Getenv(c.variable) == "" {
		return fmt.Errorf("environment variable %q is not set", c.variable)
	}
	return nil
}
