package app

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/vk/taskgrid/cond"
	"github.com/vk/taskgrid/internal/config"
	"github.com/vk/taskgrid/task"
)

// buildTasks turns the workload model into wired Task instances: command
// bodies, dependency edges, conditions, exclusivity categories, timeout
// observers, and a logging observer per task.
func (a *App) buildTasks(workload *config.Workload) ([]*task.Task, error) {
	byName := make(map[string]*task.Task, len(workload.Tasks))
	tasks := make([]*task.Task, 0, len(workload.Tasks))

	for _, spec := range workload.Tasks {
		t := task.NewFunc(spec.Name, a.commandBody(spec))

		if !spec.AllowFailedDeps {
			t.AddCondition(cond.NoFailedDependencies())
		}
		for _, name := range spec.RequireEnv {
			t.AddCondition(requireEnv(name))
		}
		for _, category := range spec.Exclusive {
			t.AddCondition(cond.MutuallyExclusive(category))
		}
		if spec.Timeout > 0 {
			t.AddObserver(task.TimeoutObserver(spec.Timeout))
		}
		t.AddObserver(a.logObserver())

		byName[spec.Name] = t
		tasks = append(tasks, t)
	}

	for _, spec := range workload.Tasks {
		for _, dep := range spec.DependsOn {
			byName[spec.Name].AddDependency(byName[dep])
		}
	}

	return tasks, nil
}

// commandBody returns the work body for a command task. The command is
// killed if the task is cancelled mid-run; cancellation errors are already
// recorded on the task, so the kill itself is not reported again.
func (a *App) commandBody(spec *config.Task) func(ctx context.Context, t *task.Task) error {
	argv := spec.Command
	return func(ctx context.Context, t *task.Task) error {
		cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
		cmd.Stdout = a.outW
		cmd.Stderr = a.outW
		if err := cmd.Start(); err != nil {
			return fmt.Errorf("command %q: %w", strings.Join(argv, " "), err)
		}

		waitCh := make(chan error, 1)
		go func() { waitCh <- cmd.Wait() }()

		ticker := time.NewTicker(50 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case err := <-waitCh:
				if err != nil {
					return fmt.Errorf("command %q: %w", strings.Join(argv, " "), err)
				}
				return nil
			case <-ticker.C:
				if t.IsCancelled() {
					_ = cmd.Process.Kill()
					<-waitCh
					return nil
				}
			}
		}
	}
}

// logObserver reports task lifecycle milestones through the app logger.
func (a *App) logObserver() task.Observer {
	return task.BlockObserver{
		OnStart: func(t *task.Task) {
			a.logger.Info("Task started.", "task", t.Name())
		},
		OnProduce: func(t, child *task.Task) {
			a.logger.Info("Task produced child.", "task", t.Name(), "child", child.Name())
		},
		OnFinish: func(t *task.Task, errs []error) {
			if len(errs) > 0 {
				a.logger.Error("Task finished with errors.", "task", t.Name(), "errors", len(errs), "error", errs[0])
				return
			}
			a.logger.Info("Task finished.", "task", t.Name())
		},
	}
}
