package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/vk/taskgrid/internal/ctxlog"
	"github.com/vk/taskgrid/internal/hcl"
	"github.com/vk/taskgrid/queue"
	"github.com/vk/taskgrid/task"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW   io.Writer
	logger *slog.Logger
	config *Config
}

// New is the constructor for the main application, with its own isolated logger.
func New(outW io.Writer, cfg *Config) *App {
	return &App{
		outW:   outW,
		logger: newLogger(cfg.LogLevel, cfg.LogFormat, outW),
		config: cfg,
	}
}

// Run loads and validates the workload, builds the coordinated task set, and
// drains it through the queue.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	loader := hcl.NewLoader()
	workload, err := loader.Load(ctx, a.config.WorkloadPath)
	if err != nil {
		return fmt.Errorf("failed to load workload: %w", err)
	}
	if err := workload.Validate(); err != nil {
		return fmt.Errorf("invalid workload: %w", err)
	}
	a.logger.Debug("Workload loaded and validated.", "task_count", len(workload.Tasks))

	controller := task.NewExclusivityController()
	q := queue.New(a.config.WorkerCount, controller)

	tasks, err := a.buildTasks(workload)
	if err != nil {
		return err
	}
	for _, t := range tasks {
		q.Add(t)
	}

	a.logger.Info("Starting workload execution.", "tasks", len(tasks), "workers", a.config.WorkerCount)
	if err := q.Run(ctx); err != nil {
		return fmt.Errorf("workload execution failed: %w", err)
	}
	a.logger.Info("Workload execution finished.")
	return nil
}
