package task

import "context"

// funcExec adapts a plain function into an Executable. The function's error,
// if any, becomes the finish error.
type funcExec struct {
	fn func(ctx context.Context, t *Task) error
}

func (e *funcExec) Run(ctx context.Context, t *Task) {
	t.Finish(e.fn(ctx, t))
}

func (e *funcExec) Finished(errs []error) {}

// NewFunc constructs a Task whose work body is the given function. The Task
// finishes when the function returns; a non-nil return value is recorded as
// a finish error.
func NewFunc(name string, fn func(ctx context.Context, t *Task) error) *Task {
	return New(name, &funcExec{fn: fn})
}
