package task

import (
	"fmt"
	"time"
)

// timeoutObserver cancels its task if execution runs longer than the grace
// period. Cancellation stays cooperative: the work body must observe
// Task.IsCancelled (or its context) and stop on its own.
type timeoutObserver struct {
	d     time.Duration
	timer *time.Timer
}

// TimeoutObserver returns an observer that cancels the observed task with a
// timeout error if it is still unfinished d after execution started. Each
// returned observer must be attached to exactly one task.
func TimeoutObserver(d time.Duration) Observer {
	return &timeoutObserver{d: d}
}

func (o *timeoutObserver) TaskDidStart(t *Task) {
	o.timer = time.AfterFunc(o.d, func() {
		if !t.IsFinished() {
			t.CancelWithError(fmt.Errorf("task %q exceeded timeout of %s", t.Name(), o.d))
		}
	})
}

func (o *timeoutObserver) TaskDidProduceTask(t, child *Task) {}

func (o *timeoutObserver) TaskDidFinish(t *Task, errs []error) {
	if o.timer != nil {
		o.timer.Stop()
	}
}
