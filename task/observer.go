package task

// Observer is a passive listener notified synchronously, in registration
// order, at three points of a Task's lifecycle: execution start, child
// production, and finish. Observers must not block for long; they run inline
// with the Task's own lifecycle calls.
type Observer interface {
	// TaskDidStart fires when the Task transitions to Executing, before
	// the work body runs.
	TaskDidStart(t *Task)

	// TaskDidProduceTask fires when the Task produces a new schedulable
	// unit. The observing scheduler is expected to admit the child.
	TaskDidProduceTask(t, child *Task)

	// TaskDidFinish fires during the finish sequence with the combined
	// error list, after the Executable's Finished hook.
	TaskDidFinish(t *Task, errs []error)
}

// BlockObserver adapts up to three optional callbacks into an Observer,
// forwarding only the notification points that are supplied. Useful for
// lightweight, one-off observation without a dedicated type per use site.
type BlockObserver struct {
	OnStart   func(t *Task)
	OnProduce func(t, child *Task)
	OnFinish  func(t *Task, errs []error)
}

// TaskDidStart implements Observer.
func (o BlockObserver) TaskDidStart(t *Task) {
	if o.OnStart != nil {
		o.OnStart(t)
	}
}

// TaskDidProduceTask implements Observer.
func (o BlockObserver) TaskDidProduceTask(t, child *Task) {
	if o.OnProduce != nil {
		o.OnProduce(t, child)
	}
}

// TaskDidFinish implements Observer.
func (o BlockObserver) TaskDidFinish(t *Task, errs []error) {
	if o.OnFinish != nil {
		o.OnFinish(t, errs)
	}
}
