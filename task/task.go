package task

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/hashicorp/go-set/v2"
)

// Executable is the capability a concrete task type implements to customize
// the work body and the finish hook. The Task engine drives the lifecycle;
// the Executable supplies the behavior.
//
// Run is handed control once the Task has transitioned to Executing. It may
// block, spawn goroutines, and produce child tasks via Task.ProduceChild, but
// it must arrange for Task.Finish to eventually be called, on any goroutine.
//
// Finished is invoked exactly once during the finish sequence with the
// combined error list, before observers are notified.
type Executable interface {
	Run(ctx context.Context, t *Task)
	Finished(errs []error)
}

// StateListener receives the in-process publish steps bracketing every state
// mutation: TaskStateWillChange fires before the state lock is taken,
// TaskStateDidChange after it is released. Schedulers use the did-change
// notification to re-poll the derived readiness signals.
type StateListener interface {
	TaskStateWillChange(t *Task)
	TaskStateDidChange(t *Task)
}

// Task is a schedulable unit of work with an explicit lifecycle state
// machine, asynchronous precondition evaluation, and an observer protocol.
//
// A Task does not run itself: an external scheduler admits it (WillEnqueue),
// reports dependency satisfaction (DependenciesResolved), observes the
// IsReady / IsExecuting / IsFinished signals, and invokes Execute. The Task
// produces those signals and the dependency edges the scheduler consumes.
type Task struct {
	name string
	exec Executable

	// listener is set once by the admitting scheduler; nil until then.
	listener atomic.Pointer[stateListenerBox]

	mu          sync.Mutex
	state       State
	conditions  []Condition
	observers   []Observer
	deps        *set.Set[*Task]
	errs        []error
	hasFinished bool

	// exclusivity bookkeeping, populated by ExclusivityController.Register
	// so the finish sequence can unregister with the same category set.
	controller *ExclusivityController
	categories *set.Set[string]

	cancelled atomic.Bool
}

// stateListenerBox exists so an interface value can live in an
// atomic.Pointer.
type stateListenerBox struct {
	l StateListener
}

// New constructs a Task around the given Executable. The name is used for
// diagnostics only; identity is the Task value itself. An empty name is
// replaced with a generated one. A nil Executable produces a Task that
// finishes as soon as it is executed.
func New(name string, exec Executable) *Task {
	if name == "" {
		name = uuid.NewString()
	}
	return &Task{
		name:       name,
		exec:       exec,
		deps:       set.New[*Task](0),
		categories: set.New[string](0),
	}
}

// Name returns the diagnostic name of the Task.
func (t *Task) Name() string {
	return t.name
}

// State returns the current lifecycle state.
func (t *Task) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// IsReady reports whether the scheduler may execute the Task.
//
// A cancelled Task is ready at any state, including Initialized, so that the
// scheduler can drain it promptly; otherwise readiness begins once condition
// evaluation has completed.
func (t *Task) IsReady() bool {
	if t.cancelled.Load() {
		return true
	}
	return t.State() >= Ready
}

// IsExecuting reports whether the work body is currently running.
func (t *Task) IsExecuting() bool {
	return t.State() == Executing
}

// IsFinished reports whether the Task has reached its terminal state.
func (t *Task) IsFinished() bool {
	return t.State() == Finished
}

// IsCancelled reports whether the Task has been cancelled. Cancellation is
// cooperative: the flag does not preempt in-flight work.
func (t *Task) IsCancelled() bool {
	return t.cancelled.Load()
}

// SetStateListener installs the scheduler's state-change listener. It must be
// installed before execution begins.
func (t *Task) SetStateListener(l StateListener) {
	t.mu.Lock()
	t.assertMutable("state listener")
	t.mu.Unlock()
	t.listener.Store(&stateListenerBox{l: l})
}

// AddCondition appends a precondition. Conditions may only be added before
// execution begins; later calls are a programming error and panic.
func (t *Task) AddCondition(c Condition) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.assertMutable("conditions")
	t.conditions = append(t.conditions, c)
}

// Conditions returns the conditions in declaration order.
func (t *Task) Conditions() []Condition {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Condition, len(t.conditions))
	copy(out, t.conditions)
	return out
}

// AddObserver appends a lifecycle observer. Observers may only be added
// before execution begins; later calls are a programming error and panic.
func (t *Task) AddObserver(o Observer) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.assertMutable("observers")
	t.observers = append(t.observers, o)
}

// AddDependency records that t must not execute until dep has finished. The
// edge is consumed by the external scheduler; the Task itself never walks it.
// Dependencies may only be mutated before execution begins.
func (t *Task) AddDependency(dep *Task) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.assertMutable("dependencies")
	t.deps.Insert(dep)
}

// RemoveDependency removes a previously added dependency edge. Removing an
// edge that was never added is a no-op.
func (t *Task) RemoveDependency(dep *Task) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.assertMutable("dependencies")
	t.deps.Remove(dep)
}

// Dependencies returns the current dependency edges. Order is unspecified.
func (t *Task) Dependencies() []*Task {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.deps.Slice()
}

// Errors returns a copy of the accumulated error list, in accumulation
// order: condition failures first (declaration order), then cancellation and
// finish errors in the order supplied.
func (t *Task) Errors() []error {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]error, len(t.errs))
	copy(out, t.errs)
	return out
}

// Err returns the accumulated errors combined into a single error, or nil if
// none accumulated.
func (t *Task) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.errs) == 0 {
		return nil
	}
	var merr *multierror.Error
	merr = multierror.Append(merr, t.errs...)
	return merr.ErrorOrNil()
}

// WillEnqueue transitions the Task from Initialized to Pending. The scheduler
// calls it exactly once, immediately before admitting the Task.
func (t *Task) WillEnqueue() {
	t.setState(Pending)
}

// DependenciesResolved is called by the scheduler once every dependency edge
// has finished (or immediately, if the Task is cancelled). It transitions to
// EvaluatingConditions and fans the condition list out to concurrent
// evaluation; when the join barrier fires, accumulated failures are appended
// and the Task becomes Ready. The transition to Ready happens whether or not
// failures occurred: failure handling is deferred to Execute.
func (t *Task) DependenciesResolved(ctx context.Context) {
	t.setState(EvaluatingConditions)

	if t.cancelled.Load() {
		// Drain path: skip evaluation entirely so condition side effects
		// never run for a cancelled Task.
		t.appendErrors(ErrConditionsFailed)
		t.setState(Ready)
		return
	}

	evaluateConditions(ctx, t.Conditions(), t, func(failures []error) {
		t.appendErrors(failures...)
		t.setState(Ready)
	})
}

// Execute is invoked by the scheduler exactly once, when the Task is Ready
// and its dependencies have finished. Calling it in any other state is a
// programming error and panics.
//
// If errors have accumulated or the Task is cancelled, it finishes
// immediately without running the work body. Otherwise it transitions to
// Executing, notifies observers of the start, and hands control to the
// Executable.
func (t *Task) Execute(ctx context.Context) {
	t.mu.Lock()
	if t.state != Ready {
		cur := t.state
		t.mu.Unlock()
		panic(fmt.Sprintf("task %q: Execute called in state %s, want %s", t.name, cur, Ready))
	}
	failed := len(t.errs) > 0
	t.mu.Unlock()

	if failed || t.cancelled.Load() {
		t.Finish()
		return
	}

	t.setState(Executing)
	for _, o := range t.snapshotObservers() {
		o.TaskDidStart(t)
	}

	if t.exec == nil {
		t.Finish()
		return
	}
	t.exec.Run(ctx, t)
}

// ProduceChild notifies observers that the Task has produced a new
// schedulable unit. It does not enqueue the child; an observing scheduler is
// expected to admit it under the usual contract.
func (t *Task) ProduceChild(child *Task) {
	for _, o := range t.snapshotObservers() {
		o.TaskDidProduceTask(t, child)
	}
}

// Finish completes the Task. The first call combines the internally
// accumulated errors with the supplied ones (internal errors first), invokes
// the Executable's Finished hook, notifies every observer with the combined
// list, and drives the state to Finished. Subsequent calls are no-ops. Nil
// errors in errs are discarded.
func (t *Task) Finish(errs ...error) {
	t.mu.Lock()
	if t.hasFinished {
		t.mu.Unlock()
		return
	}
	t.hasFinished = true
	t.mu.Unlock()

	t.setState(Finishing)

	t.mu.Lock()
	for _, err := range errs {
		if err != nil {
			t.errs = append(t.errs, err)
		}
	}
	combined := make([]error, len(t.errs))
	copy(combined, t.errs)
	controller := t.controller
	var categories []string
	if t.categories != nil {
		categories = t.categories.Slice()
	}
	t.mu.Unlock()

	if controller != nil {
		controller.Unregister(t, categories)
	}
	if t.exec != nil {
		t.exec.Finished(combined)
	}
	for _, o := range t.snapshotObservers() {
		o.TaskDidFinish(t, combined)
	}

	t.setState(Finished)
}

// Cancel marks the Task cancelled. Equivalent to CancelWithError(nil).
func (t *Task) Cancel() {
	t.CancelWithError(nil)
}

// CancelWithError appends the optional error to the accumulated list, then
// sets the cancellation flag. It never changes the state directly;
// cancellation is observed at the defined checkpoints (IsReady, Execute
// entry, and the condition-evaluation barrier).
func (t *Task) CancelWithError(err error) {
	if err != nil {
		t.appendErrors(err)
	}
	t.notifyWillChange()
	t.cancelled.Store(true)
	t.notifyDidChange()
}

// setState performs a guarded, validated state transition and publishes the
// change to the state listener: will-change before the lock is taken,
// did-change after it is released. Once Finished is reached, further
// transition attempts are silently ignored; any other illegal transition is
// a programming error and panics.
func (t *Task) setState(next State) {
	if t.State() == Finished {
		return
	}
	t.notifyWillChange()
	t.mu.Lock()
	cur := t.state
	if cur == Finished {
		t.mu.Unlock()
		return
	}
	if !cur.canTransition(next) {
		t.mu.Unlock()
		panic(fmt.Sprintf("task %q: illegal state transition %s -> %s", t.name, cur, next))
	}
	t.state = next
	t.mu.Unlock()
	t.notifyDidChange()
}

// assertMutable panics unless the Task is still mutable. Callers must hold
// t.mu.
func (t *Task) assertMutable(what string) {
	if t.state >= Executing {
		panic(fmt.Sprintf("task %q: cannot modify %s after execution has begun (state %s)", t.name, what, t.state))
	}
}

func (t *Task) appendErrors(errs ...error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.errs = append(t.errs, errs...)
}

func (t *Task) snapshotObservers() []Observer {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Observer, len(t.observers))
	copy(out, t.observers)
	return out
}

func (t *Task) notifyWillChange() {
	if box := t.listener.Load(); box != nil && box.l != nil {
		box.l.TaskStateWillChange(t)
	}
}

func (t *Task) notifyDidChange() {
	if box := t.listener.Load(); box != nil && box.l != nil {
		box.l.TaskStateDidChange(t)
	}
}
