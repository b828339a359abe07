// Package queue provides a reference scheduler for the task package: a
// dependency-aware work queue that drives admitted tasks through their
// lifecycle on a bounded worker pool.
//
// The queue consumes exactly the contract the task core exposes: it calls
// WillEnqueue once at admission, reports dependency satisfaction, observes
// the readiness signals through the state listener, and calls Execute
// exactly once per task. Children produced during execution are admitted
// under the same contract.
package queue

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/hashicorp/go-multierror"
	"github.com/hashicorp/go-set/v2"
	"golang.org/x/sync/semaphore"

	"github.com/vk/taskgrid/internal/ctxlog"
	"github.com/vk/taskgrid/task"
)

// DefaultWorkers is the worker-pool size used when none is configured.
const DefaultWorkers = 10

// Queue admits tasks and runs them to completion, honoring dependency edges,
// readiness signals, and exclusivity categories.
type Queue struct {
	controller *task.ExclusivityController
	sem        *semaphore.Weighted

	mu         sync.Mutex
	admitted   *set.Set[*task.Task]
	order      []*task.Task
	dispatched map[*task.Task]bool
	finished   map[*task.Task]bool
	unfinished int

	kick    chan struct{}
	started atomic.Bool
}

// New creates a queue with the given worker-pool size and exclusivity
// controller. A non-positive size falls back to DefaultWorkers; a nil
// controller gets a private one, which still serializes categories across
// every task admitted to this queue.
func New(workers int, controller *task.ExclusivityController) *Queue {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if controller == nil {
		controller = task.NewExclusivityController()
	}
	return &Queue{
		controller: controller,
		sem:        semaphore.NewWeighted(int64(workers)),
		admitted:   set.New[*task.Task](0),
		dispatched: make(map[*task.Task]bool),
		finished:   make(map[*task.Task]bool),
		kick:       make(chan struct{}, 1),
	}
}

// Add admits a task. Admission collects the extra dependencies contributed
// by the task's conditions (admitting those tasks too), registers the task's
// exclusivity categories, installs the queue's observer and state listener,
// and transitions the task to Pending. Adding the same task twice is a
// no-op.
//
// Add may be called before Run and concurrently with it; tasks produced
// during execution are admitted this way.
func (q *Queue) Add(t *task.Task) {
	q.mu.Lock()
	if q.admitted.Contains(t) {
		q.mu.Unlock()
		return
	}
	q.admitted.Insert(t)
	q.order = append(q.order, t)
	q.unfinished++
	q.mu.Unlock()

	var categories []string
	seen := make(map[string]bool)
	for _, c := range t.Conditions() {
		if dep := c.DependencyForTask(t); dep != nil {
			t.AddDependency(dep)
			q.Add(dep)
		}
		if c.Exclusive() && !seen[c.Name()] {
			seen[c.Name()] = true
			categories = append(categories, c.Name())
		}
	}
	if len(categories) > 0 {
		q.controller.Register(t, categories)
	}

	t.AddObserver(&queueObserver{q: q})
	t.SetStateListener(q)
	t.WillEnqueue()

	q.signal()
}

// Run drives every admitted task to Finished and returns the per-task errors
// combined, or nil if all tasks succeeded. It blocks until the queue has
// drained. When ctx is cancelled, all unfinished tasks are cancelled with
// the context error and the queue keeps draining cooperatively.
//
// Run must be called at most once per queue.
func (q *Queue) Run(ctx context.Context) error {
	if !q.started.CompareAndSwap(false, true) {
		panic("queue: Run called more than once")
	}
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Queue run loop starting.", "unfinished", q.pending())

	done := ctx.Done()
	for {
		q.step(ctx)
		if q.pending() == 0 {
			break
		}
		select {
		case <-q.kick:
		case <-done:
			logger.Warn("Context cancelled, draining remaining tasks.", "error", ctx.Err())
			q.cancelAll(ctx.Err())
			done = nil
		}
	}

	logger.Debug("Queue drained.")
	return q.result()
}

// step performs one scheduling pass: pending tasks whose dependencies have
// all finished (or which are cancelled) move into condition evaluation, and
// ready tasks are handed to a worker.
func (q *Queue) step(ctx context.Context) {
	for _, t := range q.snapshot() {
		if t.IsFinished() || q.isDispatched(t) {
			continue
		}
		switch t.State() {
		case task.Pending:
			if t.IsCancelled() || q.depsFinished(t) {
				t.DependenciesResolved(ctx)
			}
		case task.Ready:
			if t.IsCancelled() || q.depsFinished(t) {
				q.dispatch(ctx, t)
			}
		}
	}
}

// dispatch hands a ready task to a worker goroutine, bounded by the pool
// semaphore. A task is dispatched at most once.
func (q *Queue) dispatch(ctx context.Context, t *task.Task) {
	q.mu.Lock()
	if q.dispatched[t] {
		q.mu.Unlock()
		return
	}
	q.dispatched[t] = true
	q.mu.Unlock()

	logger := ctxlog.FromContext(ctx)
	go func() {
		if err := q.sem.Acquire(ctx, 1); err != nil {
			// The context died while waiting for a worker slot. Cancel the
			// task so Execute short-circuits into its finish sequence.
			t.CancelWithError(err)
		} else {
			defer q.sem.Release(1)
		}
		logger.Debug("Executing task.", "task", t.Name())
		t.Execute(ctx)
	}()
}

func (q *Queue) depsFinished(t *task.Task) bool {
	for _, dep := range t.Dependencies() {
		if !dep.IsFinished() {
			return false
		}
	}
	return true
}

func (q *Queue) cancelAll(cause error) {
	for _, t := range q.snapshot() {
		if !t.IsFinished() && !t.IsCancelled() {
			t.CancelWithError(cause)
		}
	}
}

// result combines each failed task's errors, in admission order.
func (q *Queue) result() error {
	var merr *multierror.Error
	for _, t := range q.snapshot() {
		if err := t.Err(); err != nil {
			merr = multierror.Append(merr, fmt.Errorf("task %q: %w", t.Name(), err))
		}
	}
	return merr.ErrorOrNil()
}

func (q *Queue) snapshot() []*task.Task {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]*task.Task, len(q.order))
	copy(out, q.order)
	return out
}

func (q *Queue) pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.unfinished
}

func (q *Queue) isDispatched(t *task.Task) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.dispatched[t]
}

// signal nudges the run loop to re-scan without ever blocking the caller.
func (q *Queue) signal() {
	select {
	case q.kick <- struct{}{}:
	default:
	}
}

// TaskStateWillChange implements task.StateListener.
func (q *Queue) TaskStateWillChange(t *task.Task) {}

// TaskStateDidChange implements task.StateListener. Every state change may
// change a derived readiness signal, so the run loop re-polls. The drain
// counter is maintained here rather than in the finish observer so that
// unfinished reaches zero only once the task's terminal transition is
// complete.
func (q *Queue) TaskStateDidChange(t *task.Task) {
	if t.IsFinished() {
		q.mu.Lock()
		if !q.finished[t] {
			q.finished[t] = true
			q.unfinished--
		}
		q.mu.Unlock()
	}
	q.signal()
}

// queueObserver feeds produced children back into the queue.
type queueObserver struct {
	q *Queue
}

func (o *queueObserver) TaskDidStart(t *task.Task) {}

func (o *queueObserver) TaskDidProduceTask(t, child *task.Task) {
	o.q.Add(child)
}

func (o *queueObserver) TaskDidFinish(t *task.Task, errs []error) {}
