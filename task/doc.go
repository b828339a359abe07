// Package task provides a cooperative coordination layer for units of work
// run by an external concurrent scheduler.
//
// The package augments plain "runnable unit of work" semantics with an
// explicit lifecycle state machine ([State], [Task]), asynchronous
// precondition evaluation before execution ([Condition]), process-wide
// mutual-exclusion categories that serialize unrelated tasks
// ([ExclusivityController]), and a passive notification protocol for
// lifecycle events ([Observer], [BlockObserver]).
//
// The package does not create or manage worker goroutines. A Task is a
// passive state holder: the scheduler admits it with [Task.WillEnqueue],
// reports dependency satisfaction with [Task.DependenciesResolved], polls
// the derived [Task.IsReady], [Task.IsExecuting], and [Task.IsFinished]
// signals, and invokes [Task.Execute] when the Task is ready and its
// dependencies have finished. See the queue package for a reference
// scheduler implementing this contract.
//
// There is deliberately no "wait for a task to finish" primitive. Waiting
// synchronously from inside a worker would deadlock a bounded pool; callers
// coordinate through dependency edges and observers instead.
package task
