// Package app wires the application together: it loads an HCL workload into
// the config model, builds coordinated tasks with their conditions,
// exclusivity categories, and observers, and drains them through the queue.
package app
