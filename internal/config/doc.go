// Package config defines the format-agnostic workload model. The hcl
// package translates workload files into this model; the app package turns
// the model into coordinated tasks. Keeping the model free of parser types
// keeps the wiring testable without touching the filesystem.
package config
