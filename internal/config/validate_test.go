package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func mkTask(name string, deps ...string) *Task {
	return &Task{Name: name, Command: []string{"true"}, DependsOn: deps}
}

func TestValidate_OK(t *testing.T) {
	w := &Workload{Tasks: []*Task{
		mkTask("a"),
		mkTask("b", "a"),
		mkTask("c", "a", "b"),
	}}
	require.NoError(t, w.Validate())
}

func TestValidate_EmptyName(t *testing.T) {
	w := &Workload{Tasks: []*Task{mkTask("")}}
	err := w.Validate()
	require.Error(t, err)
	require.Contains(t, err.Error(), "empty name")
}

func TestValidate_DuplicateName(t *testing.T) {
	w := &Workload{Tasks: []*Task{mkTask("a"), mkTask("a")}}
	err := w.Validate()
	require.Error(t, err)
	require.Contains(t, err.Error(), `duplicate task name "a"`)
}

func TestValidate_MissingCommand(t *testing.T) {
	w := &Workload{Tasks: []*Task{{Name: "a"}}}
	err := w.Validate()
	require.Error(t, err)
	require.Contains(t, err.Error(), `task "a" has no command`)
}

func TestValidate_SelfDependency(t *testing.T) {
	w := &Workload{Tasks: []*Task{mkTask("a", "a")}}
	err := w.Validate()
	require.Error(t, err)
	require.Contains(t, err.Error(), `depends on itself`)
}

func TestValidate_UnknownDependency(t *testing.T) {
	w := &Workload{Tasks: []*Task{mkTask("a", "missing")}}
	err := w.Validate()
	require.Error(t, err)
	require.Contains(t, err.Error(), `unknown task "missing"`)
}

func TestValidate_CycleDetected(t *testing.T) {
	w := &Workload{Tasks: []*Task{
		mkTask("a", "c"),
		mkTask("b", "a"),
		mkTask("c", "b"),
	}}
	err := w.Validate()
	require.Error(t, err)
	require.Contains(t, err.Error(), "dependency cycle")
}

func TestValidate_DiamondIsNotACycle(t *testing.T) {
	w := &Workload{Tasks: []*Task{
		mkTask("root"),
		mkTask("left", "root"),
		mkTask("right", "root"),
		mkTask("join", "left", "right"),
	}}
	require.NoError(t, w.Validate())
}
