package config

import "fmt"

// Validate checks the workload for structural problems: empty or duplicate
// task names, commands missing entirely, references to unknown tasks, and
// dependency cycles.
func (w *Workload) Validate() error {
	byName := make(map[string]*Task, len(w.Tasks))
	for _, t := range w.Tasks {
		if t.Name == "" {
			return fmt.Errorf("task with empty name")
		}
		if _, exists := byName[t.Name]; exists {
			return fmt.Errorf("duplicate task name %q", t.Name)
		}
		if len(t.Command) == 0 {
			return fmt.Errorf("task %q has no command", t.Name)
		}
		byName[t.Name] = t
	}

	for _, t := range w.Tasks {
		for _, dep := range t.DependsOn {
			if dep == t.Name {
				return fmt.Errorf("task %q depends on itself", t.Name)
			}
			if _, ok := byName[dep]; !ok {
				return fmt.Errorf("task %q depends on unknown task %q", t.Name, dep)
			}
		}
	}

	return w.detectCycles(byName)
}

// detectCycles runs a depth-first search over the depends_on edges with the
// classic three node sets: permanent (fully visited, known safe), temporary
// (currently on the recursion stack), and unvisited.
func (w *Workload) detectCycles(byName map[string]*Task) error {
	permanent := make(map[string]bool)
	temporary := make(map[string]bool)

	var visit func(t *Task) error
	visit = func(t *Task) error {
		if permanent[t.Name] {
			return nil
		}
		if temporary[t.Name] {
			return fmt.Errorf("dependency cycle involving task %q", t.Name)
		}
		temporary[t.Name] = true
		for _, dep := range t.DependsOn {
			if err := visit(byName[dep]); err != nil {
				return err
			}
		}
		delete(temporary, t.Name)
		permanent[t.Name] = true
		return nil
	}

	for _, t := range w.Tasks {
		if !permanent[t.Name] {
			if err := visit(t); err != nil {
				return err
			}
		}
	}
	return nil
}
