package task

import "sync"

// ExclusivityController serializes tasks that share a named category, even
// when the tasks belong to unrelated schedulers. It owns a registry mapping
// each category name to the ordered sequence of in-flight tasks registered
// under it; every newly registered task gains a dependency edge on the
// previous tail of each of its categories, producing a single linear order
// per category.
//
// Construct exactly one controller per process and pass it by reference to
// everything that needs exclusivity. All registry mutations funnel through a
// single internal guard, so registration is synchronous relative to task
// admission: the dependency wiring is complete before the task can possibly
// begin executing.
type ExclusivityController struct {
	mu         sync.Mutex
	categories map[string][]*Task
}

// NewExclusivityController creates an empty controller.
func NewExclusivityController() *ExclusivityController {
	return &ExclusivityController{
		categories: make(map[string][]*Task),
	}
}

// Register appends t to each category's sequence, adding a dependency edge
// from t onto the previous tail where one exists. Categories are processed
// independently; there is no ordering constraint between different
// categories.
//
// The controller records itself and the categories on the task so that the
// task's finish sequence unregisters with the same set; the registry never
// leaks finished tasks.
func (c *ExclusivityController) Register(t *Task, categories []string) {
	c.mu.Lock()
	for _, name := range categories {
		chain := c.categories[name]
		if n := len(chain); n > 0 {
			t.AddDependency(chain[n-1])
		}
		c.categories[name] = append(chain, t)
	}
	c.mu.Unlock()

	t.bindExclusivity(c, categories)
}

// Unregister removes t from each category's sequence. Removal is by
// identity; removing a task that is not present is a no-op. Dependency edges
// established at registration time are not altered: tasks that already
// captured an edge keep it.
func (c *ExclusivityController) Unregister(t *Task, categories []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, name := range categories {
		chain := c.categories[name]
		for i, other := range chain {
			if other == t {
				c.categories[name] = append(chain[:i], chain[i+1:]...)
				break
			}
		}
		if len(c.categories[name]) == 0 {
			delete(c.categories, name)
		}
	}
}

// bindExclusivity records the controller and categories on the task for the
// finish-time unregister.
func (t *Task) bindExclusivity(c *ExclusivityController, categories []string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.controller = c
	t.categories.InsertSlice(categories)
}
