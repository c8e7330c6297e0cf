package harness

import (
	"github.com/roach88/todos/internal/todo"
)

// StepEvent records one executed step.
type StepEvent struct {
	Seq   int    `json:"seq"`
	Op    string `json:"op"`
	List  string `json:"list,omitempty"`
	Todo  string `json:"todo,omitempty"`
	Title string `json:"title,omitempty"`

	// Completed is the requested status of a set_todo step.
	Completed *bool `json:"completed,omitempty"`

	// Rejected holds the validation code when the step was rejected.
	Rejected string `json:"rejected,omitempty"`
}

// ListState is a list in a Snapshot, with derived status.
type ListState struct {
	ID        string      `json:"id"`
	Title     string      `json:"title"`
	Completed bool        `json:"completed"`
	Remaining int         `json:"remaining"`
	Todos     []todo.Todo `json:"todos"`
}

// Snapshot is the backend-independent outcome of a scenario: the step trace
// and the final lists, ordered by todo.SortLists and todo.SortTodos.
type Snapshot struct {
	Scenario string      `json:"scenario"`
	Trace    []StepEvent `json:"trace"`
	Lists    []ListState `json:"lists"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates every assertion and reject expectation held.
	Pass bool `json:"pass"`

	// Errors contains failure messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	Snapshot Snapshot `json:"snapshot"`
}

// NewResult creates a new passing result.
func NewResult(name string) *Result {
	return &Result{
		Pass:   true,
		Errors: []string{},
		Snapshot: Snapshot{
			Scenario: name,
			Trace:    []StepEvent{},
			Lists:    []ListState{},
		},
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

func newSnapshotLists(lists []todo.List) []ListState {
	sorted := todo.SortLists(lists)
	out := make([]ListState, 0, len(sorted))
	for _, l := range sorted {
		todos := todo.SortTodos(l.Todos)
		out = append(out, ListState{
			ID:        l.ID,
			Title:     l.Title,
			Completed: todo.IsListCompleted(l),
			Remaining: todo.RemainingCount(l),
			Todos:     todos,
		})
	}
	return out
}
