package todo

// List is a named, ordered collection of Todos.
// The List exclusively owns its Todos.
type List struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Todos []Todo `json:"todos"`
}

// Todo is a single item owned by exactly one List.
// ID is unique within the owning list.
type Todo struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
}

// Clone returns a deep copy of the list. Todos is never nil on the copy.
func (l List) Clone() List {
	todos := make([]Todo, len(l.Todos))
	copy(todos, l.Todos)
	l.Todos = todos
	return l
}

// FindTodo returns the todo with the given id, or nil.
// The returned pointer aliases the list's slice element.
func FindTodo(l *List, todoID string) *Todo {
	if l == nil {
		return nil
	}
	for i := range l.Todos {
		if l.Todos[i].ID == todoID {
			return &l.Todos[i]
		}
	}
	return nil
}
