package harness

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/roach88/todos/internal/ident"
	"github.com/roach88/todos/internal/store"
	"github.com/roach88/todos/internal/store/sessionstore"
	"github.com/roach88/todos/internal/store/sqlstore"
	"github.com/roach88/todos/internal/todo"
)

// unknownID is passed to the store for references that resolve to nothing.
const unknownID = "unknown"

// Backend opens a fresh, empty store for one scenario run.
type Backend struct {
	Name string
	Open func(ctx context.Context, ids ident.Generator) (store.Store, func() error, error)
}

// Backends returns the session backend and a SQLite backend whose database
// files live under dir.
func Backends(dir string) []Backend {
	n := 0
	return []Backend{
		{
			Name: "session",
			Open: func(ctx context.Context, ids ident.Generator) (store.Store, func() error, error) {
				return sessionstore.New(nil, ids), func() error { return nil }, nil
			},
		},
		{
			Name: "sqlite",
			Open: func(ctx context.Context, ids ident.Generator) (store.Store, func() error, error) {
				n++
				path := filepath.Join(dir, fmt.Sprintf("scenario-%d.db", n))
				s, err := sqlstore.Open(ctx, path, ids)
				if err != nil {
					return nil, nil, err
				}
				return s, s.Close, nil
			},
		},
	}
}

// RunOn opens a fresh store from the backend with deterministic ids and
// runs the scenario against it.
func RunOn(ctx context.Context, b Backend, scenario *Scenario) (*Result, error) {
	st, closeFn, err := b.Open(ctx, ident.NewSequenceGenerator("id"))
	if err != nil {
		return nil, fmt.Errorf("open %s backend: %w", b.Name, err)
	}
	defer func() {
		if closeErr := closeFn(); closeErr != nil {
			slog.Error("error closing backend", "backend", b.Name, "error", closeErr)
		}
	}()

	return Run(ctx, st, scenario)
}

// Run executes a scenario against st and returns the result.
// st should be empty. Storage faults abort the run and are returned;
// failed expectations are recorded in the result.
func Run(ctx context.Context, st store.Store, scenario *Scenario) (*Result, error) {
	result := NewResult(scenario.Name)

	for i, step := range scenario.Steps {
		event, err := runStep(ctx, st, i+1, step)
		if err != nil {
			return nil, fmt.Errorf("step %d (%s): %w", i+1, step.Op, err)
		}
		result.Snapshot.Trace = append(result.Snapshot.Trace, event)

		if step.Reject != event.rejectReason() {
			result.AddError(fmt.Sprintf("step %d (%s %q): expected reject %q, got %q",
				i+1, step.Op, step.Title, step.Reject, event.rejectReason()))
		}
	}

	lists, err := st.AllLists(ctx)
	if err != nil {
		return nil, fmt.Errorf("read final state: %w", err)
	}
	result.Snapshot.Lists = newSnapshotLists(lists)

	for _, a := range scenario.Assertions {
		if err := evaluate(lists, a); err != nil {
			result.AddError(err.Error())
		}
	}

	return result, nil
}

// runStep performs validation (for ops that validate) and the store call.
func runStep(ctx context.Context, st store.Store, seq int, step Step) (StepEvent, error) {
	event := StepEvent{
		Seq:   seq,
		Op:    step.Op,
		List:  step.List,
		Todo:  step.Todo,
		Title: step.Title,
	}
	if step.Op == OpSetTodo {
		event.Completed = step.Completed
	}

	lists, err := st.AllLists(ctx)
	if err != nil {
		return event, err
	}
	list := findByTitle(lists, step.List)
	listID := unknownID
	if list != nil {
		listID = list.ID
	}
	todoID := unknownID
	if list != nil {
		for _, t := range list.Todos {
			if t.Title == step.Todo {
				todoID = t.ID
				break
			}
		}
	}

	switch step.Op {
	case OpCreateList:
		if verr := todo.ValidateListTitle(step.Title, lists); verr != nil {
			event.Rejected = validationCode(verr)
			return event, nil
		}
		return event, st.CreateList(ctx, step.Title)

	case OpUpdateList:
		if verr := todo.ValidateListTitle(step.Title, lists); verr != nil {
			event.Rejected = validationCode(verr)
			return event, nil
		}
		return event, st.UpdateListTitle(ctx, listID, step.Title)

	case OpDeleteList:
		return event, st.DeleteList(ctx, listID)

	case OpCreateTodo:
		if verr := todo.ValidateTodoTitle(step.Title); verr != nil {
			event.Rejected = validationCode(verr)
			return event, nil
		}
		return event, st.CreateTodo(ctx, listID, step.Title)

	case OpDeleteTodo:
		return event, st.DeleteTodo(ctx, listID, todoID)

	case OpSetTodo:
		return event, st.UpdateTodoStatus(ctx, listID, todoID, *step.Completed)

	case OpCompleteAll:
		return event, st.MarkAllCompleted(ctx, listID)
	}

	return event, fmt.Errorf("unknown op %q", step.Op)
}

// rejectReason maps a validation code back to the scenario vocabulary.
func (e StepEvent) rejectReason() string {
	switch todo.ValidationCode(e.Rejected) {
	case todo.ErrCodeDuplicateTitle:
		return RejectDuplicate
	case todo.ErrCodeTitleLength:
		return RejectLength
	}
	return ""
}

func validationCode(err error) string {
	var ve *todo.ValidationError
	if errors.As(err, &ve) {
		return string(ve.Code)
	}
	return err.Error()
}

func findByTitle(lists []todo.List, title string) *todo.List {
	for i := range lists {
		if lists[i].Title == title {
			return &lists[i]
		}
	}
	return nil
}
