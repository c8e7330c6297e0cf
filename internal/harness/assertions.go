package harness

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/roach88/todos/internal/todo"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	return fmt.Sprintf("Assertion failed: %s\n  Expected: %s\n  Actual: %s", e.Type, e.Expected, e.Actual)
}

// evaluate checks one assertion against the final lists.
func evaluate(lists []todo.List, a Assertion) error {
	switch a.Type {
	case AssertListCount:
		if len(lists) != *a.Count {
			return &AssertionError{
				Type:     a.Type,
				Expected: fmt.Sprintf("%d lists", *a.Count),
				Actual:   fmt.Sprintf("%d lists", len(lists)),
			}
		}
		return nil

	case AssertListExists:
		if findByTitle(lists, a.List) == nil {
			return &AssertionError{
				Type:     a.Type,
				Expected: fmt.Sprintf("list %q present", a.List),
				Actual:   fmt.Sprintf("lists %v", listTitles(lists)),
			}
		}
		return nil

	case AssertListMissing:
		if findByTitle(lists, a.List) != nil {
			return &AssertionError{
				Type:     a.Type,
				Expected: fmt.Sprintf("list %q absent", a.List),
				Actual:   "present",
			}
		}
		return nil
	}

	if a.Type == AssertListOrder {
		got := listTitles(todo.SortLists(lists))
		if !equalTitles(got, a.Titles) {
			return &AssertionError{
				Type:     a.Type,
				Expected: strings.Join(a.Titles, ", "),
				Actual:   strings.Join(got, ", "),
			}
		}
		return nil
	}

	l := findByTitle(lists, a.List)
	if l == nil {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("list %q present", a.List),
			Actual:   "not found",
		}
	}

	switch a.Type {
	case AssertRemaining:
		if got := todo.RemainingCount(*l); got != *a.Count {
			return &AssertionError{
				Type:     a.Type,
				Expected: fmt.Sprintf("%d remaining in %q", *a.Count, a.List),
				Actual:   fmt.Sprintf("%d remaining", got),
			}
		}

	case AssertListCompleted:
		if got := todo.IsListCompleted(*l); got != *a.Completed {
			return &AssertionError{
				Type:     a.Type,
				Expected: fmt.Sprintf("completed=%t for %q", *a.Completed, a.List),
				Actual:   fmt.Sprintf("completed=%t", got),
			}
		}

	case AssertTodoOrder:
		sorted := todo.SortTodos(l.Todos)
		got := make([]string, len(sorted))
		for i, t := range sorted {
			got[i] = t.Title
		}
		if !equalTitles(got, a.Titles) {
			return &AssertionError{
				Type:     a.Type,
				Expected: strings.Join(a.Titles, ", "),
				Actual:   strings.Join(got, ", "),
			}
		}

	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}

	return nil
}

// equalTitles treats nil and empty as equal.
func equalTitles(got, want []string) bool {
	if len(got) == 0 && len(want) == 0 {
		return true
	}
	return reflect.DeepEqual(got, want)
}

func listTitles(lists []todo.List) []string {
	out := make([]string, len(lists))
	for i, l := range lists {
		out[i] = l.Title
	}
	return out
}
