package todo

import (
	"sort"
	"unicode/utf8"

	"golang.org/x/text/cases"
)

// Title length bounds, in runes, inclusive.
const (
	MinTitleLength = 1
	MaxTitleLength = 100
)

// ValidateListTitle checks a candidate list title against the existing lists.
// The duplicate check runs before the length check.
func ValidateListTitle(title string, existing []List) error {
	folded := fold(title)
	for _, l := range existing {
		if fold(l.Title) == folded {
			return &ValidationError{
				Code:    ErrCodeDuplicateTitle,
				Message: "The title must be unique.",
			}
		}
	}

	if !validLength(title) {
		return &ValidationError{
			Code:    ErrCodeTitleLength,
			Message: "The title must be between 1 and 100 characters.",
		}
	}

	return nil
}

// ValidateTodoTitle checks a todo title. Todo titles need not be unique.
func ValidateTodoTitle(title string) error {
	if !validLength(title) {
		return &ValidationError{
			Code:    ErrCodeTitleLength,
			Message: "Todo title must be between 1 and 100 characters.",
		}
	}
	return nil
}

// RemainingCount returns the number of incomplete todos in the list.
func RemainingCount(l List) int {
	n := 0
	for _, t := range l.Todos {
		if !t.Completed {
			n++
		}
	}
	return n
}

// IsListCompleted reports whether the list has at least one todo and none
// remain. An empty list is never completed.
func IsListCompleted(l List) bool {
	return len(l.Todos) > 0 && RemainingCount(l) == 0
}

// IsTodoCompleted returns the todo's completed flag.
func IsTodoCompleted(t Todo) bool {
	return t.Completed
}

// SortByCompletion returns a new slice holding items sorted alphabetically
// (case-folded) by title, with every item for which completed returns false
// placed before every item for which it returns true. The input is not
// modified.
func SortByCompletion[T any](items []T, title func(T) string, completed func(T) bool) []T {
	type keyed struct {
		key  string
		item T
	}
	entries := make([]keyed, len(items))
	for i, item := range items {
		entries[i] = keyed{key: fold(title(item)), item: item}
	}
	sort.SliceStable(entries, func(a, b int) bool {
		return entries[a].key < entries[b].key
	})

	out := make([]T, 0, len(items))
	var done []T
	for _, e := range entries {
		if completed(e.item) {
			done = append(done, e.item)
			continue
		}
		out = append(out, e.item)
	}
	return append(out, done...)
}

// SortLists orders lists with incomplete lists first.
func SortLists(lists []List) []List {
	return SortByCompletion(lists, listTitle, IsListCompleted)
}

// SortTodos orders todos with incomplete todos first.
func SortTodos(todos []Todo) []Todo {
	return SortByCompletion(todos, todoTitle, IsTodoCompleted)
}

func listTitle(l List) string { return l.Title }

func todoTitle(t Todo) string { return t.Title }

func validLength(title string) bool {
	n := utf8.RuneCountInString(title)
	return n >= MinTitleLength && n <= MaxTitleLength
}

// fold returns the case-folded form of s.
// A Caser is stateful, so each call gets its own.
func fold(s string) string {
	return cases.Fold().String(s)
}
