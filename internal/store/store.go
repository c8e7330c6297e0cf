// Package store defines the storage contract shared by every backend.
//
// Two backends implement Store:
//   - sessionstore: all lists live in the caller's session payload
//   - sqlstore: lists and todos live in two related SQL tables
//
// # Contract
//
//   - No method returns an error for an unknown list or todo id. Mutations
//     silently do nothing; FindList returns nil.
//   - Stores never validate titles. Callers run todo.ValidateListTitle or
//     todo.ValidateTodoTitle first.
//   - Errors are storage faults (connection, constraint, encoding) and are
//     returned unrecovered.
package store

import (
	"context"

	"github.com/roach88/todos/internal/todo"
)

// Store is the storage contract consumed by the route layer.
type Store interface {
	// AllLists returns every list with its todos populated, in creation order.
	// Returns an empty slice (not nil) when there are no lists.
	AllLists(ctx context.Context) ([]todo.List, error)

	// FindList returns the list with its todos, or nil if id is unknown.
	FindList(ctx context.Context, id string) (*todo.List, error)

	// CreateList appends a new list with a fresh id and no todos.
	CreateList(ctx context.Context, title string) error

	// UpdateListTitle renames a list.
	UpdateListTitle(ctx context.Context, id, title string) error

	// DeleteList removes a list and all of its todos.
	DeleteList(ctx context.Context, id string) error

	// CreateTodo appends an incomplete todo with a fresh id to the list.
	CreateTodo(ctx context.Context, listID, title string) error

	// DeleteTodo removes a todo from the list.
	DeleteTodo(ctx context.Context, listID, todoID string) error

	// UpdateTodoStatus sets the completed flag of a todo.
	UpdateTodoStatus(ctx context.Context, listID, todoID string, completed bool) error

	// MarkAllCompleted sets completed on every todo in the list.
	MarkAllCompleted(ctx context.Context, listID string) error
}
