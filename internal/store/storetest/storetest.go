// Package storetest runs the storage contract against any store.Store.
//
// Backends call Run from their own tests with a factory that builds a fresh,
// empty store per subtest.
package storetest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/todos/internal/store"
	"github.com/roach88/todos/internal/todo"
)

// Factory builds an empty store for one subtest.
type Factory func(t *testing.T) store.Store

// Run exercises every operation of the storage contract.
func Run(t *testing.T, newStore Factory) {
	t.Helper()

	cases := []struct {
		name string
		fn   func(t *testing.T, s store.Store)
	}{
		{"EmptyStore", testEmptyStore},
		{"CreateAndFindList", testCreateAndFindList},
		{"AllListsCreationOrder", testAllListsCreationOrder},
		{"FindUnknownList", testFindUnknownList},
		{"UpdateListTitle", testUpdateListTitle},
		{"DeleteListCascades", testDeleteListCascades},
		{"CreateTodo", testCreateTodo},
		{"CreateTodoUnknownList", testCreateTodoUnknownList},
		{"DeleteTodo", testDeleteTodo},
		{"UpdateTodoStatus", testUpdateTodoStatus},
		{"MarkAllCompleted", testMarkAllCompleted},
		{"MutationsOnUnknownIDsAreNoOps", testUnknownIDsNoOp},
		{"TodosStayWithTheirList", testTodosStayWithTheirList},
		{"SortScenario", testSortScenario},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tc.fn(t, newStore(t))
		})
	}
}

// MustFindByTitle returns the list with the given title or fails the test.
func MustFindByTitle(t *testing.T, s store.Store, title string) todo.List {
	t.Helper()
	lists, err := s.AllLists(context.Background())
	require.NoError(t, err)
	for _, l := range lists {
		if l.Title == title {
			return l
		}
	}
	t.Fatalf("list %q not found", title)
	return todo.List{}
}

func testEmptyStore(t *testing.T, s store.Store) {
	lists, err := s.AllLists(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, lists)
	assert.Empty(t, lists)
}

func testCreateAndFindList(t *testing.T, s store.Store) {
	ctx := context.Background()
	require.NoError(t, s.CreateList(ctx, "Groceries"))

	created := MustFindByTitle(t, s, "Groceries")
	assert.NotEmpty(t, created.ID)

	found, err := s.FindList(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "Groceries", found.Title)
	assert.NotNil(t, found.Todos)
	assert.Empty(t, found.Todos)
}

func testAllListsCreationOrder(t *testing.T, s store.Store) {
	ctx := context.Background()
	for _, title := range []string{"Zeta", "Alpha", "Mid"} {
		require.NoError(t, s.CreateList(ctx, title))
	}

	lists, err := s.AllLists(ctx)
	require.NoError(t, err)
	require.Len(t, lists, 3)
	assert.Equal(t, "Zeta", lists[0].Title)
	assert.Equal(t, "Alpha", lists[1].Title)
	assert.Equal(t, "Mid", lists[2].Title)

	ids := map[string]bool{}
	for _, l := range lists {
		assert.False(t, ids[l.ID], "duplicate list id %s", l.ID)
		ids[l.ID] = true
	}
}

func testFindUnknownList(t *testing.T, s store.Store) {
	found, err := s.FindList(context.Background(), "does-not-exist")
	require.NoError(t, err)
	assert.Nil(t, found)
}

func testUpdateListTitle(t *testing.T, s store.Store) {
	ctx := context.Background()
	require.NoError(t, s.CreateList(ctx, "Old"))
	l := MustFindByTitle(t, s, "Old")

	require.NoError(t, s.UpdateListTitle(ctx, l.ID, "New"))

	found, err := s.FindList(ctx, l.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "New", found.Title)
}

func testDeleteListCascades(t *testing.T, s store.Store) {
	ctx := context.Background()
	require.NoError(t, s.CreateList(ctx, "Doomed"))
	require.NoError(t, s.CreateList(ctx, "Survivor"))
	doomed := MustFindByTitle(t, s, "Doomed")
	survivor := MustFindByTitle(t, s, "Survivor")

	require.NoError(t, s.CreateTodo(ctx, doomed.ID, "one"))
	require.NoError(t, s.CreateTodo(ctx, doomed.ID, "two"))
	require.NoError(t, s.CreateTodo(ctx, survivor.ID, "keep"))

	require.NoError(t, s.DeleteList(ctx, doomed.ID))

	found, err := s.FindList(ctx, doomed.ID)
	require.NoError(t, err)
	assert.Nil(t, found)

	lists, err := s.AllLists(ctx)
	require.NoError(t, err)
	require.Len(t, lists, 1)
	assert.Equal(t, "Survivor", lists[0].Title)
	require.Len(t, lists[0].Todos, 1)
	assert.Equal(t, "keep", lists[0].Todos[0].Title)
}

func testCreateTodo(t *testing.T, s store.Store) {
	ctx := context.Background()
	require.NoError(t, s.CreateList(ctx, "Groceries"))
	l := MustFindByTitle(t, s, "Groceries")

	require.NoError(t, s.CreateTodo(ctx, l.ID, "Buy milk"))

	found, err := s.FindList(ctx, l.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	require.Len(t, found.Todos, 1)
	assert.Equal(t, "Buy milk", found.Todos[0].Title)
	assert.False(t, found.Todos[0].Completed)
	assert.NotEmpty(t, found.Todos[0].ID)
}

func testCreateTodoUnknownList(t *testing.T, s store.Store) {
	ctx := context.Background()
	require.NoError(t, s.CreateTodo(ctx, "missing", "orphan"))

	lists, err := s.AllLists(ctx)
	require.NoError(t, err)
	assert.Empty(t, lists)
}

func testDeleteTodo(t *testing.T, s store.Store) {
	ctx := context.Background()
	require.NoError(t, s.CreateList(ctx, "L"))
	l := MustFindByTitle(t, s, "L")
	require.NoError(t, s.CreateTodo(ctx, l.ID, "a"))
	require.NoError(t, s.CreateTodo(ctx, l.ID, "b"))

	found, err := s.FindList(ctx, l.ID)
	require.NoError(t, err)
	require.Len(t, found.Todos, 2)

	require.NoError(t, s.DeleteTodo(ctx, l.ID, found.Todos[0].ID))

	found, err = s.FindList(ctx, l.ID)
	require.NoError(t, err)
	require.Len(t, found.Todos, 1)
	assert.Equal(t, "b", found.Todos[0].Title)
}

func testUpdateTodoStatus(t *testing.T, s store.Store) {
	ctx := context.Background()
	require.NoError(t, s.CreateList(ctx, "L"))
	l := MustFindByTitle(t, s, "L")
	require.NoError(t, s.CreateTodo(ctx, l.ID, "a"))
	found, err := s.FindList(ctx, l.ID)
	require.NoError(t, err)
	todoID := found.Todos[0].ID

	require.NoError(t, s.UpdateTodoStatus(ctx, l.ID, todoID, true))
	found, err = s.FindList(ctx, l.ID)
	require.NoError(t, err)
	assert.True(t, found.Todos[0].Completed)

	require.NoError(t, s.UpdateTodoStatus(ctx, l.ID, todoID, false))
	found, err = s.FindList(ctx, l.ID)
	require.NoError(t, err)
	assert.False(t, found.Todos[0].Completed)
}

func testMarkAllCompleted(t *testing.T, s store.Store) {
	ctx := context.Background()
	require.NoError(t, s.CreateList(ctx, "L"))
	l := MustFindByTitle(t, s, "L")
	for _, title := range []string{"a", "b", "c"} {
		require.NoError(t, s.CreateTodo(ctx, l.ID, title))
	}
	found, err := s.FindList(ctx, l.ID)
	require.NoError(t, err)
	require.NoError(t, s.UpdateTodoStatus(ctx, l.ID, found.Todos[0].ID, true))

	found, err = s.FindList(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, todo.RemainingCount(*found))

	require.NoError(t, s.MarkAllCompleted(ctx, l.ID))

	found, err = s.FindList(ctx, l.ID)
	require.NoError(t, err)
	require.Len(t, found.Todos, 3)
	for _, td := range found.Todos {
		assert.True(t, td.Completed, "todo %q should be completed", td.Title)
	}
	assert.Equal(t, 0, todo.RemainingCount(*found))
	assert.True(t, todo.IsListCompleted(*found))
}

func testUnknownIDsNoOp(t *testing.T, s store.Store) {
	ctx := context.Background()
	require.NoError(t, s.CreateList(ctx, "L"))
	l := MustFindByTitle(t, s, "L")
	require.NoError(t, s.CreateTodo(ctx, l.ID, "a"))

	assert.NoError(t, s.UpdateListTitle(ctx, "missing", "X"))
	assert.NoError(t, s.DeleteList(ctx, "missing"))
	assert.NoError(t, s.DeleteTodo(ctx, "missing", "missing"))
	assert.NoError(t, s.DeleteTodo(ctx, l.ID, "missing"))
	assert.NoError(t, s.UpdateTodoStatus(ctx, "missing", "missing", true))
	assert.NoError(t, s.UpdateTodoStatus(ctx, l.ID, "missing", true))
	assert.NoError(t, s.MarkAllCompleted(ctx, "missing"))

	// Marking an empty list complete does nothing either.
	require.NoError(t, s.CreateList(ctx, "Empty"))
	empty := MustFindByTitle(t, s, "Empty")
	assert.NoError(t, s.MarkAllCompleted(ctx, empty.ID))

	found, err := s.FindList(ctx, l.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "L", found.Title)
	require.Len(t, found.Todos, 1)
	assert.False(t, found.Todos[0].Completed)

	found, err = s.FindList(ctx, empty.ID)
	require.NoError(t, err)
	assert.Empty(t, found.Todos)
	assert.False(t, todo.IsListCompleted(*found))
}

func testTodosStayWithTheirList(t *testing.T, s store.Store) {
	ctx := context.Background()
	require.NoError(t, s.CreateList(ctx, "A"))
	require.NoError(t, s.CreateList(ctx, "B"))
	a := MustFindByTitle(t, s, "A")
	b := MustFindByTitle(t, s, "B")
	require.NoError(t, s.CreateTodo(ctx, a.ID, "for a"))

	found, err := s.FindList(ctx, a.ID)
	require.NoError(t, err)
	todoID := found.Todos[0].ID

	// A todo id used with the wrong list resolves to nothing.
	require.NoError(t, s.UpdateTodoStatus(ctx, b.ID, todoID, true))
	require.NoError(t, s.DeleteTodo(ctx, b.ID, todoID))

	found, err = s.FindList(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, found.Todos, 1)
	assert.False(t, found.Todos[0].Completed)

	foundB, err := s.FindList(ctx, b.ID)
	require.NoError(t, err)
	assert.Empty(t, foundB.Todos)
}

func testSortScenario(t *testing.T, s store.Store) {
	ctx := context.Background()
	require.NoError(t, s.CreateList(ctx, "Work"))
	work := MustFindByTitle(t, s, "Work")
	require.NoError(t, s.CreateTodo(ctx, work.ID, "Email"))
	require.NoError(t, s.CreateTodo(ctx, work.ID, "Call"))

	found, err := s.FindList(ctx, work.ID)
	require.NoError(t, err)
	for _, td := range found.Todos {
		if td.Title == "Email" {
			require.NoError(t, s.UpdateTodoStatus(ctx, work.ID, td.ID, true))
		}
	}

	found, err = s.FindList(ctx, work.ID)
	require.NoError(t, err)
	sorted := todo.SortTodos(found.Todos)
	require.Len(t, sorted, 2)
	assert.Equal(t, "Call", sorted[0].Title)
	assert.Equal(t, "Email", sorted[1].Title)
}
