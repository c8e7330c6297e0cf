package sessionstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/todos/internal/ident"
	"github.com/roach88/todos/internal/store"
	"github.com/roach88/todos/internal/store/storetest"
)

func TestContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		return New(nil, nil)
	})
}

func TestReadsDoNotMarkModified(t *testing.T) {
	ctx := context.Background()
	st := &State{}
	s := New(st, ident.NewFixedGenerator("list-1"))

	_, err := s.AllLists(ctx)
	require.NoError(t, err)
	_, err = s.FindList(ctx, "list-1")
	require.NoError(t, err)

	assert.False(t, st.Modified())
}

func TestMutationsMarkModified(t *testing.T) {
	mutations := map[string]func(context.Context, *Store) error{
		"CreateList": func(ctx context.Context, s *Store) error { return s.CreateList(ctx, "New") },
		"UpdateListTitle": func(ctx context.Context, s *Store) error {
			return s.UpdateListTitle(ctx, "list-1", "Renamed")
		},
		"DeleteList": func(ctx context.Context, s *Store) error { return s.DeleteList(ctx, "list-1") },
		"CreateTodo": func(ctx context.Context, s *Store) error { return s.CreateTodo(ctx, "list-1", "t") },
		"DeleteTodo": func(ctx context.Context, s *Store) error { return s.DeleteTodo(ctx, "list-1", "todo-1") },
		"UpdateTodoStatus": func(ctx context.Context, s *Store) error {
			return s.UpdateTodoStatus(ctx, "list-1", "todo-1", true)
		},
		"MarkAllCompleted": func(ctx context.Context, s *Store) error { return s.MarkAllCompleted(ctx, "list-1") },
	}

	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			st, err := DecodeState([]byte(`{"lists":[{"id":"list-1","title":"L","todos":[{"id":"todo-1","title":"t","completed":false}]}]}`))
			require.NoError(t, err)
			require.False(t, st.Modified())

			s := New(st, ident.NewFixedGenerator("fresh-1"))
			require.NoError(t, mutate(context.Background(), s))

			assert.True(t, st.Modified(), "%s must mark the session modified", name)
		})
	}
}

func TestReadsReturnCopies(t *testing.T) {
	ctx := context.Background()
	st := &State{}
	s := New(st, ident.NewFixedGenerator("list-1", "todo-1"))
	require.NoError(t, s.CreateList(ctx, "L"))
	require.NoError(t, s.CreateTodo(ctx, "list-1", "t"))

	found, err := s.FindList(ctx, "list-1")
	require.NoError(t, err)
	found.Title = "hacked"
	found.Todos[0].Completed = true

	lists, err := s.AllLists(ctx)
	require.NoError(t, err)
	lists[0].Todos[0].Title = "hacked"

	assert.Equal(t, "L", st.Lists[0].Title)
	assert.Equal(t, "t", st.Lists[0].Todos[0].Title)
	assert.False(t, st.Lists[0].Todos[0].Completed)
}

func TestUsesGeneratorForIDs(t *testing.T) {
	ctx := context.Background()
	st := &State{}
	s := New(st, ident.NewFixedGenerator("list-1", "todo-1"))

	require.NoError(t, s.CreateList(ctx, "L"))
	require.NoError(t, s.CreateTodo(ctx, "list-1", "t"))

	require.Len(t, st.Lists, 1)
	assert.Equal(t, "list-1", st.Lists[0].ID)
	assert.Equal(t, "todo-1", st.Lists[0].Todos[0].ID)
}

func TestStateEncodeDecode(t *testing.T) {
	ctx := context.Background()
	st := &State{}
	s := New(st, ident.NewFixedGenerator("list-1", "todo-1"))
	require.NoError(t, s.CreateList(ctx, "Groceries"))
	require.NoError(t, s.CreateTodo(ctx, "list-1", "Buy milk"))

	data, err := st.Encode()
	require.NoError(t, err)
	assert.JSONEq(t, `{"lists":[{"id":"list-1","title":"Groceries","todos":[{"id":"todo-1","title":"Buy milk","completed":false}]}]}`, string(data))

	decoded, err := DecodeState(data)
	require.NoError(t, err)
	assert.False(t, decoded.Modified(), "decoding is not a mutation")
	assert.Equal(t, st.Lists, decoded.Lists)
}

func TestDecodeState_Empty(t *testing.T) {
	st, err := DecodeState(nil)
	require.NoError(t, err)
	assert.NotNil(t, st.Lists)
	assert.Empty(t, st.Lists)

	st, err = DecodeState([]byte(`{"lists":[{"id":"x","title":"no todos"}]}`))
	require.NoError(t, err)
	assert.NotNil(t, st.Lists[0].Todos)
}

func TestDecodeState_Malformed(t *testing.T) {
	_, err := DecodeState([]byte(`{"lists":`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode session state")
}
