// Package sessionstore keeps every list inside the caller's session payload.
//
// The hosting layer owns the session. It decodes a State per request, hands
// it to New, and after the request reads State.Modified to decide whether the
// payload must be written back. A mutation whose State is not written back is
// lost.
package sessionstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/roach88/todos/internal/ident"
	"github.com/roach88/todos/internal/store"
	"github.com/roach88/todos/internal/todo"
)

// State is the session payload: the full list collection.
type State struct {
	Lists []todo.List `json:"lists"`

	modified bool
}

// Modified reports whether any mutation ran against this state.
func (s *State) Modified() bool {
	return s.modified
}

// MarkModified flags the state for write-back.
func (s *State) MarkModified() {
	s.modified = true
}

// Encode serializes the state for storage in a session.
func (s *State) Encode() ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode session state: %w", err)
	}
	return data, nil
}

// DecodeState parses a payload produced by Encode.
// Empty input yields an empty state.
func DecodeState(data []byte) (*State, error) {
	st := &State{}
	if len(data) > 0 {
		if err := json.Unmarshal(data, st); err != nil {
			return nil, fmt.Errorf("decode session state: %w", err)
		}
	}
	st.normalize()
	return st, nil
}

func (s *State) normalize() {
	if s.Lists == nil {
		s.Lists = []todo.List{}
	}
	for i := range s.Lists {
		if s.Lists[i].Todos == nil {
			s.Lists[i].Todos = []todo.Todo{}
		}
	}
}

// Store implements store.Store over a session State.
// A Store is built per request and is not safe for concurrent use.
type Store struct {
	state *State
	ids   ident.Generator
}

var _ store.Store = (*Store)(nil)

// New creates a store over state. A nil state is replaced by an empty one.
// A nil generator defaults to ident.UUIDv7Generator.
func New(state *State, ids ident.Generator) *Store {
	if state == nil {
		state = &State{}
	}
	state.normalize()
	if ids == nil {
		ids = ident.UUIDv7Generator{}
	}
	return &Store{state: state, ids: ids}
}

// State returns the state backing this store.
func (s *Store) State() *State {
	return s.state
}

// AllLists returns copies of every list in the session.
func (s *Store) AllLists(ctx context.Context) ([]todo.List, error) {
	lists := make([]todo.List, len(s.state.Lists))
	for i, l := range s.state.Lists {
		lists[i] = l.Clone()
	}
	return lists, nil
}

// FindList returns a copy of the list, or nil.
func (s *Store) FindList(ctx context.Context, id string) (*todo.List, error) {
	l := s.find(id)
	if l == nil {
		return nil, nil
	}
	c := l.Clone()
	return &c, nil
}

// CreateList appends an empty list with a fresh id.
func (s *Store) CreateList(ctx context.Context, title string) error {
	s.state.Lists = append(s.state.Lists, todo.List{
		ID:    s.ids.Generate(),
		Title: title,
		Todos: []todo.Todo{},
	})
	s.state.MarkModified()
	return nil
}

// UpdateListTitle renames the list; unknown ids are ignored.
func (s *Store) UpdateListTitle(ctx context.Context, id, title string) error {
	if l := s.find(id); l != nil {
		l.Title = title
	}
	s.state.MarkModified()
	return nil
}

// DeleteList removes the list with its todos.
func (s *Store) DeleteList(ctx context.Context, id string) error {
	kept := s.state.Lists[:0]
	for _, l := range s.state.Lists {
		if l.ID != id {
			kept = append(kept, l)
		}
	}
	s.state.Lists = kept
	s.state.MarkModified()
	return nil
}

// CreateTodo appends an open todo to the list. It draws an id even when the
// list is unknown, matching sqlstore's id consumption so both backends stay
// in step under a shared generator.
func (s *Store) CreateTodo(ctx context.Context, listID, title string) error {
	id := s.ids.Generate()
	if l := s.find(listID); l != nil {
		l.Todos = append(l.Todos, todo.Todo{
			ID:    id,
			Title: title,
		})
	}
	s.state.MarkModified()
	return nil
}

// DeleteTodo removes the todo from the list if both exist.
func (s *Store) DeleteTodo(ctx context.Context, listID, todoID string) error {
	if l := s.find(listID); l != nil {
		kept := l.Todos[:0]
		for _, t := range l.Todos {
			if t.ID != todoID {
				kept = append(kept, t)
			}
		}
		l.Todos = kept
	}
	s.state.MarkModified()
	return nil
}

// UpdateTodoStatus sets the todo's completed flag.
func (s *Store) UpdateTodoStatus(ctx context.Context, listID, todoID string, completed bool) error {
	if t := todo.FindTodo(s.find(listID), todoID); t != nil {
		t.Completed = completed
	}
	s.state.MarkModified()
	return nil
}

// MarkAllCompleted completes every todo in the list.
func (s *Store) MarkAllCompleted(ctx context.Context, listID string) error {
	if l := s.find(listID); l != nil {
		for i := range l.Todos {
			l.Todos[i].Completed = true
		}
	}
	s.state.MarkModified()
	return nil
}

// find returns a pointer into the session's list slice, or nil.
func (s *Store) find(id string) *todo.List {
	for i := range s.state.Lists {
		if s.state.Lists[i].ID == id {
			return &s.state.Lists[i]
		}
	}
	return nil
}
