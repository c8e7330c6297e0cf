package web

import (
	"log/slog"

	"github.com/gorilla/sessions"

	"github.com/roach88/todos/internal/ident"
	"github.com/roach88/todos/internal/store"
	"github.com/roach88/todos/internal/store/sessionstore"
)

// listsKey is the session value holding the encoded sessionstore.State.
const listsKey = "lists"

// Backend supplies the store serving one request.
//
// Bind is called after the request's session is loaded. The returned commit
// func runs before the session is saved and must leave in the session
// anything the store needs persisted.
type Backend interface {
	Bind(sess *sessions.Session) (st store.Store, commit func() error, err error)
}

// SessionBackend keeps each visitor's lists in their cookie session.
type SessionBackend struct {
	// IDs generates list and todo ids. Nil means ident.UUIDv7Generator.
	IDs ident.Generator
}

func (b SessionBackend) Bind(sess *sessions.Session) (store.Store, func() error, error) {
	var payload []byte
	if raw, ok := sess.Values[listsKey].(string); ok {
		payload = []byte(raw)
	}

	state, err := sessionstore.DecodeState(payload)
	if err != nil {
		// An unreadable payload is replaced rather than served as an error on
		// every request.
		slog.Warn("resetting unreadable session state", "error", err)
		state = &sessionstore.State{}
		state.MarkModified()
	}

	commit := func() error {
		if !state.Modified() {
			return nil
		}
		data, err := state.Encode()
		if err != nil {
			return err
		}
		sess.Values[listsKey] = string(data)
		return nil
	}

	return sessionstore.New(state, b.IDs), commit, nil
}

// DatabaseBackend serves every request from one shared store.
type DatabaseBackend struct {
	Store store.Store
}

func (b DatabaseBackend) Bind(*sessions.Session) (store.Store, func() error, error) {
	return b.Store, func() error { return nil }, nil
}
