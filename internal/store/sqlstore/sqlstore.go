package sqlstore

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/roach88/todos/internal/ident"
	"github.com/roach88/todos/internal/store"
	"github.com/roach88/todos/internal/todo"
)

//go:embed schema.sql
var schemaSQL string

// Store implements store.Store on a SQL database.
// Safe for concurrent use; every call takes its own connection.
type Store struct {
	db      *sql.DB
	dialect Dialect
	ids     ident.Generator
}

var _ store.Store = (*Store)(nil)

// Open connects to the database named by dsn and bootstraps the schema.
// A nil generator defaults to ident.UUIDv7Generator, whose ids sort by
// creation time.
//
// This function is idempotent - safe to call against an existing database.
func Open(ctx context.Context, dsn string, ids ident.Generator) (*Store, error) {
	dialect, driver, source := ParseDSN(dsn)

	db, err := sql.Open(driver, source)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if dialect == DialectSQLite {
		// SQLite only supports one writer at a time, so limit connections
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	if ids == nil {
		ids = ident.UUIDv7Generator{}
	}
	s := &Store{db: db, dialect: dialect, ids: ids}

	if err := s.bootstrap(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to bootstrap schema: %w", err)
	}

	slog.Debug("database ready", "dialect", dialect)
	return s, nil
}

// Close closes the database connection pool.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Dialect reports which database the store talks to.
func (s *Store) Dialect() Dialect {
	return s.dialect
}

// bootstrap creates the tables if they don't exist, in one transaction.
func (s *Store) bootstrap(ctx context.Context) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		for _, stmt := range splitStatements(schemaSQL) {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("failed to execute %q: %w", firstLine(stmt), err)
			}
		}
		return nil
	})
}

// withTx runs fn inside a transaction on a dedicated connection.
// The connection is released and the transaction rolled back on every exit
// path; Rollback after Commit is a no-op.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Close()

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// exec runs a single write statement in its own scope.
func (s *Store) exec(ctx context.Context, op, query string, args ...any) error {
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, rebind(s.dialect, query), args...)
		return err
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// AllLists returns every list ordered by id, each with its todos.
func (s *Store) AllLists(ctx context.Context) ([]todo.List, error) {
	lists := []todo.List{}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, `SELECT id, title FROM lists ORDER BY id ASC`)
		if err != nil {
			return fmt.Errorf("query lists: %w", err)
		}
		for rows.Next() {
			var l todo.List
			if err := rows.Scan(&l.ID, &l.Title); err != nil {
				rows.Close()
				return fmt.Errorf("scan list: %w", err)
			}
			lists = append(lists, l)
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return fmt.Errorf("iterate lists: %w", err)
		}
		rows.Close()

		// Rows must be closed before the per-list queries reuse the connection.
		for i := range lists {
			todos, err := s.queryTodos(ctx, tx, lists[i].ID)
			if err != nil {
				return err
			}
			lists[i].Todos = todos
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("all lists: %w", err)
	}

	return lists, nil
}

// FindList returns the list with its todos, or nil when no row matches.
func (s *Store) FindList(ctx context.Context, id string) (*todo.List, error) {
	var found *todo.List

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var l todo.List
		row := tx.QueryRowContext(ctx, rebind(s.dialect, `SELECT id, title FROM lists WHERE id = ?`), id)
		if err := row.Scan(&l.ID, &l.Title); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil
			}
			return fmt.Errorf("query list: %w", err)
		}

		todos, err := s.queryTodos(ctx, tx, l.ID)
		if err != nil {
			return err
		}
		l.Todos = todos
		found = &l
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("find list: %w", err)
	}

	return found, nil
}

// queryTodos returns the todos of one list ordered by id.
// Returns an empty slice (not nil) if the list has none.
func (s *Store) queryTodos(ctx context.Context, tx *sql.Tx, listID string) ([]todo.Todo, error) {
	rows, err := tx.QueryContext(ctx, rebind(s.dialect, `
		SELECT id, title, completed
		FROM todos
		WHERE list_id = ?
		ORDER BY id ASC
	`), listID)
	if err != nil {
		return nil, fmt.Errorf("query todos: %w", err)
	}
	defer rows.Close()

	todos := []todo.Todo{}
	for rows.Next() {
		var t todo.Todo
		if err := rows.Scan(&t.ID, &t.Title, &t.Completed); err != nil {
			return nil, fmt.Errorf("scan todo: %w", err)
		}
		todos = append(todos, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate todos: %w", err)
	}

	return todos, nil
}

func (s *Store) CreateList(ctx context.Context, title string) error {
	return s.exec(ctx, "create list",
		`INSERT INTO lists (id, title) VALUES (?, ?)`,
		s.ids.Generate(), title,
	)
}

func (s *Store) UpdateListTitle(ctx context.Context, id, title string) error {
	return s.exec(ctx, "update list title",
		`UPDATE lists SET title = ? WHERE id = ?`,
		title, id,
	)
}

// DeleteList removes the list row; the foreign key cascades to its todos.
func (s *Store) DeleteList(ctx context.Context, id string) error {
	return s.exec(ctx, "delete list",
		`DELETE FROM lists WHERE id = ?`,
		id,
	)
}

// CreateTodo inserts through a SELECT on lists so an unknown list id inserts
// nothing instead of violating the foreign key. completed takes the column
// default.
func (s *Store) CreateTodo(ctx context.Context, listID, title string) error {
	return s.exec(ctx, "create todo", `
		INSERT INTO todos (id, title, list_id)
		SELECT ?, ?, id FROM lists WHERE id = ?
	`,
		s.ids.Generate(), title, listID,
	)
}

func (s *Store) DeleteTodo(ctx context.Context, listID, todoID string) error {
	return s.exec(ctx, "delete todo",
		`DELETE FROM todos WHERE id = ? AND list_id = ?`,
		todoID, listID,
	)
}

func (s *Store) UpdateTodoStatus(ctx context.Context, listID, todoID string, completed bool) error {
	return s.exec(ctx, "update todo status",
		`UPDATE todos SET completed = ? WHERE id = ? AND list_id = ?`,
		completed, todoID, listID,
	)
}

func (s *Store) MarkAllCompleted(ctx context.Context, listID string) error {
	return s.exec(ctx, "mark all completed",
		`UPDATE todos SET completed = ? WHERE list_id = ?`,
		true, listID,
	)
}

// splitStatements splits a schema script on semicolons, dropping comments
// and empty statements.
func splitStatements(script string) []string {
	var stmts []string
	for _, part := range strings.Split(script, ";") {
		var lines []string
		for _, line := range strings.Split(part, "\n") {
			trimmed := strings.TrimSpace(line)
			if trimmed == "" || strings.HasPrefix(trimmed, "--") {
				continue
			}
			lines = append(lines, line)
		}
		if len(lines) > 0 {
			stmts = append(stmts, strings.TrimSpace(strings.Join(lines, "\n")))
		}
	}
	return stmts
}

func firstLine(stmt string) string {
	if i := strings.IndexByte(stmt, '\n'); i >= 0 {
		return stmt[:i]
	}
	return stmt
}
