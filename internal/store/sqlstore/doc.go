// Package sqlstore provides the database-backed storage backend.
//
// Lists and todos live in two tables (see schema.sql). A todo row references
// its list with ON DELETE CASCADE, so deleting a list never leaves orphaned
// todos.
//
// # Dialects
//
//   - SQLite (github.com/mattn/go-sqlite3) for local files. Foreign keys,
//     WAL, and a 5 second busy timeout are set through the DSN so every
//     pooled connection gets them.
//   - PostgreSQL (github.com/lib/pq) for postgres:// and postgresql:// URLs.
//
// Queries are written with ? placeholders and rebound to $n for PostgreSQL.
// Values are always bound, never interpolated.
//
// # Connection Discipline
//
// Every operation acquires a dedicated connection, opens a transaction, runs
// its statement, and commits. Deferred calls release the connection and roll
// back on every exit path, including errors.
//
// Open bootstraps the schema with CREATE TABLE IF NOT EXISTS. It never drops
// or migrates existing tables.
package sqlstore
