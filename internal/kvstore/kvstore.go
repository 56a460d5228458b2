// Package kvstore patches settings kept as rows of a SQLite key/value
// table. All writes of one apply share a single transaction.
package kvstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"

	_ "modernc.org/sqlite"

	"emuinject/internal/binding"
)

const driver = "sqlite"

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Table names the key/value table and its columns.
type Table struct {
	Name        string
	KeyColumn   string
	ValueColumn string
}

func (t Table) Validate() error {
	for _, id := range []string{t.Name, t.KeyColumn, t.ValueColumn} {
		if !identRe.MatchString(id) {
			return fmt.Errorf("KV_TABLE: invalid identifier %q", id)
		}
	}
	return nil
}

// OpenError reports a file that is not a usable settings store.
type OpenError struct {
	Path    string
	Message string
	Err     error
}

func (e *OpenError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("sqlite store %s: %s: %v", e.Path, e.Message, e.Err)
	}
	return fmt.Sprintf("sqlite store %s: %s", e.Path, e.Message)
}

func (e *OpenError) Unwrap() error {
	return e.Err
}

// Store is an open store with a pending transaction.
type Store struct {
	path  string
	table Table
	db    *sql.DB
	tx    *sql.Tx
}

// Open opens the database at path, checks that the table exists and
// begins the transaction that Apply writes into.
func Open(ctx context.Context, path string, table Table) (*Store, error) {
	if err := table.Validate(); err != nil {
		return nil, err
	}
	db, err := sql.Open(driver, path)
	if err != nil {
		return nil, &OpenError{Path: path, Message: "open", Err: err}
	}
	db.SetMaxOpenConns(1)

	var name string
	err = db.QueryRowContext(ctx,
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table.Name).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		_ = db.Close()
		return nil, &OpenError{Path: path, Message: fmt.Sprintf("table %q not found", table.Name)}
	}
	if err != nil {
		_ = db.Close()
		return nil, &OpenError{Path: path, Message: "read schema", Err: err}
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		_ = db.Close()
		return nil, &OpenError{Path: path, Message: "begin", Err: err}
	}
	return &Store{path: path, table: table, db: db, tx: tx}, nil
}

func (s *Store) Path() string { return s.path }

// Get reads the value stored under key inside the pending transaction.
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	if s.tx == nil {
		return "", false, errors.New("KV_CLOSED: transaction already finished")
	}
	q := fmt.Sprintf(`SELECT %q FROM %q WHERE %q = ?`, s.table.ValueColumn, s.table.Name, s.table.KeyColumn)
	var v sql.NullString
	err := s.tx.QueryRowContext(ctx, q, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("KV_READ: %s: %w", key, err)
	}
	return v.String, true, nil
}

// Apply upserts every binding whose stored value differs. Scopes are
// ignored. Nothing is visible outside the transaction until Commit.
func (s *Store) Apply(ctx context.Context, bindings []binding.KeyBinding) (binding.Changes, error) {
	var changes binding.Changes
	if err := binding.Validate(bindings); err != nil {
		return changes, err
	}
	upsert := fmt.Sprintf(`INSERT INTO %[1]q (%[2]q, %[3]q) VALUES (?, ?) ON CONFLICT(%[2]q) DO UPDATE SET %[3]q = excluded.%[3]q`,
		s.table.Name, s.table.KeyColumn, s.table.ValueColumn)
	for _, b := range bindings {
		if b.Policy != binding.Overwrite {
			return changes, fmt.Errorf("KV_POLICY: %s is not supported for %q", b.Policy, b.Key)
		}
		cur, found, err := s.Get(ctx, b.Key)
		if err != nil {
			return changes, err
		}
		want := b.Value.String()
		if found && cur == want {
			continue
		}
		if _, err := s.tx.ExecContext(ctx, upsert, b.Key, want); err != nil {
			return changes, fmt.Errorf("KV_WRITE: %s: %w", b.Key, err)
		}
		if found {
			changes.Replace(b.Key)
		} else {
			changes.Append(b.Key)
		}
	}
	return changes, nil
}

// Commit makes the applied changes durable.
func (s *Store) Commit() error {
	if s.tx == nil {
		return errors.New("KV_CLOSED: transaction already finished")
	}
	err := s.tx.Commit()
	s.tx = nil
	if err != nil {
		return fmt.Errorf("KV_COMMIT: %w", err)
	}
	return nil
}

// Close rolls back a pending transaction and closes the database.
func (s *Store) Close() error {
	if s.tx != nil {
		_ = s.tx.Rollback()
		s.tx = nil
	}
	return s.db.Close()
}

// Exec runs a SQL script against the database at path, creating the
// file when missing. It materializes store templates.
func Exec(ctx context.Context, path string, script string) error {
	db, err := sql.Open(driver, path)
	if err != nil {
		return fmt.Errorf("KV_EXEC: %w", err)
	}
	defer db.Close()
	if _, err := db.ExecContext(ctx, script); err != nil {
		return fmt.Errorf("KV_EXEC: %s: %w", path, err)
	}
	return nil
}
