package cursor

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/saturnines/repsly-export/pkg/errors"
)

// SQLiteStore keeps cursors in a single table.
type SQLiteStore struct {
	conn *sql.DB
	path string
}

// NewSQLiteStore opens (or creates) the database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.WrapError(err, errors.ErrCursorStore, "create db directory")
	}

	conn, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, errors.WrapError(err, errors.ErrCursorStore, "open sqlite")
	}
	// single writer
	conn.SetMaxOpenConns(1)

	s := &SQLiteStore{conn: conn, path: path}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, errors.WrapError(err, errors.ErrCursorStore, "migrate")
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	_, err := s.conn.Exec(`
		CREATE TABLE IF NOT EXISTS cursors (
			endpoint   TEXT PRIMARY KEY,
			kind       INTEGER NOT NULL,
			id         INTEGER NOT NULL DEFAULT 0,
			stamp      TEXT NOT NULL DEFAULT '',
			updated_at TEXT NOT NULL
		)`)
	return err
}

// Load reads every row.
func (s *SQLiteStore) Load(ctx context.Context) (Map, error) {
	rows, err := s.conn.QueryContext(ctx, `SELECT endpoint, kind, id, stamp FROM cursors`)
	if err != nil {
		return nil, errors.WrapError(err, errors.ErrCursorStore, "query cursors")
	}
	defer rows.Close()

	m := Map{}
	for rows.Next() {
		var (
			name  string
			kind  int
			id    int64
			stamp string
		)
		if err := rows.Scan(&name, &kind, &id, &stamp); err != nil {
			return nil, errors.WrapError(err, errors.ErrCursorStore, "scan cursor")
		}
		switch Kind(kind) {
		case KindID:
			m[name] = ID(id)
		case KindStamp:
			m[name] = Stamp(stamp)
		default:
			m[name] = None()
		}
	}
	if err := rows.Err(); err != nil {
		return nil, errors.WrapError(err, errors.ErrCursorStore, "read cursors")
	}
	return m, nil
}

// Save replaces the table contents with m in one transaction.
func (s *SQLiteStore) Save(ctx context.Context, m Map) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return errors.WrapError(err, errors.ErrCursorStore, "begin")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM cursors`); err != nil {
		return errors.WrapError(err, errors.ErrCursorStore, "clear cursors")
	}

	now := time.Now().UTC().Format(time.RFC3339)
	for name, v := range m {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO cursors (endpoint, kind, id, stamp, updated_at) VALUES (?, ?, ?, ?, ?)`,
			name, int(v.kind), v.id, v.stamp, now)
		if err != nil {
			return errors.WrapError(err, errors.ErrCursorStore, fmt.Sprintf("save cursor %s", name))
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.WrapError(err, errors.ErrCursorStore, "commit")
	}
	return nil
}

// Path returns the database file.
func (s *SQLiteStore) Path() string { return s.path }

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.conn.Close()
}
