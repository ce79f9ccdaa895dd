package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/vovakirdan/linechat-server/internal/store"
)

// Schema creates the presence journal tables. It is idempotent.
const Schema = `
CREATE TABLE IF NOT EXISTS sessions (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	conn_id   TEXT NOT NULL,
	name      TEXT NOT NULL,
	joined_at DATETIME NOT NULL,
	left_at   DATETIME
);

CREATE INDEX IF NOT EXISTS idx_sessions_conn ON sessions(conn_id);
CREATE INDEX IF NOT EXISTS idx_sessions_joined ON sessions(joined_at DESC);
`

// SQLiteStore implements store.Store for SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New opens the database at dbPath and applies Schema.
func New(dbPath string) (*SQLiteStore, error) {
	return NewWithSetup(dbPath, func(db *sql.DB) error {
		_, err := db.Exec(Schema)
		return err
	})
}

// NewWithSetup creates a new SQLite store and runs a setup function.
// Useful for tests to apply schema without touching disk.
func NewWithSetup(dbPath string, setup func(*sql.DB) error) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite works best with a single connection; it also keeps ":memory:" databases alive.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if setup != nil {
		if err := setup(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("setup: %w", err)
		}
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// OpenSession records that connID registered as name.
func (s *SQLiteStore) OpenSession(ctx context.Context, connID, name string, at time.Time) error {
	query := `
		INSERT INTO sessions (conn_id, name, joined_at)
		VALUES (?, ?, ?)
	`
	if _, err := s.db.ExecContext(ctx, query, connID, name, at.UTC()); err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// CloseSession stamps the departure time on the open session of connID.
func (s *SQLiteStore) CloseSession(ctx context.Context, connID string, at time.Time) error {
	query := `
		UPDATE sessions
		SET left_at = ?
		WHERE conn_id = ? AND left_at IS NULL
	`
	if _, err := s.db.ExecContext(ctx, query, at.UTC(), connID); err != nil {
		return fmt.Errorf("close session: %w", err)
	}
	return nil
}

// ListSessions returns the most recent sessions, newest first.
func (s *SQLiteStore) ListSessions(ctx context.Context, limit int) ([]*store.Session, error) {
	query := `
		SELECT id, conn_id, name, joined_at, left_at
		FROM sessions
		ORDER BY id DESC
		LIMIT ?
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	sessions := make([]*store.Session, 0, limit)
	for rows.Next() {
		var (
			sess   store.Session
			leftAt sql.NullTime
		)
		if err := rows.Scan(&sess.ID, &sess.ConnID, &sess.Name, &sess.JoinedAt, &leftAt); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		if leftAt.Valid {
			t := leftAt.Time
			sess.LeftAt = &t
		}
		sessions = append(sessions, &sess)
	}

	return sessions, rows.Err()
}
