package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

const journalSchema = `
CREATE TABLE IF NOT EXISTS console_sessions (
    handle TEXT PRIMARY KEY,
    caption TEXT,
    created_at TEXT NOT NULL DEFAULT (datetime('now')),
    ended_at TEXT,
    exit_code INTEGER
);

CREATE TABLE IF NOT EXISTS events (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    handle TEXT NOT NULL,
    type TEXT NOT NULL,
    payload TEXT,
    created_at TEXT NOT NULL DEFAULT (datetime('now'))
);
`

// Journal is a best-effort sqlite log of session lifecycle, kept alongside
// the scratch directory for post-hoc diagnostics. Journal failures never
// affect session operations; callers log and move on.
type Journal struct {
	db *sql.DB
}

// OpenJournal opens (or creates) the journal database under dataDir.
func OpenJournal(dataDir string) (*Journal, error) {
	dbPath := filepath.Join(dataDir, "journal.db")
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open journal db: %w", err)
	}
	if _, err := db.Exec(journalSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply journal schema: %w", err)
	}
	return &Journal{db: db}, nil
}

// Close closes the database connection.
func (j *Journal) Close() error {
	return j.db.Close()
}

// SessionCreated records a new session.
func (j *Journal) SessionCreated(handle, caption string) error {
	_, err := j.db.Exec(
		`INSERT OR REPLACE INTO console_sessions (handle, caption) VALUES (?, ?)`,
		handle, caption)
	if err != nil {
		return fmt.Errorf("journal session create: %w", err)
	}
	return j.event(handle, "created", map[string]any{"caption": caption})
}

// SessionExited records the process exit for a session.
func (j *Journal) SessionExited(handle string, exitCode int) error {
	_, err := j.db.Exec(
		`UPDATE console_sessions SET ended_at = datetime('now'), exit_code = ? WHERE handle = ?`,
		exitCode, handle)
	if err != nil {
		return fmt.Errorf("journal session exit: %w", err)
	}
	return j.event(handle, "exited", map[string]any{"exitCode": exitCode})
}

// SessionReaped records removal of a session from the registry.
func (j *Journal) SessionReaped(handle string) error {
	return j.event(handle, "reaped", nil)
}

func (j *Journal) event(handle, typ string, payload map[string]any) error {
	var body []byte
	if payload != nil {
		body, _ = json.Marshal(payload)
	}
	_, err := j.db.Exec(
		`INSERT INTO events (handle, type, payload) VALUES (?, ?, ?)`,
		handle, typ, string(body))
	if err != nil {
		return fmt.Errorf("journal event: %w", err)
	}
	return nil
}
