package store

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openRaw(t *testing.T, dir string) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", filepath.Join(dir, "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestJournalRecordsLifecycle(t *testing.T) {
	dir := t.TempDir()
	j, err := OpenJournal(dir)
	require.NoError(t, err)
	defer j.Close()

	require.NoError(t, j.SessionCreated("h1", "build"))
	require.NoError(t, j.SessionExited("h1", 2))
	require.NoError(t, j.SessionReaped("h1"))

	db := openRaw(t, dir)

	var caption string
	var exitCode sql.NullInt64
	err = db.QueryRow(
		`SELECT caption, exit_code FROM console_sessions WHERE handle = ?`, "h1").
		Scan(&caption, &exitCode)
	require.NoError(t, err)
	assert.Equal(t, "build", caption)
	require.True(t, exitCode.Valid)
	assert.EqualValues(t, 2, exitCode.Int64)

	var count int
	require.NoError(t, db.QueryRow(
		`SELECT COUNT(*) FROM events WHERE handle = ?`, "h1").Scan(&count))
	assert.Equal(t, 3, count)
}

func TestJournalCreateIsUpsert(t *testing.T) {
	dir := t.TempDir()
	j, err := OpenJournal(dir)
	require.NoError(t, err)
	defer j.Close()

	require.NoError(t, j.SessionCreated("h1", "first"))
	require.NoError(t, j.SessionCreated("h1", "second"))

	db := openRaw(t, dir)

	var count int
	require.NoError(t, db.QueryRow(
		`SELECT COUNT(*) FROM console_sessions`).Scan(&count))
	assert.Equal(t, 1, count)

	var caption string
	require.NoError(t, db.QueryRow(
		`SELECT caption FROM console_sessions WHERE handle = ?`, "h1").Scan(&caption))
	assert.Equal(t, "second", caption)
}

func TestJournalReopenKeepsHistory(t *testing.T) {
	dir := t.TempDir()

	j, err := OpenJournal(dir)
	require.NoError(t, err)
	require.NoError(t, j.SessionCreated("h1", "kept"))
	require.NoError(t, j.Close())

	j2, err := OpenJournal(dir)
	require.NoError(t, err)
	defer j2.Close()

	db := openRaw(t, dir)
	var count int
	require.NoError(t, db.QueryRow(
		`SELECT COUNT(*) FROM console_sessions`).Scan(&count))
	assert.Equal(t, 1, count)
}
