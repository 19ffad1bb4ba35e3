package database

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRebind(t *testing.T) {
	q := `SELECT id FROM tickets WHERE show_session_id = ? AND row_no = ? AND seat_no = ?`
	assert.Equal(t, q, rebind(MySQL, q))
	assert.Equal(t, q, rebind(SQLite, q))
	assert.Equal(t,
		`SELECT id FROM tickets WHERE show_session_id = $1 AND row_no = $2 AND seat_no = $3`,
		rebind(Postgres, q))
}

func TestPlaceholders(t *testing.T) {
	assert.Equal(t, "", Placeholders(0))
	assert.Equal(t, "?", Placeholders(1))
	assert.Equal(t, "?,?,?", Placeholders(3))
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open("oracle", "", "", "", "", "")
	require.Error(t, err)
}

func TestSplitStatements(t *testing.T) {
	script := "-- header; with a semicolon\nCREATE TABLE a (id INT);\n\n  -- note\nCREATE TABLE b (id INT);\n"
	assert.Equal(t, []string{"CREATE TABLE a (id INT)", "CREATE TABLE b (id INT)"}, splitStatements(script))
}

func TestClassifyDriverErrors(t *testing.T) {
	assert.True(t, IsUniqueViolation(&mysql.MySQLError{Number: 1062}))
	assert.True(t, IsConflict(&mysql.MySQLError{Number: 1213}))
	assert.True(t, IsConflict(&mysql.MySQLError{Number: 1205}))
	assert.False(t, IsConflict(&mysql.MySQLError{Number: 1062}))

	assert.True(t, IsUniqueViolation(&pgconn.PgError{Code: "23505"}))
	assert.True(t, IsConflict(fmt.Errorf("insert: %w", &pgconn.PgError{Code: "40001"})))
	assert.True(t, IsConflict(&pgconn.PgError{Code: "40P01"}))
	assert.False(t, IsUniqueViolation(&pgconn.PgError{Code: "23503"}))

	assert.False(t, IsUniqueViolation(nil))
	assert.False(t, IsConflict(nil))
}

func TestSQLiteUniqueViolationIsClassified(t *testing.T) {
	ctx := context.Background()
	db, err := Open(string(SQLite), "", "", "", "", filepath.Join(t.TempDir(), "t.db"))
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, Migrate(ctx, db))
	// migrations are idempotent
	require.NoError(t, Migrate(ctx, db))

	domeID, err := db.InsertID(ctx, `INSERT INTO domes (name, num_rows, seats_in_row) VALUES (?, ?, ?)`, "d", 1, 1)
	require.NoError(t, err)
	showID, err := db.InsertID(ctx, `INSERT INTO astronomy_shows (title, description) VALUES (?, ?)`, "s", "")
	require.NoError(t, err)
	sessionID, err := db.InsertID(ctx, `INSERT INTO show_sessions (astronomy_show_id, dome_id, show_time) VALUES (?, ?, CURRENT_TIMESTAMP)`, showID, domeID)
	require.NoError(t, err)
	resID, err := db.InsertID(ctx, `INSERT INTO reservations (user_id, created_at) VALUES (?, CURRENT_TIMESTAMP)`, 1)
	require.NoError(t, err)

	const ins = `INSERT INTO tickets (show_session_id, reservation_id, row_no, seat_no, created_at) VALUES (?, ?, 1, 1, CURRENT_TIMESTAMP)`
	_, err = db.ExecContext(ctx, ins, sessionID, resID)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, ins, sessionID, resID)
	require.Error(t, err)
	assert.True(t, IsUniqueViolation(err))
	assert.False(t, IsConflict(err))
}
