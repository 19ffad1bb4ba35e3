// Package databasetest opens throwaway SQLite databases with the
// service schema applied, and seeds catalog rows for tests.
package databasetest

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/iliyamo/planetarium-reservation/internal/database"
)

// Open creates a migrated database in the test's temp dir.  The file is
// removed and the handle closed when the test ends.
func Open(t testing.TB) *database.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "planetarium.db")
	db, err := database.Open(string(database.SQLite), "", "", "", "", path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.Migrate(context.Background(), db))
	return db
}

// SeedDome inserts a dome and returns its id.
func SeedDome(t testing.TB, db *database.DB, name string, rows, seatsInRow int) int64 {
	t.Helper()
	id, err := db.InsertID(context.Background(),
		`INSERT INTO domes (name, num_rows, seats_in_row) VALUES (?, ?, ?)`, name, rows, seatsInRow)
	require.NoError(t, err)
	return id
}

// SeedTheme inserts a show theme and returns its id.
func SeedTheme(t testing.TB, db *database.DB, name string) int64 {
	t.Helper()
	id, err := db.InsertID(context.Background(), `INSERT INTO show_themes (name) VALUES (?)`, name)
	require.NoError(t, err)
	return id
}

// SeedShow inserts an astronomy show linked to the given themes.
func SeedShow(t testing.TB, db *database.DB, title string, themeIDs ...int64) int64 {
	t.Helper()
	ctx := context.Background()
	id, err := db.InsertID(ctx,
		`INSERT INTO astronomy_shows (title, description) VALUES (?, ?)`, title, title+" description")
	require.NoError(t, err)
	for _, themeID := range themeIDs {
		_, err := db.ExecContext(ctx,
			`INSERT INTO astronomy_show_themes (show_id, theme_id) VALUES (?, ?)`, id, themeID)
		require.NoError(t, err)
	}
	return id
}

// SeedSession schedules showID in domeID at showTime.
func SeedSession(t testing.TB, db *database.DB, showID, domeID int64, showTime time.Time) int64 {
	t.Helper()
	id, err := db.InsertID(context.Background(),
		`INSERT INTO show_sessions (astronomy_show_id, dome_id, show_time) VALUES (?, ?, ?)`,
		showID, domeID, showTime.UTC())
	require.NoError(t, err)
	return id
}

// SeedUser inserts a user and returns its id.
func SeedUser(t testing.TB, db *database.DB, email, role string) int64 {
	t.Helper()
	id, err := db.InsertID(context.Background(),
		`INSERT INTO users (email, role) VALUES (?, ?)`, email, role)
	require.NoError(t, err)
	return id
}

// Fixture is a small catalog: one 2x3 dome, one show and one session
// in it.  Most reservation tests start from here.
type Fixture struct {
	DB        *database.DB
	DomeID    int64
	ShowID    int64
	SessionID int64
}

// Seed opens a database and fills it with a Fixture.
func Seed(t testing.TB) Fixture {
	t.Helper()
	db := Open(t)
	domeID := SeedDome(t, db, "Main Dome", 2, 3)
	showID := SeedShow(t, db, "Journey to the Stars")
	sessionID := SeedSession(t, db, showID, domeID, time.Date(2030, 1, 15, 18, 0, 0, 0, time.UTC))
	return Fixture{DB: db, DomeID: domeID, ShowID: showID, SessionID: sessionID}
}
