package database

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// Dialect names the SQL backend behind a DB.  Queries in this module are
// written with `?` placeholders; the dialect decides how they are bound and
// how generated IDs are returned.
type Dialect string

const (
	MySQL    Dialect = "mysql"
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite"
)

// DB wraps *sql.DB with the dialect it was opened for.  QueryContext,
// QueryRowContext and ExecContext rebind placeholders before delegating.
type DB struct {
	*sql.DB
	Dialect Dialect
}

// Tx is a transaction started from a DB.  Like DB it rebinds placeholders,
// so repository code can be shared between transactional and plain calls.
type Tx struct {
	*sql.Tx
	dialect Dialect
}

// Open connects to the configured backend and verifies the connection.
// For sqlite, name is the database file path and the remaining connection
// fields are ignored.
func Open(driver, user, pass, host, port, name string) (*DB, error) {
	dialect := Dialect(strings.ToLower(strings.TrimSpace(driver)))
	var driverName, dsn string
	switch dialect {
	case MySQL, "":
		dialect = MySQL
		driverName = "mysql"
		auth := user
		if pass != "" {
			auth = fmt.Sprintf("%s:%s", user, pass)
		}
		// parseTime=true -> DATETIME -> time.Time | loc=UTC keeps times consistent
		dsn = fmt.Sprintf("%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC",
			auth, host, port, name)
	case Postgres:
		driverName = "pgx"
		u := url.URL{
			Scheme:   "postgres",
			User:     url.UserPassword(user, pass),
			Host:     host + ":" + port,
			Path:     "/" + name,
			RawQuery: "sslmode=disable&timezone=UTC",
		}
		if pass == "" {
			u.User = url.User(user)
		}
		dsn = u.String()
	case SQLite:
		driverName = "sqlite"
		// immediate transactions take the write lock up front so two writers
		// never deadlock while upgrading a read lock.
		dsn = "file:" + name + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_txlock=immediate&_time_format=sqlite"
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, err
	}

	// Pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(30 * time.Minute)

	// Ping with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &DB{DB: db, Dialect: dialect}, nil
}

// Rebind rewrites `?` placeholders into the form the dialect expects.
func (d *DB) Rebind(query string) string { return rebind(d.Dialect, query) }

func (d *DB) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return d.DB.QueryContext(ctx, d.Rebind(query), args...)
}

func (d *DB) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return d.DB.QueryRowContext(ctx, d.Rebind(query), args...)
}

func (d *DB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return d.DB.ExecContext(ctx, d.Rebind(query), args...)
}

// InsertID runs an INSERT and returns the generated id column.
func (d *DB) InsertID(ctx context.Context, query string, args ...any) (int64, error) {
	return insertID(ctx, d.Dialect, d.DB, query, args...)
}

// BeginTx starts a transaction.  The caller must commit or roll back.
func (d *DB) BeginTx(ctx context.Context, opts *sql.TxOptions) (*Tx, error) {
	tx, err := d.DB.BeginTx(ctx, opts)
	if err != nil {
		return nil, err
	}
	return &Tx{Tx: tx, dialect: d.Dialect}, nil
}

// Dialect reports the backend the transaction runs on.
func (t *Tx) Dialect() Dialect { return t.dialect }

func (t *Tx) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return t.Tx.QueryContext(ctx, rebind(t.dialect, query), args...)
}

func (t *Tx) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return t.Tx.QueryRowContext(ctx, rebind(t.dialect, query), args...)
}

func (t *Tx) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return t.Tx.ExecContext(ctx, rebind(t.dialect, query), args...)
}

// InsertID runs an INSERT inside the transaction and returns the generated id.
func (t *Tx) InsertID(ctx context.Context, query string, args ...any) (int64, error) {
	return insertID(ctx, t.dialect, t.Tx, query, args...)
}

type execQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// insertID hides the one real difference between the backends for inserts:
// Postgres has no LastInsertId and needs RETURNING instead.
func insertID(ctx context.Context, dialect Dialect, ex execQuerier, query string, args ...any) (int64, error) {
	if dialect == Postgres {
		var id int64
		err := ex.QueryRowContext(ctx, rebind(dialect, query)+" RETURNING id", args...).Scan(&id)
		return id, err
	}
	res, err := ex.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func rebind(dialect Dialect, query string) string {
	if dialect != Postgres || !strings.Contains(query, "?") {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

// Placeholders returns n comma separated `?` markers for IN clauses.
func Placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
