// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as the
// reservation service and the HTTP handlers to distinguish between
// different failure scenarios with errors.Is.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ErrNotFound is the common root of every "row does not exist" error.
// The per-entity errors below wrap it, so callers can test for either.
var ErrNotFound = errors.New("not found")

var (
	ErrDomeNotFound        = fmt.Errorf("dome %w", ErrNotFound)
	ErrShowNotFound        = fmt.Errorf("astronomy show %w", ErrNotFound)
	ErrSessionNotFound     = fmt.Errorf("show session %w", ErrNotFound)
	ErrReservationNotFound = fmt.Errorf("reservation %w", ErrNotFound)
)

// ErrForbidden is returned when the caller attempts to read a
// reservation they do not own. Handlers translate this into an
// HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when the store rejected a write because a
// concurrent transaction touched the same rows (deadlock, lock timeout,
// serialization failure, or a lost race on the open reservation). The
// operation had no effect and may be retried by the caller. Handlers
// translate this into an HTTP 409 response.
var ErrConflict = errors.New("conflict")

// ErrDuplicateSeat is returned when a ticket for the same session, row
// and seat is already committed.
var ErrDuplicateSeat = errors.New("seat already taken")

// querier is satisfied by both *database.DB and *database.Tx, which lets
// read helpers run inside or outside a transaction.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}
