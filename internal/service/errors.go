package service

import (
	"errors"
	"fmt"

	"github.com/iliyamo/planetarium-reservation/internal/repository"
)

// Validation failures raised by the reservation manager itself.
var (
	ErrOutOfBounds          = errors.New("seat outside dome geometry")
	ErrDuplicateSeatInBatch = errors.New("seat requested twice in the same reservation")
	ErrEmptyBatch           = errors.New("reservation must contain at least one ticket")
)

// Storage outcomes, re-exported so callers only need this package.
var (
	ErrNotFound      = repository.ErrNotFound
	ErrForbidden     = repository.ErrForbidden
	ErrConflict      = repository.ErrConflict
	ErrDuplicateSeat = repository.ErrDuplicateSeat
)

// SeatError names the requested seat that made an operation fail.
// Index is the position of the seat in the request (0 for single
// claims).  Err is one of the sentinels above and is reachable through
// errors.Is.
type SeatError struct {
	Index     int
	SessionID int64
	Row       int
	Seat      int
	Err       error
}

func (e *SeatError) Error() string {
	return fmt.Sprintf("ticket %d (session %d, row %d, seat %d): %v", e.Index, e.SessionID, e.Row, e.Seat, e.Err)
}

func (e *SeatError) Unwrap() error { return e.Err }

func seatErr(i int, r SeatRequest, err error) *SeatError {
	return &SeatError{Index: i, SessionID: r.SessionID, Row: r.Row, Seat: r.Seat, Err: err}
}
