package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/planetarium-reservation/internal/database"
	"github.com/iliyamo/planetarium-reservation/internal/model"
)

// TicketRepo is the seat ledger: the set of committed tickets.  A seat
// of a session is taken exactly when a ticket row for it exists, and
// the UNIQUE(show_session_id, row_no, seat_no) constraint makes
// InsertTx a test-and-set.
type TicketRepo struct {
	db *database.DB
}

// NewTicketRepo returns a TicketRepo bound to db.
func NewTicketRepo(db *database.DB) *TicketRepo { return &TicketRepo{db: db} }

// ExistsTx reports, inside the caller's transaction, whether
// (sessionID, row, seat) is already taken.
func (r *TicketRepo) ExistsTx(ctx context.Context, tx *database.Tx, sessionID int64, row, seat int) (bool, error) {
	const sel = `SELECT COUNT(*) FROM tickets WHERE show_session_id = ? AND row_no = ? AND seat_no = ?`
	var n int
	if err := tx.QueryRowContext(ctx, sel, sessionID, row, seat).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

// InsertTx writes t within the caller's transaction and sets its ID.
// A committed ticket for the same seat yields ErrDuplicateSeat; losing
// a lock race against another writer yields ErrConflict.  The caller
// must commit or roll back the transaction.
func (r *TicketRepo) InsertTx(ctx context.Context, tx *database.Tx, t *model.Ticket) error {
	const q = `INSERT INTO tickets (show_session_id, reservation_id, row_no, seat_no, created_at) VALUES (?, ?, ?, ?, ?)`
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	id, err := tx.InsertID(ctx, q, t.SessionID, t.ReservationID, t.Row, t.Seat, t.CreatedAt)
	if err != nil {
		switch {
		case database.IsUniqueViolation(err):
			return ErrDuplicateSeat
		case database.IsConflict(err):
			return ErrConflict
		}
		return err
	}
	t.ID = id
	return nil
}

// ticketSelect joins each ticket with a summary of its session.  The
// owning reservation is aliased r so callers can filter on it.
const ticketSelect = `SELECT ` + sessionColumns + `,
	tk.id, tk.reservation_id, tk.show_session_id, tk.row_no, tk.seat_no, tk.created_at
	FROM tickets tk
	JOIN reservations r ON r.id = tk.reservation_id
	JOIN show_sessions s ON s.id = tk.show_session_id
	JOIN astronomy_shows a ON a.id = s.astronomy_show_id
	JOIN domes d ON d.id = s.dome_id`

// ListAll returns every ticket ordered by id.
func (r *TicketRepo) ListAll(ctx context.Context) ([]model.Ticket, error) {
	return queryTickets(ctx, r.db, ticketSelect+` ORDER BY tk.id`)
}

// ListByUser returns the tickets held under the user's reservations.
func (r *TicketRepo) ListByUser(ctx context.Context, userID int64) ([]model.Ticket, error) {
	return queryTickets(ctx, r.db, ticketSelect+` WHERE r.user_id = ? ORDER BY tk.id`, userID)
}

func queryTickets(ctx context.Context, q querier, query string, args ...any) ([]model.Ticket, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func scanTickets(rows *sql.Rows) ([]model.Ticket, error) {
	out := []model.Ticket{}
	for rows.Next() {
		var t model.Ticket
		s, err := scanSession(rows, &t.ID, &t.ReservationID, &t.SessionID, &t.Row, &t.Seat, &t.CreatedAt)
		if err != nil {
			return nil, err
		}
		t.CreatedAt = t.CreatedAt.UTC()
		t.Session = &s
		out = append(out, t)
	}
	return out, rows.Err()
}
