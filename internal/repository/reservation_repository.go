package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/planetarium-reservation/internal/database"
	"github.com/iliyamo/planetarium-reservation/internal/model"
)

// ReservationRepo persists reservations and the per-user pointer to the
// user's open reservation.  Tickets are written through TicketRepo; the
// read methods here load them back grouped by reservation.  All
// timestamps are stored in UTC.
type ReservationRepo struct {
	db *database.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the given database.
func NewReservationRepo(db *database.DB) *ReservationRepo { return &ReservationRepo{db: db} }

// DB exposes the underlying handle for callers that need a transaction.
func (r *ReservationRepo) DB() *database.DB { return r.db }

// CreateTx inserts a new reservation within the scope of an existing
// transaction and populates the generated ID on res.  The caller must
// commit or roll back the transaction.
func (r *ReservationRepo) CreateTx(ctx context.Context, tx *database.Tx, res *model.Reservation) error {
	const q = `INSERT INTO reservations (user_id, created_at) VALUES (?, ?)`
	if res.CreatedAt.IsZero() {
		res.CreatedAt = time.Now().UTC()
	}
	id, err := tx.InsertID(ctx, q, res.UserID, res.CreatedAt)
	if err != nil {
		if database.IsConflict(err) {
			return ErrConflict
		}
		return err
	}
	res.ID = id
	return nil
}

// OpenForUserTx returns the id of the user's open reservation.  ok is
// false when the user has none yet.
func (r *ReservationRepo) OpenForUserTx(ctx context.Context, tx *database.Tx, userID int64) (id int64, ok bool, err error) {
	return openFor(ctx, tx, userID)
}

// OpenForUser is OpenForUserTx outside a transaction.  It sees the open
// reservation another request has just committed.
func (r *ReservationRepo) OpenForUser(ctx context.Context, userID int64) (id int64, ok bool, err error) {
	return openFor(ctx, r.db, userID)
}

func openFor(ctx context.Context, q querier, userID int64) (id int64, ok bool, err error) {
	const sel = `SELECT reservation_id FROM open_reservations WHERE user_id = ?`
	err = q.QueryRowContext(ctx, sel, userID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return id, true, nil
}

// SetOpenTx records reservationID as the user's open reservation.  The
// user_id primary key admits a single open reservation per user.  set is
// false when one was already registered, possibly by a concurrent
// request that committed while this one waited on the key; the existing
// row is left untouched.
func (r *ReservationRepo) SetOpenTx(ctx context.Context, tx *database.Tx, userID, reservationID int64) (set bool, err error) {
	q := `INSERT INTO open_reservations (user_id, reservation_id) VALUES (?, ?) ON CONFLICT (user_id) DO NOTHING`
	if tx.Dialect() == database.MySQL {
		q = `INSERT IGNORE INTO open_reservations (user_id, reservation_id) VALUES (?, ?)`
	}
	res, err := tx.ExecContext(ctx, q, userID, reservationID)
	if err != nil {
		if database.IsConflict(err) {
			return false, ErrConflict
		}
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

const reservationSelect = `SELECT r.id, r.user_id, COALESCE(u.email, ''), r.created_at
	FROM reservations r
	LEFT JOIN users u ON u.id = r.user_id`

// GetByID returns the reservation with its tickets, or
// ErrReservationNotFound.
func (r *ReservationRepo) GetByID(ctx context.Context, id int64) (*model.Reservation, error) {
	var res model.Reservation
	err := r.db.QueryRowContext(ctx, reservationSelect+` WHERE r.id = ?`, id).
		Scan(&res.ID, &res.UserID, &res.UserEmail, &res.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrReservationNotFound
		}
		return nil, err
	}
	res.CreatedAt = res.CreatedAt.UTC()
	list := []model.Reservation{res}
	if err := r.attachTickets(ctx, list); err != nil {
		return nil, err
	}
	return &list[0], nil
}

// ListAll returns every reservation, oldest first.
func (r *ReservationRepo) ListAll(ctx context.Context) ([]model.Reservation, error) {
	return r.list(ctx, reservationSelect+` ORDER BY r.id`)
}

// ListByUser returns the reservations owned by userID, oldest first.
func (r *ReservationRepo) ListByUser(ctx context.Context, userID int64) ([]model.Reservation, error) {
	return r.list(ctx, reservationSelect+` WHERE r.user_id = ? ORDER BY r.id`, userID)
}

func (r *ReservationRepo) list(ctx context.Context, q string, args ...any) ([]model.Reservation, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Reservation{}
	for rows.Next() {
		var res model.Reservation
		if err := rows.Scan(&res.ID, &res.UserID, &res.UserEmail, &res.CreatedAt); err != nil {
			return nil, err
		}
		res.CreatedAt = res.CreatedAt.UTC()
		out = append(out, res)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.attachTickets(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

// attachTickets loads the tickets of all given reservations in one query.
func (r *ReservationRepo) attachTickets(ctx context.Context, list []model.Reservation) error {
	if len(list) == 0 {
		return nil
	}
	idx := make(map[int64]int, len(list))
	args := make([]any, 0, len(list))
	for i := range list {
		list[i].Tickets = []model.Ticket{}
		idx[list[i].ID] = i
		args = append(args, list[i].ID)
	}
	q := ticketSelect + ` WHERE tk.reservation_id IN (` + database.Placeholders(len(args)) + `) ORDER BY tk.id`
	tickets, err := queryTickets(ctx, r.db, q, args...)
	if err != nil {
		return err
	}
	for _, t := range tickets {
		if i, ok := idx[t.ReservationID]; ok {
			list[i].Tickets = append(list[i].Tickets, t)
		}
	}
	return nil
}
