package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/planetarium-reservation/internal/database"
	"github.com/iliyamo/planetarium-reservation/internal/model"
)

// SessionFilter narrows ListAvailability.  Date keeps sessions whose
// show time falls on that UTC calendar day; ShowID keeps sessions of one
// astronomy show.  Zero values disable a filter.
type SessionFilter struct {
	Date   *time.Time
	ShowID int64
}

// SessionRepo reads show sessions together with their dome geometry.
type SessionRepo struct {
	db *database.DB
}

// NewSessionRepo returns a SessionRepo bound to db.
func NewSessionRepo(db *database.DB) *SessionRepo { return &SessionRepo{db: db} }

// DB exposes the underlying handle so the reservation service can start
// transactions that span several repositories.
func (r *SessionRepo) DB() *database.DB { return r.db }

const sessionColumns = `s.id, s.astronomy_show_id, a.title, s.show_time,
	d.id, d.name, d.num_rows, d.seats_in_row`

const sessionFrom = ` FROM show_sessions s
	JOIN astronomy_shows a ON a.id = s.astronomy_show_id
	JOIN domes d ON d.id = s.dome_id`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(sc rowScanner, extra ...any) (model.ShowSession, error) {
	var s model.ShowSession
	dest := []any{&s.ID, &s.ShowID, &s.ShowTitle, &s.ShowTime,
		&s.Dome.ID, &s.Dome.Name, &s.Dome.Rows, &s.Dome.SeatsInRow}
	err := sc.Scan(append(dest, extra...)...)
	s.ShowTime = s.ShowTime.UTC()
	return s, err
}

// GetByID returns the session with its dome, or ErrSessionNotFound.
func (r *SessionRepo) GetByID(ctx context.Context, id int64) (*model.ShowSession, error) {
	return getSession(ctx, r.db, id)
}

// GetByIDTx is GetByID inside the caller's transaction.
func (r *SessionRepo) GetByIDTx(ctx context.Context, tx *database.Tx, id int64) (*model.ShowSession, error) {
	return getSession(ctx, tx, id)
}

func getSession(ctx context.Context, q querier, id int64) (*model.ShowSession, error) {
	s, err := scanSession(q.QueryRowContext(ctx, `SELECT `+sessionColumns+sessionFrom+` WHERE s.id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return &s, nil
}

// ticketsSold counts committed tickets per session at query time.
const ticketsSold = `(SELECT COUNT(*) FROM tickets t WHERE t.show_session_id = s.id)`

// GetAvailability returns the session with TicketsSold filled from the
// ledger.  The count is taken fresh on every call.
func (r *SessionRepo) GetAvailability(ctx context.Context, id int64) (*model.ShowSession, error) {
	q := `SELECT ` + sessionColumns + `, ` + ticketsSold + sessionFrom + ` WHERE s.id = ?`
	var sold int
	s, err := scanSession(r.db.QueryRowContext(ctx, q, id), &sold)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	s.TicketsSold = sold
	return &s, nil
}

// ListAvailability returns the sessions matching f, each with a fresh
// TicketsSold, ordered by id.
func (r *SessionRepo) ListAvailability(ctx context.Context, f SessionFilter) ([]model.ShowSession, error) {
	q := `SELECT ` + sessionColumns + `, ` + ticketsSold + sessionFrom + ` WHERE 1=1`
	var args []any
	if f.Date != nil {
		d := f.Date.UTC()
		start := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
		q += ` AND s.show_time >= ? AND s.show_time < ?`
		args = append(args, start, start.AddDate(0, 0, 1))
	}
	if f.ShowID != 0 {
		q += ` AND s.astronomy_show_id = ?`
		args = append(args, f.ShowID)
	}
	q += ` ORDER BY s.id`

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.ShowSession{}
	for rows.Next() {
		var sold int
		s, err := scanSession(rows, &sold)
		if err != nil {
			return nil, err
		}
		s.TicketsSold = sold
		out = append(out, s)
	}
	return out, rows.Err()
}
