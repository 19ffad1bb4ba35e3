// Package service holds the reservation core: claiming seats, creating
// batch reservations atomically and reading reservations back under the
// ownership rules.  Uniqueness of seats is enforced by the ledger's
// storage constraint, never by in-process locks, so several instances
// of the service may share one database.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/planetarium-reservation/internal/database"
	"github.com/iliyamo/planetarium-reservation/internal/model"
	"github.com/iliyamo/planetarium-reservation/internal/queue"
	"github.com/iliyamo/planetarium-reservation/internal/repository"
)

// Caller is the access fact supplied with every call: who is asking and
// whether they may see everyone's data.
type Caller struct {
	ID         int64
	Privileged bool
}

// SeatRequest asks for one seat of one show session.
type SeatRequest struct {
	SessionID int64
	Row       int
	Seat      int
}

// defaultPublishTimeout bounds the post-commit event publish.
const defaultPublishTimeout = 5 * time.Second

// ReservationManager runs the reservation operations.  Every mutation
// is one short transaction; a storage-detected race surfaces as
// ErrConflict and is left for the caller to retry.
type ReservationManager struct {
	db           *database.DB
	sessions     *repository.SessionRepo
	tickets      *repository.TicketRepo
	reservations *repository.ReservationRepo
	publisher    Publisher
	logger       *slog.Logger
	now          func() time.Time

	publishTimeout time.Duration
}

// NewReservationManager wires the manager to its repositories.  A nil
// publisher disables events; a nil logger uses slog.Default.
func NewReservationManager(sessions *repository.SessionRepo, tickets *repository.TicketRepo, reservations *repository.ReservationRepo, publisher Publisher, logger *slog.Logger) *ReservationManager {
	if sessions == nil || tickets == nil || reservations == nil {
		panic("nil repository passed to NewReservationManager")
	}
	if publisher == nil {
		publisher = NopPublisher{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ReservationManager{
		db:           reservations.DB(),
		sessions:     sessions,
		tickets:      tickets,
		reservations: reservations,
		publisher:    publisher,
		logger:       logger.With("component", "reservations"),
		now:          func() time.Time { return time.Now().UTC() },

		publishTimeout: defaultPublishTimeout,
	}
}

// SetClock replaces the time source used for created_at stamps.
func (m *ReservationManager) SetClock(now func() time.Time) { m.now = now }

// SetPublishTimeout changes how long a committed operation may wait on
// the event publisher before giving up on the event.
func (m *ReservationManager) SetPublishTimeout(d time.Duration) {
	if d > 0 {
		m.publishTimeout = d
	}
}

// ClaimSeat adds one ticket to the caller's open reservation, creating
// that reservation on first use.  The open reservation is committed on
// its own, so it persists even when the seat itself is refused; a
// refused seat never leaves a ticket behind.
func (m *ReservationManager) ClaimSeat(ctx context.Context, caller Caller, req SeatRequest) (*model.Ticket, error) {
	resID, err := m.openReservation(ctx, caller.ID)
	if err != nil {
		return nil, err
	}

	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, classify(err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	session, err := m.validateSeat(ctx, tx, 0, req, nil)
	if err != nil {
		return nil, err
	}
	t := &model.Ticket{ReservationID: resID, SessionID: req.SessionID, Row: req.Row, Seat: req.Seat, CreatedAt: m.now()}
	if err := m.tickets.InsertTx(ctx, tx, t); err != nil {
		return nil, insertErr(0, req, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, classify(err)
	}
	committed = true
	t.Session = session

	m.logger.InfoContext(ctx, "seat claimed",
		"user_id", caller.ID, "reservation_id", resID, "ticket_id", t.ID,
		"show_session_id", req.SessionID, "row", req.Row, "seat", req.Seat)
	m.publish(ctx, queue.EventTicketClaimed, resID, caller.ID, []model.Ticket{*t})
	return t, nil
}

// openReservation finds or creates the caller's single open reservation.
func (m *ReservationManager) openReservation(ctx context.Context, userID int64) (int64, error) {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, classify(err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	id, ok, err := m.reservations.OpenForUserTx(ctx, tx, userID)
	if err != nil {
		return 0, classify(err)
	}
	if ok {
		return id, nil
	}
	res := &model.Reservation{UserID: userID, CreatedAt: m.now()}
	if err := m.reservations.CreateTx(ctx, tx, res); err != nil {
		return 0, classify(err)
	}
	set, err := m.reservations.SetOpenTx(ctx, tx, userID, res.ID)
	if err != nil {
		return 0, classify(err)
	}
	if !set {
		// A concurrent claim by the same caller registered its reservation
		// first.  Drop ours and join theirs.
		_ = tx.Rollback()
		id, ok, err = m.reservations.OpenForUser(ctx, userID)
		if err != nil {
			return 0, classify(err)
		}
		if !ok {
			return 0, ErrConflict
		}
		return id, nil
	}
	if err := tx.Commit(); err != nil {
		return 0, classify(err)
	}
	committed = true
	m.logger.DebugContext(ctx, "open reservation created", "user_id", userID, "reservation_id", res.ID)
	return res.ID, nil
}

// CreateReservation stores a new reservation with one ticket per request,
// all or nothing.  Requests are checked in order; for each one the
// session must exist, the seat must lie inside the dome, must not be in
// the ledger and must not repeat an earlier request.  The first failure
// aborts the whole batch and nothing is persisted.
func (m *ReservationManager) CreateReservation(ctx context.Context, caller Caller, reqs []SeatRequest) (*model.Reservation, error) {
	if len(reqs) == 0 {
		return nil, ErrEmptyBatch
	}

	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, classify(err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	sessions := make(map[int64]*model.ShowSession)
	seen := make(map[SeatRequest]struct{}, len(reqs))
	for i, r := range reqs {
		if _, err := m.validateSeat(ctx, tx, i, r, sessions); err != nil {
			return nil, err
		}
		if _, dup := seen[r]; dup {
			return nil, seatErr(i, r, ErrDuplicateSeatInBatch)
		}
		seen[r] = struct{}{}
	}

	res := &model.Reservation{UserID: caller.ID, CreatedAt: m.now()}
	if err := m.reservations.CreateTx(ctx, tx, res); err != nil {
		return nil, classify(err)
	}
	res.Tickets = make([]model.Ticket, 0, len(reqs))
	for i, r := range reqs {
		t := model.Ticket{ReservationID: res.ID, SessionID: r.SessionID, Row: r.Row, Seat: r.Seat, CreatedAt: res.CreatedAt}
		if err := m.tickets.InsertTx(ctx, tx, &t); err != nil {
			return nil, insertErr(i, r, err)
		}
		t.Session = sessions[r.SessionID]
		res.Tickets = append(res.Tickets, t)
	}
	if err := tx.Commit(); err != nil {
		return nil, classify(err)
	}
	committed = true

	m.logger.InfoContext(ctx, "reservation created",
		"user_id", caller.ID, "reservation_id", res.ID, "tickets", len(res.Tickets))
	m.publish(ctx, queue.EventReservationCreated, res.ID, caller.ID, res.Tickets)
	return res, nil
}

// validateSeat runs checks (a) to (c) for one request: the session
// exists, the seat is inside its dome and not yet in the ledger.  When
// cache is non-nil, sessions are looked up at most once per call.
func (m *ReservationManager) validateSeat(ctx context.Context, tx *database.Tx, i int, r SeatRequest, cache map[int64]*model.ShowSession) (*model.ShowSession, error) {
	session, ok := cache[r.SessionID]
	if !ok {
		var err error
		session, err = m.sessions.GetByIDTx(ctx, tx, r.SessionID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, seatErr(i, r, err)
			}
			return nil, classify(err)
		}
		if cache != nil {
			cache[r.SessionID] = session
		}
	}
	if !session.Dome.Contains(r.Row, r.Seat) {
		return nil, seatErr(i, r, ErrOutOfBounds)
	}
	taken, err := m.tickets.ExistsTx(ctx, tx, r.SessionID, r.Row, r.Seat)
	if err != nil {
		return nil, classify(err)
	}
	if taken {
		return nil, seatErr(i, r, ErrDuplicateSeat)
	}
	return session, nil
}

// GetReservation returns a reservation with its tickets.  Callers that
// are not privileged may only read their own.
func (m *ReservationManager) GetReservation(ctx context.Context, caller Caller, id int64) (*model.Reservation, error) {
	res, err := m.reservations.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !caller.Privileged && res.UserID != caller.ID {
		return nil, ErrForbidden
	}
	return res, nil
}

// ListReservations returns every reservation to privileged callers and
// the caller's own reservations otherwise.
func (m *ReservationManager) ListReservations(ctx context.Context, caller Caller) ([]model.Reservation, error) {
	if caller.Privileged {
		return m.reservations.ListAll(ctx)
	}
	return m.reservations.ListByUser(ctx, caller.ID)
}

// ListTickets applies the same visibility rule to tickets.
func (m *ReservationManager) ListTickets(ctx context.Context, caller Caller) ([]model.Ticket, error) {
	if caller.Privileged {
		return m.tickets.ListAll(ctx)
	}
	return m.tickets.ListByUser(ctx, caller.ID)
}

// publish emits an event after commit.  Failures are logged and never
// change the outcome of the operation.
func (m *ReservationManager) publish(ctx context.Context, typ string, reservationID, userID int64, tickets []model.Ticket) {
	ev := queue.ReservationEvent{
		ID:            uuid.NewString(),
		Type:          typ,
		ReservationID: reservationID,
		UserID:        userID,
		Tickets:       make([]queue.TicketRef, 0, len(tickets)),
		OccurredAt:    m.now(),
	}
	for _, t := range tickets {
		ev.Tickets = append(ev.Tickets, queue.TicketRef{TicketID: t.ID, SessionID: t.SessionID, Row: t.Row, Seat: t.Seat})
	}
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.publishTimeout)
	defer cancel()
	if err := m.publisher.Publish(pctx, ev); err != nil {
		m.logger.WarnContext(ctx, "event publish failed", "type", typ, "reservation_id", reservationID, "error", err)
	}
}

// insertErr attaches the seat to ledger rejections.
func insertErr(i int, r SeatRequest, err error) error {
	if errors.Is(err, repository.ErrDuplicateSeat) {
		return seatErr(i, r, err)
	}
	return classify(err)
}

// classify maps lock and serialization failures to ErrConflict and
// passes everything else through.
func classify(err error) error {
	if err == nil || errors.Is(err, ErrConflict) {
		return err
	}
	if database.IsConflict(err) {
		return ErrConflict
	}
	return err
}
