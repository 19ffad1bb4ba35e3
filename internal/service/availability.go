package service

import (
	"context"

	"github.com/iliyamo/planetarium-reservation/internal/model"
	"github.com/iliyamo/planetarium-reservation/internal/repository"
)

// Availability is the seat count of one session at read time.
type Availability struct {
	SessionID      int64
	Capacity       int
	AvailableSeats int
}

// AvailabilityCalculator derives free seats from the ledger.  Nothing is
// cached: every call counts committed tickets again, so the answer
// can only be as stale as the database snapshot it read.
type AvailabilityCalculator struct {
	sessions *repository.SessionRepo
}

// NewAvailabilityCalculator returns a calculator reading through sessions.
func NewAvailabilityCalculator(sessions *repository.SessionRepo) *AvailabilityCalculator {
	if sessions == nil {
		panic("nil repository passed to NewAvailabilityCalculator")
	}
	return &AvailabilityCalculator{sessions: sessions}
}

// AvailableSeats returns capacity minus committed tickets for the
// session, or an error wrapping ErrNotFound.
func (a *AvailabilityCalculator) AvailableSeats(ctx context.Context, sessionID int64) (int, error) {
	av, err := a.ListAvailability(ctx, sessionID)
	if err != nil {
		return 0, err
	}
	return av.AvailableSeats, nil
}

// ListAvailability returns capacity and free seats of one session.
func (a *AvailabilityCalculator) ListAvailability(ctx context.Context, sessionID int64) (*Availability, error) {
	s, err := a.sessions.GetAvailability(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return &Availability{SessionID: s.ID, Capacity: s.Dome.Capacity(), AvailableSeats: s.Available()}, nil
}

// GetSession returns one session with its dome and current sales.
func (a *AvailabilityCalculator) GetSession(ctx context.Context, sessionID int64) (*model.ShowSession, error) {
	return a.sessions.GetAvailability(ctx, sessionID)
}

// ListSessions returns the sessions matching f with fresh availability.
func (a *AvailabilityCalculator) ListSessions(ctx context.Context, f repository.SessionFilter) ([]model.ShowSession, error) {
	return a.sessions.ListAvailability(ctx, f)
}
