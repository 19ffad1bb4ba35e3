// Package queue defines message payloads exchanged over the message broker
// and the consumer that records them.
package queue

import "time"

// ReservationQueueName is the durable queue reservation events go to.
const ReservationQueueName = "planetarium.reservations"

// Event types.
const (
    EventReservationCreated = "reservation.created"
    EventTicketClaimed      = "ticket.claimed"
)

// ReservationEvent is published after a reservation or a single-seat
// claim has been committed.  It carries enough for downstream consumers
// to log or notify without querying the primary database.
type ReservationEvent struct {
    ID            string      `json:"id"`
    Type          string      `json:"type"`
    ReservationID int64       `json:"reservation_id"`
    UserID        int64       `json:"user_id"`
    Tickets       []TicketRef `json:"tickets"`
    OccurredAt    time.Time   `json:"occurred_at"`
}

// TicketRef names one seat of one session.
type TicketRef struct {
    TicketID  int64 `json:"ticket_id"`
    SessionID int64 `json:"show_session_id"`
    Row       int   `json:"row"`
    Seat      int   `json:"seat"`
}
