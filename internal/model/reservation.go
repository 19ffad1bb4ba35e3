package model

import "time"

// Reservation groups the tickets a user claimed.  A user has at most
// one open reservation which single-seat claims are attached to;
// batch reservations always get a fresh one.
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – owner of the reservation.
//  UserEmail – owner's email, empty when the user row is unknown.
//  CreatedAt – creation timestamp, UTC.
//  Tickets   – tickets held under the reservation (may be empty).
type Reservation struct {
    ID        int64     // reservations.id
    UserID    int64     // reservations.user_id
    UserEmail string    // users.email
    CreatedAt time.Time // reservations.created_at
    Tickets   []Ticket
}

// Ticket is one committed seat of one session.  The triple
// (SessionID, Row, Seat) is unique across all tickets.
//
// Fields:
//  ID            – primary key identifier.
//  ReservationID – reservation holding the ticket.
//  SessionID     – show session the seat belongs to.
//  Row           – row number, 1-based.
//  Seat          – seat number within the row, 1-based.
//  CreatedAt     – creation timestamp, UTC.
//  Session       – session summary, set by listing queries.
type Ticket struct {
    ID            int64     // tickets.id
    ReservationID int64     // tickets.reservation_id
    SessionID     int64     // tickets.show_session_id
    Row           int       // tickets.row_no
    Seat          int       // tickets.seat_no
    CreatedAt     time.Time // tickets.created_at
    Session       *ShowSession
}
