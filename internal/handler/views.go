package handler

import (
	"time"

	"github.com/iliyamo/planetarium-reservation/internal/model"
	"github.com/iliyamo/planetarium-reservation/internal/service"
)

// The types below are the JSON projections of the domain model.  Each
// endpoint picks the one that matches its shape; nothing is selected at
// runtime.

type DomeView struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Rows       int    `json:"rows"`
	SeatsInRow int    `json:"seats_in_row"`
	Capacity   int    `json:"capacity"`
}

func newDomeView(d model.Dome) DomeView {
	return DomeView{ID: d.ID, Name: d.Name, Rows: d.Rows, SeatsInRow: d.SeatsInRow, Capacity: d.Capacity()}
}

type ShowThemeView struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// AstronomyShowListView lists theme names only.
type AstronomyShowListView struct {
	ID     int64    `json:"id"`
	Title  string   `json:"title"`
	Themes []string `json:"themes"`
}

type AstronomyShowDetailView struct {
	ID          int64    `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Themes      []string `json:"themes"`
}

type ShowSessionListView struct {
	ID                      int64     `json:"id"`
	ShowTime                time.Time `json:"show_time"`
	AstronomyShowTitle      string    `json:"astronomy_show_title"`
	PlanetariumDomeName     string    `json:"planetarium_dome_name"`
	PlanetariumDomeCapacity int       `json:"planetarium_dome_capacity"`
	TicketsAvailable        int       `json:"tickets_available"`
}

func newShowSessionListView(s model.ShowSession) ShowSessionListView {
	return ShowSessionListView{
		ID:                      s.ID,
		ShowTime:                s.ShowTime,
		AstronomyShowTitle:      s.ShowTitle,
		PlanetariumDomeName:     s.Dome.Name,
		PlanetariumDomeCapacity: s.Dome.Capacity(),
		TicketsAvailable:        s.Available(),
	}
}

// ShowSessionDetailView exposes the dome geometry so clients can draw
// the seat grid.
type ShowSessionDetailView struct {
	ID                        int64     `json:"id"`
	ShowTime                  time.Time `json:"show_time"`
	AstronomyShowTitle        string    `json:"astronomy_show_title"`
	PlanetariumDomeName       string    `json:"planetarium_dome_name"`
	PlanetariumDomeRows       int       `json:"planetarium_dome_rows"`
	PlanetariumDomeSeatsInRow int       `json:"planetarium_dome_seats_in_row"`
}

func newShowSessionDetailView(s model.ShowSession) ShowSessionDetailView {
	return ShowSessionDetailView{
		ID:                        s.ID,
		ShowTime:                  s.ShowTime,
		AstronomyShowTitle:        s.ShowTitle,
		PlanetariumDomeName:       s.Dome.Name,
		PlanetariumDomeRows:       s.Dome.Rows,
		PlanetariumDomeSeatsInRow: s.Dome.SeatsInRow,
	}
}

// ShowSessionSummaryView is the session as nested in ticket listings.
type ShowSessionSummaryView struct {
	ID                      int64     `json:"id"`
	ShowTime                time.Time `json:"show_time"`
	AstronomyShowTitle      string    `json:"astronomy_show_title"`
	PlanetariumDomeName     string    `json:"planetarium_dome_name"`
	PlanetariumDomeCapacity int       `json:"planetarium_dome_capacity"`
}

type AvailabilityView struct {
	ShowSessionID  int64 `json:"show_session_id"`
	Capacity       int   `json:"capacity"`
	AvailableSeats int   `json:"available_seats"`
}

func newAvailabilityView(a *service.Availability) AvailabilityView {
	return AvailabilityView{ShowSessionID: a.SessionID, Capacity: a.Capacity, AvailableSeats: a.AvailableSeats}
}

// TicketView is returned when a ticket is created or shown inside a
// reservation detail.
type TicketView struct {
	ID          int64                  `json:"id"`
	Row         int                    `json:"row"`
	Seat        int                    `json:"seat"`
	ShowSession *ShowSessionDetailView `json:"show_session,omitempty"`
	Reservation int64                  `json:"reservation"`
}

func newTicketView(t model.Ticket) TicketView {
	v := TicketView{ID: t.ID, Row: t.Row, Seat: t.Seat, Reservation: t.ReservationID}
	if t.Session != nil {
		s := newShowSessionDetailView(*t.Session)
		v.ShowSession = &s
	}
	return v
}

type TicketListView struct {
	ID          int64                   `json:"id"`
	Row         int                     `json:"row"`
	Seat        int                     `json:"seat"`
	ShowSession *ShowSessionSummaryView `json:"show_session,omitempty"`
	Reservation int64                   `json:"reservation"`
}

func newTicketListView(t model.Ticket) TicketListView {
	v := TicketListView{ID: t.ID, Row: t.Row, Seat: t.Seat, Reservation: t.ReservationID}
	if s := t.Session; s != nil {
		v.ShowSession = &ShowSessionSummaryView{
			ID:                      s.ID,
			ShowTime:                s.ShowTime,
			AstronomyShowTitle:      s.ShowTitle,
			PlanetariumDomeName:     s.Dome.Name,
			PlanetariumDomeCapacity: s.Dome.Capacity(),
		}
	}
	return v
}

type ReservationView struct {
	ID        int64        `json:"id"`
	Tickets   []TicketView `json:"tickets"`
	CreatedAt time.Time    `json:"created_at"`
}

func newReservationView(r model.Reservation) ReservationView {
	v := ReservationView{ID: r.ID, CreatedAt: r.CreatedAt, Tickets: make([]TicketView, 0, len(r.Tickets))}
	for _, t := range r.Tickets {
		v.Tickets = append(v.Tickets, newTicketView(t))
	}
	return v
}

type ReservationListView struct {
	ID        int64            `json:"id"`
	Tickets   []TicketListView `json:"tickets"`
	CreatedAt time.Time        `json:"created_at"`
	UserEmail string           `json:"user_email"`
}

func newReservationListView(r model.Reservation) ReservationListView {
	v := ReservationListView{ID: r.ID, CreatedAt: r.CreatedAt, UserEmail: r.UserEmail, Tickets: make([]TicketListView, 0, len(r.Tickets))}
	for _, t := range r.Tickets {
		v.Tickets = append(v.Tickets, newTicketListView(t))
	}
	return v
}
