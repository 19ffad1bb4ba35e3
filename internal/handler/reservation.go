package handler

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/planetarium-reservation/internal/service"
)

// ReservationHandler exposes the reservation manager.  All methods
// assume JWTAuth already ran; they answer 401 when no user is in the
// context.
type ReservationHandler struct {
	Manager *service.ReservationManager
	Logger  *slog.Logger
}

// NewReservationHandler panics if the manager is missing.
func NewReservationHandler(m *service.ReservationManager, logger *slog.Logger) *ReservationHandler {
	if m == nil {
		panic("nil manager passed to NewReservationHandler")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ReservationHandler{Manager: m, Logger: logger}
}

// TicketRequest is one requested seat in a request body.  Row and seat
// are range-checked against the dome by the service, not here.
type TicketRequest struct {
	ShowSessionID int64 `json:"show_session_id" validate:"required"`
	Row           int   `json:"row"`
	Seat          int   `json:"seat"`
}

func (t TicketRequest) seat() service.SeatRequest {
	return service.SeatRequest{SessionID: t.ShowSessionID, Row: t.Row, Seat: t.Seat}
}

// CreateReservationRequest is the body of POST /v1/reservations.  A
// missing tickets list is an empty batch and is refused by the service.
type CreateReservationRequest struct {
	Tickets []TicketRequest `json:"tickets" validate:"dive"`
}

// CreateReservation handles POST /v1/reservations.  All tickets are
// stored or none are; the first failing ticket is named in the error.
func (h *ReservationHandler) CreateReservation(c echo.Context) error {
	caller, err := callerFrom(c)
	if err != nil {
		return unauthorized(c)
	}
	var body CreateReservationRequest
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	if err := c.Validate(&body); err != nil {
		return badRequest(c, err.Error())
	}
	reqs := make([]service.SeatRequest, 0, len(body.Tickets))
	for _, t := range body.Tickets {
		reqs = append(reqs, t.seat())
	}
	res, err := h.Manager.CreateReservation(c.Request().Context(), caller, reqs)
	if err != nil {
		return errorResponse(c, h.Logger, err)
	}
	return c.JSON(http.StatusCreated, newReservationView(*res))
}

// ListReservations handles GET /v1/reservations.  Admins see every
// reservation, customers their own.
func (h *ReservationHandler) ListReservations(c echo.Context) error {
	caller, err := callerFrom(c)
	if err != nil {
		return unauthorized(c)
	}
	list, err := h.Manager.ListReservations(c.Request().Context(), caller)
	if err != nil {
		return errorResponse(c, h.Logger, err)
	}
	out := make([]ReservationListView, 0, len(list))
	for _, r := range list {
		out = append(out, newReservationListView(r))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// GetReservation handles GET /v1/reservations/:id.
func (h *ReservationHandler) GetReservation(c echo.Context) error {
	caller, err := callerFrom(c)
	if err != nil {
		return unauthorized(c)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid reservation id")
	}
	res, err := h.Manager.GetReservation(c.Request().Context(), caller, id)
	if err != nil {
		return errorResponse(c, h.Logger, err)
	}
	return c.JSON(http.StatusOK, newReservationView(*res))
}

// ClaimTicket handles POST /v1/tickets.  The ticket joins the caller's
// open reservation, which is created on first use.
func (h *ReservationHandler) ClaimTicket(c echo.Context) error {
	caller, err := callerFrom(c)
	if err != nil {
		return unauthorized(c)
	}
	var body TicketRequest
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	if err := c.Validate(&body); err != nil {
		return badRequest(c, err.Error())
	}
	t, err := h.Manager.ClaimSeat(c.Request().Context(), caller, body.seat())
	if err != nil {
		return errorResponse(c, h.Logger, err)
	}
	return c.JSON(http.StatusCreated, newTicketView(*t))
}

// ListTickets handles GET /v1/tickets.
func (h *ReservationHandler) ListTickets(c echo.Context) error {
	caller, err := callerFrom(c)
	if err != nil {
		return unauthorized(c)
	}
	tickets, err := h.Manager.ListTickets(c.Request().Context(), caller)
	if err != nil {
		return errorResponse(c, h.Logger, err)
	}
	out := make([]TicketListView, 0, len(tickets))
	for _, t := range tickets {
		out = append(out, newTicketListView(t))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}
