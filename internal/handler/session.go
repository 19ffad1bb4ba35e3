package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/planetarium-reservation/internal/repository"
	"github.com/iliyamo/planetarium-reservation/internal/service"
)

// SessionHandler serves show sessions and their live availability.
// None of its routes are cached: availability is recomputed from the
// ledger on every request.
type SessionHandler struct {
	Availability *service.AvailabilityCalculator
	Logger       *slog.Logger
}

// NewSessionHandler panics if the calculator is missing.
func NewSessionHandler(a *service.AvailabilityCalculator, logger *slog.Logger) *SessionHandler {
	if a == nil {
		panic("nil calculator passed to NewSessionHandler")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionHandler{Availability: a, Logger: logger}
}

// ListSessions handles GET /v1/show_sessions.  Optional query params:
// date=YYYY-MM-DD (UTC day of the show time) and show=<astronomy show id>.
func (h *SessionHandler) ListSessions(c echo.Context) error {
	var f repository.SessionFilter
	if raw := c.QueryParam("date"); raw != "" {
		d, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			return badRequest(c, "date must be formatted as YYYY-MM-DD")
		}
		f.Date = &d
	}
	if raw := c.QueryParam("show"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			return badRequest(c, "invalid show id")
		}
		f.ShowID = id
	}
	sessions, err := h.Availability.ListSessions(c.Request().Context(), f)
	if err != nil {
		return errorResponse(c, h.Logger, err)
	}
	out := make([]ShowSessionListView, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, newShowSessionListView(s))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// GetSession handles GET /v1/show_sessions/:id.
func (h *SessionHandler) GetSession(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid show session id")
	}
	s, err := h.Availability.GetSession(c.Request().Context(), id)
	if err != nil {
		return errorResponse(c, h.Logger, err)
	}
	return c.JSON(http.StatusOK, newShowSessionDetailView(*s))
}

// GetAvailability handles GET /v1/show_sessions/:id/availability.
func (h *SessionHandler) GetAvailability(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid show session id")
	}
	a, err := h.Availability.ListAvailability(c.Request().Context(), id)
	if err != nil {
		return errorResponse(c, h.Logger, err)
	}
	return c.JSON(http.StatusOK, newAvailabilityView(a))
}
