// Package handler exposes the HTTP handlers of the planetarium service.
// Handlers only translate between HTTP and the service layer: they bind
// and validate input, build the caller from the JWT claims, and map
// domain errors onto status codes.
package handler

import (
    "errors"
    "log/slog"
    "net/http"
    "strconv"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/planetarium-reservation/internal/middleware"
    "github.com/iliyamo/planetarium-reservation/internal/model"
    "github.com/iliyamo/planetarium-reservation/internal/service"
)

var errNoUser = errors.New("user_id not found in context")

// getUserID extracts the user_id placed in the context by JWTAuth.
func getUserID(c echo.Context) (int64, error) {
    switch t := c.Get(middleware.ContextUserID).(type) {
    case int64:
        return t, nil
    case int:
        return int64(t), nil
    case float64:
        return int64(t), nil
    case string:
        if n, err := strconv.ParseInt(t, 10, 64); err == nil {
            return n, nil
        }
    }
    return 0, errNoUser
}

// callerFrom builds the access fact the service layer needs: ADMIN
// callers are privileged, everyone else only sees their own data.
func callerFrom(c echo.Context) (service.Caller, error) {
    uid, err := getUserID(c)
    if err != nil || uid <= 0 {
        return service.Caller{}, errNoUser
    }
    role, _ := c.Get(middleware.ContextRole).(string)
    return service.Caller{ID: uid, Privileged: role == model.RoleAdmin}, nil
}

// parseID reads a positive integer path parameter.
func parseID(c echo.Context, name string) (int64, bool) {
    id, err := strconv.ParseInt(c.Param(name), 10, 64)
    if err != nil || id <= 0 {
        return 0, false
    }
    return id, true
}

func unauthorized(c echo.Context) error {
    return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
}

func badRequest(c echo.Context, msg string) error {
    return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
}

// errorResponse maps a service error onto an HTTP response.  Seat
// failures carry the offending seat so clients can highlight it.
// Anything unrecognised is logged and answered with 500.
func errorResponse(c echo.Context, logger *slog.Logger, err error) error {
    status, reason := http.StatusInternalServerError, "internal"
    switch {
    case errors.Is(err, service.ErrNotFound):
        status, reason = http.StatusNotFound, "not_found"
    case errors.Is(err, service.ErrOutOfBounds):
        status, reason = http.StatusBadRequest, "out_of_bounds"
    case errors.Is(err, service.ErrDuplicateSeatInBatch):
        status, reason = http.StatusBadRequest, "duplicate_seat_in_batch"
    case errors.Is(err, service.ErrEmptyBatch):
        status, reason = http.StatusBadRequest, "empty_batch"
    case errors.Is(err, service.ErrDuplicateSeat):
        status, reason = http.StatusConflict, "duplicate_seat"
    case errors.Is(err, service.ErrConflict):
        status, reason = http.StatusConflict, "conflict"
    case errors.Is(err, service.ErrForbidden):
        status, reason = http.StatusForbidden, "forbidden"
    }
    if status == http.StatusInternalServerError {
        logger.ErrorContext(c.Request().Context(), "request failed", "path", c.Path(), "error", err)
        return c.JSON(status, echo.Map{"error": "internal error"})
    }

    body := echo.Map{"error": err.Error(), "reason": reason}
    var se *service.SeatError
    if errors.As(err, &se) {
        body["ticket"] = echo.Map{
            "index":           se.Index,
            "show_session_id": se.SessionID,
            "row":             se.Row,
            "seat":            se.Seat,
        }
    }
    if reason == "conflict" {
        body["retriable"] = true
    }
    return c.JSON(status, body)
}
