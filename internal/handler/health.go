package handler // declare the package name; contains HTTP handlers

import (
    "context"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/planetarium-reservation/internal/database"
)

// Health is the liveness and readiness probe.  It pings the database
// with a short timeout and answers 503 while the store is unreachable.
func Health(db *database.DB) echo.HandlerFunc {
    return func(c echo.Context) error {
        ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
        defer cancel()
        if err := db.PingContext(ctx); err != nil {
            return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "unavailable", "database": "down"})
        }
        return c.JSON(http.StatusOK, echo.Map{"status": "ok", "database": string(db.Dialect)})
    }
}
