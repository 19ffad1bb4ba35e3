package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/planetarium-reservation/internal/database"
	"github.com/iliyamo/planetarium-reservation/internal/handler"
	"github.com/iliyamo/planetarium-reservation/internal/middleware"
	"github.com/iliyamo/planetarium-reservation/internal/model"
)

// authenticated are the roles admitted to the /v1 API.
var authenticated = []string{model.RoleCustomer, model.RoleAdmin}

// RegisterRoutes registers routes that do not require authentication.
// Currently it exposes only the health check.
func RegisterRoutes(e *echo.Echo, db *database.DB) {
	e.GET("/healthz", handler.Health(db))
}

// RegisterCatalog registers the catalog and show session endpoints.  The
// reference-data lists go through cache; session listings and
// availability never do, since they must reflect the ledger.
func RegisterCatalog(e *echo.Echo, c *handler.CatalogHandler, s *handler.SessionHandler, jwtSecret string, cache echo.MiddlewareFunc) {
	g := e.Group("/v1", middleware.JWTAuth(jwtSecret), middleware.RequireRole(authenticated...))

	g.GET("/planetarium_domes", c.ListDomes, cache)
	g.GET("/planetarium_domes/:id", c.GetDome, cache)
	g.GET("/astronomy_shows", c.ListShows, cache)
	g.GET("/astronomy_shows/:id", c.GetShow, cache)
	g.GET("/show_themes", c.ListThemes, cache)

	g.GET("/show_sessions", s.ListSessions)
	g.GET("/show_sessions/:id", s.GetSession)
	g.GET("/show_sessions/:id/availability", s.GetAvailability)
}

// RegisterReservations registers the reservation and ticket endpoints.
// Writes pass through limiter.
func RegisterReservations(e *echo.Echo, h *handler.ReservationHandler, jwtSecret string, limiter echo.MiddlewareFunc) {
	g := e.Group("/v1", middleware.JWTAuth(jwtSecret), middleware.RequireRole(authenticated...))

	g.GET("/reservations", h.ListReservations)
	g.POST("/reservations", h.CreateReservation, limiter)
	g.GET("/reservations/:id", h.GetReservation)

	g.GET("/tickets", h.ListTickets)
	g.POST("/tickets", h.ClaimTicket, limiter)
}

// Deps bundles what New needs to assemble the API.  Cache and Limiter
// may be nil, which disables them.
type Deps struct {
	DB           *database.DB
	JWTSecret    string
	Catalog      *handler.CatalogHandler
	Sessions     *handler.SessionHandler
	Reservations *handler.ReservationHandler
	Cache        echo.MiddlewareFunc
	Limiter      echo.MiddlewareFunc
	Global       []echo.MiddlewareFunc
}

// New returns an echo instance with every route registered.
func New(d Deps) *echo.Echo {
	passthrough := func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	if d.Cache == nil {
		d.Cache = passthrough
	}
	if d.Limiter == nil {
		d.Limiter = passthrough
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.Use(echomw.Recover())
	e.Use(d.Global...)

	RegisterRoutes(e, d.DB)
	RegisterCatalog(e, d.Catalog, d.Sessions, d.JWTSecret, d.Cache)
	RegisterReservations(e, d.Reservations, d.JWTSecret, d.Limiter)
	return e
}
