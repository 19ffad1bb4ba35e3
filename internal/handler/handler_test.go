package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/planetarium-reservation/internal/database/databasetest"
	"github.com/iliyamo/planetarium-reservation/internal/handler"
	"github.com/iliyamo/planetarium-reservation/internal/model"
	"github.com/iliyamo/planetarium-reservation/internal/repository"
	"github.com/iliyamo/planetarium-reservation/internal/router"
	"github.com/iliyamo/planetarium-reservation/internal/service"
	"github.com/iliyamo/planetarium-reservation/internal/utils"
)

const secret = "handler-secret"

type api struct {
	e         *echo.Echo
	fx        databasetest.Fixture
	alice     string
	bob       string
	admin     string
	aliceID   int64
	bobID     int64
	galaxies  int64
	milkyShow int64
}

func newAPI(t *testing.T) *api {
	t.Helper()
	fx := databasetest.Seed(t)
	db := fx.DB
	aliceID := databasetest.SeedUser(t, db, "alice@example.com", model.RoleCustomer)
	bobID := databasetest.SeedUser(t, db, "bob@example.com", model.RoleCustomer)
	adminID := databasetest.SeedUser(t, db, "admin@example.com", model.RoleAdmin)
	galaxies := databasetest.SeedTheme(t, db, "Galaxies")
	milky := databasetest.SeedShow(t, db, "The Milky Way", galaxies)

	sessions := repository.NewSessionRepo(db)
	manager := service.NewReservationManager(sessions, repository.NewTicketRepo(db), repository.NewReservationRepo(db), nil, nil)
	e := router.New(router.Deps{
		DB:           db,
		JWTSecret:    secret,
		Catalog:      handler.NewCatalogHandler(repository.NewDomeRepo(db), repository.NewShowRepo(db), nil),
		Sessions:     handler.NewSessionHandler(service.NewAvailabilityCalculator(sessions), nil),
		Reservations: handler.NewReservationHandler(manager, nil),
	})

	token := func(id int64, role string) string {
		tok, err := utils.NewAccessToken(secret, id, role, 10)
		require.NoError(t, err)
		return tok.Token
	}
	return &api{
		e: e, fx: fx,
		alice: token(aliceID, model.RoleCustomer), aliceID: aliceID,
		bob: token(bobID, model.RoleCustomer), bobID: bobID,
		admin:    token(adminID, model.RoleAdmin),
		galaxies: galaxies, milkyShow: milky,
	}
}

func (a *api) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

type items[T any] struct {
	Items []T `json:"items"`
}

type errorBody struct {
	Error     string `json:"error"`
	Reason    string `json:"reason"`
	Retriable bool   `json:"retriable"`
	Ticket    *struct {
		Index         int   `json:"index"`
		ShowSessionID int64 `json:"show_session_id"`
		Row           int   `json:"row"`
		Seat          int   `json:"seat"`
	} `json:"ticket"`
}

func ticket(session int64, row, seat int) echo.Map {
	return echo.Map{"show_session_id": session, "row": row, "seat": seat}
}

func TestHealth(t *testing.T) {
	a := newAPI(t)
	rec := a.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","database":"sqlite"}`, rec.Body.String())
}

func TestRoutesRequireToken(t *testing.T) {
	a := newAPI(t)
	for _, path := range []string{"/v1/show_sessions", "/v1/reservations", "/v1/tickets", "/v1/show_themes"} {
		assert.Equal(t, http.StatusUnauthorized, a.do(t, http.MethodGet, path, "", nil).Code, path)
	}
}

func TestCatalogListings(t *testing.T) {
	a := newAPI(t)

	domes := decode[items[handler.DomeView]](t, a.do(t, http.MethodGet, "/v1/planetarium_domes", a.alice, nil))
	require.Len(t, domes.Items, 1)
	assert.Equal(t, 6, domes.Items[0].Capacity)

	dome := decode[handler.DomeView](t, a.do(t, http.MethodGet, "/v1/planetarium_domes/"+itoa(a.fx.DomeID), a.alice, nil))
	assert.Equal(t, handler.DomeView{ID: a.fx.DomeID, Name: "Main Dome", Rows: 2, SeatsInRow: 3, Capacity: 6}, dome)
	rec := a.do(t, http.MethodGet, "/v1/planetarium_domes/999", a.alice, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", decode[errorBody](t, rec).Reason)

	shows := decode[items[handler.AstronomyShowListView]](t,
		a.do(t, http.MethodGet, "/v1/astronomy_shows?themes="+itoa(a.galaxies), a.alice, nil))
	require.Len(t, shows.Items, 1)
	assert.Equal(t, []string{"Galaxies"}, shows.Items[0].Themes)

	assert.Equal(t, http.StatusBadRequest, a.do(t, http.MethodGet, "/v1/astronomy_shows?themes=x", a.alice, nil).Code)

	detail := decode[handler.AstronomyShowDetailView](t, a.do(t, http.MethodGet, "/v1/astronomy_shows/"+itoa(a.milkyShow), a.alice, nil))
	assert.Equal(t, "The Milky Way", detail.Title)
	assert.Equal(t, http.StatusNotFound, a.do(t, http.MethodGet, "/v1/astronomy_shows/999", a.alice, nil).Code)

	themes := decode[items[handler.ShowThemeView]](t, a.do(t, http.MethodGet, "/v1/show_themes", a.alice, nil))
	assert.Len(t, themes.Items, 1)
}

func TestSessionEndpoints(t *testing.T) {
	a := newAPI(t)
	x := a.fx.SessionID

	rec := a.do(t, http.MethodPost, "/v1/reservations", a.alice, echo.Map{"tickets": []echo.Map{ticket(x, 1, 1)}})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	list := decode[items[handler.ShowSessionListView]](t, a.do(t, http.MethodGet, "/v1/show_sessions?date=2030-01-15", a.alice, nil))
	require.Len(t, list.Items, 1)
	assert.Equal(t, 5, list.Items[0].TicketsAvailable)
	assert.Equal(t, 6, list.Items[0].PlanetariumDomeCapacity)

	empty := decode[items[handler.ShowSessionListView]](t, a.do(t, http.MethodGet, "/v1/show_sessions?date=2030-01-16", a.alice, nil))
	assert.Empty(t, empty.Items)
	assert.Equal(t, http.StatusBadRequest, a.do(t, http.MethodGet, "/v1/show_sessions?date=15-01-2030", a.alice, nil).Code)

	detail := decode[handler.ShowSessionDetailView](t, a.do(t, http.MethodGet, "/v1/show_sessions/"+itoa(x), a.alice, nil))
	assert.Equal(t, 2, detail.PlanetariumDomeRows)
	assert.Equal(t, 3, detail.PlanetariumDomeSeatsInRow)
	assert.True(t, detail.ShowTime.Equal(time.Date(2030, 1, 15, 18, 0, 0, 0, time.UTC)))

	avail := decode[handler.AvailabilityView](t, a.do(t, http.MethodGet, "/v1/show_sessions/"+itoa(x)+"/availability", a.alice, nil))
	assert.Equal(t, handler.AvailabilityView{ShowSessionID: x, Capacity: 6, AvailableSeats: 5}, avail)

	assert.Equal(t, http.StatusNotFound, a.do(t, http.MethodGet, "/v1/show_sessions/999/availability", a.alice, nil).Code)
	assert.Equal(t, http.StatusBadRequest, a.do(t, http.MethodGet, "/v1/show_sessions/abc", a.alice, nil).Code)
}

func TestCreateReservationErrors(t *testing.T) {
	a := newAPI(t)
	x := a.fx.SessionID

	rec := a.do(t, http.MethodPost, "/v1/reservations", a.alice, echo.Map{"tickets": []echo.Map{ticket(x, 1, 1), ticket(x, 1, 2)}})
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decode[handler.ReservationView](t, rec)
	assert.Len(t, created.Tickets, 2)

	rec = a.do(t, http.MethodPost, "/v1/reservations", a.bob, echo.Map{"tickets": []echo.Map{ticket(x, 2, 1), ticket(x, 1, 2)}})
	assert.Equal(t, http.StatusConflict, rec.Code)
	body := decode[errorBody](t, rec)
	assert.Equal(t, "duplicate_seat", body.Reason)
	assert.False(t, body.Retriable)
	require.NotNil(t, body.Ticket)
	assert.Equal(t, 1, body.Ticket.Index)
	assert.Equal(t, 2, body.Ticket.Seat)

	rec = a.do(t, http.MethodPost, "/v1/reservations", a.bob, echo.Map{"tickets": []echo.Map{ticket(x, 2, 2), ticket(x, 2, 2)}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "duplicate_seat_in_batch", decode[errorBody](t, rec).Reason)

	rec = a.do(t, http.MethodPost, "/v1/reservations", a.bob, echo.Map{"tickets": []echo.Map{ticket(x, 9, 1)}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "out_of_bounds", decode[errorBody](t, rec).Reason)

	rec = a.do(t, http.MethodPost, "/v1/reservations", a.bob, echo.Map{"tickets": []echo.Map{}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "empty_batch", decode[errorBody](t, rec).Reason)

	rec = a.do(t, http.MethodPost, "/v1/reservations", a.bob, echo.Map{"tickets": []echo.Map{ticket(999, 1, 1)}})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = a.do(t, http.MethodPost, "/v1/reservations", a.bob, echo.Map{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "empty_batch", decode[errorBody](t, rec).Reason)

	rec = a.do(t, http.MethodPost, "/v1/reservations", a.bob, echo.Map{"tickets": []echo.Map{{"row": 1, "seat": 1}}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	avail := decode[handler.AvailabilityView](t, a.do(t, http.MethodGet, "/v1/show_sessions/"+itoa(x)+"/availability", a.bob, nil))
	assert.Equal(t, 4, avail.AvailableSeats)
}

func TestReservationOwnership(t *testing.T) {
	a := newAPI(t)
	x := a.fx.SessionID

	rec := a.do(t, http.MethodPost, "/v1/reservations", a.alice, echo.Map{"tickets": []echo.Map{ticket(x, 1, 1)}})
	require.Equal(t, http.StatusCreated, rec.Code)
	res := decode[handler.ReservationView](t, rec)
	path := "/v1/reservations/" + itoa(res.ID)

	assert.Equal(t, http.StatusOK, a.do(t, http.MethodGet, path, a.alice, nil).Code)
	rec = a.do(t, http.MethodGet, path, a.bob, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "forbidden", decode[errorBody](t, rec).Reason)
	assert.Equal(t, http.StatusOK, a.do(t, http.MethodGet, path, a.admin, nil).Code)

	bobs := decode[items[handler.ReservationListView]](t, a.do(t, http.MethodGet, "/v1/reservations", a.bob, nil))
	assert.Empty(t, bobs.Items)
	all := decode[items[handler.ReservationListView]](t, a.do(t, http.MethodGet, "/v1/reservations", a.admin, nil))
	require.Len(t, all.Items, 1)
	assert.Equal(t, "alice@example.com", all.Items[0].UserEmail)
	require.Len(t, all.Items[0].Tickets, 1)
	assert.Equal(t, "Main Dome", all.Items[0].Tickets[0].ShowSession.PlanetariumDomeName)
}

func TestClaimTickets(t *testing.T) {
	a := newAPI(t)
	x := a.fx.SessionID

	rec := a.do(t, http.MethodPost, "/v1/tickets", a.alice, ticket(x, 1, 1))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	first := decode[handler.TicketView](t, rec)
	require.NotNil(t, first.ShowSession)
	assert.Equal(t, "Journey to the Stars", first.ShowSession.AstronomyShowTitle)

	rec = a.do(t, http.MethodPost, "/v1/tickets", a.alice, ticket(x, 1, 2))
	require.Equal(t, http.StatusCreated, rec.Code)
	second := decode[handler.TicketView](t, rec)
	assert.Equal(t, first.Reservation, second.Reservation)

	rec = a.do(t, http.MethodPost, "/v1/tickets", a.bob, ticket(x, 1, 2))
	assert.Equal(t, http.StatusConflict, rec.Code)

	assert.Equal(t, http.StatusBadRequest, a.do(t, http.MethodPost, "/v1/tickets", a.bob, echo.Map{"row": 1, "seat": 1}).Code)

	mine := decode[items[handler.TicketListView]](t, a.do(t, http.MethodGet, "/v1/tickets", a.alice, nil))
	assert.Len(t, mine.Items, 2)
	bobs := decode[items[handler.TicketListView]](t, a.do(t, http.MethodGet, "/v1/tickets", a.bob, nil))
	assert.Empty(t, bobs.Items)
	all := decode[items[handler.TicketListView]](t, a.do(t, http.MethodGet, "/v1/tickets", a.admin, nil))
	assert.Len(t, all.Items, 2)
}

func itoa(n int64) string { return strconv.FormatInt(n, 10) }
