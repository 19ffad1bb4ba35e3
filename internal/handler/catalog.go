package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/planetarium-reservation/internal/repository"
)

// CatalogHandler serves the read-only reference data: domes, astronomy
// shows and show themes.
type CatalogHandler struct {
	Domes  *repository.DomeRepo
	Shows  *repository.ShowRepo
	Logger *slog.Logger
}

// NewCatalogHandler panics if a repository is missing.
func NewCatalogHandler(domes *repository.DomeRepo, shows *repository.ShowRepo, logger *slog.Logger) *CatalogHandler {
	if domes == nil || shows == nil {
		panic("nil repository passed to NewCatalogHandler")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CatalogHandler{Domes: domes, Shows: shows, Logger: logger}
}

// ListDomes handles GET /v1/planetarium_domes.
func (h *CatalogHandler) ListDomes(c echo.Context) error {
	domes, err := h.Domes.ListAll(c.Request().Context())
	if err != nil {
		return errorResponse(c, h.Logger, err)
	}
	out := make([]DomeView, 0, len(domes))
	for _, d := range domes {
		out = append(out, newDomeView(d))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// GetDome handles GET /v1/planetarium_domes/:id.
func (h *CatalogHandler) GetDome(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid planetarium dome id")
	}
	d, err := h.Domes.GetByID(c.Request().Context(), id)
	if err != nil {
		return errorResponse(c, h.Logger, err)
	}
	return c.JSON(http.StatusOK, newDomeView(*d))
}

// ListShows handles GET /v1/astronomy_shows.  Optional query params:
// title (case-insensitive substring) and themes (comma separated ids).
func (h *CatalogHandler) ListShows(c echo.Context) error {
	f := repository.ShowFilter{Title: c.QueryParam("title")}
	if raw := strings.TrimSpace(c.QueryParam("themes")); raw != "" {
		for part := range strings.SplitSeq(raw, ",") {
			id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
			if err != nil || id <= 0 {
				return badRequest(c, "themes must be a comma separated list of ids")
			}
			f.ThemeIDs = append(f.ThemeIDs, id)
		}
	}
	shows, err := h.Shows.List(c.Request().Context(), f)
	if err != nil {
		return errorResponse(c, h.Logger, err)
	}
	out := make([]AstronomyShowListView, 0, len(shows))
	for _, s := range shows {
		out = append(out, AstronomyShowListView{ID: s.ID, Title: s.Title, Themes: s.Themes})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// GetShow handles GET /v1/astronomy_shows/:id.
func (h *CatalogHandler) GetShow(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid astronomy show id")
	}
	s, err := h.Shows.GetByID(c.Request().Context(), id)
	if err != nil {
		return errorResponse(c, h.Logger, err)
	}
	return c.JSON(http.StatusOK, AstronomyShowDetailView{ID: s.ID, Title: s.Title, Description: s.Description, Themes: s.Themes})
}

// ListThemes handles GET /v1/show_themes.
func (h *CatalogHandler) ListThemes(c echo.Context) error {
	themes, err := h.Shows.ListThemes(c.Request().Context())
	if err != nil {
		return errorResponse(c, h.Logger, err)
	}
	out := make([]ShowThemeView, 0, len(themes))
	for _, t := range themes {
		out = append(out, ShowThemeView{ID: t.ID, Name: t.Name})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}
