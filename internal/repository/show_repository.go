// Package repository contains data access logic for the planetarium
// catalog and the reservation ledger. This file covers astronomy shows
// and their themes, which are read-only to the service.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/planetarium-reservation/internal/database"
	"github.com/iliyamo/planetarium-reservation/internal/model"
)

// ShowFilter narrows List.  Title matches case-insensitively as a
// substring; ThemeIDs keeps shows tagged with any of the given themes.
// Zero values disable a filter.
type ShowFilter struct {
	Title    string
	ThemeIDs []int64
}

// ShowRepo reads astronomy shows and show themes.
type ShowRepo struct {
	db *database.DB
}

// NewShowRepo constructs a ShowRepo with the given DB handle.
func NewShowRepo(db *database.DB) *ShowRepo { return &ShowRepo{db: db} }

// GetByID retrieves a show with its theme names.  It returns
// ErrShowNotFound if there is no matching row.
func (r *ShowRepo) GetByID(ctx context.Context, id int64) (*model.AstronomyShow, error) {
	const q = `SELECT id, title, description FROM astronomy_shows WHERE id = ?`
	var s model.AstronomyShow
	if err := r.db.QueryRowContext(ctx, q, id).Scan(&s.ID, &s.Title, &s.Description); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrShowNotFound
		}
		return nil, err
	}
	shows := []model.AstronomyShow{s}
	if err := r.attachThemes(ctx, shows); err != nil {
		return nil, err
	}
	return &shows[0], nil
}

// List returns the shows matching f ordered by id.  When no shows match
// it returns an empty slice and nil error.
func (r *ShowRepo) List(ctx context.Context, f ShowFilter) ([]model.AstronomyShow, error) {
	q := `SELECT a.id, a.title, a.description FROM astronomy_shows a WHERE 1=1`
	var args []any
	if t := strings.TrimSpace(f.Title); t != "" {
		q += ` AND LOWER(a.title) LIKE ?`
		args = append(args, "%"+strings.ToLower(t)+"%")
	}
	if len(f.ThemeIDs) > 0 {
		q += ` AND a.id IN (SELECT show_id FROM astronomy_show_themes WHERE theme_id IN (` +
			database.Placeholders(len(f.ThemeIDs)) + `))`
		for _, id := range f.ThemeIDs {
			args = append(args, id)
		}
	}
	q += ` ORDER BY a.id`

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.AstronomyShow{}
	for rows.Next() {
		var s model.AstronomyShow
		if err := rows.Scan(&s.ID, &s.Title, &s.Description); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.attachThemes(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

// attachThemes fills Themes on every show with one extra query.
func (r *ShowRepo) attachThemes(ctx context.Context, shows []model.AstronomyShow) error {
	if len(shows) == 0 {
		return nil
	}
	idx := make(map[int64]int, len(shows))
	args := make([]any, 0, len(shows))
	for i := range shows {
		shows[i].Themes = []string{}
		idx[shows[i].ID] = i
		args = append(args, shows[i].ID)
	}
	q := `SELECT st.show_id, t.name
	      FROM astronomy_show_themes st
	      JOIN show_themes t ON t.id = st.theme_id
	      WHERE st.show_id IN (` + database.Placeholders(len(args)) + `)
	      ORDER BY t.name`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var showID int64
		var name string
		if err := rows.Scan(&showID, &name); err != nil {
			return err
		}
		if i, ok := idx[showID]; ok {
			shows[i].Themes = append(shows[i].Themes, name)
		}
	}
	return rows.Err()
}

// ListThemes returns every show theme ordered by id.
func (r *ShowRepo) ListThemes(ctx context.Context) ([]model.ShowTheme, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM show_themes ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.ShowTheme{}
	for rows.Next() {
		var t model.ShowTheme
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
