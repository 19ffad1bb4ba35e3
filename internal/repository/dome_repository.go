package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/planetarium-reservation/internal/database"
	"github.com/iliyamo/planetarium-reservation/internal/model"
)

// DomeRepo reads planetarium domes.  Domes are reference data; the
// service never writes them.
type DomeRepo struct {
	db *database.DB
}

// NewDomeRepo returns a DomeRepo bound to db.
func NewDomeRepo(db *database.DB) *DomeRepo { return &DomeRepo{db: db} }

// GetByID returns the dome with the given id or ErrDomeNotFound.
func (r *DomeRepo) GetByID(ctx context.Context, id int64) (*model.Dome, error) {
	const q = `SELECT id, name, num_rows, seats_in_row FROM domes WHERE id = ?`
	var d model.Dome
	err := r.db.QueryRowContext(ctx, q, id).Scan(&d.ID, &d.Name, &d.Rows, &d.SeatsInRow)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDomeNotFound
		}
		return nil, err
	}
	return &d, nil
}

// ListAll returns every dome ordered by id.
func (r *DomeRepo) ListAll(ctx context.Context) ([]model.Dome, error) {
	const q = `SELECT id, name, num_rows, seats_in_row FROM domes ORDER BY id`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Dome{}
	for rows.Next() {
		var d model.Dome
		if err := rows.Scan(&d.ID, &d.Name, &d.Rows, &d.SeatsInRow); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
