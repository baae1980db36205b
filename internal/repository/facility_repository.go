package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/venue-reservation/internal/model"
)

// FacilityRepo provides access to the facility catalog. The workflow
// treats facilities as read-only reference data; the mutating methods are
// used only by the admin tooling endpoints.
type FacilityRepo struct {
	db *sql.DB
}

// NewFacilityRepo returns a FacilityRepo bound to the given database.
func NewFacilityRepo(db *sql.DB) *FacilityRepo { return &FacilityRepo{db: db} }

const facilityColumns = `id, name, location, latitude, longitude, capacity, type, price_per_hour, is_active, created_at`

func scanFacility(row interface{ Scan(...any) error }) (*model.Facility, error) {
	var f model.Facility
	var lat, lng sql.NullFloat64
	var price string
	if err := row.Scan(&f.ID, &f.Name, &f.Location, &lat, &lng, &f.Capacity, &f.Type, &price, &f.IsActive, &f.CreatedAt); err != nil {
		return nil, err
	}
	if lat.Valid {
		v := lat.Float64
		f.Latitude = &v
	}
	if lng.Valid {
		v := lng.Float64
		f.Longitude = &v
	}
	p, err := decimal.NewFromString(price)
	if err != nil {
		return nil, err
	}
	f.PricePerHour = p
	return &f, nil
}

// GetByID loads one facility. Returns ErrFacilityNotFound when no row
// matches.
func (r *FacilityRepo) GetByID(ctx context.Context, id uint64) (*model.Facility, error) {
	const q = `SELECT ` + facilityColumns + ` FROM facilities WHERE id = ?`
	f, err := scanFacility(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrFacilityNotFound
	}
	return f, err
}

// ListActive returns all facilities currently accepting bookings, ordered
// by name for stable public listings.
func (r *FacilityRepo) ListActive(ctx context.Context) ([]model.Facility, error) {
	const q = `SELECT ` + facilityColumns + ` FROM facilities WHERE is_active = 1 ORDER BY name`
	return r.list(ctx, q)
}

// ListAll returns every facility, active or not, for admin tooling.
func (r *FacilityRepo) ListAll(ctx context.Context) ([]model.Facility, error) {
	const q = `SELECT ` + facilityColumns + ` FROM facilities ORDER BY name`
	return r.list(ctx, q)
}

func (r *FacilityRepo) list(ctx context.Context, q string) ([]model.Facility, error) {
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Facility, 0)
	for rows.Next() {
		f, err := scanFacility(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *f)
	}
	return out, rows.Err()
}

// Create inserts a facility and populates its generated ID.
func (r *FacilityRepo) Create(ctx context.Context, f *model.Facility) error {
	const q = `INSERT INTO facilities (name, location, latitude, longitude, capacity, type, price_per_hour, is_active)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, f.Name, f.Location, f.Latitude, f.Longitude,
		f.Capacity, f.Type, f.PricePerHour.String(), f.IsActive)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	f.ID = uint64(id)
	return nil
}

// Update rewrites the editable fields of a facility. Returns
// ErrFacilityNotFound when the row does not exist.
func (r *FacilityRepo) Update(ctx context.Context, f *model.Facility) error {
	const q = `UPDATE facilities SET name = ?, location = ?, latitude = ?, longitude = ?,
	           capacity = ?, type = ?, price_per_hour = ?, is_active = ? WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, f.Name, f.Location, f.Latitude, f.Longitude,
		f.Capacity, f.Type, f.PricePerHour.String(), f.IsActive, f.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// The update may also be a no-op on an existing row; confirm.
		if _, err := r.GetByID(ctx, f.ID); err != nil {
			return err
		}
	}
	return nil
}

// Deactivate stops a facility from accepting new bookings without touching
// existing reservations.
func (r *FacilityRepo) Deactivate(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `UPDATE facilities SET is_active = 0 WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
	}
	return nil
}
