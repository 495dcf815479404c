package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/thegera4/cool-morning-tables-sub000/internal/models"
)

const locationColumns = `id, slug, name, description, price, capacity, sort_order, is_active, created_at, updated_at`

const extraColumns = `id, name, description, price, has_quantity, sort_order, is_active, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLocation(row rowScanner) (*models.Location, error) {
	var l models.Location
	err := row.Scan(&l.ID, &l.Slug, &l.Name, &l.Description, &l.Price, &l.Capacity,
		&l.SortOrder, &l.IsActive, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func scanExtra(row rowScanner) (*models.Extra, error) {
	var e models.Extra
	err := row.Scan(&e.ID, &e.Name, &e.Description, &e.Price, &e.HasQuantity,
		&e.SortOrder, &e.IsActive, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// UpsertLocation inserts the location or updates it in place by ID.
func (db *DB) UpsertLocation(ctx context.Context, l *models.Location) (created bool, err error) {
	if l.ID == 0 {
		return false, errors.New("location id is required")
	}
	exists, err := db.exists(ctx, `SELECT COUNT(*) FROM locations WHERE id = ?`, l.ID)
	if err != nil {
		return false, err
	}

	now := time.Now().UTC()
	query := `INSERT INTO locations (` + locationColumns + `)
              VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
              ON CONFLICT(id) DO UPDATE SET
                slug = excluded.slug, name = excluded.name, description = excluded.description,
                price = excluded.price, capacity = excluded.capacity, sort_order = excluded.sort_order,
                is_active = excluded.is_active, updated_at = excluded.updated_at`
	_, err = db.ExecContext(ctx, query, l.ID, l.Slug, l.Name, l.Description, l.Price, l.Capacity,
		l.SortOrder, l.IsActive, now, now)
	if err != nil {
		return false, fmt.Errorf("failed to upsert location %d: %w", l.ID, err)
	}
	l.UpdatedAt = now
	if !exists {
		l.CreatedAt = now
	}
	return !exists, nil
}

// UpsertExtra inserts the extra or updates it in place by ID.
func (db *DB) UpsertExtra(ctx context.Context, e *models.Extra) (created bool, err error) {
	if e.ID == 0 {
		return false, errors.New("extra id is required")
	}
	exists, err := db.exists(ctx, `SELECT COUNT(*) FROM extras WHERE id = ?`, e.ID)
	if err != nil {
		return false, err
	}

	now := time.Now().UTC()
	query := `INSERT INTO extras (` + extraColumns + `)
              VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
              ON CONFLICT(id) DO UPDATE SET
                name = excluded.name, description = excluded.description, price = excluded.price,
                has_quantity = excluded.has_quantity, sort_order = excluded.sort_order,
                is_active = excluded.is_active, updated_at = excluded.updated_at`
	_, err = db.ExecContext(ctx, query, e.ID, e.Name, e.Description, e.Price, e.HasQuantity,
		e.SortOrder, e.IsActive, now, now)
	if err != nil {
		return false, fmt.Errorf("failed to upsert extra %d: %w", e.ID, err)
	}
	e.UpdatedAt = now
	if !exists {
		e.CreatedAt = now
	}
	return !exists, nil
}

func (db *DB) exists(ctx context.Context, query string, args ...any) (bool, error) {
	var n int
	if err := db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return false, fmt.Errorf("failed to check existence: %w", err)
	}
	return n > 0, nil
}

// GetLocation returns a location, active or not, with its blocked dates.
func (db *DB) GetLocation(ctx context.Context, id int64) (*models.Location, error) {
	row := db.QueryRowContext(ctx, `SELECT `+locationColumns+` FROM locations WHERE id = ?`, id)
	l, err := scanLocation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get location %d: %w", id, err)
	}

	l.BlockedDates, err = db.BlockedDatesBetween(ctx, l.ID, "", "")
	if err != nil {
		return nil, err
	}
	return l, nil
}

// GetLocationBySlug looks a location up by its URL slug.
func (db *DB) GetLocationBySlug(ctx context.Context, slug string) (*models.Location, error) {
	var id int64
	err := db.QueryRowContext(ctx, `SELECT id FROM locations WHERE slug = ?`, strings.TrimSpace(slug)).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get location by slug: %w", err)
	}
	return db.GetLocation(ctx, id)
}

// ListActiveLocations returns active locations ordered for display, each with
// the blocked dates from `since` onward.
func (db *DB) ListActiveLocations(ctx context.Context, since string) ([]*models.Location, error) {
	rows, err := db.QueryContext(ctx, `SELECT `+locationColumns+` FROM locations
                                       WHERE is_active = 1 ORDER BY sort_order, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list locations: %w", err)
	}

	var out []*models.Location
	for rows.Next() {
		l, err := scanLocation(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan location: %w", err)
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	for _, l := range out {
		if l.BlockedDates, err = db.BlockedDatesBetween(ctx, l.ID, since, ""); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// ListActiveExtras returns active extras ordered for display.
func (db *DB) ListActiveExtras(ctx context.Context) ([]*models.Extra, error) {
	rows, err := db.QueryContext(ctx, `SELECT `+extraColumns+` FROM extras
                                       WHERE is_active = 1 ORDER BY sort_order, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list extras: %w", err)
	}
	defer rows.Close()

	var out []*models.Extra
	for rows.Next() {
		e, err := scanExtra(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan extra: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// GetExtrasByIDs returns the requested extras keyed by ID. Inactive extras are
// included so the caller can tell "inactive" from "unknown"; missing IDs are
// simply absent from the map.
func (db *DB) GetExtrasByIDs(ctx context.Context, ids []int64) (map[int64]*models.Extra, error) {
	out := make(map[int64]*models.Extra, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}

	query := `SELECT ` + extraColumns + ` FROM extras WHERE id IN (` + strings.Join(placeholders, ",") + `)`
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get extras: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		e, err := scanExtra(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan extra: %w", err)
		}
		out[e.ID] = e
	}
	return out, rows.Err()
}

// IsDateBlocked reports whether a location is already booked on date.
func (db *DB) IsDateBlocked(ctx context.Context, locationID int64, date string) (bool, error) {
	return db.exists(ctx, `SELECT COUNT(*) FROM blocked_dates WHERE location_id = ? AND date = ?`, locationID, date)
}

// BlockedDatesBetween lists blocked dates in [from, to]. Empty bounds are open.
func (db *DB) BlockedDatesBetween(ctx context.Context, locationID int64, from, to string) ([]string, error) {
	query := `SELECT date FROM blocked_dates WHERE location_id = ?`
	args := []any{locationID}
	if from != "" {
		query += ` AND date >= ?`
		args = append(args, from)
	}
	if to != "" {
		query += ` AND date <= ?`
		args = append(args, to)
	}
	query += ` ORDER BY date`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get blocked dates: %w", err)
	}
	defer rows.Close()

	dates := []string{}
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("failed to scan blocked date: %w", err)
		}
		dates = append(dates, d)
	}
	return dates, rows.Err()
}

// BlockDate marks a date unavailable without an order (manual closure).
// Returns ErrDateBlocked when the date is already taken.
func (db *DB) BlockDate(ctx context.Context, locationID int64, date string) error {
	res, err := db.ExecContext(ctx, `INSERT INTO blocked_dates (location_id, date, order_id, created_at)
                                     VALUES (?, ?, NULL, ?) ON CONFLICT(location_id, date) DO NOTHING`,
		locationID, date, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to block date: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to block date: %w", err)
	}
	if n == 0 {
		return ErrDateBlocked
	}
	return nil
}
