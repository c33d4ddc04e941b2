package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"powerband"
)

type BandSQLite struct {
	db *sql.DB
}

func NewBandSQLite(db *sql.DB) *BandSQLite { return &BandSQLite{db: db} }

var ErrBandNotFound = errors.New("price band not found")

const (
	selectBandsSQL = `
		SELECT id, sort_order, min_price, max_price, target_pool, mode_targets, updated_at
		FROM price_bands ORDER BY sort_order ASC
	`
	selectBandSQL = `
		SELECT id, sort_order, min_price, max_price, target_pool, mode_targets, updated_at
		FROM price_bands WHERE id = ?
	`
	insertBandSQL = `
		INSERT INTO price_bands (sort_order, min_price, max_price, target_pool, mode_targets, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	updateBandSQL = `
		UPDATE price_bands
		SET sort_order=?, min_price=?, max_price=?, target_pool=?, mode_targets=?, updated_at=?
		WHERE id=?
	`
)

// marshalModeTargets stores the type->mode map as a JSON column.
func marshalModeTargets(m map[string]string) (string, error) {
	if m == nil {
		m = map[string]string{}
	}
	b, err := json.Marshal(m)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func unmarshalModeTargets(s string) (map[string]string, error) {
	if s == "" {
		return map[string]string{}, nil
	}
	var m map[string]string
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		return nil, err
	}
	return m, nil
}

func scanBand(scan func(dest ...any) error) (powerband.PriceBand, error) {
	var (
		b          powerband.PriceBand
		minPrice   sql.NullFloat64
		maxPrice   sql.NullFloat64
		targetPool sql.NullString
		modesJSON  string
	)
	if err := scan(&b.ID, &b.SortOrder, &minPrice, &maxPrice, &targetPool, &modesJSON, &b.UpdatedAt); err != nil {
		return powerband.PriceBand{}, err
	}
	if minPrice.Valid {
		v := minPrice.Float64
		b.MinPrice = &v
	}
	if maxPrice.Valid {
		v := maxPrice.Float64
		b.MaxPrice = &v
	}
	if targetPool.Valid {
		v := targetPool.String
		b.TargetPool = &v
	}
	modes, err := unmarshalModeTargets(modesJSON)
	if err != nil {
		return powerband.PriceBand{}, fmt.Errorf("decode mode_targets for band %d: %w", b.ID, err)
	}
	b.ModeTargets = modes
	b.UpdatedAt = b.UpdatedAt.UTC()
	return b, nil
}

// List returns all bands ordered by sort_order ascending.
func (r *BandSQLite) List(ctx context.Context) ([]powerband.PriceBand, error) {
	rows, err := r.db.QueryContext(ctx, selectBandsSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]powerband.PriceBand, 0, 8)
	for rows.Next() {
		b, err := scanBand(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *BandSQLite) Get(ctx context.Context, id int64) (powerband.PriceBand, error) {
	row := r.db.QueryRowContext(ctx, selectBandSQL, id)
	b, err := scanBand(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return powerband.PriceBand{}, ErrBandNotFound
	}
	return b, err
}

func (r *BandSQLite) Create(ctx context.Context, b powerband.PriceBand) (int64, error) {
	modesJSON, err := marshalModeTargets(b.ModeTargets)
	if err != nil {
		return 0, err
	}
	res, err := r.db.ExecContext(ctx, insertBandSQL,
		b.SortOrder,
		nullFloat(b.MinPrice),
		nullFloat(b.MaxPrice),
		nullString(b.TargetPool),
		modesJSON,
		stampUTC(b.UpdatedAt),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r *BandSQLite) Update(ctx context.Context, b powerband.PriceBand) error {
	modesJSON, err := marshalModeTargets(b.ModeTargets)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, updateBandSQL,
		b.SortOrder,
		nullFloat(b.MinPrice),
		nullFloat(b.MaxPrice),
		nullString(b.TargetPool),
		modesJSON,
		stampUTC(b.UpdatedAt),
		b.ID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return ErrBandNotFound
	}
	return err
}

func (r *BandSQLite) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM price_bands WHERE id=?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return ErrBandNotFound
	}
	return err
}

// ReplaceAll swaps the whole table in one transaction; used by reset-to-default.
func (r *BandSQLite) ReplaceAll(ctx context.Context, bands []powerband.PriceBand) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM price_bands`); err != nil {
		return err
	}
	for _, b := range bands {
		modesJSON, err := marshalModeTargets(b.ModeTargets)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, insertBandSQL,
			b.SortOrder,
			nullFloat(b.MinPrice),
			nullFloat(b.MaxPrice),
			nullString(b.TargetPool),
			modesJSON,
			stampUTC(b.UpdatedAt),
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// helpers shared by the sqlite repos

func nullFloat(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullString(v *string) any {
	if v == nil {
		return nil
	}
	return *v
}

// stampUTC persists timestamps as UTC, filling zero values with now.
func stampUTC(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t.UTC()
}
