package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"powerband"
)

type MinerSQLite struct {
	db *sql.DB
}

func NewMinerSQLite(db *sql.DB) *MinerSQLite { return &MinerSQLite{db: db} }

var (
	ErrMinerNotFound      = errors.New("enrolled miner not found")
	ErrMinerAlreadyExists = errors.New("miner already enrolled")
)

const (
	selectMinersSQL = `
		SELECT id, type, address, efficiency, reachable, last_seen, enrolled_at
		FROM enrolled_miners ORDER BY enrolled_at ASC
	`
	selectMinerSQL = `
		SELECT id, type, address, efficiency, reachable, last_seen, enrolled_at
		FROM enrolled_miners WHERE id=?
	`
	insertMinerSQL = `
		INSERT INTO enrolled_miners (id, type, address, efficiency, reachable, last_seen, enrolled_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
)

func scanMiner(scan func(dest ...any) error) (powerband.EnrolledMiner, error) {
	var (
		m        powerband.EnrolledMiner
		lastSeen sql.NullTime
	)
	if err := scan(&m.ID, &m.Type, &m.Address, &m.Efficiency, &m.Reachable, &lastSeen, &m.EnrolledAt); err != nil {
		return powerband.EnrolledMiner{}, err
	}
	if lastSeen.Valid {
		m.LastSeen = lastSeen.Time.UTC()
	}
	m.EnrolledAt = m.EnrolledAt.UTC()
	return m, nil
}

func (r *MinerSQLite) List(ctx context.Context) ([]powerband.EnrolledMiner, error) {
	rows, err := r.db.QueryContext(ctx, selectMinersSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]powerband.EnrolledMiner, 0, 16)
	for rows.Next() {
		m, err := scanMiner(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *MinerSQLite) Get(ctx context.Context, id string) (powerband.EnrolledMiner, error) {
	row := r.db.QueryRowContext(ctx, selectMinerSQL, id)
	m, err := scanMiner(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return powerband.EnrolledMiner{}, ErrMinerNotFound
	}
	return m, err
}

func (r *MinerSQLite) Add(ctx context.Context, m powerband.EnrolledMiner) error {
	var lastSeen any
	if !m.LastSeen.IsZero() {
		lastSeen = m.LastSeen.UTC()
	}
	_, err := r.db.ExecContext(ctx, insertMinerSQL,
		m.ID,
		strings.ToLower(strings.TrimSpace(m.Type)),
		m.Address,
		m.Efficiency,
		m.Reachable,
		lastSeen,
		stampUTC(m.EnrolledAt),
	)
	if err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return ErrMinerAlreadyExists
	}
	return err
}

func (r *MinerSQLite) Remove(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM enrolled_miners WHERE id=?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return ErrMinerNotFound
	}
	return err
}

// UpdateHealth refreshes telemetry-owned fields only.
func (r *MinerSQLite) UpdateHealth(ctx context.Context, id string, reachable bool, efficiency float64, seen time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE enrolled_miners SET reachable=?, efficiency=?, last_seen=? WHERE id=?`,
		reachable, efficiency, seen.UTC(), id,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return ErrMinerNotFound
	}
	return err
}
