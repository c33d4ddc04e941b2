package repository

import (
	"context"
	"database/sql"
	"errors"

	"powerband"
)

type SettingsSQLite struct {
	db *sql.DB
}

func NewSettingsSQLite(db *sql.DB) *SettingsSQLite { return &SettingsSQLite{db: db} }

const (
	settingsRowID = 1

	insertOrUpdateSettingsSQL = `
		INSERT INTO strategy_settings
			(id, enabled, champion_mode, current_band_id, pending_band_id,
			 hysteresis_counter, current_champion_id, last_price, last_action_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			enabled=excluded.enabled,
			champion_mode=excluded.champion_mode,
			current_band_id=excluded.current_band_id,
			pending_band_id=excluded.pending_band_id,
			hysteresis_counter=excluded.hysteresis_counter,
			current_champion_id=excluded.current_champion_id,
			last_price=excluded.last_price,
			last_action_at=excluded.last_action_at,
			updated_at=excluded.updated_at
	`

	selectSettingsSQL = `
		SELECT id, enabled, champion_mode, current_band_id, pending_band_id,
		       hysteresis_counter, current_champion_id, last_price, last_action_at, updated_at
		FROM strategy_settings WHERE id=?
	`
)

// Save upserts the strategy_settings row (id always 1).
func (r *SettingsSQLite) Save(ctx context.Context, s powerband.StrategySettings) error {
	var lastAction any
	if !s.LastActionTime.IsZero() {
		lastAction = s.LastActionTime.UTC()
	}

	_, err := r.db.ExecContext(ctx, insertOrUpdateSettingsSQL,
		settingsRowID,
		s.Enabled,
		s.ChampionModeEnabled,
		nullInt64(s.CurrentBandID),
		nullInt64(s.PendingBandID),
		s.HysteresisCounter,
		nullString(s.CurrentChampionID),
		nullFloat(s.LastPriceChecked),
		lastAction,
		stampUTC(s.UpdatedAt),
	)
	return err
}

// Load fetches the single strategy_settings row. A missing row returns the
// zero value with ID==0 so callers can seed defaults.
func (r *SettingsSQLite) Load(ctx context.Context) (powerband.StrategySettings, error) {
	row := r.db.QueryRowContext(ctx, selectSettingsSQL, settingsRowID)

	var (
		s          powerband.StrategySettings
		bandID     sql.NullInt64
		pendingID  sql.NullInt64
		champID    sql.NullString
		lastPrice  sql.NullFloat64
		lastAction sql.NullTime
	)
	if err := row.Scan(
		&s.ID,
		&s.Enabled,
		&s.ChampionModeEnabled,
		&bandID,
		&pendingID,
		&s.HysteresisCounter,
		&champID,
		&lastPrice,
		&lastAction,
		&s.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return powerband.StrategySettings{}, nil // not initialized yet
		}
		return powerband.StrategySettings{}, err
	}

	if bandID.Valid {
		v := bandID.Int64
		s.CurrentBandID = &v
	}
	if pendingID.Valid {
		v := pendingID.Int64
		s.PendingBandID = &v
	}
	if champID.Valid {
		v := champID.String
		s.CurrentChampionID = &v
	}
	if lastPrice.Valid {
		v := lastPrice.Float64
		s.LastPriceChecked = &v
	}
	if lastAction.Valid {
		s.LastActionTime = lastAction.Time.UTC()
	}
	s.UpdatedAt = s.UpdatedAt.UTC()

	return s, nil
}

func nullInt64(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}
