package repository

import (
	"context"
	"database/sql"
	"time"

	"powerband"
)

// BandRepo stores the ordered price band table.
type BandRepo interface {
	List(ctx context.Context) ([]powerband.PriceBand, error)
	Get(ctx context.Context, id int64) (powerband.PriceBand, error)
	Create(ctx context.Context, b powerband.PriceBand) (int64, error)
	Update(ctx context.Context, b powerband.PriceBand) error
	Delete(ctx context.Context, id int64) error
	ReplaceAll(ctx context.Context, bands []powerband.PriceBand) error
}

// SettingsRepo stores the single-row engine state.
type SettingsRepo interface {
	Save(ctx context.Context, s powerband.StrategySettings) error
	Load(ctx context.Context) (powerband.StrategySettings, error)
}

// MinerRepo stores the enrolled miner set.
type MinerRepo interface {
	List(ctx context.Context) ([]powerband.EnrolledMiner, error)
	Get(ctx context.Context, id string) (powerband.EnrolledMiner, error)
	Add(ctx context.Context, m powerband.EnrolledMiner) error
	Remove(ctx context.Context, id string) error
	UpdateHealth(ctx context.Context, id string, reachable bool, efficiency float64, seen time.Time) error
}

// EventRepo is the append-only audit log.
type EventRepo interface {
	Append(ctx context.Context, e powerband.StrategyEvent) error
	List(ctx context.Context, from, to time.Time, typ string) ([]powerband.StrategyEvent, error)
}

type Repository struct {
	Bands    BandRepo
	Settings SettingsRepo
	Miners   MinerRepo
	Events   EventRepo
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		Bands:    NewBandSQLite(db),
		Settings: NewSettingsSQLite(db),
		Miners:   NewMinerSQLite(db),
		Events:   NewEventSQLite(db),
	}
}
