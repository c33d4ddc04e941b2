package service

import (
	"context"
	"time"

	"powerband"
	"powerband/internal/driver"
	"powerband/internal/logger"
	"powerband/internal/repository"
)

// PriceSource supplies the half-hourly price timeline. Satisfied by
// pricefeed.Client.
type PriceSource interface {
	Slots(ctx context.Context) ([]powerband.PriceSlot, error)
}

// Strategy exposes configuration operations: enable/disable, enrollment
// and champion-mode toggling.
type Strategy interface {
	Settings(ctx context.Context) (powerband.StrategySettings, error)
	UpdateSettings(ctx context.Context, p SettingsParams) (powerband.StrategySettings, error)
	Enroll(ctx context.Context, p EnrollParams) (powerband.EnrolledMiner, error)
	Unenroll(ctx context.Context, minerID string) error
	Miners(ctx context.Context) ([]powerband.EnrolledMiner, error)
}

// Bands exposes band table CRUD plus bulk reset-to-default.
type Bands interface {
	List(ctx context.Context) ([]powerband.PriceBand, error)
	Create(ctx context.Context, p BandParams) (powerband.PriceBand, error)
	Update(ctx context.Context, id int64, p BandParams) (powerband.PriceBand, error)
	Delete(ctx context.Context, id int64) error
	Reset(ctx context.Context) ([]powerband.PriceBand, error)
}

// Prices exposes the display-only price timeline.
type Prices interface {
	Timeline(ctx context.Context) ([]powerband.PriceSlot, error)
	CurrentAndNext(ctx context.Context) (current, next *powerband.PriceSlot, err error)
}

// Monitoring exposes the read-only status snapshot.
type Monitoring interface {
	Status(ctx context.Context) (powerband.StrategyStatus, error)
}

// EventLog exposes the append-only audit log with filtering access.
type EventLog interface {
	List(ctx context.Context, f LogFilter) ([]powerband.StrategyEvent, error)
}

// Engine runs the evaluation loop. Kick requests an out-of-cadence
// reconciliation; overlapping kicks coalesce into one follow-up cycle.
type Engine interface {
	Run(ctx context.Context)
	Kick(reason string)
}

// Telemetry refreshes per-miner reachability and efficiency in the
// background. Stop via context cancellation for graceful shutdown.
type Telemetry interface {
	Run(ctx context.Context, tick time.Duration)
}

//
// Root Service aggregates all sub-services.
//

type Service struct {
	Strategy
	Bands
	Prices
	Monitoring
	EventLog
	Engine
	Telemetry
}

// NewService wires the repository layer, price feed and driver factory into
// concrete services.
func NewService(repos *repository.Repository, feed PriceSource, factory driver.Factory, cfg EngineConfig, log *logger.Logger) *Service {
	dispatcher := NewDispatcher(factory, repos.Events, log, DispatchConfig{
		Concurrency: cfg.DispatchConcurrency,
		Retries:     cfg.DispatchRetries,
		Timeout:     cfg.DispatchTimeout,
	})
	engine := NewEngineService(repos, feed, dispatcher, cfg, log)

	return &Service{
		Strategy:   NewStrategyService(repos.Settings, repos.Miners, repos.Events, engine, log),
		Bands:      NewBandService(repos.Bands, repos.Events, log),
		Prices:     NewPriceService(feed),
		Monitoring: NewMonitoringService(repos.Settings, repos.Bands, repos.Miners),
		EventLog:   NewEventLogService(repos.Events),
		Engine:     engine,
		Telemetry:  NewTelemetryService(repos.Miners, factory, log),
	}
}
