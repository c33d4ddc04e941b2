package service

import (
	"context"
	"sync"
	"time"

	"powerband"
	"powerband/internal/driver"
	"powerband/internal/logger"
	"powerband/internal/repository"
)

// Command is one idempotent per-miner instruction. Exactly one of three
// shapes: power off, pool+mode, or bare power on (unknown types that only
// support generic on/off control).
type Command struct {
	Miner    powerband.EnrolledMiner
	PowerOff bool
	Pool     string
	Mode     string
}

// DispatchResult summarizes one fan-out.
type DispatchResult struct {
	Attempted int
	Failed    int
}

// DispatchConfig bounds the fan-out and the retry policy.
type DispatchConfig struct {
	Concurrency int
	Retries     int // attempts per command, including the first
	Timeout     time.Duration
}

const (
	defaultDispatchConcurrency = 4
	defaultDispatchRetries     = 3
	defaultDispatchTimeout     = 15 * time.Second
	retryBackoffBase           = 500 * time.Millisecond
)

// Dispatcher converts the per-slot decision into driver calls. Each miner's
// command is independent: one failure never blocks or rolls back siblings.
type Dispatcher struct {
	factory driver.Factory
	events  repository.EventRepo
	log     *logger.Logger
	cfg     DispatchConfig
}

func NewDispatcher(factory driver.Factory, events repository.EventRepo, log *logger.Logger, cfg DispatchConfig) *Dispatcher {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = defaultDispatchConcurrency
	}
	if cfg.Retries <= 0 {
		cfg.Retries = defaultDispatchRetries
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultDispatchTimeout
	}
	return &Dispatcher{factory: factory, events: events, log: log, cfg: cfg}
}

// PlanCommands builds the command set for an applied band. With a champion
// set, the champion mines the band's pool in its type's lowest-power mode
// and every other miner goes off; an OFF band or a degraded champion band
// powers everything down.
func PlanCommands(band powerband.PriceBand, miners []powerband.EnrolledMiner, championID *string, degraded bool) []Command {
	cmds := make([]Command, 0, len(miners))
	for _, m := range miners {
		switch {
		case band.Off() || degraded:
			cmds = append(cmds, Command{Miner: m, PowerOff: true})

		case championID != nil && m.ID != *championID:
			cmds = append(cmds, Command{Miner: m, PowerOff: true})

		case championID != nil:
			cmds = append(cmds, Command{
				Miner: m,
				Pool:  *band.TargetPool,
				Mode:  driver.Lookup(m.Type).LowestPowerMode,
			})

		default:
			cmds = append(cmds, Command{
				Miner: m,
				Pool:  *band.TargetPool,
				Mode:  modeFor(band, m),
			})
		}
	}
	return cmds
}

// modeFor picks the band's mapped mode for the miner's type. Types without
// a mapping fall back to their lowest-power mode; unknown types get a bare
// power-on (empty pool/mode handled by the dispatcher).
func modeFor(band powerband.PriceBand, m powerband.EnrolledMiner) string {
	cap := driver.Lookup(m.Type)
	if mode, ok := band.ModeTargets[driver.Normalize(m.Type)]; ok && cap.Supports(mode) {
		return mode
	}
	return cap.LowestPowerMode
}

// Dispatch fans the commands out with bounded parallelism, retrying each
// failed command with doubling backoff before recording a failed-action
// event. The caller's decision record is not rolled back on failure; the
// next cycle re-attempts convergence.
func (d *Dispatcher) Dispatch(ctx context.Context, cmds []Command) DispatchResult {
	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		failed int
	)
	sem := make(chan struct{}, d.cfg.Concurrency)

	for _, cmd := range cmds {
		wg.Add(1)
		sem <- struct{}{}
		go func(cmd Command) {
			defer wg.Done()
			defer func() { <-sem }()

			if err := d.execute(ctx, cmd); err != nil {
				mu.Lock()
				failed++
				mu.Unlock()
				d.recordFailure(ctx, cmd, err)
			}
		}(cmd)
	}
	wg.Wait()

	return DispatchResult{Attempted: len(cmds), Failed: failed}
}

// execute runs one command with retries. Every driver call is bounded by
// the configured timeout so a hung device cannot stall the evaluation.
func (d *Dispatcher) execute(ctx context.Context, cmd Command) error {
	drv, err := d.factory.Open(cmd.Miner)
	if err != nil {
		return err
	}

	backoff := retryBackoffBase
	var lastErr error
	for attempt := 1; attempt <= d.cfg.Retries; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, d.cfg.Timeout)
		lastErr = d.apply(callCtx, drv, cmd)
		cancel()
		if lastErr == nil {
			return nil
		}
		if ctx.Err() != nil {
			return lastErr
		}
		if attempt < d.cfg.Retries {
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return lastErr
			}
			backoff *= 2
		}
	}
	return lastErr
}

func (d *Dispatcher) apply(ctx context.Context, drv driver.Driver, cmd Command) error {
	if cmd.PowerOff {
		return drv.SetPower(ctx, false)
	}
	// powering on first makes pool/mode application converge for miners
	// coming back from an OFF band
	if err := drv.SetPower(ctx, true); err != nil {
		return err
	}
	if cmd.Pool == "" {
		return nil // generic on/off type
	}
	return drv.SetPoolAndMode(ctx, cmd.Pool, cmd.Mode)
}

func (d *Dispatcher) recordFailure(ctx context.Context, cmd Command, cause error) {
	d.log.Errorw("dispatch_failed",
		"miner", cmd.Miner.ID,
		"type", cmd.Miner.Type,
		"power_off", cmd.PowerOff,
		"err", cause,
	)
	id := cmd.Miner.ID
	if err := d.events.Append(ctx, powerband.StrategyEvent{
		Type:        powerband.EventDispatchFailed,
		MinerID:     &id,
		Description: "command dispatch failed after retries",
		Metadata: map[string]any{
			"power_off": cmd.PowerOff,
			"pool":      cmd.Pool,
			"mode":      cmd.Mode,
			"error":     cause.Error(),
		},
	}); err != nil {
		d.log.Errorw("dispatch_event_append_failed", "err", err)
	}
}
