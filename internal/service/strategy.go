package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"powerband"
	"powerband/internal/driver"
	"powerband/internal/logger"
	"powerband/internal/repository"
)

var (
	errEmptyMinerID      = errors.New("miner id is required")
	errEmptyMinerAddress = errors.New("miner address is required")
)

// StrategyService owns configuration operations. Changes land in storage
// and take effect at the start of the engine's next cycle; enrollment and
// enable changes additionally kick a reconciliation.
type StrategyService struct {
	settings repository.SettingsRepo
	miners   repository.MinerRepo
	events   repository.EventRepo
	engine   Engine
	log      *logger.Logger
}

func NewStrategyService(settings repository.SettingsRepo, miners repository.MinerRepo, events repository.EventRepo, engine Engine, log *logger.Logger) *StrategyService {
	return &StrategyService{settings: settings, miners: miners, events: events, engine: engine, log: log}
}

// baselineSettings is the initial row for a fresh database: strategy off.
func baselineSettings() powerband.StrategySettings {
	return powerband.StrategySettings{
		ID:        1,
		UpdatedAt: time.Now().UTC(),
	}
}

func (s *StrategyService) Settings(ctx context.Context) (powerband.StrategySettings, error) {
	st, err := s.settings.Load(ctx)
	if err != nil {
		return powerband.StrategySettings{}, err
	}
	if st.ID == 0 {
		return baselineSettings(), nil
	}
	return st, nil
}

// UpdateSettings applies a partial update and returns the stored result.
func (s *StrategyService) UpdateSettings(ctx context.Context, p SettingsParams) (powerband.StrategySettings, error) {
	st, err := s.Settings(ctx)
	if err != nil {
		return powerband.StrategySettings{}, err
	}

	changed := false
	if p.Enabled != nil && *p.Enabled != st.Enabled {
		st.Enabled = *p.Enabled
		changed = true
	}
	if p.ChampionModeEnabled != nil && *p.ChampionModeEnabled != st.ChampionModeEnabled {
		st.ChampionModeEnabled = *p.ChampionModeEnabled
		changed = true
	}
	if !changed {
		return st, nil
	}

	st.UpdatedAt = time.Now().UTC()
	if err := s.settings.Save(ctx, st); err != nil {
		return powerband.StrategySettings{}, err
	}

	s.appendEvent(ctx, powerband.StrategyEvent{
		Type:        powerband.EventConfigChange,
		Description: "strategy settings updated",
		Metadata: map[string]any{
			"enabled":       st.Enabled,
			"champion_mode": st.ChampionModeEnabled,
		},
	})
	s.engine.Kick("settings change")
	return st, nil
}

// Enroll adds a miner to strategy-driven control. The type is normalized
// onto the closed driver set; unrecognized types fall back to the generic
// on/off-only type.
func (s *StrategyService) Enroll(ctx context.Context, p EnrollParams) (powerband.EnrolledMiner, error) {
	id := strings.TrimSpace(p.ID)
	if id == "" {
		return powerband.EnrolledMiner{}, errEmptyMinerID
	}
	if strings.TrimSpace(p.Address) == "" {
		return powerband.EnrolledMiner{}, errEmptyMinerAddress
	}

	m := powerband.EnrolledMiner{
		ID:         id,
		Type:       driver.Normalize(p.Type),
		Address:    strings.TrimSpace(p.Address),
		EnrolledAt: time.Now().UTC(),
	}
	if err := s.miners.Add(ctx, m); err != nil {
		return powerband.EnrolledMiner{}, fmt.Errorf("enroll miner %q: %w", id, err)
	}

	s.appendEvent(ctx, powerband.StrategyEvent{
		Type:        powerband.EventConfigChange,
		MinerID:     &m.ID,
		Description: "miner enrolled",
		Metadata:    map[string]any{"type": m.Type, "address": m.Address},
	})
	s.engine.Kick("enrollment change")
	return m, nil
}

func (s *StrategyService) Unenroll(ctx context.Context, minerID string) error {
	if err := s.miners.Remove(ctx, minerID); err != nil {
		return err
	}
	s.appendEvent(ctx, powerband.StrategyEvent{
		Type:        powerband.EventConfigChange,
		MinerID:     &minerID,
		Description: "miner unenrolled",
	})
	s.engine.Kick("enrollment change")
	return nil
}

func (s *StrategyService) Miners(ctx context.Context) ([]powerband.EnrolledMiner, error) {
	return s.miners.List(ctx)
}

func (s *StrategyService) appendEvent(ctx context.Context, ev powerband.StrategyEvent) {
	if err := s.events.Append(ctx, ev); err != nil {
		s.log.Errorw("event_append_failed", "type", ev.Type, "err", err)
	}
}
