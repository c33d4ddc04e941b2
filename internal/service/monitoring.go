package service

import (
	"context"

	"powerband"
	"powerband/internal/repository"
)

type MonitoringService struct {
	settings repository.SettingsRepo
	bands    repository.BandRepo
	miners   repository.MinerRepo
}

func NewMonitoringService(settings repository.SettingsRepo, bands repository.BandRepo, miners repository.MinerRepo) *MonitoringService {
	return &MonitoringService{settings: settings, bands: bands, miners: miners}
}

// Status assembles the read-only snapshot of StrategySettings the outside
// world sees. Degraded means the champion band is applied with champion
// mode on but no champion survived selection.
func (s *MonitoringService) Status(ctx context.Context) (powerband.StrategyStatus, error) {
	st, err := s.settings.Load(ctx)
	if err != nil {
		return powerband.StrategyStatus{}, err
	}
	if st.ID == 0 {
		st = baselineSettings()
	}

	bands, err := s.bands.List(ctx)
	if err != nil {
		return powerband.StrategyStatus{}, err
	}
	miners, err := s.miners.List(ctx)
	if err != nil {
		return powerband.StrategyStatus{}, err
	}

	status := powerband.StrategyStatus{
		Enabled:             st.Enabled,
		ChampionModeEnabled: st.ChampionModeEnabled,
		CurrentBandID:       st.CurrentBandID,
		CurrentChampionID:   st.CurrentChampionID,
		HysteresisCounter:   st.HysteresisCounter,
		LastPriceChecked:    st.LastPriceChecked,
		LastActionTime:      st.LastActionTime,
		EnrolledMiners:      len(miners),
	}

	if st.CurrentBandID != nil {
		if b, ok := bandByID(bands, *st.CurrentBandID); ok {
			order := b.SortOrder
			status.CurrentBandOrder = &order

			champOrder, hasBands := championBandOrder(bands)
			status.Degraded = hasBands &&
				st.ChampionModeEnabled &&
				b.SortOrder == champOrder &&
				!b.Off() &&
				st.CurrentChampionID == nil &&
				len(miners) > 0
		}
	}

	return status, nil
}
