package service

import (
	"context"
	"testing"

	"powerband"
)

func newMonitoring(settings powerband.StrategySettings, bands []powerband.PriceBand, miners []powerband.EnrolledMiner) *MonitoringService {
	return NewMonitoringService(
		&fakeSettingsRepo{s: settings},
		&fakeBandRepo{bands: bands},
		&fakeMinerRepo{miners: miners},
	)
}

func TestStatus_FreshDatabase(t *testing.T) {
	svc := newMonitoring(powerband.StrategySettings{}, nil, nil)
	st, err := svc.Status(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st.Enabled || st.CurrentBandID != nil || st.Degraded {
		t.Fatalf("expected inert baseline status, got %+v", st)
	}
}

func TestStatus_ReportsAppliedBandOrder(t *testing.T) {
	cur := int64(2)
	svc := newMonitoring(
		powerband.StrategySettings{ID: 1, Enabled: true, CurrentBandID: &cur},
		testBands(),
		fleet(),
	)
	st, err := svc.Status(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st.CurrentBandOrder == nil || *st.CurrentBandOrder != 2 {
		t.Fatalf("expected band order 2, got %v", st.CurrentBandOrder)
	}
	if st.EnrolledMiners != 3 {
		t.Fatalf("expected 3 enrolled miners, got %d", st.EnrolledMiners)
	}
	if st.Degraded {
		t.Fatalf("mid band must not be degraded")
	}
}

func TestStatus_DegradedChampionBand(t *testing.T) {
	bands := championTestBands()
	cur := int64(2) // the champion band
	svc := newMonitoring(
		powerband.StrategySettings{
			ID:                  1,
			Enabled:             true,
			ChampionModeEnabled: true,
			CurrentBandID:       &cur,
			CurrentChampionID:   nil,
		},
		bands,
		fleet(),
	)
	st, err := svc.Status(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !st.Degraded {
		t.Fatalf("champion band with no champion and enrolled miners must be degraded")
	}
}

func TestStatus_OffChampionBandNotDegraded(t *testing.T) {
	cur := int64(3) // OFF band is the costliest in testBands
	svc := newMonitoring(
		powerband.StrategySettings{
			ID:                  1,
			Enabled:             true,
			ChampionModeEnabled: true,
			CurrentBandID:       &cur,
		},
		testBands(),
		fleet(),
	)
	st, err := svc.Status(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st.Degraded {
		t.Fatalf("an OFF band has no champion to lose")
	}
}
