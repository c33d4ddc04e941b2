package service

import (
	"context"
	"time"

	"powerband"
	"powerband/internal/driver"
	"powerband/internal/logger"
	"powerband/internal/repository"
)

const healthProbeTimeout = 5 * time.Second

// TelemetryService refreshes reachability and efficiency for every enrolled
// miner on a fixed tick. The engine only ever reads these fields.
type TelemetryService struct {
	miners  repository.MinerRepo
	factory driver.Factory
	log     *logger.Logger
	now     func() time.Time
}

func NewTelemetryService(miners repository.MinerRepo, factory driver.Factory, log *logger.Logger) *TelemetryService {
	return &TelemetryService{
		miners:  miners,
		factory: factory,
		log:     log,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Run polls until ctx is canceled.
func (s *TelemetryService) Run(ctx context.Context, tick time.Duration) {
	t := time.NewTicker(tick)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.pollOnce(ctx)
		}
	}
}

func (s *TelemetryService) pollOnce(ctx context.Context) {
	miners, err := s.miners.List(ctx)
	if err != nil {
		s.log.Errorw("telemetry_list_failed", "err", err)
		return
	}

	for _, m := range miners {
		s.probe(ctx, m)
		if ctx.Err() != nil {
			return
		}
	}
}

func (s *TelemetryService) probe(ctx context.Context, m powerband.EnrolledMiner) {
	drv, err := s.factory.Open(m)
	if err != nil {
		s.log.Errorw("telemetry_open_failed", "miner", m.ID, "err", err)
		return
	}

	probeCtx, cancel := context.WithTimeout(ctx, healthProbeTimeout)
	h, err := drv.Health(probeCtx)
	cancel()
	if err != nil {
		s.log.Warnw("telemetry_probe_failed", "miner", m.ID, "err", err)
		h = driver.Health{}
	}

	// retain the last known ratio while the device is up but not reporting
	eff := h.Efficiency
	if eff <= 0 && h.Reachable {
		eff = m.Efficiency
	}

	if err := s.miners.UpdateHealth(ctx, m.ID, h.Reachable, eff, s.now()); err != nil {
		s.log.Errorw("telemetry_update_failed", "miner", m.ID, "err", err)
	}
}
