package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"powerband"
	"powerband/internal/driver"
	"powerband/internal/logger"
	"powerband/internal/repository"
)

var (
	errDuplicateSortOrder = errors.New("sort_order already in use")
	errInvertedBounds     = errors.New("min_price must be below max_price")
	errTwoOpenLower       = errors.New("at most one band may have an open lower bound")
	errTwoOpenUpper       = errors.New("at most one band may have an open upper bound")
)

// BandService validates and persists the band table. Edits do not touch
// the running engine; it reloads the table at its next cycle start.
type BandService struct {
	bands  repository.BandRepo
	events repository.EventRepo
	log    *logger.Logger
}

func NewBandService(bands repository.BandRepo, events repository.EventRepo, log *logger.Logger) *BandService {
	return &BandService{bands: bands, events: events, log: log}
}

// DefaultBands is the canonical five-band set restored by reset. The most
// expensive band doubles as the champion band, so it keeps a target pool.
func DefaultBands() []powerband.PriceBand {
	f := func(v float64) *float64 { return &v }
	p := func(s string) *string { return &s }
	const mainPool = "stratum+tcp://pool.powerband.example:3333"

	full := map[string]string{
		driver.TypeAntminer:   driver.ModeSuper,
		driver.TypeWhatsminer: driver.ModeHigh,
		driver.TypeBraiins:    driver.ModeHigh,
	}
	standard := map[string]string{
		driver.TypeAntminer:   driver.ModeStandard,
		driver.TypeWhatsminer: driver.ModeNormal,
		driver.TypeBraiins:    driver.ModeBalanced,
	}
	low := map[string]string{
		driver.TypeAntminer:   driver.ModeEco,
		driver.TypeWhatsminer: driver.ModeLow,
		driver.TypeBraiins:    driver.ModeLow,
	}

	return []powerband.PriceBand{
		{SortOrder: 1, MaxPrice: f(0), TargetPool: p(mainPool), ModeTargets: full},
		{SortOrder: 2, MinPrice: f(0), MaxPrice: f(10), TargetPool: p(mainPool), ModeTargets: full},
		{SortOrder: 3, MinPrice: f(10), MaxPrice: f(20), TargetPool: p(mainPool), ModeTargets: standard},
		{SortOrder: 4, MinPrice: f(20), MaxPrice: f(30), TargetPool: p(mainPool), ModeTargets: low},
		{SortOrder: 5, MinPrice: f(30), TargetPool: p(mainPool), ModeTargets: low},
	}
}

func (s *BandService) List(ctx context.Context) ([]powerband.PriceBand, error) {
	return s.bands.List(ctx)
}

func (s *BandService) Create(ctx context.Context, p BandParams) (powerband.PriceBand, error) {
	b := bandFromParams(0, p)
	if err := s.validate(ctx, b); err != nil {
		return powerband.PriceBand{}, err
	}

	id, err := s.bands.Create(ctx, b)
	if err != nil {
		return powerband.PriceBand{}, err
	}
	b.ID = id
	s.appendConfigEvent(ctx, "price band created", b)
	return b, nil
}

func (s *BandService) Update(ctx context.Context, id int64, p BandParams) (powerband.PriceBand, error) {
	if _, err := s.bands.Get(ctx, id); err != nil {
		return powerband.PriceBand{}, err
	}
	b := bandFromParams(id, p)
	if err := s.validate(ctx, b); err != nil {
		return powerband.PriceBand{}, err
	}

	if err := s.bands.Update(ctx, b); err != nil {
		return powerband.PriceBand{}, err
	}
	s.appendConfigEvent(ctx, "price band updated", b)
	return b, nil
}

func (s *BandService) Delete(ctx context.Context, id int64) error {
	if err := s.bands.Delete(ctx, id); err != nil {
		return err
	}
	s.appendEvent(ctx, powerband.StrategyEvent{
		Type:        powerband.EventConfigChange,
		Description: "price band deleted",
		Metadata:    map[string]any{"band_id": id},
	})
	return nil
}

// Reset restores the canonical default set in one transaction.
func (s *BandService) Reset(ctx context.Context) ([]powerband.PriceBand, error) {
	if err := s.bands.ReplaceAll(ctx, DefaultBands()); err != nil {
		return nil, err
	}
	s.appendEvent(ctx, powerband.StrategyEvent{
		Type:        powerband.EventConfigChange,
		Description: "band table reset to defaults",
	})
	return s.bands.List(ctx)
}

func bandFromParams(id int64, p BandParams) powerband.PriceBand {
	modes := p.ModeTargets
	if modes == nil {
		modes = map[string]string{}
	}
	return powerband.PriceBand{
		ID:          id,
		SortOrder:   p.SortOrder,
		MinPrice:    p.MinPrice,
		MaxPrice:    p.MaxPrice,
		TargetPool:  p.TargetPool,
		ModeTargets: modes,
		UpdatedAt:   time.Now().UTC(),
	}
}

// validate checks the candidate against the stored table: unique
// sort_order, sane bounds, at most one open bound per side, and mode
// targets the declared types actually support. Gaps and overlaps are not
// rejected here; the resolver defines first-match-wins and NoMatchingBand
// handling so a single bad edit cannot brick the engine.
func (s *BandService) validate(ctx context.Context, candidate powerband.PriceBand) error {
	if candidate.MinPrice != nil && candidate.MaxPrice != nil && *candidate.MinPrice >= *candidate.MaxPrice {
		return errInvertedBounds
	}
	for typ, mode := range candidate.ModeTargets {
		cap := driver.Lookup(typ)
		if !cap.Supports(mode) {
			return fmt.Errorf("type %q does not support mode %q", typ, mode)
		}
	}

	existing, err := s.bands.List(ctx)
	if err != nil {
		return err
	}
	for _, b := range existing {
		if b.ID == candidate.ID {
			continue
		}
		if b.SortOrder == candidate.SortOrder {
			return errDuplicateSortOrder
		}
		if b.MinPrice == nil && candidate.MinPrice == nil {
			return errTwoOpenLower
		}
		if b.MaxPrice == nil && candidate.MaxPrice == nil {
			return errTwoOpenUpper
		}
	}
	return nil
}

func (s *BandService) appendConfigEvent(ctx context.Context, desc string, b powerband.PriceBand) {
	s.appendEvent(ctx, powerband.StrategyEvent{
		Type:        powerband.EventConfigChange,
		Description: desc,
		Metadata: map[string]any{
			"band_id":    b.ID,
			"sort_order": b.SortOrder,
			"off":        b.Off(),
		},
	})
}

func (s *BandService) appendEvent(ctx context.Context, ev powerband.StrategyEvent) {
	if err := s.events.Append(ctx, ev); err != nil {
		s.log.Errorw("event_append_failed", "type", ev.Type, "err", err)
	}
}
