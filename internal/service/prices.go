package service

import (
	"context"
	"time"

	"powerband"
)

// PriceService exposes the feed timeline for display. The control logic
// consumes only current/next; the timeline is presentation-only.
type PriceService struct {
	feed PriceSource
	now  func() time.Time
}

func NewPriceService(feed PriceSource) *PriceService {
	return &PriceService{feed: feed, now: func() time.Time { return time.Now().UTC() }}
}

func (s *PriceService) Timeline(ctx context.Context) ([]powerband.PriceSlot, error) {
	return s.feed.Slots(ctx)
}

// CurrentAndNext returns the slot covering now and the one after it; either
// may be nil when the feed has a gap at that position.
func (s *PriceService) CurrentAndNext(ctx context.Context) (*powerband.PriceSlot, *powerband.PriceSlot, error) {
	slots, err := s.feed.Slots(ctx)
	if err != nil {
		return nil, nil, err
	}

	now := s.now()
	var current, next *powerband.PriceSlot
	for i := range slots {
		if slots[i].Covers(now) {
			current = &slots[i]
			continue
		}
		if slots[i].ValidFrom.After(now) && next == nil {
			next = &slots[i]
		}
	}
	return current, next, nil
}
