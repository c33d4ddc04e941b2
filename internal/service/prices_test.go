package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"powerband"
)

type slotsFeed struct {
	slots []powerband.PriceSlot
	err   error
}

func (f *slotsFeed) Slots(context.Context) ([]powerband.PriceSlot, error) {
	return f.slots, f.err
}

func halfHour(h, m int, price float64) powerband.PriceSlot {
	from := time.Date(2026, 8, 30, h, m, 0, 0, time.UTC)
	return powerband.PriceSlot{ValidFrom: from, ValidTo: from.Add(30 * time.Minute), Price: price}
}

func TestCurrentAndNext(t *testing.T) {
	svc := NewPriceService(&slotsFeed{slots: []powerband.PriceSlot{
		halfHour(12, 0, 8.1),
		halfHour(12, 30, 15.0),
		halfHour(13, 0, 22.5),
	}})
	svc.now = func() time.Time { return time.Date(2026, 8, 30, 12, 45, 0, 0, time.UTC) }

	current, next, err := svc.CurrentAndNext(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if current == nil || current.Price != 15.0 {
		t.Fatalf("expected current 15.0, got %+v", current)
	}
	if next == nil || next.Price != 22.5 {
		t.Fatalf("expected next 22.5, got %+v", next)
	}
}

func TestCurrentAndNext_HorizonEnd(t *testing.T) {
	svc := NewPriceService(&slotsFeed{slots: []powerband.PriceSlot{
		halfHour(12, 0, 8.1),
	}})
	svc.now = func() time.Time { return time.Date(2026, 8, 30, 12, 15, 0, 0, time.UTC) }

	current, next, err := svc.CurrentAndNext(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if current == nil || current.Price != 8.1 {
		t.Fatalf("expected the only slot as current, got %+v", current)
	}
	if next != nil {
		t.Fatalf("expected nil next past the horizon, got %+v", next)
	}
}

func TestCurrentAndNext_FeedErrorPropagated(t *testing.T) {
	svc := NewPriceService(&slotsFeed{err: errors.New("feed down")})
	if _, _, err := svc.CurrentAndNext(context.Background()); err == nil {
		t.Fatalf("expected feed error propagated")
	}
}
