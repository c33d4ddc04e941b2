package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"powerband"
)

func TestEventLog_ListPassesThrough(t *testing.T) {
	events := &fakeEventRepo{}
	_ = events.Append(context.Background(), powerband.StrategyEvent{Type: powerband.EventBandApplied})
	_ = events.Append(context.Background(), powerband.StrategyEvent{Type: powerband.EventWarning})

	svc := NewEventLogService(events)
	got, err := svc.List(context.Background(), LogFilter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 events, got %d", len(got))
	}
}

func TestEventLog_RejectsInvertedRange(t *testing.T) {
	svc := NewEventLogService(&fakeEventRepo{})
	_, err := svc.List(context.Background(), LogFilter{
		From: time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
	})
	if !errors.Is(err, errInvalidTimeRange) {
		t.Fatalf("expected invalid range rejection, got %v", err)
	}
}

func TestNormalizeAndValidateFilter(t *testing.T) {
	loc := time.FixedZone("CET", 3600)
	from, to, typ, err := normalizeAndValidateFilter(LogFilter{
		From: time.Date(2026, 2, 1, 12, 0, 0, 0, loc),
		To:   time.Date(2026, 2, 1, 18, 0, 0, 0, loc),
		Type: " warning ",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if from.Location() != time.UTC || to.Location() != time.UTC {
		t.Fatalf("expected UTC normalization")
	}
	if from.Hour() != 11 {
		t.Fatalf("expected 11:00 UTC, got %d", from.Hour())
	}
	if typ != "WARNING" {
		t.Fatalf("expected uppercased type, got %q", typ)
	}

	// zero times pass through untouched
	from, to, _, err = normalizeAndValidateFilter(LogFilter{})
	if err != nil || !from.IsZero() || !to.IsZero() {
		t.Fatalf("expected zero times preserved, err=%v", err)
	}
}
