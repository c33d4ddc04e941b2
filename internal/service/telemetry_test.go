package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"powerband"
	"powerband/internal/driver"
)

// healthDriver responds to Health probes with a canned snapshot.
type healthDriver struct {
	fakeDriver
	mu     sync.Mutex
	health driver.Health
	err    error
}

func (d *healthDriver) Health(context.Context) (driver.Health, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.health, d.err
}

type healthFactory struct {
	drivers map[string]*healthDriver
	openErr error
}

func (f *healthFactory) Open(m powerband.EnrolledMiner) (driver.Driver, error) {
	if f.openErr != nil {
		return nil, f.openErr
	}
	return f.drivers[m.ID], nil
}

func TestTelemetry_PollUpdatesHealth(t *testing.T) {
	miners := &fakeMinerRepo{miners: []powerband.EnrolledMiner{
		{ID: "s19-01", Type: "antminer", Efficiency: 31.5},
		{ID: "m30-01", Type: "whatsminer"},
	}}
	factory := &healthFactory{drivers: map[string]*healthDriver{
		"s19-01": {health: driver.Health{Reachable: true, Efficiency: 30.2}},
		"m30-01": {health: driver.Health{Reachable: false}},
	}}
	svc := NewTelemetryService(miners, factory, testLog())

	svc.pollOnce(context.Background())

	got, _ := miners.Get(context.Background(), "s19-01")
	if !got.Reachable || got.Efficiency != 30.2 {
		t.Fatalf("expected fresh health for s19-01, got %+v", got)
	}
	if got.LastSeen.IsZero() {
		t.Fatalf("expected last_seen stamped")
	}

	got, _ = miners.Get(context.Background(), "m30-01")
	if got.Reachable {
		t.Fatalf("expected m30-01 marked unreachable")
	}
}

func TestTelemetry_RetainsEfficiencyDuringReportingGap(t *testing.T) {
	miners := &fakeMinerRepo{miners: []powerband.EnrolledMiner{
		{ID: "s19-01", Type: "antminer", Efficiency: 31.5},
	}}
	factory := &healthFactory{drivers: map[string]*healthDriver{
		// up, but the stats call reported no hashrate yet
		"s19-01": {health: driver.Health{Reachable: true, Efficiency: 0}},
	}}
	svc := NewTelemetryService(miners, factory, testLog())

	svc.pollOnce(context.Background())

	got, _ := miners.Get(context.Background(), "s19-01")
	if !got.Reachable || got.Efficiency != 31.5 {
		t.Fatalf("expected retained efficiency, got %+v", got)
	}
}

func TestTelemetry_OpenFailureSkipsUpdate(t *testing.T) {
	seen := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	miners := &fakeMinerRepo{miners: []powerband.EnrolledMiner{
		{ID: "s19-01", Type: "antminer", Reachable: true, LastSeen: seen},
	}}
	factory := &healthFactory{openErr: errors.New("bad address")}
	svc := NewTelemetryService(miners, factory, testLog())

	svc.pollOnce(context.Background())

	got, _ := miners.Get(context.Background(), "s19-01")
	if !got.LastSeen.Equal(seen) {
		t.Fatalf("open failure must leave the record untouched, got %+v", got)
	}
}
