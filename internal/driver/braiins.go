package driver

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// Braiins OS exposes an HTTP management API with explicit pause/resume
// actions and a tunable power target, which maps cleanly onto the band
// modes: each mode is a fraction of the rated power target.
const (
	braiinsTimeout = 15 * time.Second

	braiinsPathLogin       = "/api/v1/auth/login"
	braiinsPathStats       = "/api/v1/miner/stats"
	braiinsPathPause       = "/api/v1/actions/pause"
	braiinsPathResume      = "/api/v1/actions/resume"
	braiinsPathPowerTarget = "/api/v1/performance/power-target"
	braiinsPathMinerConfig = "/api/v1/configuration/miner"
)

var braiinsModeFraction = map[string]float64{
	ModeLow:      0.60,
	ModeBalanced: 0.85,
	ModeHigh:     1.00,
}

type braiinsDriver struct {
	http *resty.Client
}

func newBraiinsDriver(addr string) *braiinsDriver {
	return &braiinsDriver{
		http: resty.New().
			SetBaseURL(addr).
			SetTimeout(braiinsTimeout).
			SetHeader("Accept", "application/json"),
	}
}

type braiinsStats struct {
	PowerConsumption struct {
		Watt float64 `json:"watt"`
	} `json:"power_consumption"`
	HashrateTHS float64 `json:"hashrate_ths"`
}

func (d *braiinsDriver) SetPoolAndMode(ctx context.Context, pool, mode string) error {
	frac, ok := braiinsModeFraction[mode]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnsupportedMode, mode)
	}

	body := map[string]any{
		"pools": []map[string]any{{"url": pool, "enabled": true}},
	}
	if err := d.put(ctx, braiinsPathMinerConfig, body); err != nil {
		return fmt.Errorf("set pool: %w", err)
	}

	target := int(capabilities[TypeBraiins].NominalWatts * frac)
	if err := d.put(ctx, braiinsPathPowerTarget, map[string]any{"watt": target}); err != nil {
		return fmt.Errorf("set power target: %w", err)
	}

	// a paused miner stays paused until SetPower(true); resume here keeps
	// pool/mode application idempotent for running devices
	return d.post(ctx, braiinsPathResume)
}

func (d *braiinsDriver) SetPower(ctx context.Context, on bool) error {
	if on {
		return d.post(ctx, braiinsPathResume)
	}
	return d.post(ctx, braiinsPathPause)
}

func (d *braiinsDriver) Health(ctx context.Context) (Health, error) {
	var stats braiinsStats
	resp, err := d.http.R().SetContext(ctx).SetResult(&stats).Get(braiinsPathStats)
	if err != nil || resp.IsError() {
		return Health{}, nil // unreachable
	}

	h := Health{Reachable: true}
	if stats.HashrateTHS > 0 && stats.PowerConsumption.Watt > 0 {
		h.Efficiency = stats.PowerConsumption.Watt / stats.HashrateTHS
	}
	return h, nil
}

func (d *braiinsDriver) post(ctx context.Context, path string) error {
	resp, err := d.http.R().SetContext(ctx).Post(path)
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("POST %s: %s", path, resp.Status())
	}
	return nil
}

func (d *braiinsDriver) put(ctx context.Context, path string, body any) error {
	resp, err := d.http.R().SetContext(ctx).SetBody(body).Put(path)
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("PUT %s: %s", path, resp.Status())
	}
	return nil
}
