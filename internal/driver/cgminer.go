package driver

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	cg "github.com/x1unix/go-cgminer-api"
)

const (
	cgDialTimeout = 3 * time.Second
	poolUser      = "powerband.worker"
	poolPass      = "x"
)

// cgminerDriver speaks the cgminer TCP API used by stock Antminer and
// Whatsminer firmwares. Modes map onto the firmware work-mode index via
// ascset; power off parks the device by disabling every pool, which is
// reversible without rebooting the control board.
type cgminerDriver struct {
	addr      string
	cap       Capability
	powerOnly bool
	client    *cg.CGMiner
}

func newCGMinerDriver(addr string, c Capability) *cgminerDriver {
	return &cgminerDriver{
		addr: addr,
		cap:  c,
		client: &cg.CGMiner{
			Address:   addr,
			Timeout:   cgDialTimeout,
			Transport: cg.NewJSONTransport(),
			Dialer:    net.Dialer{Timeout: cgDialTimeout},
		},
	}
}

// workModeIndex maps a mode name onto the firmware's ascset work-mode slot.
func (d *cgminerDriver) workModeIndex(mode string) (int, bool) {
	for i, m := range d.cap.Modes {
		if m == mode {
			return i, true
		}
	}
	return 0, false
}

func (d *cgminerDriver) SetPoolAndMode(ctx context.Context, pool, mode string) error {
	if d.powerOnly {
		return ErrUnsupportedMode
	}
	if err := d.switchToPool(ctx, pool); err != nil {
		return fmt.Errorf("switch pool: %w", err)
	}
	idx, ok := d.workModeIndex(mode)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnsupportedMode, mode)
	}
	if err := d.client.CallContext(ctx, cg.NewCommand("ascset", fmt.Sprintf("0,workmode,%d", idx)), nil); err != nil {
		return fmt.Errorf("set work mode %q: %w", mode, err)
	}
	return nil
}

// switchToPool makes pool the active stratum target, adding it first if the
// device doesn't know it yet.
func (d *cgminerDriver) switchToPool(ctx context.Context, pool string) error {
	id, err := d.findPoolID(ctx, pool)
	if err != nil {
		return err
	}
	if id < 0 {
		if err := d.client.AddPoolContext(ctx, pool, poolUser, poolPass); err != nil {
			return err
		}
		if id, err = d.findPoolID(ctx, pool); err != nil {
			return err
		}
		if id < 0 {
			return fmt.Errorf("pool %q not present after add", pool)
		}
	}
	return d.client.CallContext(ctx, cg.NewCommand("switchpool", fmt.Sprint(id)), nil)
}

func (d *cgminerDriver) findPoolID(ctx context.Context, pool string) (int64, error) {
	pls, err := d.client.PoolsContext(ctx)
	if err != nil {
		return -1, err
	}
	for _, p := range pls {
		if strings.EqualFold(p.URL, pool) {
			return p.Pool, nil
		}
	}
	return -1, nil
}

func (d *cgminerDriver) SetPower(ctx context.Context, on bool) error {
	pls, err := d.client.PoolsContext(ctx)
	if err != nil {
		return fmt.Errorf("list pools: %w", err)
	}
	for _, p := range pls {
		cmd := "enablepool"
		if !on {
			cmd = "disablepool"
		}
		if err := d.client.CallContext(ctx, cg.NewCommand(cmd, fmt.Sprint(p.Pool)), nil); err != nil {
			return fmt.Errorf("%s %d: %w", cmd, p.Pool, err)
		}
	}
	return nil
}

func (d *cgminerDriver) Health(ctx context.Context) (Health, error) {
	st, err := d.client.StatsContext(ctx)
	if err != nil {
		return Health{}, nil // unreachable, not an error for the caller
	}
	g := st.Generic()

	h := Health{Reachable: true}
	// cgminer does not report wall power; estimate from the rated draw and
	// the observed average hashrate (GH/s -> TH/s).
	if ths := g.GhsAverage / 1000; ths > 0 && d.cap.NominalWatts > 0 {
		h.Efficiency = d.cap.NominalWatts / ths
	}
	return h, nil
}
