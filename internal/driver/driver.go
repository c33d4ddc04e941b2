package driver

import (
	"context"
	"errors"

	"powerband"
)

// Health is the per-device snapshot the engine and telemetry poller read.
type Health struct {
	Reachable  bool
	Efficiency float64 // watts per TH/s; 0 when unknown
}

// Driver is the narrow per-device control surface the engine dispatches to.
// Implementations are expected to be idempotent: re-issuing the current
// state is a no-op on the device side.
type Driver interface {
	SetPoolAndMode(ctx context.Context, pool, mode string) error
	SetPower(ctx context.Context, on bool) error
	Health(ctx context.Context) (Health, error)
}

// Capability describes what a miner type can do. Types without a lowest
// power mode are never eligible for champion selection.
type Capability struct {
	Modes           []string
	LowestPowerMode string  // empty means no low-power mode
	NominalWatts    float64 // rated wall draw, used when the device reports none
}

// Supports reports whether the type knows the given operating mode.
func (c Capability) Supports(mode string) bool {
	for _, m := range c.Modes {
		if m == mode {
			return true
		}
	}
	return false
}

// ChampionEligible reports whether devices of this type can be champion.
func (c Capability) ChampionEligible() bool { return c.LowestPowerMode != "" }

var (
	ErrUnsupportedMode  = errors.New("mode not supported by miner type")
	ErrPowerUnsupported = errors.New("power control not supported by miner type")
)

// Factory opens a driver for an enrolled miner.
type Factory interface {
	Open(m powerband.EnrolledMiner) (Driver, error)
}
