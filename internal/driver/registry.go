package driver

import (
	"strings"

	"powerband"
)

// Supported miner types. The set is closed: anything else resolves to
// TypeUnknown, which has no low-power mode and only generic on/off control.
const (
	TypeAntminer   = "antminer"
	TypeWhatsminer = "whatsminer"
	TypeBraiins    = "braiins"
	TypeUnknown    = "unknown"
)

// Operating mode names per vendor firmware.
const (
	ModeEco      = "eco"
	ModeStandard = "standard"
	ModeSuper    = "super"
	ModeLow      = "low"
	ModeNormal   = "normal"
	ModeHigh     = "high"
	ModeBalanced = "balanced"
)

var capabilities = map[string]Capability{
	TypeAntminer: {
		Modes:           []string{ModeEco, ModeStandard, ModeSuper},
		LowestPowerMode: ModeEco,
		NominalWatts:    3250,
	},
	TypeWhatsminer: {
		Modes:           []string{ModeLow, ModeNormal, ModeHigh},
		LowestPowerMode: ModeLow,
		NominalWatts:    3400,
	},
	TypeBraiins: {
		Modes:           []string{ModeLow, ModeBalanced, ModeHigh},
		LowestPowerMode: ModeLow,
		NominalWatts:    3000,
	},
	// unknown: on/off only, never champion
	TypeUnknown: {},
}

// KnownTypes returns the closed set of registered types, unknown excluded.
func KnownTypes() []string {
	return []string{TypeAntminer, TypeWhatsminer, TypeBraiins}
}

// Normalize maps a free-form type string onto the closed set.
func Normalize(minerType string) string {
	t := strings.ToLower(strings.TrimSpace(minerType))
	if _, ok := capabilities[t]; ok && t != TypeUnknown {
		return t
	}
	return TypeUnknown
}

// Lookup returns the capability for a miner type, falling back to unknown.
func Lookup(minerType string) Capability {
	return capabilities[Normalize(minerType)]
}

// StdFactory opens concrete drivers by enrolled type.
type StdFactory struct{}

func NewFactory() *StdFactory { return &StdFactory{} }

func (f *StdFactory) Open(m powerband.EnrolledMiner) (Driver, error) {
	switch Normalize(m.Type) {
	case TypeBraiins:
		return newBraiinsDriver(m.Address), nil
	case TypeAntminer, TypeWhatsminer:
		return newCGMinerDriver(m.Address, Lookup(m.Type)), nil
	default:
		// generic cgminer-protocol on/off control, no mode support
		d := newCGMinerDriver(m.Address, Capability{})
		d.powerOnly = true
		return d, nil
	}
}
