package service

import "time"

// SettingsParams is a partial update; nil fields are left unchanged.
type SettingsParams struct {
	Enabled             *bool
	ChampionModeEnabled *bool
}

// EnrollParams adds a miner to strategy-driven control.
type EnrollParams struct {
	ID      string
	Type    string // normalized onto the closed driver type set
	Address string
}

// BandParams carries a band create/update payload.
type BandParams struct {
	SortOrder   int
	MinPrice    *float64
	MaxPrice    *float64
	TargetPool  *string
	ModeTargets map[string]string
}

// LogFilter supports event history filtering by time range and type.
type LogFilter struct {
	From time.Time // inclusive; zero means no lower bound
	To   time.Time // inclusive; zero means no upper bound
	Type string    // "", BAND_APPLIED, DISPATCH_FAILED, CHAMPION_CHANGED, DEGRADED, WARNING, CONFIG_CHANGE
}
