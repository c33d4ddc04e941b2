package powerband

import "time"

// PriceBand maps a contiguous price range to a fleet-wide operating decision.
// Nil bounds mean the band is open-ended on that side. A nil TargetPool means
// the band is an OFF band: every enrolled miner is powered down while it is
// applied.
type PriceBand struct {
	ID          int64             `json:"id"`
	SortOrder   int               `json:"sort_order"` // unique; lowest checked first
	MinPrice    *float64          `json:"min_price"`  // inclusive, pence/kWh
	MaxPrice    *float64          `json:"max_price"`  // exclusive, pence/kWh
	TargetPool  *string           `json:"target_pool"`
	ModeTargets map[string]string `json:"mode_targets"` // miner type -> operating mode
	UpdatedAt   time.Time         `json:"updated_at"`
}

// Off reports whether the band powers the fleet down.
func (b PriceBand) Off() bool { return b.TargetPool == nil }

// Contains reports whether price falls inside the band's half-open range.
func (b PriceBand) Contains(price float64) bool {
	if b.MinPrice != nil && price < *b.MinPrice {
		return false
	}
	if b.MaxPrice != nil && price >= *b.MaxPrice {
		return false
	}
	return true
}

// StrategySettings is the engine's single-row persistent state. It is read
// at the start of every evaluation cycle and written back once the decision
// is committed; nothing else mutates it mid-cycle.
type StrategySettings struct {
	ID                  int       `json:"id"`
	Enabled             bool      `json:"enabled"`
	ChampionModeEnabled bool      `json:"champion_mode_enabled"`
	CurrentBandID       *int64    `json:"current_band_id"`
	PendingBandID       *int64    `json:"pending_band_id"`
	HysteresisCounter   int       `json:"hysteresis_counter"`
	CurrentChampionID   *string   `json:"current_champion_id"`
	LastPriceChecked    *float64  `json:"last_price_checked"`
	LastActionTime      time.Time `json:"last_action_time"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// EnrolledMiner is a device opted into strategy-driven control. Efficiency
// and reachability are refreshed by the telemetry poller and only read by
// the engine.
type EnrolledMiner struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`    // antminer | whatsminer | braiins | unknown
	Address    string    `json:"address"` // host:port or http(s)://host
	Efficiency float64   `json:"efficiency"` // watts per TH/s; lower is better; 0 = unknown
	Reachable  bool      `json:"reachable"`
	LastSeen   time.Time `json:"last_seen"`
	EnrolledAt time.Time `json:"enrolled_at"`
}

// Event types emitted by the engine.
const (
	EventBandApplied     = "BAND_APPLIED"
	EventDispatchFailed  = "DISPATCH_FAILED"
	EventChampionChanged = "CHAMPION_CHANGED"
	EventDegraded        = "DEGRADED"
	EventWarning         = "WARNING"
	EventConfigChange    = "CONFIG_CHANGE"
)

// StrategyEvent is a single audit log entry, fire-and-forget.
type StrategyEvent struct {
	EventID     string    `json:"event_id"`
	OccurredAt  time.Time `json:"occurred_at"`
	Type        string    `json:"type"`
	MinerID     *string   `json:"miner_id,omitempty"`
	Description string    `json:"description"`
	Metadata    any       `json:"metadata,omitempty"`
}

// PriceSlot is one half-hourly unit rate reported by the price feed.
type PriceSlot struct {
	ValidFrom time.Time `json:"valid_from"`
	ValidTo   time.Time `json:"valid_to"`
	Price     float64   `json:"price"` // pence/kWh
}

// Covers reports whether t falls inside the slot's half-open window.
func (s PriceSlot) Covers(t time.Time) bool {
	return !t.Before(s.ValidFrom) && t.Before(s.ValidTo)
}

// StrategyStatus is the read-only snapshot exposed outward.
type StrategyStatus struct {
	Enabled             bool      `json:"enabled"`
	ChampionModeEnabled bool      `json:"champion_mode_enabled"`
	CurrentBandID       *int64    `json:"current_band_id"`
	CurrentBandOrder    *int      `json:"current_band_order,omitempty"`
	CurrentChampionID   *string   `json:"current_champion_id"`
	HysteresisCounter   int       `json:"hysteresis_counter"`
	LastPriceChecked    *float64  `json:"last_price_checked"`
	LastActionTime      time.Time `json:"last_action_time"`
	EnrolledMiners      int       `json:"enrolled_miners"`
	Degraded            bool      `json:"degraded"`
}
