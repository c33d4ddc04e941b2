package service

import "powerband"

// upgradeConfirmSlots is how many consecutive slots must point at a cheaper
// band before the engine moves to it. Downgrades are exempt: delaying a move
// into a costlier band risks burning power at a loss, while a premature
// upgrade only costs a pool switch.
const upgradeConfirmSlots = 2

// GateState is the hysteresis finite-state machine. Applied==nil is the
// pre-first-decision state; Pending!=nil is the PendingUpgrade state with
// Counter confirming slots observed so far.
type GateState struct {
	Applied *powerband.PriceBand
	Pending *powerband.PriceBand
	Counter int
}

// Observe feeds one resolved slot into the gate and reports whether the
// applied band changed. Transitions:
//
//	nothing applied        -> apply resolved immediately
//	same band              -> stay, pending cleared
//	downgrade (costlier)   -> apply immediately, pending cleared
//	upgrade (cheaper)      -> pend; apply once confirmed on consecutive slots
//
// A candidate worse than the pending one restarts confirmation at 1; a
// candidate at least as good as the pending one counts toward confirmation
// and is the band applied when the counter fills.
func (g *GateState) Observe(resolved powerband.PriceBand) bool {
	if g.Applied == nil {
		g.apply(resolved)
		return true
	}

	switch {
	case resolved.SortOrder == g.Applied.SortOrder:
		g.clearPending()
		return false

	case resolved.SortOrder > g.Applied.SortOrder:
		// downgrade always wins outright
		g.apply(resolved)
		return true

	default: // upgrade candidate
		if g.Pending == nil || resolved.SortOrder > g.Pending.SortOrder {
			p := resolved
			g.Pending = &p
			g.Counter = 1
			return false
		}
		g.Counter++
		if g.Counter >= upgradeConfirmSlots {
			g.apply(resolved)
			return true
		}
		return false
	}
}

func (g *GateState) apply(b powerband.PriceBand) {
	g.Applied = &b
	g.clearPending()
}

func (g *GateState) clearPending() {
	g.Pending = nil
	g.Counter = 0
}

// PendingID returns the persisted form of the pending candidate.
func (g *GateState) PendingID() *int64 {
	if g.Pending == nil {
		return nil
	}
	id := g.Pending.ID
	return &id
}

// gateFromSettings rebuilds the FSM from the persisted engine state against
// the freshly loaded band table. Ids pointing at deleted bands degrade to
// the pre-first-decision state, which applies the next resolution outright.
func gateFromSettings(s powerband.StrategySettings, bands []powerband.PriceBand) GateState {
	g := GateState{}
	if s.CurrentBandID != nil {
		if b, ok := bandByID(bands, *s.CurrentBandID); ok {
			g.Applied = &b
		}
	}
	if g.Applied != nil && s.PendingBandID != nil {
		if b, ok := bandByID(bands, *s.PendingBandID); ok {
			g.Pending = &b
			g.Counter = s.HysteresisCounter
		}
	}
	return g
}
