package service

import (
	"errors"

	"powerband"
	"powerband/internal/driver"
)

// ErrNoEligibleChampion means no enrolled miner can survive the champion
// band: everything goes off and a degraded status is surfaced.
var ErrNoEligibleChampion = errors.New("no eligible champion miner")

// ChampionState tags the selector outcome.
type ChampionState int

const (
	// ChampionKept: the sticky champion is still healthy; no re-ranking.
	ChampionKept ChampionState = iota
	// ChampionPromoted: a new champion was chosen (first entry or failover).
	ChampionPromoted
	// ChampionDegraded: zero eligible miners; fleet goes dark.
	ChampionDegraded
)

// ChampionSelection is the selector verdict for one evaluation.
type ChampionSelection struct {
	State    ChampionState
	MinerID  string // valid unless State==ChampionDegraded
	Previous string // non-empty on failover: the miner being replaced
}

// championEligible: the type must have a lowest-power mode and the miner
// must currently be reachable.
func championEligible(m powerband.EnrolledMiner) bool {
	return m.Reachable && driver.Lookup(m.Type).ChampionEligible()
}

// SelectChampion keeps the current champion while it stays eligible
// (sticky: marginally better efficiency elsewhere never re-selects), and
// otherwise promotes the eligible miner with the best (lowest) power per
// hashrate. Miners with unknown efficiency rank last among eligibles.
func SelectChampion(currentID *string, miners []powerband.EnrolledMiner) ChampionSelection {
	if currentID != nil {
		for _, m := range miners {
			if m.ID == *currentID && championEligible(m) {
				return ChampionSelection{State: ChampionKept, MinerID: m.ID}
			}
		}
	}

	best := -1
	for i, m := range miners {
		if !championEligible(m) {
			continue
		}
		if best < 0 || betterEfficiency(m.Efficiency, miners[best].Efficiency) {
			best = i
		}
	}
	if best < 0 {
		sel := ChampionSelection{State: ChampionDegraded}
		if currentID != nil {
			sel.Previous = *currentID
		}
		return sel
	}

	sel := ChampionSelection{State: ChampionPromoted, MinerID: miners[best].ID}
	if currentID != nil && *currentID != sel.MinerID {
		sel.Previous = *currentID
	}
	return sel
}

// betterEfficiency ranks a strictly lower known ratio first; unknown (<=0)
// loses to any known value.
func betterEfficiency(a, b float64) bool {
	if a <= 0 {
		return false
	}
	if b <= 0 {
		return true
	}
	return a < b
}
