package service

import (
	"context"
	"errors"
	"math"
	"time"

	"powerband"
	"powerband/internal/logger"
	"powerband/internal/repository"
)

// ErrNoCurrentPrice means the feed answered but published no slot covering
// now; the cycle is skipped and the previous decision held.
var ErrNoCurrentPrice = errors.New("no price slot covers current time")

// EngineConfig carries the evaluation-loop knobs.
type EngineConfig struct {
	SlotDuration          time.Duration // price slot length, default 30m
	PricePoll             time.Duration // sudden-change watch interval
	SuddenChangeThreshold float64       // pence/kWh delta that forces reconciliation
	DispatchConcurrency   int
	DispatchRetries       int
	DispatchTimeout       time.Duration
}

const (
	defaultSlotDuration = 30 * time.Minute
	defaultPricePoll    = time.Minute
)

// EngineService drives evaluation on slot boundaries plus coalesced
// reconciliation kicks. A single goroutine owns the whole loop, so exactly
// one evaluation runs at a time and StrategySettings is never mutated by
// two cycles at once.
type EngineService struct {
	settings   repository.SettingsRepo
	bands      repository.BandRepo
	miners     repository.MinerRepo
	events     repository.EventRepo
	feed       PriceSource
	dispatcher *Dispatcher
	cfg        EngineConfig
	log        *logger.Logger

	kick chan string
	now  func() time.Time

	// owned by the Run goroutine
	lastSeenPrice *float64
}

func NewEngineService(repos *repository.Repository, feed PriceSource, dispatcher *Dispatcher, cfg EngineConfig, log *logger.Logger) *EngineService {
	if cfg.SlotDuration <= 0 {
		cfg.SlotDuration = defaultSlotDuration
	}
	if cfg.PricePoll <= 0 {
		cfg.PricePoll = defaultPricePoll
	}
	return &EngineService{
		settings:   repos.Settings,
		bands:      repos.Bands,
		miners:     repos.Miners,
		events:     repos.Events,
		feed:       feed,
		dispatcher: dispatcher,
		cfg:        cfg,
		log:        log,
		kick:       make(chan string, 1),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Kick requests an out-of-cadence evaluation. A kick arriving while an
// evaluation is in flight coalesces into a single follow-up cycle.
func (e *EngineService) Kick(reason string) {
	select {
	case e.kick <- reason:
	default:
	}
}

// Run evaluates once at startup, then on every slot boundary, every kick,
// and whenever the price watcher sees a sudden change. Returns when ctx is
// canceled.
func (e *EngineService) Run(ctx context.Context) {
	e.Evaluate(ctx, "startup")

	boundary := time.NewTimer(e.untilNextSlot())
	watch := time.NewTicker(e.cfg.PricePoll)
	defer boundary.Stop()
	defer watch.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-boundary.C:
			e.Evaluate(ctx, "slot boundary")
			boundary.Reset(e.untilNextSlot())
		case reason := <-e.kick:
			e.Evaluate(ctx, reason)
		case <-watch.C:
			e.watchPrice(ctx)
		}
	}
}

// untilNextSlot aligns the timer with slot boundaries (e.g. :00/:30), with
// a small skew past the boundary so the feed has published the new slot.
func (e *EngineService) untilNextSlot() time.Duration {
	now := e.now()
	next := now.Truncate(e.cfg.SlotDuration).Add(e.cfg.SlotDuration)
	return next.Sub(now) + 5*time.Second
}

// watchPrice polls the current price between slots and forces a
// reconciliation when the delta against the last observation exceeds the
// configured threshold. The asymmetric hysteresis rule still applies to the
// resulting evaluation.
func (e *EngineService) watchPrice(ctx context.Context) {
	if e.cfg.SuddenChangeThreshold <= 0 {
		return
	}
	slots, err := e.feed.Slots(ctx)
	if err != nil {
		return // transient; slot-boundary evaluation handles reporting
	}
	cur, err := currentSlot(slots, e.now())
	if err != nil {
		return
	}
	if e.lastSeenPrice != nil && math.Abs(cur.Price-*e.lastSeenPrice) >= e.cfg.SuddenChangeThreshold {
		e.log.Infow("sudden_price_change",
			"previous", *e.lastSeenPrice,
			"current", cur.Price,
			"threshold", e.cfg.SuddenChangeThreshold,
		)
		e.Evaluate(ctx, "sudden price change")
		return
	}
	p := cur.Price
	e.lastSeenPrice = &p
}

// Evaluate runs one full decision cycle: price -> band -> hysteresis ->
// champion -> dispatch. It is only ever called from the Run goroutine, so
// cycles are serialized. Configuration and band edits are read fresh here,
// which is what defers them to cycle start.
func (e *EngineService) Evaluate(ctx context.Context, reason string) {
	now := e.now()

	settings, err := e.settings.Load(ctx)
	if err != nil {
		e.log.Errorw("settings_load_failed", "err", err)
		return
	}
	if settings.ID == 0 || !settings.Enabled {
		return
	}

	bands, err := e.bands.List(ctx)
	if err != nil {
		e.log.Errorw("bands_load_failed", "err", err)
		return
	}
	if len(bands) == 0 {
		e.log.Warnw("no_bands_configured")
		return
	}

	price, ok := e.currentPrice(ctx, now)
	if !ok {
		// feed miss: keep previous decision, do not reset the hysteresis
		// counter, never default to OFF
		return
	}
	e.lastSeenPrice = &price

	resolved, err := ResolveBand(bands, price)
	if err != nil {
		e.log.Warnw("no_matching_band", "price", price)
		e.appendEvent(ctx, powerband.StrategyEvent{
			Type:        powerband.EventWarning,
			Description: "no matching band for price; holding previous decision",
			Metadata:    map[string]any{"price": price},
		})
		settings.LastPriceChecked = &price
		settings.UpdatedAt = now
		if err := e.settings.Save(ctx, settings); err != nil {
			e.log.Errorw("settings_save_failed", "err", err)
		}
		return
	}

	gate := gateFromSettings(settings, bands)
	bandChanged := gate.Observe(resolved)
	target := *gate.Applied

	miners, err := e.miners.List(ctx)
	if err != nil {
		e.log.Errorw("miners_load_failed", "err", err)
		return
	}

	championID, degraded, sel := e.selectChampion(settings, bands, target, miners)

	prevChampion := settings.CurrentChampionID
	championChanged := !equalStringPtr(prevChampion, championID)

	// commit the intended decision before dispatching; partial dispatch
	// failures never roll it back
	settings.CurrentBandID = &target.ID
	settings.PendingBandID = gate.PendingID()
	settings.HysteresisCounter = gate.Counter
	settings.CurrentChampionID = championID
	settings.LastPriceChecked = &price
	if bandChanged || championChanged {
		settings.LastActionTime = now
	}
	settings.UpdatedAt = now
	if err := e.settings.Save(ctx, settings); err != nil {
		e.log.Errorw("settings_save_failed", "err", err)
		return
	}

	if bandChanged {
		e.appendEvent(ctx, powerband.StrategyEvent{
			Type:        powerband.EventBandApplied,
			Description: "price band applied",
			Metadata: map[string]any{
				"band_id":    target.ID,
				"sort_order": target.SortOrder,
				"price":      price,
				"off":        target.Off(),
				"reason":     reason,
			},
		})
	}
	if championChanged && championID != nil {
		ev := powerband.StrategyEvent{
			Type:        powerband.EventChampionChanged,
			MinerID:     championID,
			Description: "champion miner selected",
		}
		if sel.Previous != "" {
			ev.Metadata = map[string]any{"previous": sel.Previous}
		}
		e.appendEvent(ctx, ev)
	}
	if degraded && (bandChanged || prevChampion != nil) {
		e.appendEvent(ctx, powerband.StrategyEvent{
			Type:        powerband.EventDegraded,
			Description: "no eligible champion; all enrolled miners off",
		})
	}

	res := e.dispatcher.Dispatch(ctx, PlanCommands(target, miners, championID, degraded))

	e.log.Infow("evaluation_complete",
		"reason", reason,
		"price", price,
		"band", target.SortOrder,
		"band_changed", bandChanged,
		"champion", strOrDash(championID),
		"dispatched", res.Attempted,
		"failed", res.Failed,
	)
}

// currentPrice reads the slot covering now, reporting feed problems as
// warnings and signalling the caller to hold the previous decision.
func (e *EngineService) currentPrice(ctx context.Context, now time.Time) (float64, bool) {
	slots, err := e.feed.Slots(ctx)
	if err != nil {
		e.log.Warnw("price_feed_unavailable", "err", err)
		return 0, false
	}
	cur, err := currentSlot(slots, now)
	if err != nil {
		e.log.Warnw("no_current_price_slot", "now", now)
		return 0, false
	}
	return cur.Price, true
}

// selectChampion runs the selector only when the applied band is the
// designated champion band (most expensive) and champion mode is on.
func (e *EngineService) selectChampion(
	settings powerband.StrategySettings,
	bands []powerband.PriceBand,
	target powerband.PriceBand,
	miners []powerband.EnrolledMiner,
) (*string, bool, ChampionSelection) {
	order, ok := championBandOrder(bands)
	if !ok || !settings.ChampionModeEnabled || target.SortOrder != order || target.Off() {
		return nil, false, ChampionSelection{}
	}

	sel := SelectChampion(settings.CurrentChampionID, miners)
	if sel.State == ChampionDegraded {
		return nil, true, sel
	}
	id := sel.MinerID
	return &id, false, sel
}

func (e *EngineService) appendEvent(ctx context.Context, ev powerband.StrategyEvent) {
	if err := e.events.Append(ctx, ev); err != nil {
		e.log.Errorw("event_append_failed", "type", ev.Type, "err", err)
	}
}

func currentSlot(slots []powerband.PriceSlot, t time.Time) (powerband.PriceSlot, error) {
	for _, s := range slots {
		if s.Covers(t) {
			return s, nil
		}
	}
	return powerband.PriceSlot{}, ErrNoCurrentPrice
}

func equalStringPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func strOrDash(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}
