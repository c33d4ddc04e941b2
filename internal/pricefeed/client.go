package pricefeed

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"powerband"

	"github.com/go-resty/resty/v2"
)

var (
	// ErrFeedUnavailable wraps transport or provider failures; the engine
	// treats it as "skip this cycle, hold the last decision".
	ErrFeedUnavailable = errors.New("price feed unavailable")
	// ErrNoCurrentSlot means the feed answered but has no slot covering now.
	ErrNoCurrentSlot = errors.New("no price slot covers the requested time")
)

// Config points the client at an Agile-style half-hourly unit-rate endpoint.
type Config struct {
	BaseURL string
	Product string
	Tariff  string
	Timeout time.Duration
}

// Client pulls half-hourly unit rates from the provider.
type Client struct {
	http *resty.Client
	cfg  Config
}

func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	http := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		SetHeader("Accept", "application/json")
	return &Client{http: http, cfg: cfg}
}

// unitRatesResponse mirrors the provider's paged unit-rate payload.
type unitRatesResponse struct {
	Count   int        `json:"count"`
	Results []unitRate `json:"results"`
}

type unitRate struct {
	ValueIncVAT float64   `json:"value_inc_vat"`
	ValidFrom   time.Time `json:"valid_from"`
	ValidTo     time.Time `json:"valid_to"`
}

// Slots fetches the published rate slots, normalized to UTC and sorted by
// valid_from ascending.
func (c *Client) Slots(ctx context.Context) ([]powerband.PriceSlot, error) {
	var payload unitRatesResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&payload).
		Get(fmt.Sprintf("/products/%s/electricity-tariffs/%s/standard-unit-rates/", c.cfg.Product, c.cfg.Tariff))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFeedUnavailable, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%w: provider returned %s", ErrFeedUnavailable, resp.Status())
	}

	slots := make([]powerband.PriceSlot, 0, len(payload.Results))
	for _, r := range payload.Results {
		slots = append(slots, powerband.PriceSlot{
			ValidFrom: r.ValidFrom.UTC(),
			ValidTo:   r.ValidTo.UTC(),
			Price:     r.ValueIncVAT,
		})
	}
	sort.Slice(slots, func(i, j int) bool { return slots[i].ValidFrom.Before(slots[j].ValidFrom) })
	return slots, nil
}

// Current returns the slot covering now.
func (c *Client) Current(ctx context.Context, now time.Time) (powerband.PriceSlot, error) {
	slots, err := c.Slots(ctx)
	if err != nil {
		return powerband.PriceSlot{}, err
	}
	return CurrentOf(slots, now)
}

// Next returns the slot immediately following the one covering now.
func (c *Client) Next(ctx context.Context, now time.Time) (powerband.PriceSlot, error) {
	slots, err := c.Slots(ctx)
	if err != nil {
		return powerband.PriceSlot{}, err
	}
	for _, s := range slots {
		if s.ValidFrom.After(now) {
			return s, nil
		}
	}
	return powerband.PriceSlot{}, ErrNoCurrentSlot
}

// CurrentOf picks the slot covering t from an already fetched timeline.
func CurrentOf(slots []powerband.PriceSlot, t time.Time) (powerband.PriceSlot, error) {
	for _, s := range slots {
		if s.Covers(t) {
			return s, nil
		}
	}
	return powerband.PriceSlot{}, ErrNoCurrentSlot
}
