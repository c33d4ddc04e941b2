package handlers

import (
	"context"
	"time"

	"powerband"
	"powerband/internal/service"

	"github.com/gin-gonic/gin"
)

// ---- Service Mocks ----

type mockStrategy struct {
	settings    powerband.StrategySettings
	settingsErr error
	updateErr   error
	enrolled    powerband.EnrolledMiner
	enrollErr   error
	unenrollErr error
	miners      []powerband.EnrolledMiner
	minersErr   error

	lastUpdate   service.SettingsParams
	lastEnroll   service.EnrollParams
	lastUnenroll string
	updateCalls  int
}

func (m *mockStrategy) Settings(ctx context.Context) (powerband.StrategySettings, error) {
	return m.settings, m.settingsErr
}

func (m *mockStrategy) UpdateSettings(ctx context.Context, p service.SettingsParams) (powerband.StrategySettings, error) {
	m.updateCalls++
	m.lastUpdate = p
	return m.settings, m.updateErr
}

func (m *mockStrategy) Enroll(ctx context.Context, p service.EnrollParams) (powerband.EnrolledMiner, error) {
	m.lastEnroll = p
	return m.enrolled, m.enrollErr
}

func (m *mockStrategy) Unenroll(ctx context.Context, minerID string) error {
	m.lastUnenroll = minerID
	return m.unenrollErr
}

func (m *mockStrategy) Miners(ctx context.Context) ([]powerband.EnrolledMiner, error) {
	return m.miners, m.minersErr
}

type mockBands struct {
	bands     []powerband.PriceBand
	listErr   error
	created   powerband.PriceBand
	createErr error
	updated   powerband.PriceBand
	updateErr error
	deleteErr error
	resetErr  error

	lastCreate   service.BandParams
	lastUpdateID int64
	lastDeleteID int64
	resetCalls   int
}

func (m *mockBands) List(ctx context.Context) ([]powerband.PriceBand, error) {
	return m.bands, m.listErr
}

func (m *mockBands) Create(ctx context.Context, p service.BandParams) (powerband.PriceBand, error) {
	m.lastCreate = p
	return m.created, m.createErr
}

func (m *mockBands) Update(ctx context.Context, id int64, p service.BandParams) (powerband.PriceBand, error) {
	m.lastUpdateID = id
	return m.updated, m.updateErr
}

func (m *mockBands) Delete(ctx context.Context, id int64) error {
	m.lastDeleteID = id
	return m.deleteErr
}

func (m *mockBands) Reset(ctx context.Context) ([]powerband.PriceBand, error) {
	m.resetCalls++
	return m.bands, m.resetErr
}

type mockPrices struct {
	slots   []powerband.PriceSlot
	current *powerband.PriceSlot
	next    *powerband.PriceSlot
	err     error
}

func (m *mockPrices) Timeline(ctx context.Context) ([]powerband.PriceSlot, error) {
	return m.slots, m.err
}

func (m *mockPrices) CurrentAndNext(ctx context.Context) (*powerband.PriceSlot, *powerband.PriceSlot, error) {
	return m.current, m.next, m.err
}

type mockMonitoring struct {
	status powerband.StrategyStatus
	err    error
}

func (m *mockMonitoring) Status(ctx context.Context) (powerband.StrategyStatus, error) {
	return m.status, m.err
}

type mockEventLog struct {
	resp     []powerband.StrategyEvent
	err      error
	lastFrom time.Time
	lastTo   time.Time
	lastType string
}

func (m *mockEventLog) List(ctx context.Context, f service.LogFilter) ([]powerband.StrategyEvent, error) {
	m.lastFrom = f.From
	m.lastTo = f.To
	m.lastType = f.Type
	return m.resp, m.err
}

type mockEngine struct {
	kicks []string
}

func (m *mockEngine) Run(ctx context.Context) {}
func (m *mockEngine) Kick(reason string)      { m.kicks = append(m.kicks, reason) }

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service) *gin.Engine {
	h := NewHandler(s, nil)
	gin.SetMode(gin.TestMode)
	return h.InitRoutes()
}
