package bot

import (
	"context"
	"errors"
	"sync"
	"time"

	"autofutures/internal/config"
	"autofutures/internal/exchange"
	"autofutures/internal/models"
)

// ============================================================
// Общие фейки пакета bot
// ============================================================

var errMockExchange = errors.New("mock exchange error")

func testBotConfig() config.BotConfig {
	return config.BotConfig{
		TickInterval:    10 * time.Millisecond,
		SnapshotTimeout: time.Second,
		OrderTimeout:    time.Second,
		DefaultFeeRate:  0.0005,
		TickWindowSize:  200,
		WorkerPoolSize:  4,
	}
}

func testSettings() *models.SymbolSettings {
	return &models.SymbolSettings{
		UserID:      "42",
		Symbol:      "BTC",
		Exchange1:   "bybit",
		Exchange2:   "gateio",
		Side:        models.SideLong,
		OpenSpread:  0.2,
		CloseSpread: 0.05,
		OrderSize:   0.5,
		MaxOrders:   1,
	}
}

// realPair строит пару живых снапшотов с заданными котировками
func realPair(bid1, ask1, bid2, ask2 float64) *models.SnapshotPair {
	v1 := &models.VenueSnapshot{Exchange: "bybit", Bid: bid1, Ask: ask1, Ok: true, Timestamp: time.Now()}
	v2 := &models.VenueSnapshot{Exchange: "gateio", Bid: bid2, Ask: ask2, Ok: true, Timestamp: time.Now()}
	return &models.SnapshotPair{
		Venue1:     v1,
		Venue2:     v2,
		RealMarket: v1.Usable() && v2.Usable(),
	}
}

// scriptedOrder - заранее заданный результат одного PlaceMarketOrder
type scriptedOrder struct {
	fill *exchange.Fill
	err  error
}

// fakeGateway - биржевой клиент со сценарием ответов
type fakeGateway struct {
	name    string
	snap    *models.VenueSnapshot
	snapErr error

	mu     sync.Mutex
	orders []scriptedOrder
	placed []string // стороны размещенных ордеров, по порядку
}

func (g *fakeGateway) Name() string { return g.name }

func (g *fakeGateway) FetchSnapshot(ctx context.Context, symbol string) (*models.VenueSnapshot, error) {
	if g.snapErr != nil {
		return nil, g.snapErr
	}
	snap := *g.snap
	return &snap, nil
}

func (g *fakeGateway) PlaceMarketOrder(ctx context.Context, symbol, side string, amount float64) (*exchange.Fill, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.placed = append(g.placed, side)
	if len(g.orders) == 0 {
		return nil, errors.New("no scripted order")
	}
	next := g.orders[0]
	g.orders = g.orders[1:]
	return next.fill, next.err
}

func (g *fakeGateway) Close() error { return nil }

func (g *fakeGateway) placedSides() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]string, len(g.placed))
	copy(out, g.placed)
	return out
}

// fakeSource - источник клиентов по имени биржи
type fakeSource struct {
	gateways map[string]exchange.Gateway
	errs     map[string]error
}

func newFakeSource(gateways ...*fakeGateway) *fakeSource {
	src := &fakeSource{
		gateways: make(map[string]exchange.Gateway),
		errs:     make(map[string]error),
	}
	for _, gw := range gateways {
		src.gateways[gw.name] = gw
	}
	return src
}

func (s *fakeSource) Acquire(userID, exchangeName string) (exchange.Gateway, error) {
	if err := s.errs[exchangeName]; err != nil {
		return nil, err
	}
	gw, ok := s.gateways[exchangeName]
	if !ok {
		return nil, exchange.ErrNoCredentials
	}
	return gw, nil
}

// fakeSettingsStore всегда возвращает одни и те же настройки
type fakeSettingsStore struct {
	mu       sync.Mutex
	settings *models.SymbolSettings
	err      error
}

func (s *fakeSettingsStore) GetSettings(ctx context.Context, userID, symbol string) (*models.SymbolSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	copied := *s.settings
	return &copied, nil
}

// fakeStateStore запоминает сохраненные состояния
type fakeStateStore struct {
	mu    sync.Mutex
	saved []*models.BotState
	err   error
}

func (s *fakeStateStore) SaveState(ctx context.Context, state *models.BotState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.saved = append(s.saved, state)
	return nil
}

func (s *fakeStateStore) MarkStopped(ctx context.Context, userID, symbol string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *fakeStateStore) savedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.saved)
}

// fakePositionStore - хранилище позиций в памяти
type fakePositionStore struct {
	mu      sync.Mutex
	created []*models.Position
	updated []*models.Position
	active  []*models.Position
}

func (s *fakePositionStore) Create(ctx context.Context, pos *models.Position) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.created = append(s.created, pos)
	return nil
}

func (s *fakePositionStore) Update(ctx context.Context, pos *models.Position) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updated = append(s.updated, pos)
	return nil
}

func (s *fakePositionStore) GetActive(ctx context.Context, userID string) ([]*models.Position, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active, nil
}

func (s *fakePositionStore) GetActiveBySymbol(ctx context.Context, userID, symbol string) ([]*models.Position, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active, nil
}

func (s *fakePositionStore) GetHistory(ctx context.Context, userID string, limit int) ([]*models.Position, error) {
	return nil, nil
}

// fakeLogStore собирает записи журнала
type fakeLogStore struct {
	mu      sync.Mutex
	entries []*models.BotLog
}

func (s *fakeLogStore) Create(ctx context.Context, entry *models.BotLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	return nil
}

func (s *fakeLogStore) Prune(ctx context.Context, userID, symbol string, keep int) error {
	return nil
}

// fakeHub собирает отправленные обновления
type fakeHub struct {
	mu     sync.Mutex
	states []*models.BotState
	logs   []*models.BotLog
}

func (h *fakeHub) SendStateUpdate(userID string, state *models.BotState) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.states = append(h.states, state)
}

func (h *fakeHub) SendBotLog(userID string, entry *models.BotLog) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.logs = append(h.logs, entry)
}

func (h *fakeHub) stateCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.states)
}
