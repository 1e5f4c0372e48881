package bot

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"autofutures/internal/config"
	"autofutures/internal/exchange"
	"autofutures/internal/models"
)

// SnapshotFetcher - конкурентный сбор котировок с обеих бирж ключа
//
// Два независимых вызова шлюзов (по одному на биржу) через общий
// WorkerPool, каждый со своим таймаутом. Сбой любой из бирж переводит
// тик в degraded-режим: вместо котировок подставляется синтетический
// снапшот (Simulated=true), который держит цикл и график живыми, но
// НИКОГДА не обосновывает размещение ордеров
type SnapshotFetcher struct {
	gateways GatewaySource
	pool     *WorkerPool
	cfg      config.BotConfig
	logger   *zap.Logger

	// Эмуляторы для синтетических снапшотов degraded-режима (по бирже)
	sims  map[string]*exchange.SimGateway
	simMu sync.Mutex
}

// NewSnapshotFetcher создает fetcher
func NewSnapshotFetcher(gateways GatewaySource, pool *WorkerPool, cfg config.BotConfig, logger *zap.Logger) *SnapshotFetcher {
	return &SnapshotFetcher{
		gateways: gateways,
		pool:     pool,
		cfg:      cfg,
		logger:   logger,
		sims:     make(map[string]*exchange.SimGateway),
	}
}

// Fetch собирает пару снапшотов для тика
//
// RealMarket=true только когда обе биржи вернули живые bid/ask;
// таймаут вызова эквивалентен сетевой ошибке
func (f *SnapshotFetcher) Fetch(ctx context.Context, userID string, settings *models.SymbolSettings) *models.SnapshotPair {
	var wg sync.WaitGroup
	results := make([]*models.VenueSnapshot, 2)
	venues := [2]string{settings.Exchange1, settings.Exchange2}

	for i, venue := range venues {
		wg.Add(1)
		go func(idx int, exchangeName string) {
			defer wg.Done()
			results[idx] = f.fetchVenue(ctx, userID, exchangeName, settings.Symbol)
		}(i, venue)
	}
	wg.Wait()

	pair := &models.SnapshotPair{
		Venue1:     results[0],
		Venue2:     results[1],
		RealMarket: results[0].Usable() && results[1].Usable(),
	}

	if !pair.RealMarket {
		DegradedTicks.WithLabelValues(settings.Symbol).Inc()
	}

	return pair
}

// fetchVenue запрашивает котировки одной биржи, при сбое возвращает
// синтетический снапшот
func (f *SnapshotFetcher) fetchVenue(ctx context.Context, userID, exchangeName, symbol string) *models.VenueSnapshot {
	gw, err := f.gateways.Acquire(userID, exchangeName)
	if err != nil {
		f.logger.Warn("gateway unavailable, degrading to synthetic quotes",
			zap.String("exchange", exchangeName),
			zap.String("symbol", symbol),
			zap.Error(err))
		SnapshotFailures.WithLabelValues(exchangeName, "no_client").Inc()
		return f.synthetic(exchangeName, symbol)
	}

	callCtx, cancel := context.WithTimeout(ctx, f.cfg.SnapshotTimeout)
	defer cancel()

	var snap *models.VenueSnapshot
	var fetchErr error

	err = f.pool.Do(callCtx, func() {
		snap, fetchErr = gw.FetchSnapshot(callCtx, symbol)
	})
	if err != nil {
		fetchErr = err // не дождались слота пула до дедлайна
	}

	if fetchErr != nil || snap == nil || snap.Bid <= 0 || snap.Ask <= 0 {
		f.logger.Warn("snapshot fetch failed, degrading to synthetic quotes",
			zap.String("exchange", exchangeName),
			zap.String("symbol", symbol),
			zap.Error(fetchErr))
		SnapshotFailures.WithLabelValues(exchangeName, "fetch").Inc()
		return f.synthetic(exchangeName, symbol)
	}

	snap.Ok = true
	if snap.Timestamp.IsZero() {
		snap.Timestamp = time.Now().UTC()
	}
	return snap
}

// synthetic выдает явно помеченный сгенерированный снапшот
func (f *SnapshotFetcher) synthetic(exchangeName, symbol string) *models.VenueSnapshot {
	f.simMu.Lock()
	sim, ok := f.sims[exchangeName]
	if !ok {
		sim = exchange.NewSimGateway(exchangeName)
		f.sims[exchangeName] = sim
	}
	f.simMu.Unlock()

	snap, _ := sim.FetchSnapshot(context.Background(), symbol)
	return snap
}
