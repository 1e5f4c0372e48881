package bot

import (
	"context"
	"time"

	"go.uber.org/zap"

	"autofutures/internal/config"
	"autofutures/internal/models"
)

// loop - торговый цикл одного ключа (пользователь, символ)
//
// Единственный владелец своего TickWindow и списка активных позиций.
// Тики строго последовательны: fetch нового тика никогда не пересекается
// с исполнением ордеров предыдущего. Ошибки одного ключа никогда не
// распространяются на другие ключи или реестр супервизора
type loop struct {
	key    models.Key
	cfg    config.BotConfig
	logger *zap.Logger

	settings  SettingsStore
	fetcher   *SnapshotFetcher
	spread    *SpreadCalculator
	executor  *OrderExecutor
	positions PositionStore
	publisher *StatePublisher
	journal   *journal

	window *TickWindow

	// Активные позиции ключа; мутируются только этим циклом
	active    []*models.Position
	realized  float64
	startedAt time.Time
}

// run крутит тики до закрытия quit или отмены контекста
//
// Остановка кооперативная: quit наблюдается только между тиками,
// текущий тик всегда доводится до конца (никаких прерываний посреди
// размещения ордера)
func (l *loop) run(ctx context.Context, quit <-chan struct{}) {
	l.startedAt = time.Now().UTC()
	l.restoreActive(ctx)

	l.journal.record(ctx, l.key.UserID, l.key.Symbol, models.LogTypeSuccess,
		"Бот запущен. Начинаю мониторинг рынка", nil)

	ticker := time.NewTicker(l.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-quit:
			l.shutdown(ctx)
			return
		case <-ctx.Done():
			return
		default:
		}

		l.safeTick(ctx)

		select {
		case <-ticker.C:
		case <-quit:
			l.shutdown(ctx)
			return
		case <-ctx.Done():
			return
		}
	}
}

// shutdown фиксирует остановку цикла
func (l *loop) shutdown(ctx context.Context) {
	l.publisher.MarkStopped(ctx, l.key)
	l.journal.record(ctx, l.key.UserID, l.key.Symbol, models.LogTypeInfo,
		"Бот остановлен. Открытые позиции сохранены", nil)
	l.logger.Info("control loop stopped",
		zap.String("key", l.key.String()),
		zap.Int("open_positions", len(l.active)))
}

// safeTick выполняет тик с перехватом паник на верхнем уровне
//
// Неожиданная ошибка логируется, цикл засыпает и повторяет - задача
// не завершается ничем, кроме явной остановки
func (l *loop) safeTick(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			TickPanics.Inc()
			l.logger.Error("tick panic recovered, loop continues",
				zap.String("key", l.key.String()),
				zap.Any("panic", r))
		}
	}()

	start := time.Now()
	l.tick(ctx)
	TickDuration.WithLabelValues(l.key.Symbol).Observe(time.Since(start).Seconds())
}

// tick - одна итерация: настройки → котировки → спреды → решение →
// исполнение → публикация
func (l *loop) tick(ctx context.Context) {
	settings, err := l.settings.GetSettings(ctx, l.key.UserID, l.key.Symbol)
	if err != nil {
		// Ошибка конфигурации: тик пропускается без торговли, цикл жив
		l.logger.Warn("settings unavailable, skipping tick",
			zap.String("key", l.key.String()),
			zap.Error(err))
		return
	}

	snap := l.fetcher.Fetch(ctx, l.key.UserID, settings)
	sample := l.spread.Compute(snap, settings.Side)

	l.window.Append(sample.OpenSpread, sample.CloseSpread, sample.RealSpread)

	decision := Decide(settings, sample, snap.RealMarket, l.active)

	if decision.OpenNew {
		l.openPosition(ctx, settings, sample)
	}

	for _, pos := range decision.Close {
		l.closePosition(ctx, pos, decision.ForceClose)
	}

	l.publish(ctx, snap, sample)
}

// openPosition открывает новую позицию и регистрирует ее
func (l *loop) openPosition(ctx context.Context, settings *models.SymbolSettings, sample models.SpreadSample) {
	pos, err := l.executor.OpenPosition(ctx, settings, sample)
	if err != nil {
		// Нога 1 не исполнилась - состояние не изменилось
		l.logger.Warn("entry aborted",
			zap.String("key", l.key.String()),
			zap.Error(err))
		l.journal.record(ctx, l.key.UserID, l.key.Symbol, models.LogTypeError,
			"Ошибка входа: "+err.Error(), nil)
		return
	}

	l.active = append(l.active, pos)

	if err := l.positions.Create(ctx, pos); err != nil {
		l.logger.Warn("position persist failed, kept in memory",
			zap.String("position_id", pos.ID),
			zap.Error(err))
	}

	if pos.HalfOpen {
		l.journal.record(ctx, l.key.UserID, l.key.Symbol, models.LogTypeError,
			"ВТОРАЯ НОГА НЕ ОТКРЫЛАСЬ: позиция наполовину открыта, требуется вмешательство",
			map[string]interface{}{"position_id": pos.ID})
		return
	}

	l.journal.record(ctx, l.key.UserID, l.key.Symbol, models.LogTypeOpen,
		"Арбитраж открыт",
		map[string]interface{}{
			"position_id":  pos.ID,
			"entry_spread": pos.EntrySpread,
			"leg1_price":   pos.Leg1.EntryPrice,
			"leg2_price":   pos.Leg2.EntryPrice,
		})
}

// closePosition закрывает позицию и фиксирует результат
func (l *loop) closePosition(ctx context.Context, pos *models.Position, forced bool) {
	if err := l.executor.ClosePosition(ctx, pos); err != nil {
		// Позиция осталась активной, выход будет повторен
		if err := l.positions.Update(ctx, pos); err != nil {
			l.logger.Warn("position persist failed after close attempt",
				zap.String("position_id", pos.ID),
				zap.Error(err))
		}
		return
	}

	l.removeActive(pos.ID)
	l.realized += pos.Pnl

	if err := l.positions.Update(ctx, pos); err != nil {
		l.logger.Warn("completed position persist failed",
			zap.String("position_id", pos.ID),
			zap.Error(err))
	}

	logType := models.LogTypeClose
	message := "Позиции закрыты"
	if forced {
		message = "Позиции закрыты принудительно (stop-флаг)"
	} else if pos.Pnl > 0 {
		logType = models.LogTypeProfit
	}

	l.journal.record(ctx, l.key.UserID, l.key.Symbol, logType, message,
		map[string]interface{}{
			"position_id": pos.ID,
			"pnl":         pos.Pnl,
			"pnl_percent": pos.PnlPercent,
		})
}

// publish собирает и публикует состояние тика
func (l *loop) publish(ctx context.Context, snap *models.SnapshotPair, sample models.SpreadSample) {
	open, closeTicks, real := l.window.Snapshot()

	state := &models.BotState{
		UserID:        l.key.UserID,
		Symbol:        l.key.Symbol,
		IsActive:      true,
		StartedAt:     l.startedAt,
		Snapshot:      *snap,
		Spread:        sample,
		OpenTicks:     open,
		CloseTicks:    closeTicks,
		RealTicks:     real,
		OpenPositions: len(l.active),
		UnrealizedPnl: l.unrealizedPnl(snap),
		RealizedPnl:   l.realized,
	}

	l.publisher.Publish(ctx, state)
}

// unrealizedPnl оценивает PNL открытых позиций по текущим котировкам
//
// long-нога закрывается продажей по bid, short-нога - покупкой по ask.
// По синтетическим котировкам оценка не делается
func (l *loop) unrealizedPnl(snap *models.SnapshotPair) float64 {
	if !snap.RealMarket {
		return 0
	}

	var total float64
	for _, pos := range l.active {
		total += legUnrealized(&pos.Leg1, snap)
		if pos.Leg2.Filled {
			total += legUnrealized(&pos.Leg2, snap)
		}
	}
	return total
}

// legUnrealized - нереализованный PNL одной ноги
func legUnrealized(leg *models.Leg, snap *models.SnapshotPair) float64 {
	venue := snap.Venue1
	if leg.Exchange == snap.Venue2.Exchange {
		venue = snap.Venue2
	}

	if leg.Direction == models.LegShort {
		return (leg.EntryPrice - venue.Ask) * leg.Amount
	}
	return (venue.Bid - leg.EntryPrice) * leg.Amount
}

// restoreActive поднимает активные позиции ключа из БД после рестарта
func (l *loop) restoreActive(ctx context.Context) {
	positions, err := l.positions.GetActiveBySymbol(ctx, l.key.UserID, l.key.Symbol)
	if err != nil {
		l.logger.Warn("active position recovery failed",
			zap.String("key", l.key.String()),
			zap.Error(err))
		return
	}

	if len(positions) > 0 {
		l.active = positions
		l.logger.Info("restored active positions",
			zap.String("key", l.key.String()),
			zap.Int("count", len(positions)))
	}
}

// removeActive удаляет позицию из списка активных
func (l *loop) removeActive(id string) {
	for i, pos := range l.active {
		if pos.ID == id {
			l.active = append(l.active[:i], l.active[i+1:]...)
			return
		}
	}
}
