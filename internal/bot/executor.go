package bot

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"go.uber.org/zap"

	"autofutures/internal/config"
	"autofutures/internal/exchange"
	"autofutures/internal/models"
)

// OrderExecutor - исполнитель парных рыночных ордеров
//
// Открытие СТРОГО последовательное: нога 2 размещается только после
// подтвержденного исполнения ноги 1 с известной ценой. Ордера никогда
// не ретраятся автоматически - после таймаута нельзя отличить
// "не отправлен" от "отправлен, ответ потерян".
//
// Закрытие - параллельное и несвязанное: сбой одной ноги логируется,
// позиция остается активной для повторных попыток выхода
type OrderExecutor struct {
	gateways GatewaySource
	pool     *WorkerPool
	cfg      config.BotConfig
	logger   *zap.Logger
}

// NewOrderExecutor создает исполнитель
func NewOrderExecutor(gateways GatewaySource, pool *WorkerPool, cfg config.BotConfig, logger *zap.Logger) *OrderExecutor {
	return &OrderExecutor{
		gateways: gateways,
		pool:     pool,
		cfg:      cfg,
		logger:   logger,
	}
}

// OpenPosition открывает две ноги позиции
//
// Нога 1: направление по стороне стратегии (LONG - покупка на бирже 1).
// Нога 2: противоположное направление на бирже 2.
//
// Сбой ноги 1 - отмена без изменения состояния (возврат ошибки).
// Сбой ноги 2 - позиция создается активной с флагом HalfOpen: фатальное
// событие для оператора, автоматический повтор ноги 2 не выполняется
func (oe *OrderExecutor) OpenPosition(ctx context.Context, settings *models.SymbolSettings, sample models.SpreadSample) (*models.Position, error) {
	dir1, dir2 := legDirections(settings.Side)

	// Нога 1
	fill1, err := oe.placeOrder(ctx, settings.UserID, settings.Exchange1, settings.Symbol, entrySide(dir1), settings.OrderSize)
	if err != nil {
		return nil, fmt.Errorf("leg 1 (%s) failed: %w", settings.Exchange1, err)
	}
	if fill1.Price <= 0 {
		// Цена исполнения неизвестна - вторую ногу не открываем
		return nil, fmt.Errorf("leg 1 (%s) filled without a known price", settings.Exchange1)
	}

	pos := &models.Position{
		ID:     newPositionID(),
		UserID: settings.UserID,
		Symbol: settings.Symbol,
		Side:   settings.Side,
		Leg1: models.Leg{
			Exchange:   settings.Exchange1,
			Direction:  dir1,
			EntryPrice: fill1.Price,
			Amount:     fill1.Amount,
			FeeOpen:    oe.feeOrDefault(fill1),
			Filled:     true,
		},
		EntrySpread: sample.OpenSpread,
		Status:      models.PositionActive,
		Phase:       models.PhaseOpening,
		OpenedAt:    time.Now().UTC(),
	}

	// Нога 2: только после исполненной ноги 1
	fill2, err := oe.placeOrder(ctx, settings.UserID, settings.Exchange2, settings.Symbol, entrySide(dir2), settings.OrderSize)
	if err != nil {
		pos.HalfOpen = true
		pos.Leg2 = models.Leg{
			Exchange:  settings.Exchange2,
			Direction: dir2,
			Amount:    settings.OrderSize,
		}
		pos.Notional = fill1.Price * fill1.Amount

		HalfOpenPositions.Inc()
		oe.logger.Error("HALF-OPEN POSITION: leg 2 failed after leg 1 filled, operator intervention required",
			zap.String("user_id", settings.UserID),
			zap.String("symbol", settings.Symbol),
			zap.String("position_id", pos.ID),
			zap.String("leg1_exchange", settings.Exchange1),
			zap.String("leg2_exchange", settings.Exchange2),
			zap.Float64("leg1_price", fill1.Price),
			zap.Float64("leg1_amount", fill1.Amount),
			zap.Error(err))
		return pos, nil
	}

	pos.Leg2 = models.Leg{
		Exchange:   settings.Exchange2,
		Direction:  dir2,
		EntryPrice: fill2.Price,
		Amount:     fill2.Amount,
		FeeOpen:    oe.feeOrDefault(fill2),
		Filled:     true,
	}
	pos.Notional = (fill1.Price + fill2.Price) * fill1.Amount
	pos.Phase = models.PhaseOpen

	return pos, nil
}

// ClosePosition закрывает обе ноги разворотными ордерами
//
// Направления и объемы берутся из сохраненных ног, не пересчитываются.
// Обе ноги закрываются параллельно и независимо - сбой одной из них
// оставляет позицию активной для повторных попыток выхода.
//
// Исполнение каждой ноги фиксируется в ней самой (Closed + цена выхода):
// уже закрытая нога при повторной попытке НИКОГДА не переразмещается,
// иначе продажа закрытой ноги удваивала бы реальную экспозицию
func (oe *OrderExecutor) ClosePosition(ctx context.Context, pos *models.Position) error {
	pos.Phase = models.PhaseClosing

	ch1 := oe.closeLeg(ctx, pos, &pos.Leg1)
	ch2 := oe.closeLeg(ctx, pos, &pos.Leg2)
	err1, err2 := <-ch1, <-ch2

	if err1 != nil || err2 != nil {
		pos.Phase = models.PhaseOpen // откат: выход будет повторен следующим тиком
		oe.logger.Warn("position close incomplete, will retry remaining legs on a future tick",
			zap.String("position_id", pos.ID),
			zap.String("symbol", pos.Symbol),
			zap.Bool("leg1_closed", pos.Leg1.Closed),
			zap.Bool("leg2_closed", pos.Leg2.Closed),
			zap.NamedError("leg1_error", err1),
			zap.NamedError("leg2_error", err2))
		return fmt.Errorf("close failed: leg1=%v, leg2=%v", err1, err2)
	}

	oe.settlePnl(pos)

	now := time.Now().UTC()
	pos.Status = models.PositionCompleted
	pos.Phase = models.PhaseFlat
	pos.ClosedAt = &now

	PnlRealized.Add(pos.Pnl)
	return nil
}

// closeLeg закрывает одну ногу разворотным ордером
//
// Уже закрытая нога пропускается: ее выход зафиксирован предыдущей
// попыткой. Результат исполнения пишется прямо в ногу до возврата
func (oe *OrderExecutor) closeLeg(ctx context.Context, pos *models.Position, leg *models.Leg) <-chan error {
	ch := make(chan error, 1)

	if leg.Closed {
		ch <- nil
		return ch
	}

	go func() {
		fill, err := oe.placeOrder(ctx, pos.UserID, leg.Exchange, pos.Symbol, exitSide(leg.Direction), leg.Amount)
		if err != nil {
			ch <- err
			return
		}
		leg.ExitPrice = fill.Price
		leg.FeeClose = oe.feeOrDefault(fill)
		leg.Closed = true
		ch <- nil
	}()
	return ch
}

// settlePnl рассчитывает итоговый PNL закрытой позиции
//
// Знак по направлению ноги: long-нога зарабатывает на росте цены,
// short-нога - на падении. pnl_percent считается от notional входа
func (oe *OrderExecutor) settlePnl(pos *models.Position) {
	p1 := legProfit(&pos.Leg1)
	p2 := legProfit(&pos.Leg2)

	pos.Fees = pos.Leg1.FeeOpen + pos.Leg1.FeeClose + pos.Leg2.FeeOpen + pos.Leg2.FeeClose
	pos.Pnl = p1 + p2 - pos.Fees

	if pos.Notional > 0 {
		pos.PnlPercent = pos.Pnl / pos.Notional * 100
	}
}

// legProfit - прибыль одной ноги без учета комиссий
func legProfit(leg *models.Leg) float64 {
	if leg.Direction == models.LegShort {
		return (leg.EntryPrice - leg.ExitPrice) * leg.Amount
	}
	return (leg.ExitPrice - leg.EntryPrice) * leg.Amount
}

// placeOrder размещает один рыночный ордер через пул с таймаутом
func (oe *OrderExecutor) placeOrder(ctx context.Context, userID, exchangeName, symbol, side string, amount float64) (*exchange.Fill, error) {
	gw, err := oe.gateways.Acquire(userID, exchangeName)
	if err != nil {
		OrdersTotal.WithLabelValues(exchangeName, side, "failed").Inc()
		return nil, err
	}

	callCtx, cancel := context.WithTimeout(ctx, oe.cfg.OrderTimeout)
	defer cancel()

	var fill *exchange.Fill
	var orderErr error

	if err := oe.pool.Do(callCtx, func() {
		fill, orderErr = gw.PlaceMarketOrder(callCtx, symbol, side, amount)
	}); err != nil {
		orderErr = err
	}

	if orderErr != nil {
		OrdersTotal.WithLabelValues(exchangeName, side, "failed").Inc()
		return nil, orderErr
	}

	OrdersTotal.WithLabelValues(exchangeName, side, "filled").Inc()
	return fill, nil
}

// feeOrDefault возвращает комиссию биржи либо дефолтную оценку
func (oe *OrderExecutor) feeOrDefault(fill *exchange.Fill) float64 {
	if fill.Fee > 0 {
		return fill.Fee
	}
	return fill.Price * fill.Amount * oe.cfg.DefaultFeeRate
}

// legDirections возвращает направления ног для стороны стратегии
func legDirections(side string) (leg1, leg2 string) {
	if side == models.SideShort {
		return models.LegShort, models.LegLong
	}
	return models.LegLong, models.LegShort
}

// entrySide - сторона рыночного ордера для открытия ноги
func entrySide(direction string) string {
	if direction == models.LegShort {
		return exchange.SideSell
	}
	return exchange.SideBuy
}

// exitSide - сторона разворотного ордера для закрытия ноги
func exitSide(direction string) string {
	if direction == models.LegShort {
		return exchange.SideBuy
	}
	return exchange.SideSell
}

// newPositionID генерирует идентификатор позиции (16 байт hex)
func newPositionID() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("pos-%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(buf)
}
