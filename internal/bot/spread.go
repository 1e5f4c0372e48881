package bot

import (
	"go.uber.org/zap"

	"autofutures/internal/models"
)

// SpreadCalculator - расчет спредов входа/выхода из пары снапшотов
//
// Спреды вычисляются строго из последней пары снапшотов и никогда
// не переносятся со старой пары
type SpreadCalculator struct {
	logger *zap.Logger
}

// NewSpreadCalculator создает калькулятор
func NewSpreadCalculator(logger *zap.Logger) *SpreadCalculator {
	return &SpreadCalculator{logger: logger}
}

// Compute вычисляет спреды для текущего тика
//
// open_spread  = (bid2 - ask1) / ask1 * 100 - спред при покупке первой
// ноги и продаже второй по текущим котировкам.
// close_spread = (bid1 - ask2) / ask2 * 100 - спред разворота той же пары.
// real_spread  = open при LONG, close при SHORT; используется ТОЛЬКО
// для графика, не для решений.
//
// Деление на нулевой/отсутствующий ask дает спред 0 с warn-логом,
// никогда не паникует
func (sc *SpreadCalculator) Compute(snap *models.SnapshotPair, side string) models.SpreadSample {
	var sample models.SpreadSample

	if snap == nil || snap.Venue1 == nil || snap.Venue2 == nil {
		return sample
	}

	v1, v2 := snap.Venue1, snap.Venue2

	if v1.Ask > 0 {
		sample.OpenSpread = (v2.Bid - v1.Ask) / v1.Ask * 100
	} else {
		sc.logger.Warn("zero ask on venue 1, open spread forced to 0",
			zap.String("exchange", v1.Exchange))
	}

	if v2.Ask > 0 {
		sample.CloseSpread = (v1.Bid - v2.Ask) / v2.Ask * 100
	} else {
		sc.logger.Warn("zero ask on venue 2, close spread forced to 0",
			zap.String("exchange", v2.Exchange))
	}

	if side == models.SideShort {
		sample.RealSpread = sample.CloseSpread
	} else {
		sample.RealSpread = sample.OpenSpread
	}

	return sample
}
