package exchange

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"autofutures/internal/models"
)

// SimGateway - эмулятор биржи со случайным блужданием цены
//
// Используется в demo/staging режиме вместо реальной connectivity-библиотеки.
// Все снапшоты помечены Simulated=true - флаг доходит до публикуемого
// состояния, и торговое ядро никогда не принимает решений по этим данным
type SimGateway struct {
	name string
	rng  *rand.Rand

	// Последняя цена по символу (для случайного блуждания)
	prices map[string]float64
	mu     sync.Mutex
}

// Базовые цены для стартовой точки блуждания
var simBasePrices = map[string]float64{
	"BTC": 65000,
	"ETH": 3200,
	"SOL": 150,
}

// NewSimGateway создает эмулятор биржи
func NewSimGateway(name string) *SimGateway {
	return &SimGateway{
		name:   name,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
		prices: make(map[string]float64),
	}
}

// Name возвращает идентификатор биржи
func (sg *SimGateway) Name() string { return sg.name }

// FetchSnapshot генерирует очередной шаг случайного блуждания
func (sg *SimGateway) FetchSnapshot(_ context.Context, symbol string) (*models.VenueSnapshot, error) {
	sg.mu.Lock()
	defer sg.mu.Unlock()

	mid := sg.step(symbol)
	half := mid * 0.0005 // полуспред 0.05%

	return &models.VenueSnapshot{
		Exchange:        sg.name,
		Bid:             mid - half,
		Ask:             mid + half,
		MarkPrice:       mid,
		FundingRate:     (sg.rng.Float64() - 0.5) * 0.0002,
		NextFundingTime: nextFundingBoundary(time.Now().UTC()),
		MaxOrderSize:    1000,
		Ok:              true,
		Simulated:       true,
		Timestamp:       time.Now().UTC(),
	}, nil
}

// PlaceMarketOrder эмулирует мгновенное исполнение по текущей котировке
func (sg *SimGateway) PlaceMarketOrder(_ context.Context, symbol, side string, amount float64) (*Fill, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("sim %s: invalid amount %f", sg.name, amount)
	}

	sg.mu.Lock()
	defer sg.mu.Unlock()

	mid := sg.step(symbol)
	half := mid * 0.0005

	price := mid + half // покупка по ask
	if side == SideSell {
		price = mid - half // продажа по bid
	}

	return &Fill{
		Price:  price,
		Amount: amount,
		Fee:    price * amount * 0.0005,
	}, nil
}

// Close ничего не делает для эмулятора
func (sg *SimGateway) Close() error { return nil }

// step делает шаг случайного блуждания и возвращает новую mid-цену.
// ВАЖНО: вызывается под lock'ом
func (sg *SimGateway) step(symbol string) float64 {
	last, ok := sg.prices[symbol]
	if !ok {
		last = simBasePrices[symbol]
		if last == 0 {
			last = 100
		}
		// Разносим стартовые цены разных "бирж", чтобы появлялся спред
		last *= 1 + (sg.rng.Float64()-0.5)*0.002
	}

	// Шаг до ±0.1% от цены
	last *= 1 + (sg.rng.Float64()-0.5)*0.002
	sg.prices[symbol] = last
	return last
}

// nextFundingBoundary возвращает ближайший 8-часовой фандинг (00/08/16 UTC)
func nextFundingBoundary(now time.Time) time.Time {
	boundary := now.Truncate(8 * time.Hour).Add(8 * time.Hour)
	return boundary
}
