package exchange

import (
	"context"
	"errors"
	"strings"

	"autofutures/internal/models"
)

// Ошибки шлюза
var (
	ErrUnsupportedExchange = errors.New("unsupported exchange")
	ErrNoCredentials       = errors.New("no api credentials stored")
	ErrUnsupportedSymbol   = errors.New("symbol not listed on exchange")
)

// Направления рыночных ордеров
const (
	SideBuy  = "buy"
	SideSell = "sell"
)

// Fill - результат исполнения рыночного ордера
type Fill struct {
	Price  float64 `json:"price"`  // средняя цена исполнения
	Amount float64 `json:"amount"` // исполненный объем
	Fee    float64 `json:"fee"`    // комиссия (0 = биржа не сообщила)
}

// Gateway определяет унифицированный интерфейс подключения к бирже
//
// Реальная connectivity-библиотека - внешний коллаборатор; ядру нужны
// только две операции. Любой вызов обязан уважать ctx (таймауты
// устанавливает вызывающий). Повторная отправка ордера после таймаута
// запрещена: нельзя отличить "не отправлен" от "отправлен, ответ потерян"
type Gateway interface {
	// Name возвращает идентификатор биржи
	Name() string

	// FetchSnapshot получает нормализованные котировки символа
	FetchSnapshot(ctx context.Context, symbol string) (*models.VenueSnapshot, error)

	// PlaceMarketOrder размещает рыночный ордер
	PlaceMarketOrder(ctx context.Context, symbol, side string, amount float64) (*Fill, error)

	// Close закрывает соединения с биржей
	Close() error
}

// SupportedExchanges - список поддерживаемых бирж
var SupportedExchanges = []string{
	"bybit",
	"binance",
	"bitget",
	"gateio",
	"mexc",
	"bingx",
}

// IsSupported проверяет, поддерживается ли биржа
func IsSupported(name string) bool {
	name = strings.ToLower(name)
	for _, supported := range SupportedExchanges {
		if name == supported {
			return true
		}
	}
	return false
}
