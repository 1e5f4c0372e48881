package models

import "time"

// SymbolSettings - персональные настройки торговли для (пользователь, символ)
//
// Читаются из БД в начале каждого тика и неизменяемы в пределах тика
type SymbolSettings struct {
	UserID      string    `json:"user_id" db:"user_id"`
	Symbol      string    `json:"symbol" db:"symbol"`             // BTC, ETH, ...
	Exchange1   string    `json:"exchange_1" db:"exchange_1"`     // биржа первой ноги
	Exchange2   string    `json:"exchange_2" db:"exchange_2"`     // биржа второй ноги
	Side        string    `json:"side" db:"side"`                 // LONG, SHORT
	OpenSpread  float64   `json:"open_spread" db:"open_spread"`   // порог входа, %
	CloseSpread float64   `json:"close_spread" db:"close_spread"` // порог выхода, %
	OrderSize   float64   `json:"order_size" db:"order_size"`     // объем в монетах
	MaxOrders   int       `json:"max_orders" db:"max_orders"`     // лимит одновременных позиций
	ForceStop   bool      `json:"force_stop" db:"force_stop"`     // принудительное закрытие позиций
	TotalStop   bool      `json:"total_stop" db:"total_stop"`     // полная остановка торговли
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// Направления торговли
const (
	SideLong  = "LONG"
	SideShort = "SHORT"
)

// DefaultSymbolSettings возвращает настройки по умолчанию для нового символа
//
// Значения повторяют дефолты дашборда: bybit/gateio, LONG,
// вход 0.2%, выход 0.05%, одна позиция
func DefaultSymbolSettings(userID, symbol string) *SymbolSettings {
	now := time.Now().UTC()
	return &SymbolSettings{
		UserID:      userID,
		Symbol:      symbol,
		Exchange1:   "bybit",
		Exchange2:   "gateio",
		Side:        SideLong,
		OpenSpread:  0.2,
		CloseSpread: 0.05,
		OrderSize:   0.0,
		MaxOrders:   1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}
