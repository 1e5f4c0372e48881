package models

import "time"

// Leg - одна нога арбитражной позиции (один ордер на одной бирже)
type Leg struct {
	Exchange   string  `json:"exchange"`
	Direction  string  `json:"direction"` // long, short
	EntryPrice float64 `json:"entry_price"`
	ExitPrice  float64 `json:"exit_price,omitempty"`
	Amount     float64 `json:"amount"`
	FeeOpen    float64 `json:"fee_open"`
	FeeClose   float64 `json:"fee_close,omitempty"`
	Filled     bool    `json:"filled"` // нога реально открыта на бирже
	Closed     bool    `json:"closed"` // разворотный ордер ноги исполнен
}

// Направления ног
const (
	LegLong  = "long"
	LegShort = "short"
)

// Position - арбитражная позиция из двух ног
//
// Создается при срабатывании условия входа, мутирует при закрытии,
// после Status=completed становится неизменяемой историей
type Position struct {
	ID          string     `json:"id" db:"id"`
	UserID      string     `json:"user_id" db:"user_id"`
	Symbol      string     `json:"symbol" db:"symbol"`
	Side        string     `json:"side" db:"side"` // LONG, SHORT (сторона стратегии)
	Leg1        Leg        `json:"leg_1"`
	Leg2        Leg        `json:"leg_2"`
	EntrySpread float64    `json:"entry_spread" db:"entry_spread"` // open_spread тика входа
	Notional    float64    `json:"notional" db:"notional"`         // (entry1+entry2)*amount
	Pnl         float64    `json:"pnl" db:"pnl"`
	PnlPercent  float64    `json:"pnl_percent" db:"pnl_percent"`
	Fees        float64    `json:"fees" db:"fees"`
	Status      string     `json:"status" db:"status"` // active, completed
	Phase       string     `json:"phase" db:"phase"`   // FLAT, OPENING, OPEN, CLOSING
	HalfOpen    bool       `json:"half_open" db:"half_open"`
	OpenedAt    time.Time  `json:"opened_at" db:"opened_at"`
	ClosedAt    *time.Time `json:"closed_at,omitempty" db:"closed_at"`
}

// Статусы позиции
const (
	PositionActive    = "active"
	PositionCompleted = "completed"
)

// Фазы жизненного цикла позиции (state machine)
const (
	PhaseFlat    = "FLAT"    // позиции нет
	PhaseOpening = "OPENING" // идет открытие ног (half-open застревает здесь)
	PhaseOpen    = "OPEN"    // обе ноги открыты, ожидание выхода
	PhaseClosing = "CLOSING" // идет закрытие ног
)

// IsActive сообщает, удерживается ли позиция на биржах
func (p *Position) IsActive() bool {
	return p.Status == PositionActive
}
