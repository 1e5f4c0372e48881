package models

import "time"

// BotState - публикуемое состояние торгового цикла одного ключа
//
// Перезаписывается каждый тик единственным владельцем (last-writer-wins),
// сохраняется в БД и рассылается подписчикам пользователя
type BotState struct {
	UserID    string    `json:"user_id" db:"user_id"`
	Symbol    string    `json:"symbol" db:"symbol"`
	IsActive  bool      `json:"is_active" db:"is_active"`
	StartedAt time.Time `json:"started_at,omitempty" db:"started_at"`

	Snapshot SnapshotPair `json:"snapshot"`
	Spread   SpreadSample `json:"spread"`

	// Тиковое окно для графика (полные копии, не для решений)
	OpenTicks  []float64 `json:"open_ticks"`
	CloseTicks []float64 `json:"close_ticks"`
	RealTicks  []float64 `json:"real_ticks"`

	OpenPositions int     `json:"open_positions"`
	UnrealizedPnl float64 `json:"unrealized_pnl"`
	RealizedPnl   float64 `json:"realized_pnl"`

	LastUpdate time.Time `json:"last_update" db:"last_update"`
}
