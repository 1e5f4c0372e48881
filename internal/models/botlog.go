package models

import "time"

// BotLog - запись журнала активности бота (лента событий на дашборде)
type BotLog struct {
	ID        int                    `json:"id" db:"id"`
	UserID    string                 `json:"user_id" db:"user_id"`
	Symbol    string                 `json:"symbol" db:"symbol"`
	LogType   string                 `json:"log_type" db:"log_type"`
	Message   string                 `json:"message" db:"message"`
	Details   map[string]interface{} `json:"details,omitempty" db:"details"` // JSON в БД
	CreatedAt time.Time              `json:"created_at" db:"created_at"`
}

// Типы записей журнала
const (
	LogTypeInfo    = "info"
	LogTypeSuccess = "success"
	LogTypeError   = "error"
	LogTypeWarning = "warning"
	LogTypeSearch  = "search"
	LogTypeOpen    = "open"
	LogTypeClose   = "close"
	LogTypeProfit  = "profit"
)
