package websocket

import (
	"time"

	"autofutures/internal/models"
)

// MessageType определяет тип WebSocket сообщения
type MessageType string

// Типы WebSocket сообщений
const (
	// MessageTypeStateUpdate - состояние торгового цикла ключа
	// Отправляется каждый тик работающим ботам пользователя
	MessageTypeStateUpdate MessageType = "stateUpdate"

	// MessageTypeBotLog - новая запись журнала активности
	// Отправляется при событиях: запуск, вход, выход, ошибки
	MessageTypeBotLog MessageType = "botLog"
)

// BaseMessage - базовая структура для всех WebSocket сообщений
type BaseMessage struct {
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
}

// StateUpdateMessage - сообщение с состоянием бота
//
// Содержит все, что нужно дашборду для перерисовки карточки символа:
// котировки обеих бирж, спреды, тиковое окно для графика, позиции и PNL
type StateUpdateMessage struct {
	BaseMessage
	Symbol string           `json:"symbol"`
	Data   *models.BotState `json:"data"`
}

// BotLogMessage - сообщение с записью журнала
type BotLogMessage struct {
	BaseMessage
	Symbol string         `json:"symbol"`
	Data   *models.BotLog `json:"data"`
}

// NewStateUpdateMessage создает сообщение состояния
func NewStateUpdateMessage(state *models.BotState) *StateUpdateMessage {
	return &StateUpdateMessage{
		BaseMessage: BaseMessage{
			Type:      MessageTypeStateUpdate,
			Timestamp: time.Now(),
		},
		Symbol: state.Symbol,
		Data:   state,
	}
}

// NewBotLogMessage создает сообщение журнала
func NewBotLogMessage(entry *models.BotLog) *BotLogMessage {
	return &BotLogMessage{
		BaseMessage: BaseMessage{
			Type:      MessageTypeBotLog,
			Timestamp: time.Now(),
		},
		Symbol: entry.Symbol,
		Data:   entry,
	}
}
