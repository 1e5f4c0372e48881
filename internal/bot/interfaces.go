package bot

import (
	"context"

	"autofutures/internal/exchange"
	"autofutures/internal/models"
)

// Интерфейсы внешних коллабораторов торгового ядра.
// Реализуются пакетами repository, exchange и websocket

// SettingsStore - источник настроек (пользователь, символ)
type SettingsStore interface {
	// GetSettings возвращает настройки символа или ошибку при их отсутствии
	GetSettings(ctx context.Context, userID, symbol string) (*models.SymbolSettings, error)
}

// StateStore - хранилище последнего состояния бота (overwrite-семантика)
type StateStore interface {
	SaveState(ctx context.Context, state *models.BotState) error

	// MarkStopped помечает сохраненное состояние неактивным, не трогая payload
	MarkStopped(ctx context.Context, userID, symbol string) error
}

// PositionStore - хранилище позиций (активные + завершенные)
type PositionStore interface {
	Create(ctx context.Context, pos *models.Position) error
	Update(ctx context.Context, pos *models.Position) error
	GetActive(ctx context.Context, userID string) ([]*models.Position, error)
	GetActiveBySymbol(ctx context.Context, userID, symbol string) ([]*models.Position, error)
	GetHistory(ctx context.Context, userID string, limit int) ([]*models.Position, error)
}

// LogStore - журнал активности бота
type LogStore interface {
	Create(ctx context.Context, entry *models.BotLog) error

	// Prune отбрасывает старые записи ключа, оставляя последние keep
	Prune(ctx context.Context, userID, symbol string, keep int) error
}

// GatewaySource выдает биржевых клиентов по (пользователь, биржа)
//
// Реализуется пакетом exchange/Pool
type GatewaySource interface {
	Acquire(userID, exchangeName string) (exchange.Gateway, error)
}

// EventPublisher - транспорт pub/sub для real-time обновления дашборда
//
// Реализуется пакетом internal/websocket/Hub.
// Доставка fire-and-forget, at-most-once: сбой транспорта логируется
// и не останавливает торговый цикл
type EventPublisher interface {
	// SendStateUpdate отправляет состояние бота подписчикам пользователя
	SendStateUpdate(userID string, state *models.BotState)

	// SendBotLog отправляет запись журнала подписчикам пользователя
	SendBotLog(userID string, entry *models.BotLog)
}
