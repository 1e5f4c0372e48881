package bot

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"autofutures/internal/models"
	"autofutures/pkg/retry"
)

// StatePublisher - сохранение и рассылка состояния бота
//
// Для каждого ключа хранится только последнее состояние (перезапись,
// истории нет - история есть только у завершенных позиций). Писатель
// один - владеющий торговый цикл; last-writer-wins.
//
// Любой сбой сохранения или транспорта логируется и не останавливает
// торговый цикл: дашборд увидит устаревшие данные, не исключение
type StatePublisher struct {
	store  StateStore
	hub    EventPublisher
	logger *zap.Logger

	// Последнее опубликованное состояние по ключам (для GetState API)
	latest map[models.Key]*models.BotState
	mu     sync.RWMutex
}

// NewStatePublisher создает publisher
func NewStatePublisher(store StateStore, hub EventPublisher, logger *zap.Logger) *StatePublisher {
	return &StatePublisher{
		store:  store,
		hub:    hub,
		logger: logger,
		latest: make(map[models.Key]*models.BotState),
	}
}

// Publish сохраняет состояние и рассылает его подписчикам пользователя
func (sp *StatePublisher) Publish(ctx context.Context, state *models.BotState) {
	state.LastUpdate = time.Now().UTC()
	key := models.NewKey(state.UserID, state.Symbol)

	sp.mu.Lock()
	sp.latest[key] = state
	sp.mu.Unlock()

	// Запись в БД с консервативным retry: временный сбой БД не должен
	// терять состояние, но и не должен задерживать тик надолго
	if sp.store != nil {
		err := retry.Do(ctx, func() error {
			return sp.store.SaveState(ctx, state)
		}, retry.ConservativeConfig())
		if err != nil {
			PublishErrors.WithLabelValues("persist").Inc()
			sp.logger.Warn("bot state persist failed, continuing with in-memory state",
				zap.String("key", key.String()),
				zap.Error(err))
		}
	}

	// Транспорт fire-and-forget, at-most-once
	if sp.hub != nil {
		sp.hub.SendStateUpdate(state.UserID, state)
	}
}

// MarkStopped помечает последнее состояние ключа неактивным
//
// Вызывается при остановке цикла: payload последнего тика сохраняется
// для дашборда, меняется только флаг активности
func (sp *StatePublisher) MarkStopped(ctx context.Context, key models.Key) {
	sp.mu.Lock()
	if state, ok := sp.latest[key]; ok {
		copied := *state
		copied.IsActive = false
		sp.latest[key] = &copied
	}
	sp.mu.Unlock()

	if sp.store != nil {
		if err := sp.store.MarkStopped(ctx, key.UserID, key.Symbol); err != nil {
			PublishErrors.WithLabelValues("persist").Inc()
			sp.logger.Warn("failed to mark persisted state stopped",
				zap.String("key", key.String()),
				zap.Error(err))
		}
	}
}

// GetState возвращает последнее опубликованное состояние ключа
func (sp *StatePublisher) GetState(key models.Key) *models.BotState {
	sp.mu.RLock()
	defer sp.mu.RUnlock()
	return sp.latest[key]
}
