package bot

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"autofutures/internal/models"
)

// Порог усечения журнала: каждые pruneEvery записей ключа в БД
// остаются последние journalKeep
const (
	journalKeep = 500
	pruneEvery  = 100
)

// journal - лента событий бота для дашборда
//
// Пишет запись в БД и рассылает ее подписчикам пользователя; оба
// действия best-effort - сбой журнала никогда не мешает торговле.
// Журнал периодически усекается, чтобы секундные тики не копили
// записи бесконечно
type journal struct {
	logs   LogStore
	hub    EventPublisher
	logger *zap.Logger

	// Счетчики записей по ключам с момента последнего усечения
	counts map[models.Key]int
	mu     sync.Mutex
}

func newJournal(logs LogStore, hub EventPublisher, logger *zap.Logger) *journal {
	return &journal{
		logs:   logs,
		hub:    hub,
		logger: logger,
		counts: make(map[models.Key]int),
	}
}

// record создает запись журнала
func (j *journal) record(ctx context.Context, userID, symbol, logType, message string, details map[string]interface{}) {
	entry := &models.BotLog{
		UserID:    userID,
		Symbol:    symbol,
		LogType:   logType,
		Message:   message,
		Details:   details,
		CreatedAt: time.Now().UTC(),
	}

	if j.logs != nil {
		if err := j.logs.Create(ctx, entry); err != nil {
			j.logger.Warn("bot log persist failed",
				zap.String("user_id", userID),
				zap.String("symbol", symbol),
				zap.Error(err))
		} else {
			j.maybePrune(ctx, userID, symbol)
		}
	}

	if j.hub != nil {
		j.hub.SendBotLog(userID, entry)
	}
}

// maybePrune усекает журнал ключа каждые pruneEvery записей
func (j *journal) maybePrune(ctx context.Context, userID, symbol string) {
	key := models.NewKey(userID, symbol)

	j.mu.Lock()
	j.counts[key]++
	due := j.counts[key] >= pruneEvery
	if due {
		j.counts[key] = 0
	}
	j.mu.Unlock()

	if !due {
		return
	}

	if err := j.logs.Prune(ctx, userID, symbol, journalKeep); err != nil {
		j.logger.Warn("bot log prune failed",
			zap.String("user_id", userID),
			zap.String("symbol", symbol),
			zap.Error(err))
	}
}
