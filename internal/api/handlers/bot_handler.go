package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"autofutures/internal/api/middleware"
	"autofutures/internal/bot"
	"autofutures/internal/models"
)

// BotController - операции супервизора, нужные HTTP слою
//
// Реализуется bot.Supervisor
type BotController interface {
	Start(userID, symbol string) error
	Stop(userID, symbol string) error
	IsRunning(userID, symbol string) bool
	GetState(userID, symbol string) *models.BotState
	GetActivePositions(ctx context.Context, userID string) ([]*models.Position, error)
	GetHistory(ctx context.Context, userID string, limit int) ([]*models.Position, error)
}

// LogReader - чтение журнала активности
type LogReader interface {
	GetRecent(ctx context.Context, userID, symbol string, limit int) ([]*models.BotLog, error)
}

// BotHandler отвечает за управление торговыми циклами
//
// Функции:
// - Запуск бота по символу (POST /api/v1/bot/{symbol}/start)
// - Остановка бота (POST /api/v1/bot/{symbol}/stop)
// - Текущее состояние (GET /api/v1/bot/{symbol}/state)
// - Журнал активности (GET /api/v1/bot/{symbol}/logs)
// - Активные позиции (GET /api/v1/positions)
// - История сделок (GET /api/v1/history)
//
// Все операции выполняются от имени пользователя запроса (middleware.Identity)
type BotHandler struct {
	controller BotController
	logs       LogReader
}

// NewBotHandler создает новый BotHandler
func NewBotHandler(controller BotController, logs LogReader) *BotHandler {
	return &BotHandler{controller: controller, logs: logs}
}

// StartBot запускает торговый цикл символа
// POST /api/v1/bot/{symbol}/start
func (h *BotHandler) StartBot(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r)
	symbol := strings.ToUpper(mux.Vars(r)["symbol"])

	if symbol == "" {
		respondError(w, http.StatusBadRequest, "symbol required")
		return
	}

	if err := h.controller.Start(userID, symbol); err != nil {
		if errors.Is(err, bot.ErrStopPending) {
			respondError(w, http.StatusConflict, "bot is stopping, retry in a second")
			return
		}
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, SuccessResponse{Message: "bot started", Data: map[string]string{"symbol": symbol}})
}

// StopBot останавливает торговый цикл символа
// POST /api/v1/bot/{symbol}/stop
//
// Остановка кооперативная: текущий тик доработает, открытые позиции
// остаются как есть
func (h *BotHandler) StopBot(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r)
	symbol := strings.ToUpper(mux.Vars(r)["symbol"])

	if err := h.controller.Stop(userID, symbol); err != nil {
		if errors.Is(err, bot.ErrNotRunning) {
			respondError(w, http.StatusNotFound, "bot is not running")
			return
		}
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, SuccessResponse{Message: "bot stopping", Data: map[string]string{"symbol": symbol}})
}

// GetState возвращает последнее опубликованное состояние бота
// GET /api/v1/bot/{symbol}/state
func (h *BotHandler) GetState(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r)
	symbol := strings.ToUpper(mux.Vars(r)["symbol"])

	state := h.controller.GetState(userID, symbol)
	if state == nil {
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"symbol":    symbol,
			"is_active": h.controller.IsRunning(userID, symbol),
		})
		return
	}

	respondJSON(w, http.StatusOK, state)
}

// GetLogs возвращает последние записи журнала активности
// GET /api/v1/bot/{symbol}/logs?limit=50
func (h *BotHandler) GetLogs(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r)
	symbol := strings.ToUpper(mux.Vars(r)["symbol"])
	limit := queryLimit(r, 50, 500)

	logs, err := h.logs.GetRecent(r.Context(), userID, symbol, limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if logs == nil {
		logs = []*models.BotLog{}
	}
	respondJSON(w, http.StatusOK, logs)
}

// GetActivePositions возвращает активные позиции пользователя
// GET /api/v1/positions
func (h *BotHandler) GetActivePositions(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r)

	positions, err := h.controller.GetActivePositions(r.Context(), userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if positions == nil {
		positions = []*models.Position{}
	}
	respondJSON(w, http.StatusOK, positions)
}

// GetHistory возвращает завершенные сделки пользователя
// GET /api/v1/history?limit=100
func (h *BotHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r)
	limit := queryLimit(r, 100, 1000)

	positions, err := h.controller.GetHistory(r.Context(), userID, limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if positions == nil {
		positions = []*models.Position{}
	}
	respondJSON(w, http.StatusOK, positions)
}

// queryLimit читает limit из query с дефолтом и верхней границей
func queryLimit(r *http.Request, def, max int) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return def
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}
