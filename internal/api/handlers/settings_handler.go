package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"autofutures/internal/api/middleware"
	"autofutures/internal/exchange"
	"autofutures/internal/models"
)

// SettingsReader - операции настроек, нужные HTTP слою
//
// Реализуется repository.SettingsRepository
type SettingsReader interface {
	GetSettings(ctx context.Context, userID, symbol string) (*models.SymbolSettings, error)
	List(ctx context.Context, userID string) ([]*models.SymbolSettings, error)
	Upsert(ctx context.Context, settings *models.SymbolSettings) error
	SetStopFlags(ctx context.Context, userID, symbol string, forceStop, totalStop bool) error
}

// SettingsHandler отвечает за настройки торговли по символам
//
// Функции:
// - Список настроек пользователя (GET /api/v1/settings)
// - Настройки символа (GET /api/v1/settings/{symbol})
// - Создание/обновление настроек (PUT /api/v1/settings/{symbol})
// - Переключение stop-флагов (PATCH /api/v1/settings/{symbol}/flags)
//
// Настройки перечитываются циклом в начале каждого тика, поэтому
// изменения применяются не позже чем через секунду без рестарта бота
type SettingsHandler struct {
	settings SettingsReader
}

// NewSettingsHandler создает новый SettingsHandler
func NewSettingsHandler(settings SettingsReader) *SettingsHandler {
	return &SettingsHandler{settings: settings}
}

// settingsRequest - тело PUT запроса настроек
type settingsRequest struct {
	Exchange1   string  `json:"exchange_1"`
	Exchange2   string  `json:"exchange_2"`
	Side        string  `json:"side"`
	OpenSpread  float64 `json:"open_spread"`
	CloseSpread float64 `json:"close_spread"`
	OrderSize   float64 `json:"order_size"`
	MaxOrders   int     `json:"max_orders"`
}

// stopFlagsRequest - тело PATCH запроса stop-флагов
type stopFlagsRequest struct {
	ForceStop bool `json:"force_stop"`
	TotalStop bool `json:"total_stop"`
}

// ListSettings возвращает настройки всех символов пользователя
// GET /api/v1/settings
func (h *SettingsHandler) ListSettings(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r)

	settings, err := h.settings.List(r.Context(), userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if settings == nil {
		settings = []*models.SymbolSettings{}
	}
	respondJSON(w, http.StatusOK, settings)
}

// GetSettings возвращает настройки символа (создаются при первом обращении)
// GET /api/v1/settings/{symbol}
func (h *SettingsHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r)
	symbol := strings.ToUpper(mux.Vars(r)["symbol"])

	settings, err := h.settings.GetSettings(r.Context(), userID, symbol)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, settings)
}

// UpdateSettings создает или обновляет настройки символа
// PUT /api/v1/settings/{symbol}
func (h *SettingsHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r)
	symbol := strings.ToUpper(mux.Vars(r)["symbol"])

	var req settingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if err := validateSettings(&req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	settings := &models.SymbolSettings{
		UserID:      userID,
		Symbol:      symbol,
		Exchange1:   req.Exchange1,
		Exchange2:   req.Exchange2,
		Side:        req.Side,
		OpenSpread:  req.OpenSpread,
		CloseSpread: req.CloseSpread,
		OrderSize:   req.OrderSize,
		MaxOrders:   req.MaxOrders,
	}

	if err := h.settings.Upsert(r.Context(), settings); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, settings)
}

// SetStopFlags переключает stop-флаги символа
// PATCH /api/v1/settings/{symbol}/flags
//
// force_stop закрывает открытые позиции на ближайшем тике,
// total_stop дополнительно запрещает новые входы
func (h *SettingsHandler) SetStopFlags(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r)
	symbol := strings.ToUpper(mux.Vars(r)["symbol"])

	var req stopFlagsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if err := h.settings.SetStopFlags(r.Context(), userID, symbol, req.ForceStop, req.TotalStop); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, SuccessResponse{Message: "flags updated"})
}

// validateSettings проверяет тело запроса настроек
func validateSettings(req *settingsRequest) error {
	if !exchange.IsSupported(req.Exchange1) {
		return errUnsupported("exchange_1", req.Exchange1)
	}
	if !exchange.IsSupported(req.Exchange2) {
		return errUnsupported("exchange_2", req.Exchange2)
	}
	if req.Exchange1 == req.Exchange2 {
		return validationError("exchange_1 and exchange_2 must differ")
	}
	if req.Side != models.SideLong && req.Side != models.SideShort {
		return validationError("side must be LONG or SHORT")
	}
	if req.OpenSpread <= 0 {
		return validationError("open_spread must be positive")
	}
	if req.CloseSpread < 0 {
		return validationError("close_spread must not be negative")
	}
	if req.OrderSize <= 0 {
		return validationError("order_size must be positive")
	}
	if req.MaxOrders < 1 {
		return validationError("max_orders must be at least 1")
	}
	return nil
}

// validationError - ошибка валидации тела запроса
type validationError string

func (e validationError) Error() string { return string(e) }

func errUnsupported(field, value string) error {
	return validationError(field + ": unsupported exchange " + value)
}
