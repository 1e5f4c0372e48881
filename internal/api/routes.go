package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"autofutures/internal/api/handlers"
	"autofutures/internal/api/middleware"
	"autofutures/internal/websocket"
)

// Dependencies содержит все зависимости для API handlers
type Dependencies struct {
	Controller handlers.BotController
	Settings   handlers.SettingsReader
	Logs       handlers.LogReader
	Hub        *websocket.Hub
	Logger     *zap.Logger
}

// SetupRoutes настраивает все HTTP маршруты приложения
//
// Структура маршрутов:
//
// /api/v1/
//
//	├── /bot/{symbol}/
//	│   ├── POST /start - запустить бота по символу
//	│   ├── POST /stop - остановить бота
//	│   ├── GET /state - текущее состояние
//	│   └── GET /logs - журнал активности
//	├── /positions - GET активные позиции
//	├── /history - GET завершенные сделки
//	└── /settings/
//	    ├── GET / - все настройки пользователя
//	    ├── GET /{symbol} - настройки символа
//	    ├── PUT /{symbol} - создать/обновить настройки
//	    └── PATCH /{symbol}/flags - переключить stop-флаги
//
// /ws/stream - WebSocket для real-time обновлений
// /metrics - Prometheus метрики
// /health - health check
//
// Middleware применяется в следующем порядке:
// 1. Recovery (для всех маршрутов)
// 2. Logging (для всех маршрутов)
// 3. CORS (для всех маршрутов)
// 4. Identity (только для /api/v1, пользователь обязателен)
func SetupRoutes(deps *Dependencies) *mux.Router {
	router := mux.NewRouter()

	router.Use(middleware.Recovery(deps.Logger))
	router.Use(middleware.Logging(deps.Logger))
	router.Use(middleware.CORS)

	botHandler := handlers.NewBotHandler(deps.Controller, deps.Logs)
	settingsHandler := handlers.NewSettingsHandler(deps.Settings)

	// API v1 routes
	api := router.PathPrefix("/api/v1").Subrouter()
	api.Use(middleware.Identity)

	// Bot routes
	api.HandleFunc("/bot/{symbol}/start", botHandler.StartBot).Methods("POST")
	api.HandleFunc("/bot/{symbol}/stop", botHandler.StopBot).Methods("POST")
	api.HandleFunc("/bot/{symbol}/state", botHandler.GetState).Methods("GET")
	api.HandleFunc("/bot/{symbol}/logs", botHandler.GetLogs).Methods("GET")

	// Position routes
	api.HandleFunc("/positions", botHandler.GetActivePositions).Methods("GET")
	api.HandleFunc("/history", botHandler.GetHistory).Methods("GET")

	// Settings routes
	api.HandleFunc("/settings", settingsHandler.ListSettings).Methods("GET")
	api.HandleFunc("/settings/{symbol}", settingsHandler.GetSettings).Methods("GET")
	api.HandleFunc("/settings/{symbol}", settingsHandler.UpdateSettings).Methods("PUT")
	api.HandleFunc("/settings/{symbol}/flags", settingsHandler.SetStopFlags).Methods("PATCH")

	// WebSocket route
	router.HandleFunc("/ws/stream", func(w http.ResponseWriter, r *http.Request) {
		websocket.ServeWS(deps.Hub, w, r)
	})

	// Prometheus metrics
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	// Health check endpoint
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET")

	return router
}
