package websocket

import (
	"sync"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"autofutures/internal/models"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Hub управляет всеми активными WebSocket соединениями
//
// Сообщения адресуются пользователю: каждый клиент при подключении
// привязывается к user_id, и SendToUser доставляет сообщение всем
// его соединениям (несколько вкладок дашборда - несколько клиентов).
//
// Доставка fire-and-forget, at-most-once: медленный клиент отключается,
// а не тормозит торговые циклы.
//
// Использование:
// 1. Создать hub: hub := NewHub(logger)
// 2. Запустить в горутине: go hub.Run()
// 3. Отправлять сообщения: hub.SendStateUpdate(userID, state)
type Hub struct {
	// Зарегистрированные клиенты
	clients map[*Client]bool

	// Регистрация нового клиента
	register chan *Client

	// Отмена регистрации клиента
	unregister chan *Client

	logger *zap.Logger

	// Mutex для потокобезопасного доступа к clients
	mu sync.RWMutex
}

// NewHub создает новый Hub
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		logger:     logger,
	}
}

// Run запускает главный цикл Hub
//
// Должен запускаться в отдельной горутине: go hub.Run()
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.mu.Unlock()
			h.logger.Info("ws client connected",
				zap.String("user_id", client.userID),
				zap.Int("total", total))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			total := len(h.clients)
			h.mu.Unlock()
			h.logger.Info("ws client disconnected",
				zap.String("user_id", client.userID),
				zap.Int("total", total))
		}
	}
}

// SendToUser сериализует сообщение и доставляет его всем соединениям пользователя
//
// ИНВАРИАНТ: send-каналы клиентов закрываются только под write-lock
// (Run/unregister и удаление медленных клиентов ниже), а любая отправка
// выполняется под read-lock. Отправка неблокирующая, поэтому RLock
// удерживается на время select без ожидания - и отправка в закрытый
// канал исключена. Клиент с переполненным буфером не успевает и
// отключается
func (h *Hub) SendToUser(userID string, message interface{}) {
	data, err := json.Marshal(message)
	if err != nil {
		h.logger.Error("ws message marshal failed", zap.Error(err))
		return
	}

	h.mu.RLock()
	var toRemove []*Client
	for client := range h.clients {
		if client.userID != userID {
			continue
		}
		select {
		case client.send <- data:
		default:
			toRemove = append(toRemove, client)
		}
	}
	h.mu.RUnlock()

	if len(toRemove) > 0 {
		h.mu.Lock()
		for _, client := range toRemove {
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
		}
		h.mu.Unlock()
		h.logger.Warn("removed slow ws clients",
			zap.String("user_id", userID),
			zap.Int("count", len(toRemove)))
	}
}

// SendStateUpdate отправляет состояние бота подписчикам пользователя
func (h *Hub) SendStateUpdate(userID string, state *models.BotState) {
	h.SendToUser(userID, NewStateUpdateMessage(state))
}

// SendBotLog отправляет запись журнала подписчикам пользователя
func (h *Hub) SendBotLog(userID string, entry *models.BotLog) {
	h.SendToUser(userID, NewBotLogMessage(entry))
}

// ClientCount возвращает количество подключенных клиентов
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// UserClientCount возвращает количество соединений пользователя
func (h *Hub) UserClientCount(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	count := 0
	for client := range h.clients {
		if client.userID == userID {
			count++
		}
	}
	return count
}
