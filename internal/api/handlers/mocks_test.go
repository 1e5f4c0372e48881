package handlers

import (
	"context"
	"errors"

	"autofutures/internal/models"
)

// ErrMockDatabase - имитация ошибки БД в моках
var ErrMockDatabase = errors.New("mock database error")

// ============ MockBotController ============

type MockBotController struct {
	running   map[string]bool
	states    map[string]*models.BotState
	positions []*models.Position
	history   []*models.Position
	errs      map[string]error
}

func NewMockBotController() *MockBotController {
	return &MockBotController{
		running: make(map[string]bool),
		states:  make(map[string]*models.BotState),
		errs:    make(map[string]error),
	}
}

func (m *MockBotController) SetError(op string, err error) {
	m.errs[op] = err
}

func (m *MockBotController) Start(userID, symbol string) error {
	if err := m.errs["start"]; err != nil {
		return err
	}
	m.running[userID+":"+symbol] = true
	return nil
}

func (m *MockBotController) Stop(userID, symbol string) error {
	if err := m.errs["stop"]; err != nil {
		return err
	}
	delete(m.running, userID+":"+symbol)
	return nil
}

func (m *MockBotController) IsRunning(userID, symbol string) bool {
	return m.running[userID+":"+symbol]
}

func (m *MockBotController) GetState(userID, symbol string) *models.BotState {
	return m.states[userID+":"+symbol]
}

func (m *MockBotController) GetActivePositions(ctx context.Context, userID string) ([]*models.Position, error) {
	if err := m.errs["positions"]; err != nil {
		return nil, err
	}
	return m.positions, nil
}

func (m *MockBotController) GetHistory(ctx context.Context, userID string, limit int) ([]*models.Position, error) {
	if err := m.errs["history"]; err != nil {
		return nil, err
	}
	if limit < len(m.history) {
		return m.history[:limit], nil
	}
	return m.history, nil
}

// ============ MockLogReader ============

type MockLogReader struct {
	logs []*models.BotLog
	err  error
}

func (m *MockLogReader) GetRecent(ctx context.Context, userID, symbol string, limit int) ([]*models.BotLog, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.logs, nil
}

// ============ MockSettingsReader ============

type MockSettingsReader struct {
	stored map[string]*models.SymbolSettings
	errs   map[string]error
}

func NewMockSettingsReader() *MockSettingsReader {
	return &MockSettingsReader{
		stored: make(map[string]*models.SymbolSettings),
		errs:   make(map[string]error),
	}
}

func (m *MockSettingsReader) SetError(op string, err error) {
	m.errs[op] = err
}

func (m *MockSettingsReader) GetSettings(ctx context.Context, userID, symbol string) (*models.SymbolSettings, error) {
	if err := m.errs["get"]; err != nil {
		return nil, err
	}
	if s, ok := m.stored[userID+":"+symbol]; ok {
		return s, nil
	}
	return models.DefaultSymbolSettings(userID, symbol), nil
}

func (m *MockSettingsReader) List(ctx context.Context, userID string) ([]*models.SymbolSettings, error) {
	if err := m.errs["list"]; err != nil {
		return nil, err
	}
	var result []*models.SymbolSettings
	for _, s := range m.stored {
		if s.UserID == userID {
			result = append(result, s)
		}
	}
	return result, nil
}

func (m *MockSettingsReader) Upsert(ctx context.Context, settings *models.SymbolSettings) error {
	if err := m.errs["upsert"]; err != nil {
		return err
	}
	m.stored[settings.UserID+":"+settings.Symbol] = settings
	return nil
}

func (m *MockSettingsReader) SetStopFlags(ctx context.Context, userID, symbol string, forceStop, totalStop bool) error {
	if err := m.errs["flags"]; err != nil {
		return err
	}
	if s, ok := m.stored[userID+":"+symbol]; ok {
		s.ForceStop = forceStop
		s.TotalStop = totalStop
	}
	return nil
}
