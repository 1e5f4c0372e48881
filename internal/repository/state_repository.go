package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"autofutures/internal/models"
)

// Ошибки репозитория состояний
var (
	ErrStateNotFound = errors.New("bot state not found")
)

// StateRepository - работа с таблицей bot_states
//
// На ключ (пользователь, символ) хранится одна запись, перезаписываемая
// каждый тик. Полезная нагрузка сериализуется в JSON целиком: схема
// состояния меняется чаще схемы БД
type StateRepository struct {
	db *sql.DB
}

// NewStateRepository создает новый экземпляр репозитория
func NewStateRepository(db *sql.DB) *StateRepository {
	return &StateRepository{db: db}
}

// SaveState перезаписывает состояние ключа (last-writer-wins)
func (r *StateRepository) SaveState(ctx context.Context, state *models.BotState) error {
	payload, err := json.Marshal(state)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO bot_states (user_id, symbol, is_active, started_at, payload, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id, symbol) DO UPDATE SET
			is_active = EXCLUDED.is_active,
			started_at = EXCLUDED.started_at,
			payload = EXCLUDED.payload,
			updated_at = EXCLUDED.updated_at`

	_, err = r.db.ExecContext(ctx, query,
		state.UserID,
		state.Symbol,
		state.IsActive,
		state.StartedAt,
		payload,
		time.Now().UTC(),
	)

	return err
}

// GetState возвращает последнее сохраненное состояние ключа
func (r *StateRepository) GetState(ctx context.Context, userID, symbol string) (*models.BotState, error) {
	query := `
		SELECT payload
		FROM bot_states
		WHERE user_id = $1 AND symbol = $2`

	var payload []byte
	err := r.db.QueryRowContext(ctx, query, userID, symbol).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrStateNotFound
		}
		return nil, err
	}

	state := &models.BotState{}
	if err := json.Unmarshal(payload, state); err != nil {
		return nil, err
	}

	return state, nil
}

// MarkStopped помечает состояние ключа неактивным без перезаписи payload
func (r *StateRepository) MarkStopped(ctx context.Context, userID, symbol string) error {
	query := `
		UPDATE bot_states
		SET is_active = false, updated_at = $1
		WHERE user_id = $2 AND symbol = $3`

	_, err := r.db.ExecContext(ctx, query, time.Now().UTC(), userID, symbol)
	return err
}
