package repository

import (
	"context"
	"database/sql"
	"encoding/json"

	"autofutures/internal/models"
)

// BotLogRepository - работа с таблицей bot_logs (журнал активности)
type BotLogRepository struct {
	db *sql.DB
}

// NewBotLogRepository создает новый экземпляр репозитория
func NewBotLogRepository(db *sql.DB) *BotLogRepository {
	return &BotLogRepository{db: db}
}

// Create добавляет запись в журнал
func (r *BotLogRepository) Create(ctx context.Context, entry *models.BotLog) error {
	var details []byte
	if entry.Details != nil {
		var err error
		details, err = json.Marshal(entry.Details)
		if err != nil {
			return err
		}
	}

	query := `
		INSERT INTO bot_logs (user_id, symbol, log_type, message, details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`

	return r.db.QueryRowContext(ctx, query,
		entry.UserID,
		entry.Symbol,
		entry.LogType,
		entry.Message,
		details,
		entry.CreatedAt,
	).Scan(&entry.ID)
}

// GetRecent возвращает последние записи журнала ключа (пользователь, символ)
func (r *BotLogRepository) GetRecent(ctx context.Context, userID, symbol string, limit int) ([]*models.BotLog, error) {
	query := `
		SELECT id, user_id, symbol, log_type, message, details, created_at
		FROM bot_logs
		WHERE user_id = $1 AND symbol = $2
		ORDER BY created_at DESC
		LIMIT $3`

	rows, err := r.db.QueryContext(ctx, query, userID, symbol, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []*models.BotLog
	for rows.Next() {
		entry := &models.BotLog{}
		var details []byte
		err := rows.Scan(
			&entry.ID,
			&entry.UserID,
			&entry.Symbol,
			&entry.LogType,
			&entry.Message,
			&details,
			&entry.CreatedAt,
		)
		if err != nil {
			return nil, err
		}

		if len(details) > 0 {
			if err := json.Unmarshal(details, &entry.Details); err != nil {
				return nil, err
			}
		}

		logs = append(logs, entry)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return logs, nil
}

// Prune удаляет записи журнала старше последних keep штук на ключ
//
// Журнал растет на каждом событии тика; без обрезки таблица бесконечна
func (r *BotLogRepository) Prune(ctx context.Context, userID, symbol string, keep int) error {
	query := `
		DELETE FROM bot_logs
		WHERE user_id = $1 AND symbol = $2 AND id NOT IN (
			SELECT id FROM bot_logs
			WHERE user_id = $1 AND symbol = $2
			ORDER BY created_at DESC
			LIMIT $3
		)`

	_, err := r.db.ExecContext(ctx, query, userID, symbol, keep)
	return err
}
