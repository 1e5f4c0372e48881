package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"autofutures/internal/models"
)

// Ошибки репозитория настроек
var (
	ErrSettingsNotFound = errors.New("settings not found")
)

// SettingsRepository - работа с таблицей symbol_settings
type SettingsRepository struct {
	db *sql.DB
}

// NewSettingsRepository создает новый экземпляр репозитория
func NewSettingsRepository(db *sql.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// GetSettings возвращает настройки ключа (пользователь, символ)
//
// Если записи нет, она создается с дефолтными значениями - первый
// запуск бота по символу не требует предварительной настройки
func (r *SettingsRepository) GetSettings(ctx context.Context, userID, symbol string) (*models.SymbolSettings, error) {
	query := `
		SELECT user_id, symbol, exchange_1, exchange_2, side, open_spread, close_spread,
		       order_size, max_orders, force_stop, total_stop, created_at, updated_at
		FROM symbol_settings
		WHERE user_id = $1 AND symbol = $2`

	settings := &models.SymbolSettings{}
	err := r.db.QueryRowContext(ctx, query, userID, symbol).Scan(
		&settings.UserID,
		&settings.Symbol,
		&settings.Exchange1,
		&settings.Exchange2,
		&settings.Side,
		&settings.OpenSpread,
		&settings.CloseSpread,
		&settings.OrderSize,
		&settings.MaxOrders,
		&settings.ForceStop,
		&settings.TotalStop,
		&settings.CreatedAt,
		&settings.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return r.createDefault(ctx, userID, symbol)
		}
		return nil, err
	}

	return settings, nil
}

// List возвращает все настройки пользователя
func (r *SettingsRepository) List(ctx context.Context, userID string) ([]*models.SymbolSettings, error) {
	query := `
		SELECT user_id, symbol, exchange_1, exchange_2, side, open_spread, close_spread,
		       order_size, max_orders, force_stop, total_stop, created_at, updated_at
		FROM symbol_settings
		WHERE user_id = $1
		ORDER BY symbol`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*models.SymbolSettings
	for rows.Next() {
		settings := &models.SymbolSettings{}
		err := rows.Scan(
			&settings.UserID,
			&settings.Symbol,
			&settings.Exchange1,
			&settings.Exchange2,
			&settings.Side,
			&settings.OpenSpread,
			&settings.CloseSpread,
			&settings.OrderSize,
			&settings.MaxOrders,
			&settings.ForceStop,
			&settings.TotalStop,
			&settings.CreatedAt,
			&settings.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		result = append(result, settings)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

// Upsert создает или обновляет настройки ключа
func (r *SettingsRepository) Upsert(ctx context.Context, settings *models.SymbolSettings) error {
	query := `
		INSERT INTO symbol_settings (user_id, symbol, exchange_1, exchange_2, side, open_spread,
		                             close_spread, order_size, max_orders, force_stop, total_stop,
		                             created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (user_id, symbol) DO UPDATE SET
			exchange_1 = EXCLUDED.exchange_1,
			exchange_2 = EXCLUDED.exchange_2,
			side = EXCLUDED.side,
			open_spread = EXCLUDED.open_spread,
			close_spread = EXCLUDED.close_spread,
			order_size = EXCLUDED.order_size,
			max_orders = EXCLUDED.max_orders,
			force_stop = EXCLUDED.force_stop,
			total_stop = EXCLUDED.total_stop,
			updated_at = EXCLUDED.updated_at`

	settings.UpdatedAt = time.Now().UTC()
	if settings.CreatedAt.IsZero() {
		settings.CreatedAt = settings.UpdatedAt
	}

	_, err := r.db.ExecContext(ctx, query,
		settings.UserID,
		settings.Symbol,
		settings.Exchange1,
		settings.Exchange2,
		settings.Side,
		settings.OpenSpread,
		settings.CloseSpread,
		settings.OrderSize,
		settings.MaxOrders,
		settings.ForceStop,
		settings.TotalStop,
		settings.CreatedAt,
		settings.UpdatedAt,
	)

	return err
}

// SetStopFlags обновляет только stop-флаги ключа
//
// Отдельный метод, потому что флаги переключаются с дашборда чаще,
// чем остальные настройки
func (r *SettingsRepository) SetStopFlags(ctx context.Context, userID, symbol string, forceStop, totalStop bool) error {
	query := `
		UPDATE symbol_settings
		SET force_stop = $1, total_stop = $2, updated_at = $3
		WHERE user_id = $4 AND symbol = $5`

	result, err := r.db.ExecContext(ctx, query, forceStop, totalStop, time.Now().UTC(), userID, symbol)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrSettingsNotFound
	}

	return nil
}

// createDefault создает запись настроек с дефолтными значениями
func (r *SettingsRepository) createDefault(ctx context.Context, userID, symbol string) (*models.SymbolSettings, error) {
	settings := models.DefaultSymbolSettings(userID, symbol)

	query := `
		INSERT INTO symbol_settings (user_id, symbol, exchange_1, exchange_2, side, open_spread,
		                             close_spread, order_size, max_orders, force_stop, total_stop,
		                             created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (user_id, symbol) DO NOTHING`

	_, err := r.db.ExecContext(ctx, query,
		settings.UserID,
		settings.Symbol,
		settings.Exchange1,
		settings.Exchange2,
		settings.Side,
		settings.OpenSpread,
		settings.CloseSpread,
		settings.OrderSize,
		settings.MaxOrders,
		settings.ForceStop,
		settings.TotalStop,
		settings.CreatedAt,
		settings.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return settings, nil
}
