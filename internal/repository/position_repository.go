package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"autofutures/internal/models"
)

// Ошибки репозитория позиций
var (
	ErrPositionNotFound = errors.New("position not found")
)

// PositionRepository - работа с таблицей positions
//
// Ноги хранятся JSON-колонками: состав ноги (цены, комиссии, filled)
// читается и пишется только целиком
type PositionRepository struct {
	db *sql.DB
}

// NewPositionRepository создает новый экземпляр репозитория
func NewPositionRepository(db *sql.DB) *PositionRepository {
	return &PositionRepository{db: db}
}

// Create создает запись о позиции
func (r *PositionRepository) Create(ctx context.Context, pos *models.Position) error {
	leg1, leg2, err := marshalLegs(pos)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO positions (id, user_id, symbol, side, leg_1, leg_2, entry_spread, notional,
		                       pnl, pnl_percent, fees, status, phase, half_open, opened_at, closed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`

	_, err = r.db.ExecContext(ctx, query,
		pos.ID,
		pos.UserID,
		pos.Symbol,
		pos.Side,
		leg1,
		leg2,
		pos.EntrySpread,
		pos.Notional,
		pos.Pnl,
		pos.PnlPercent,
		pos.Fees,
		pos.Status,
		pos.Phase,
		pos.HalfOpen,
		pos.OpenedAt,
		pos.ClosedAt,
	)

	return err
}

// Update обновляет изменяемые поля позиции
func (r *PositionRepository) Update(ctx context.Context, pos *models.Position) error {
	leg1, leg2, err := marshalLegs(pos)
	if err != nil {
		return err
	}

	query := `
		UPDATE positions
		SET leg_1 = $1, leg_2 = $2, pnl = $3, pnl_percent = $4, fees = $5,
		    status = $6, phase = $7, half_open = $8, closed_at = $9
		WHERE id = $10`

	result, err := r.db.ExecContext(ctx, query,
		leg1,
		leg2,
		pos.Pnl,
		pos.PnlPercent,
		pos.Fees,
		pos.Status,
		pos.Phase,
		pos.HalfOpen,
		pos.ClosedAt,
		pos.ID,
	)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrPositionNotFound
	}

	return nil
}

// GetActive возвращает активные позиции пользователя по всем символам
func (r *PositionRepository) GetActive(ctx context.Context, userID string) ([]*models.Position, error) {
	query := selectPositions + `
		WHERE user_id = $1 AND status = $2
		ORDER BY opened_at`

	return r.queryPositions(ctx, query, userID, models.PositionActive)
}

// GetActiveBySymbol возвращает активные позиции ключа (пользователь, символ)
func (r *PositionRepository) GetActiveBySymbol(ctx context.Context, userID, symbol string) ([]*models.Position, error) {
	query := selectPositions + `
		WHERE user_id = $1 AND symbol = $2 AND status = $3
		ORDER BY opened_at`

	return r.queryPositions(ctx, query, userID, symbol, models.PositionActive)
}

// GetHistory возвращает последние завершенные позиции пользователя
func (r *PositionRepository) GetHistory(ctx context.Context, userID string, limit int) ([]*models.Position, error) {
	query := selectPositions + `
		WHERE user_id = $1 AND status = $2
		ORDER BY closed_at DESC
		LIMIT $3`

	return r.queryPositions(ctx, query, userID, models.PositionCompleted, limit)
}

const selectPositions = `
	SELECT id, user_id, symbol, side, leg_1, leg_2, entry_spread, notional,
	       pnl, pnl_percent, fees, status, phase, half_open, opened_at, closed_at
	FROM positions`

// queryPositions выполняет выборку и сканирует строки в модели
func (r *PositionRepository) queryPositions(ctx context.Context, query string, args ...interface{}) ([]*models.Position, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var positions []*models.Position
	for rows.Next() {
		pos := &models.Position{}
		var leg1, leg2 []byte
		err := rows.Scan(
			&pos.ID,
			&pos.UserID,
			&pos.Symbol,
			&pos.Side,
			&leg1,
			&leg2,
			&pos.EntrySpread,
			&pos.Notional,
			&pos.Pnl,
			&pos.PnlPercent,
			&pos.Fees,
			&pos.Status,
			&pos.Phase,
			&pos.HalfOpen,
			&pos.OpenedAt,
			&pos.ClosedAt,
		)
		if err != nil {
			return nil, err
		}

		if err := json.Unmarshal(leg1, &pos.Leg1); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(leg2, &pos.Leg2); err != nil {
			return nil, err
		}

		positions = append(positions, pos)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return positions, nil
}

// marshalLegs сериализует обе ноги позиции
func marshalLegs(pos *models.Position) ([]byte, []byte, error) {
	leg1, err := json.Marshal(pos.Leg1)
	if err != nil {
		return nil, nil, err
	}
	leg2, err := json.Marshal(pos.Leg2)
	if err != nil {
		return nil, nil, err
	}
	return leg1, leg2, nil
}
