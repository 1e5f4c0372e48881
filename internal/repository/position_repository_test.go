package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"autofutures/internal/models"
)

// ============================================================
// PositionRepository Tests
// ============================================================

func testPosition() *models.Position {
	return &models.Position{
		ID:     "a1b2c3",
		UserID: "42",
		Symbol: "BTC",
		Side:   models.SideLong,
		Leg1: models.Leg{
			Exchange:   "bybit",
			Direction:  models.LegLong,
			EntryPrice: 100,
			Amount:     1,
			FeeOpen:    0.05,
			Filled:     true,
		},
		Leg2: models.Leg{
			Exchange:   "gateio",
			Direction:  models.LegShort,
			EntryPrice: 101,
			Amount:     1,
			FeeOpen:    0.0505,
			Filled:     true,
		},
		EntrySpread: 1.0,
		Notional:    201,
		Status:      models.PositionActive,
		Phase:       models.PhaseOpen,
		OpenedAt:    time.Now(),
	}
}

func positionRows(pos *models.Position) *sqlmock.Rows {
	leg1, _ := json.Marshal(pos.Leg1)
	leg2, _ := json.Marshal(pos.Leg2)
	return sqlmock.NewRows([]string{
		"id", "user_id", "symbol", "side", "leg_1", "leg_2", "entry_spread", "notional",
		"pnl", "pnl_percent", "fees", "status", "phase", "half_open", "opened_at", "closed_at",
	}).AddRow(
		pos.ID, pos.UserID, pos.Symbol, pos.Side, leg1, leg2, pos.EntrySpread, pos.Notional,
		pos.Pnl, pos.PnlPercent, pos.Fees, pos.Status, pos.Phase, pos.HalfOpen, pos.OpenedAt, pos.ClosedAt,
	)
}

func TestPositionRepositoryCreate(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	mock.ExpectExec(`INSERT INTO positions`).
		WillReturnResult(sqlmock.NewResult(1, 1))

	repo := NewPositionRepository(db)
	if err := repo.Create(context.Background(), testPosition()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPositionRepositoryUpdate(t *testing.T) {
	tests := []struct {
		name        string
		mockSetup   func(mock sqlmock.Sqlmock)
		expectError error
	}{
		{
			name: "success",
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`UPDATE positions`).
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
		},
		{
			name: "not found",
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`UPDATE positions`).
					WillReturnResult(sqlmock.NewResult(0, 0))
			},
			expectError: ErrPositionNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			if err != nil {
				t.Fatalf("failed to create mock: %v", err)
			}
			defer db.Close()

			tt.mockSetup(mock)

			repo := NewPositionRepository(db)
			err = repo.Update(context.Background(), testPosition())

			if tt.expectError != nil {
				if err != tt.expectError {
					t.Errorf("error = %v, want %v", err, tt.expectError)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestPositionRepositoryGetActiveBySymbol(t *testing.T) {
	pos := testPosition()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT .+ FROM positions`).
		WithArgs("42", "BTC", models.PositionActive).
		WillReturnRows(positionRows(pos))

	repo := NewPositionRepository(db)
	result, err := repo.GetActiveBySymbol(context.Background(), "42", "BTC")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(result) != 1 {
		t.Fatalf("got %d positions, want 1", len(result))
	}
	if result[0].Leg1.Exchange != "bybit" || result[0].Leg2.Exchange != "gateio" {
		t.Errorf("legs not restored: %s/%s", result[0].Leg1.Exchange, result[0].Leg2.Exchange)
	}
	if result[0].Leg2.Direction != models.LegShort {
		t.Errorf("leg2 direction = %s, want short", result[0].Leg2.Direction)
	}
}

func TestPositionRepositoryGetActiveEmpty(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT .+ FROM positions`).
		WithArgs("42", models.PositionActive).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "user_id", "symbol", "side", "leg_1", "leg_2", "entry_spread", "notional",
			"pnl", "pnl_percent", "fees", "status", "phase", "half_open", "opened_at", "closed_at",
		}))

	repo := NewPositionRepository(db)
	result, err := repo.GetActive(context.Background(), "42")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result) != 0 {
		t.Errorf("got %d positions, want 0", len(result))
	}
}

func TestPositionRepositoryGetHistory(t *testing.T) {
	pos := testPosition()
	pos.Status = models.PositionCompleted
	pos.Phase = models.PhaseFlat
	closedAt := time.Now()
	pos.ClosedAt = &closedAt
	pos.Pnl = 1.8

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT .+ FROM positions`).
		WithArgs("42", models.PositionCompleted, 50).
		WillReturnRows(positionRows(pos))

	repo := NewPositionRepository(db)
	result, err := repo.GetHistory(context.Background(), "42", 50)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(result) != 1 {
		t.Fatalf("got %d positions, want 1", len(result))
	}
	if result[0].Pnl != 1.8 {
		t.Errorf("pnl = %f, want 1.8", result[0].Pnl)
	}
	if result[0].ClosedAt == nil {
		t.Error("closed_at not restored")
	}
}

func TestPositionRepositoryQueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT .+ FROM positions`).
		WillReturnError(sql.ErrConnDone)

	repo := NewPositionRepository(db)
	if _, err := repo.GetActive(context.Background(), "42"); err == nil {
		t.Error("expected error, got nil")
	}
}
