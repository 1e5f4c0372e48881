package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"autofutures/internal/models"
)

// ============================================================
// SettingsRepository Tests
// ============================================================

func TestNewSettingsRepository(t *testing.T) {
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	repo := NewSettingsRepository(db)
	if repo == nil {
		t.Fatal("NewSettingsRepository returned nil")
	}
	if repo.db != db {
		t.Error("db not set correctly")
	}
}

func settingsRows(s *models.SymbolSettings) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"user_id", "symbol", "exchange_1", "exchange_2", "side", "open_spread",
		"close_spread", "order_size", "max_orders", "force_stop", "total_stop",
		"created_at", "updated_at",
	}).AddRow(
		s.UserID, s.Symbol, s.Exchange1, s.Exchange2, s.Side, s.OpenSpread,
		s.CloseSpread, s.OrderSize, s.MaxOrders, s.ForceStop, s.TotalStop,
		s.CreatedAt, s.UpdatedAt,
	)
}

func TestSettingsRepositoryGetSettings(t *testing.T) {
	now := time.Now()
	stored := &models.SymbolSettings{
		UserID:      "42",
		Symbol:      "BTC",
		Exchange1:   "bybit",
		Exchange2:   "gateio",
		Side:        models.SideShort,
		OpenSpread:  0.5,
		CloseSpread: 0.1,
		OrderSize:   0.01,
		MaxOrders:   3,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	tests := []struct {
		name        string
		mockSetup   func(mock sqlmock.Sqlmock)
		check       func(t *testing.T, s *models.SymbolSettings)
		expectError bool
	}{
		{
			name: "success",
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT .+ FROM symbol_settings`).
					WithArgs("42", "BTC").
					WillReturnRows(settingsRows(stored))
			},
			check: func(t *testing.T, s *models.SymbolSettings) {
				if s.Side != models.SideShort {
					t.Errorf("side = %s, want SHORT", s.Side)
				}
				if s.OpenSpread != 0.5 {
					t.Errorf("open_spread = %f, want 0.5", s.OpenSpread)
				}
			},
		},
		{
			name: "not found - provisions defaults",
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT .+ FROM symbol_settings`).
					WithArgs("42", "BTC").
					WillReturnError(sql.ErrNoRows)
				mock.ExpectExec(`INSERT INTO symbol_settings`).
					WillReturnResult(sqlmock.NewResult(1, 1))
			},
			check: func(t *testing.T, s *models.SymbolSettings) {
				if s.Exchange1 != "bybit" || s.Exchange2 != "gateio" {
					t.Errorf("default exchanges = %s/%s", s.Exchange1, s.Exchange2)
				}
				if s.Side != models.SideLong {
					t.Errorf("default side = %s, want LONG", s.Side)
				}
				if s.OpenSpread != 0.2 || s.CloseSpread != 0.05 {
					t.Errorf("default spreads = %f/%f", s.OpenSpread, s.CloseSpread)
				}
				if s.MaxOrders != 1 {
					t.Errorf("default max_orders = %d, want 1", s.MaxOrders)
				}
			},
		},
		{
			name: "db error",
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT .+ FROM symbol_settings`).
					WithArgs("42", "BTC").
					WillReturnError(sql.ErrConnDone)
			},
			expectError: true,
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

			repo := NewSettingsRepository(db)
			result, err := repo.GetSettings(context.Background(), "42", "BTC")

			if tt.expectError {
				if err == nil {
					t.Error("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			tt.check(t, result)

			if err := mock.ExpectationsWereMet(); err != nil {
				t.Errorf("unmet expectations: %v", err)
			}
		})
	}
}

func TestSettingsRepositorySetStopFlags(t *testing.T) {
	tests := []struct {
		name        string
		mockSetup   func(mock sqlmock.Sqlmock)
		expectError error
	}{
		{
			name: "success",
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`UPDATE symbol_settings`).
					WithArgs(true, false, sqlmock.AnyArg(), "42", "BTC").
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
		},
		{
			name: "not found",
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`UPDATE symbol_settings`).
					WithArgs(true, false, sqlmock.AnyArg(), "42", "BTC").
					WillReturnResult(sqlmock.NewResult(0, 0))
			},
			expectError: ErrSettingsNotFound,
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

			repo := NewSettingsRepository(db)
			err = repo.SetStopFlags(context.Background(), "42", "BTC", true, false)

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

func TestSettingsRepositoryUpsert(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	mock.ExpectExec(`INSERT INTO symbol_settings`).
		WillReturnResult(sqlmock.NewResult(1, 1))

	repo := NewSettingsRepository(db)
	settings := models.DefaultSymbolSettings("42", "ETH")
	settings.CreatedAt = time.Time{}

	if err := repo.Upsert(context.Background(), settings); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if settings.CreatedAt.IsZero() {
		t.Error("CreatedAt not backfilled on upsert")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
