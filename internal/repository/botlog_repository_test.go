package repository

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"autofutures/internal/models"
)

// ============================================================
// BotLogRepository Tests
// ============================================================

func TestBotLogRepositoryCreate(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	rows := sqlmock.NewRows([]string{"id"}).AddRow(7)
	mock.ExpectQuery(`INSERT INTO bot_logs`).
		WillReturnRows(rows)

	repo := NewBotLogRepository(db)
	entry := &models.BotLog{
		UserID:    "42",
		Symbol:    "BTC",
		LogType:   models.LogTypeOpen,
		Message:   "Арбитраж открыт",
		Details:   map[string]interface{}{"pnl": 1.5},
		CreatedAt: time.Now(),
	}

	if err := repo.Create(context.Background(), entry); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if entry.ID != 7 {
		t.Errorf("id = %d, want 7", entry.ID)
	}
}

func TestBotLogRepositoryGetRecent(t *testing.T) {
	details, _ := json.Marshal(map[string]interface{}{"position_id": "abc"})
	now := time.Now()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	rows := sqlmock.NewRows([]string{"id", "user_id", "symbol", "log_type", "message", "details", "created_at"}).
		AddRow(2, "42", "BTC", models.LogTypeClose, "Позиции закрыты", details, now).
		AddRow(1, "42", "BTC", models.LogTypeInfo, "Бот запущен", nil, now.Add(-time.Minute))

	mock.ExpectQuery(`SELECT .+ FROM bot_logs`).
		WithArgs("42", "BTC", 20).
		WillReturnRows(rows)

	repo := NewBotLogRepository(db)
	logs, err := repo.GetRecent(context.Background(), "42", "BTC", 20)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(logs) != 2 {
		t.Fatalf("got %d logs, want 2", len(logs))
	}
	if logs[0].Details["position_id"] != "abc" {
		t.Errorf("details not restored: %v", logs[0].Details)
	}
	if logs[1].Details != nil {
		t.Errorf("empty details should stay nil, got %v", logs[1].Details)
	}
}

func TestBotLogRepositoryPrune(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	mock.ExpectExec(`DELETE FROM bot_logs`).
		WithArgs("42", "BTC", 200).
		WillReturnResult(sqlmock.NewResult(0, 15))

	repo := NewBotLogRepository(db)
	if err := repo.Prune(context.Background(), "42", "BTC", 200); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
