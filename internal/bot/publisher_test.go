package bot

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"autofutures/internal/models"
)

// ============================================================
// StatePublisher Tests
// ============================================================

func TestStatePublisherPublish(t *testing.T) {
	store := &fakeStateStore{}
	hub := &fakeHub{}
	sp := NewStatePublisher(store, hub, zap.NewNop())

	state := &models.BotState{UserID: "42", Symbol: "BTC", IsActive: true}
	sp.Publish(context.Background(), state)

	if store.savedCount() != 1 {
		t.Errorf("saved states = %d, want 1", store.savedCount())
	}
	if hub.stateCount() != 1 {
		t.Errorf("hub states = %d, want 1", hub.stateCount())
	}
	if state.LastUpdate.IsZero() {
		t.Error("LastUpdate must be stamped on publish")
	}

	got := sp.GetState(models.NewKey("42", "BTC"))
	if got == nil || got.Symbol != "BTC" {
		t.Errorf("GetState = %+v, want published state", got)
	}
}

// Сбой сохранения не фатален: состояние остается в памяти и уходит
// подписчикам
func TestStatePublisherPersistFailure(t *testing.T) {
	store := &fakeStateStore{err: errMockExchange}
	hub := &fakeHub{}
	sp := NewStatePublisher(store, hub, zap.NewNop())

	// Короткий дедлайн обрывает retry сохранения, не дожидаясь всех попыток
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	state := &models.BotState{UserID: "42", Symbol: "BTC"}
	sp.Publish(ctx, state)

	if hub.stateCount() != 1 {
		t.Errorf("hub states = %d, want 1 despite persist failure", hub.stateCount())
	}
	if got := sp.GetState(models.NewKey("42", "BTC")); got == nil {
		t.Error("in-memory state must survive persist failure")
	}
}

func TestStatePublisherOverwrite(t *testing.T) {
	sp := NewStatePublisher(&fakeStateStore{}, &fakeHub{}, zap.NewNop())

	sp.Publish(context.Background(), &models.BotState{UserID: "42", Symbol: "BTC", OpenPositions: 0})
	sp.Publish(context.Background(), &models.BotState{UserID: "42", Symbol: "BTC", OpenPositions: 1})

	got := sp.GetState(models.NewKey("42", "BTC"))
	if got.OpenPositions != 1 {
		t.Errorf("OpenPositions = %d, want latest value 1", got.OpenPositions)
	}
}

func TestStatePublisherMarkStopped(t *testing.T) {
	sp := NewStatePublisher(&fakeStateStore{}, &fakeHub{}, zap.NewNop())
	key := models.NewKey("42", "BTC")

	sp.Publish(context.Background(), &models.BotState{UserID: "42", Symbol: "BTC", IsActive: true})
	sp.MarkStopped(context.Background(), key)

	got := sp.GetState(key)
	if got == nil {
		t.Fatal("state must survive MarkStopped")
	}
	if got.IsActive {
		t.Error("IsActive must be false after MarkStopped")
	}
}

func TestStatePublisherGetStateMiss(t *testing.T) {
	sp := NewStatePublisher(&fakeStateStore{}, &fakeHub{}, zap.NewNop())

	if got := sp.GetState(models.NewKey("42", "ETH")); got != nil {
		t.Errorf("GetState for unknown key = %+v, want nil", got)
	}
}
