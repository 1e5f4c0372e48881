package bot

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"autofutures/internal/exchange"
	"autofutures/internal/models"
)

// ============================================================
// Бенчмарки Hot Path тика
// ============================================================
//
// Тик укладывается в секундный период с большим запасом: расчет
// спреда и решение - чистая арифметика, все сетевые вызовы вынесены
// в fetcher/executor

func BenchmarkSpreadCompute(b *testing.B) {
	sc := NewSpreadCalculator(zap.NewNop())
	pair := realPair(99.9, 100.0, 100.5, 100.4)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = sc.Compute(pair, models.SideLong)
	}
}

func BenchmarkDecide(b *testing.B) {
	settings := testSettings()
	sample := models.SpreadSample{OpenSpread: 0.25, CloseSpread: 0.01}
	active := []*models.Position{openPosition("p1")}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = Decide(settings, sample, true, active)
	}
}

func BenchmarkTickWindowAppend(b *testing.B) {
	w := NewTickWindow(DefaultTickWindowSize)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		v := float64(i)
		w.Append(v, v, v)
	}
}

func BenchmarkFullTick(b *testing.B) {
	gw1 := &fakeGateway{name: "bybit", snap: liveSnapshot("bybit", 99.9, 100.0)}
	gw2 := &fakeGateway{name: "gateio", snap: liveSnapshot("gateio", 100.1, 100.2)}
	fx := newTestLoop(testSettings(), newFakeSource(gw1, gw2))
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		fx.loop.tick(ctx)
	}
}

func BenchmarkPlaceOrderThroughPool(b *testing.B) {
	gw := &fakeGateway{name: "bybit"}
	for i := 0; i < b.N; i++ {
		gw.orders = append(gw.orders, scriptedOrder{fill: &exchange.Fill{Price: 100, Amount: 1}})
	}
	oe := newTestExecutor(newFakeSource(gw))
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = oe.placeOrder(ctx, "42", "bybit", "BTC", exchange.SideBuy, 1)
	}
}
