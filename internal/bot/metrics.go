package bot

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ============================================================
// Prometheus метрики торгового ядра
// ============================================================
//
// Использование:
// - Grafana дашборды для визуализации
// - Alertmanager для уведомлений о half-open позициях и деградации

// ============ Метрики тиков ============

// TickDuration - длительность полного тика одного ключа
var TickDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: "autofutures",
		Subsystem: "engine",
		Name:      "tick_duration_seconds",
		Help:      "Duration of one control loop tick",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
	},
	[]string{"symbol"},
)

// TickPanics - паники, перехваченные на верхнем уровне тика
var TickPanics = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: "autofutures",
		Subsystem: "engine",
		Name:      "tick_panics_total",
		Help:      "Total number of recovered panics inside ticks",
	},
)

// ============ Метрики рыночных данных ============

// SnapshotFailures - сбои запросов котировок по биржам
var SnapshotFailures = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "autofutures",
		Subsystem: "engine",
		Name:      "snapshot_failures_total",
		Help:      "Failed venue snapshot fetches",
	},
	[]string{"exchange", "reason"}, // reason: no_client, fetch
)

// DegradedTicks - тики без живых данных обеих бирж (real_market=false)
var DegradedTicks = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "autofutures",
		Subsystem: "engine",
		Name:      "degraded_ticks_total",
		Help:      "Ticks running on synthetic market data",
	},
	[]string{"symbol"},
)

// ============ Метрики исполнения ============

// OrdersTotal - размещенные рыночные ордера
var OrdersTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "autofutures",
		Subsystem: "engine",
		Name:      "orders_total",
		Help:      "Market orders submitted to venues",
	},
	[]string{"exchange", "side", "result"}, // result: filled, failed
)

// HalfOpenPositions - позиции с единственной открытой ногой
//
// Любое ненулевое значение требует вмешательства оператора
var HalfOpenPositions = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: "autofutures",
		Subsystem: "engine",
		Name:      "half_open_positions_total",
		Help:      "Positions left with only leg 1 filled",
	},
)

// PnlRealized - суммарный реализованный PNL в USDT.
// Gauge, а не counter: PNL бывает отрицательным
var PnlRealized = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: "autofutures",
		Subsystem: "engine",
		Name:      "pnl_realized_usdt",
		Help:      "Total realized PnL in USDT",
	},
)

// ============ Метрики публикации ============

// PublishErrors - сбои сохранения/рассылки состояния
var PublishErrors = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "autofutures",
		Subsystem: "engine",
		Name:      "publish_errors_total",
		Help:      "State publish failures by stage",
	},
	[]string{"stage"}, // persist, broadcast
)

// ============ Метрики супервизора ============

// ActiveLoops - количество работающих торговых циклов
var ActiveLoops = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: "autofutures",
		Subsystem: "engine",
		Name:      "active_loops",
		Help:      "Currently running control loops",
	},
)
