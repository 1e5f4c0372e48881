package bot

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"autofutures/internal/config"
	"autofutures/internal/models"
)

// ============================================================================
// СУПЕРВИЗОР ТОРГОВЫХ ЦИКЛОВ
// ============================================================================

var (
	// ErrStopPending - цикл ключа еще дорабатывает последний тик после Stop
	ErrStopPending = errors.New("bot is stopping, wait for the current tick to finish")

	// ErrNotRunning - для ключа нет активного цикла
	ErrNotRunning = errors.New("bot is not running")
)

// botJob - запись реестра об одном работающем цикле
type botJob struct {
	quit      chan struct{}
	done      chan struct{}
	cancel    context.CancelFunc
	running   bool
	startedAt time.Time
}

// Supervisor владеет реестром торговых циклов и их жизненным циклом
//
// На ключ (пользователь, символ) существует не более одного цикла.
// Start/Stop идемпотентны. Запись остается в реестре до фактического
// выхода горутины цикла - она сама удаляет себя под мьютексом
type Supervisor struct {
	cfg    config.BotConfig
	logger *zap.Logger

	settings  SettingsStore
	positions PositionStore
	fetcher   *SnapshotFetcher
	executor  *OrderExecutor
	spread    *SpreadCalculator
	publisher *StatePublisher
	journal   *journal

	mu   sync.Mutex
	jobs map[models.Key]*botJob
}

// NewSupervisor создает супервизор
func NewSupervisor(
	cfg config.BotConfig,
	settings SettingsStore,
	positions PositionStore,
	logs LogStore,
	gateways GatewaySource,
	pool *WorkerPool,
	publisher *StatePublisher,
	hub EventPublisher,
	logger *zap.Logger,
) *Supervisor {
	return &Supervisor{
		cfg:       cfg,
		logger:    logger,
		settings:  settings,
		positions: positions,
		fetcher:   NewSnapshotFetcher(gateways, pool, cfg, logger),
		executor:  NewOrderExecutor(gateways, pool, cfg, logger),
		spread:    NewSpreadCalculator(logger),
		publisher: publisher,
		journal:   newJournal(logs, hub, logger),
		jobs:      make(map[models.Key]*botJob),
	}
}

// Start запускает цикл ключа
//
// Повторный Start работающего ключа - no-op. Если предыдущий цикл
// еще дорабатывает тик после Stop, возвращается ErrStopPending -
// клиент повторяет запрос через секунду
func (s *Supervisor) Start(userID, symbol string) error {
	key := models.NewKey(userID, symbol)

	s.mu.Lock()
	defer s.mu.Unlock()

	if job, ok := s.jobs[key]; ok {
		if job.running {
			s.logger.Info("start ignored, bot already running",
				zap.String("key", key.String()))
			return nil
		}
		return ErrStopPending
	}

	ctx, cancel := context.WithCancel(context.Background())
	job := &botJob{
		quit:      make(chan struct{}),
		done:      make(chan struct{}),
		cancel:    cancel,
		running:   true,
		startedAt: time.Now().UTC(),
	}
	s.jobs[key] = job

	l := &loop{
		key:       key,
		cfg:       s.cfg,
		logger:    s.logger,
		settings:  s.settings,
		fetcher:   s.fetcher,
		spread:    s.spread,
		executor:  s.executor,
		positions: s.positions,
		publisher: s.publisher,
		journal:   s.journal,
		window:    NewTickWindow(s.cfg.TickWindowSize),
	}

	go func() {
		ActiveLoops.Inc()
		defer func() {
			ActiveLoops.Dec()
			s.mu.Lock()
			delete(s.jobs, key)
			s.mu.Unlock()
			close(job.done)
		}()
		l.run(ctx, job.quit)
	}()

	s.logger.Info("control loop started", zap.String("key", key.String()))
	return nil
}

// Stop сигнализирует циклу ключа остановиться
//
// Текущий тик всегда доводится до конца: ордер в полете никогда не
// прерывается. Открытые позиции остаются как есть
func (s *Supervisor) Stop(userID, symbol string) error {
	key := models.NewKey(userID, symbol)

	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[key]
	if !ok {
		return ErrNotRunning
	}
	if !job.running {
		// Повторный Stop во время дренажа - no-op
		return nil
	}

	job.running = false
	close(job.quit)

	s.logger.Info("stop requested", zap.String("key", key.String()))
	return nil
}

// IsRunning сообщает, работает ли цикл ключа
func (s *Supervisor) IsRunning(userID, symbol string) bool {
	key := models.NewKey(userID, symbol)

	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[key]
	return ok && job.running
}

// GetState возвращает последнее опубликованное состояние ключа
func (s *Supervisor) GetState(userID, symbol string) *models.BotState {
	state := s.publisher.GetState(models.NewKey(userID, symbol))
	if state != nil && !s.IsRunning(userID, symbol) {
		copied := *state
		copied.IsActive = false
		return &copied
	}
	return state
}

// GetActivePositions возвращает активные позиции пользователя по всем символам
func (s *Supervisor) GetActivePositions(ctx context.Context, userID string) ([]*models.Position, error) {
	return s.positions.GetActive(ctx, userID)
}

// GetHistory возвращает завершенные сделки пользователя
func (s *Supervisor) GetHistory(ctx context.Context, userID string, limit int) ([]*models.Position, error) {
	return s.positions.GetHistory(ctx, userID, limit)
}

// Running возвращает количество активных циклов
func (s *Supervisor) Running() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

// Shutdown останавливает все циклы и ждет их завершения
//
// Каждому циклу дается дорабочий тик; если ctx истекает раньше,
// контексты циклов отменяются жестко
func (s *Supervisor) Shutdown(ctx context.Context) {
	s.mu.Lock()
	jobs := make([]*botJob, 0, len(s.jobs))
	for key, job := range s.jobs {
		if job.running {
			job.running = false
			close(job.quit)
		}
		jobs = append(jobs, job)
		s.logger.Info("shutting down control loop", zap.String("key", key.String()))
	}
	s.mu.Unlock()

	for _, job := range jobs {
		select {
		case <-job.done:
		case <-ctx.Done():
			job.cancel()
		}
	}
}
