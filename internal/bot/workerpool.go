package bot

import "context"

// WorkerPool - ограничитель одновременных блокирующих вызовов
//
// Все сетевые вызовы к биржам идут через общий пул: медленная биржа
// одного ключа занимает слот, но не задерживает тики других ключей
// (горутины-владельцы тиков никогда не блокируются сверх таймаута вызова)
type WorkerPool struct {
	sem chan struct{}
}

// NewWorkerPool создает пул на size одновременных вызовов
func NewWorkerPool(size int) *WorkerPool {
	if size <= 0 {
		size = 16
	}
	return &WorkerPool{sem: make(chan struct{}, size)}
}

// Do выполняет fn, удерживая слот пула
//
// Ожидание слота прерывается контекстом - вызов с таймаутом не может
// зависнуть в очереди дольше своего дедлайна
func (p *WorkerPool) Do(ctx context.Context, fn func()) error {
	select {
	case p.sem <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-p.sem }()

	fn()
	return nil
}

// InFlight возвращает количество занятых слотов (для мониторинга)
func (p *WorkerPool) InFlight() int {
	return len(p.sem)
}

// Size возвращает емкость пула
func (p *WorkerPool) Size() int {
	return cap(p.sem)
}
