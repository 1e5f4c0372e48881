package exchange

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"autofutures/internal/models"
	"autofutures/pkg/ratelimit"
)

// clientKey - составной ключ пула клиентов (без конкатенации строк)
type clientKey struct {
	UserID   string
	Exchange string
}

// Factory создает подключенный Gateway для пользователя и биржи.
// Получение и дешифровка ключей API - забота реализации фабрики
type Factory func(userID, exchange string) (Gateway, error)

// Pool - пул биржевых клиентов с явным построением при промахе
//
// Заменяет ad-hoc кэш "есть в map - берем, нет - создаем":
// - построение при промахе сериализовано по ключу, но идет ВНЕ мьютекса:
//   фабрика в боевом режиме ходит в сеть, и медленное подключение одного
//   пользователя не должно блокировать Acquire остальных ключей
// - Invalidate при смене ключей API закрывает и выбрасывает клиента
// - каждый клиент оборачивается в per-venue rate limiter,
//   чтобы снапшоты и ордера не превышали лимиты биржи
type Pool struct {
	factory  Factory
	clients  map[clientKey]Gateway
	pending  map[clientKey]chan struct{} // ключи с построением в полете
	limiters map[string]*ratelimit.RateLimiter // по бирже, общие для всех пользователей
	mu       sync.Mutex
}

// NewPool создает пул клиентов
func NewPool(factory Factory) *Pool {
	return &Pool{
		factory:  factory,
		clients:  make(map[clientKey]Gateway),
		pending:  make(map[clientKey]chan struct{}),
		limiters: make(map[string]*ratelimit.RateLimiter),
	}
}

// Acquire возвращает клиента для (пользователь, биржа), создавая при промахе
//
// Конкурентные вызовы одного ключа во время построения ждут его
// завершения; мьютекс никогда не удерживается на время вызова фабрики
func (p *Pool) Acquire(userID, exchange string) (Gateway, error) {
	exchange = strings.ToLower(exchange)
	if !IsSupported(exchange) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedExchange, exchange)
	}

	key := clientKey{UserID: userID, Exchange: exchange}

	for {
		p.mu.Lock()
		if client, ok := p.clients[key]; ok {
			p.mu.Unlock()
			return client, nil
		}
		if wait, ok := p.pending[key]; ok {
			// Другой вызов уже строит этого клиента
			p.mu.Unlock()
			<-wait
			continue
		}
		wait := make(chan struct{})
		p.pending[key] = wait
		p.mu.Unlock()

		return p.construct(key, wait)
	}
}

// construct вызывает фабрику вне мьютекса и регистрирует клиента
func (p *Pool) construct(key clientKey, wait chan struct{}) (Gateway, error) {
	gw, err := p.factory(key.UserID, key.Exchange)

	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.pending, key)
	close(wait)

	if err != nil {
		return nil, fmt.Errorf("construct %s client: %w", key.Exchange, err)
	}

	limiter, ok := p.limiters[key.Exchange]
	if !ok {
		// 10 req/sec с burst 20 - консервативно для всех поддерживаемых бирж
		limiter = ratelimit.NewRateLimiter(10, 20)
		p.limiters[key.Exchange] = limiter
	}

	client := &limitedGateway{inner: gw, limiter: limiter}
	p.clients[key] = client
	return client, nil
}

// Invalidate закрывает и удаляет клиента (смена ключей API, disconnect)
func (p *Pool) Invalidate(userID, exchange string) {
	key := clientKey{UserID: userID, Exchange: strings.ToLower(exchange)}

	p.mu.Lock()
	client, ok := p.clients[key]
	if ok {
		delete(p.clients, key)
	}
	p.mu.Unlock()

	if ok {
		_ = client.Close()
	}
}

// Close закрывает всех клиентов пула
func (p *Pool) Close() error {
	p.mu.Lock()
	clients := make([]Gateway, 0, len(p.clients))
	for key, client := range p.clients {
		clients = append(clients, client)
		delete(p.clients, key)
	}
	p.mu.Unlock()

	var firstErr error
	for _, client := range clients {
		if err := client.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Size возвращает количество живых клиентов (для мониторинга)
func (p *Pool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.clients)
}

// limitedGateway оборачивает Gateway в rate limiter биржи
type limitedGateway struct {
	inner   Gateway
	limiter *ratelimit.RateLimiter
}

func (lg *limitedGateway) Name() string { return lg.inner.Name() }

func (lg *limitedGateway) FetchSnapshot(ctx context.Context, symbol string) (*models.VenueSnapshot, error) {
	if err := lg.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return lg.inner.FetchSnapshot(ctx, symbol)
}

func (lg *limitedGateway) PlaceMarketOrder(ctx context.Context, symbol, side string, amount float64) (*Fill, error) {
	if err := lg.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return lg.inner.PlaceMarketOrder(ctx, symbol, side, amount)
}

func (lg *limitedGateway) Close() error { return lg.inner.Close() }
