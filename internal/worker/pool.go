package worker

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Handler выполняет одну синхронизацию задачи
type Handler func(ctx context.Context, taskID int64)

const queueSize = 64

// Pool - фиксированный набор воркеров, у каждого своя очередь.
// Id задачи хэшируется на воркера, поэтому повторные синхронизации
// одной и той же задачи идут по порядку, а не наперегонки.
type Pool struct {
	logger  *zap.Logger
	handler Handler
	queues  []chan int64
	wg      sync.WaitGroup
	stop    chan struct{}
}

func NewPool(logger *zap.Logger, count int, handler Handler) *Pool {
	if count < 1 {
		count = 1
	}
	queues := make([]chan int64, count)
	for i := range queues {
		queues[i] = make(chan int64, queueSize)
	}
	return &Pool{
		logger:  logger,
		handler: handler,
		queues:  queues,
		stop:    make(chan struct{}),
	}
}

func (p *Pool) Start(ctx context.Context) {
	p.logger.Info("Starting sync worker pool", zap.Int("workers", len(p.queues)))

	for i := range p.queues {
		p.wg.Add(1)
		go p.worker(ctx, i)
	}
}

func (p *Pool) Stop() {
	p.logger.Info("Stopping sync worker pool...")
	close(p.stop)
	p.wg.Wait()
	p.logger.Info("Sync worker pool stopped")
}

// Submit - fire-and-forget: вызывающий не ждет ни постановки, ни результата.
// При переполненной очереди досылка уходит в отдельную горутину
// (в этом редком случае порядок для задачи не гарантирован).
func (p *Pool) Submit(taskID int64) {
	q := p.queues[int(uint64(taskID)%uint64(len(p.queues)))]
	select {
	case q <- taskID:
	case <-p.stop:
	default:
		go func() {
			select {
			case q <- taskID:
			case <-p.stop:
			}
		}()
	}
}

func (p *Pool) worker(ctx context.Context, id int) {
	defer p.wg.Done()

	q := p.queues[id]
	for {
		select {
		case <-p.stop:
			return
		case <-ctx.Done():
			return
		case taskID := <-q:
			p.handler(ctx, taskID)
		}
	}
}
