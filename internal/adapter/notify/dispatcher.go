package notify

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/rl1809/marketplace/internal/core/domain"
)

const deliverTimeout = 5 * time.Second

// Sink delivers one notification to its final destination.
type Sink interface {
	Deliver(ctx context.Context, n domain.Notification) error
}

// Dispatcher queues notifications in memory and drains them with a fixed
// pool of workers. Notify never blocks: a full queue drops the event.
type Dispatcher struct {
	sink   Sink
	logger *zap.Logger

	mu     sync.RWMutex
	closed bool
	queue  chan domain.Notification
	wg     sync.WaitGroup
}

func NewDispatcher(sink Sink, queueSize int, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		sink:   sink,
		logger: logger,
		queue:  make(chan domain.Notification, queueSize),
	}
}

func (d *Dispatcher) Start(workers int) {
	for i := 0; i < workers; i++ {
		d.wg.Add(1)
		go func(id int) {
			defer d.wg.Done()
			d.workerLoop(id)
		}(i)
	}
	d.logger.Info("notification workers started", zap.Int("workers", workers))
}

func (d *Dispatcher) Notify(ctx context.Context, n domain.Notification) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		return
	}

	select {
	case d.queue <- n:
	default:
		d.logger.Warn("notification queue full, dropping",
			zap.String("kind", string(n.Kind)),
			zap.String("recipient_id", n.RecipientID),
		)
	}
}

// Close stops accepting notifications and waits for the queue to drain.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	d.wg.Wait()
}

func (d *Dispatcher) workerLoop(id int) {
	for n := range d.queue {
		ctx, cancel := context.WithTimeout(context.Background(), deliverTimeout)

		if err := d.sink.Deliver(ctx, n); err != nil {
			d.logger.Error("failed to deliver notification",
				zap.Int("worker", id),
				zap.String("kind", string(n.Kind)),
				zap.String("entity_id", n.EntityID),
				zap.Error(err),
			)
		} else {
			d.logger.Debug("notification delivered",
				zap.Int("worker", id),
				zap.String("kind", string(n.Kind)),
				zap.String("recipient_id", n.RecipientID),
			)
		}

		cancel()
	}
}
