package analytics

import (
	"context"
	"sync"
	"time"

	"github.com/nulzo/polymage/internal/store"
	"go.uber.org/zap"
)

// Ingestor persists invocation records asynchronously in batches.
type Ingestor interface {
	Log(inv *store.Invocation)
	Start(ctx context.Context)
	// Stop flushes buffered records and waits for the worker to exit.
	Stop()
}

type Option func(*ingestor)

func WithBatchSize(n int) Option {
	return func(i *ingestor) {
		if n > 0 {
			i.batchSize = n
		}
	}
}

func WithFlushInterval(d time.Duration) Option {
	return func(i *ingestor) {
		if d > 0 {
			i.flushTime = d
		}
	}
}

func WithBuffer(n int) Option {
	return func(i *ingestor) {
		if n > 0 {
			i.buffer = n
		}
	}
}

type ingestor struct {
	logger    *zap.Logger
	repo      store.Repository
	logChan   chan *store.Invocation
	done      chan struct{}
	batchSize int
	flushTime time.Duration
	buffer    int

	mu     sync.RWMutex
	closed bool
	once   sync.Once
}

func NewIngestor(logger *zap.Logger, repo store.Repository, opts ...Option) Ingestor {
	i := &ingestor{
		logger:    logger,
		repo:      repo,
		done:      make(chan struct{}),
		batchSize: 50,
		flushTime: 5 * time.Second,
		buffer:    10000,
	}
	for _, opt := range opts {
		opt(i)
	}
	i.logChan = make(chan *store.Invocation, i.buffer)
	return i
}

func (i *ingestor) Log(inv *store.Invocation) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	if i.closed {
		return
	}

	select {
	case i.logChan <- inv:
	default:
		i.logger.Warn("Invocation buffer full, dropping record", zap.String("id", inv.ID))
	}
}

func (i *ingestor) Start(ctx context.Context) {
	go i.worker(ctx)
}

func (i *ingestor) Stop() {
	i.once.Do(func() {
		i.mu.Lock()
		i.closed = true
		close(i.logChan)
		i.mu.Unlock()
	})
	<-i.done
}

func (i *ingestor) worker(ctx context.Context) {
	defer close(i.done)

	batch := make([]*store.Invocation, 0, i.batchSize)
	ticker := time.NewTicker(i.flushTime)
	defer ticker.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}
		// the request context may already be gone
		err := i.repo.WithTx(context.Background(), func(tx store.Repository) error {
			for _, inv := range batch {
				if err := tx.Invocations().Log(context.Background(), inv); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			i.logger.Error("Failed to persist invocations", zap.Int("count", len(batch)), zap.Error(err))
		}
		batch = batch[:0]
	}

	for {
		select {
		case inv, ok := <-i.logChan:
			if !ok {
				flush()
				return
			}
			batch = append(batch, inv)
			if len(batch) >= i.batchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-ctx.Done():
			// drain what is already buffered
			for {
				select {
				case inv, ok := <-i.logChan:
					if !ok {
						flush()
						return
					}
					batch = append(batch, inv)
				default:
					flush()
					return
				}
			}
		}
	}
}
