package analytics

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/nulzo/polymage/internal/store"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

// memRepo is an in-memory store.Repository.
type memRepo struct {
	mu   sync.Mutex
	rows []store.Invocation
	txs  int
	fail bool
}

func (m *memRepo) Invocations() store.InvocationRepository { return m }
func (m *memRepo) Close() error                            { return nil }

func (m *memRepo) WithTx(ctx context.Context, fn func(store.Repository) error) error {
	m.mu.Lock()
	m.txs++
	m.mu.Unlock()
	return fn(m)
}

func (m *memRepo) Log(_ context.Context, inv *store.Invocation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errors.New("disk full")
	}
	m.rows = append(m.rows, *inv)
	return nil
}

func (m *memRepo) Recent(context.Context, int) ([]store.Invocation, error) { return nil, nil }
func (m *memRepo) Stats(context.Context) ([]store.ModelStats, error)      { return nil, nil }

func (m *memRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

func TestIngestor_FlushesOnBatchSize(t *testing.T) {
	repo := &memRepo{}
	ing := NewIngestor(zap.NewNop(), repo, WithBatchSize(2), WithFlushInterval(time.Hour))
	ing.Start(context.Background())

	ing.Log(&store.Invocation{ID: "1"})
	ing.Log(&store.Invocation{ID: "2"})

	assert.Eventually(t, func() bool { return repo.count() == 2 }, time.Second, 5*time.Millisecond)
	ing.Stop()
}

func TestIngestor_FlushesOnInterval(t *testing.T) {
	repo := &memRepo{}
	ing := NewIngestor(zap.NewNop(), repo, WithBatchSize(100), WithFlushInterval(10*time.Millisecond))
	ing.Start(context.Background())
	defer ing.Stop()

	ing.Log(&store.Invocation{ID: "1"})
	assert.Eventually(t, func() bool { return repo.count() == 1 }, time.Second, 5*time.Millisecond)
}

func TestIngestor_StopFlushesAndIgnoresLateRecords(t *testing.T) {
	repo := &memRepo{}
	ing := NewIngestor(zap.NewNop(), repo, WithBatchSize(100), WithFlushInterval(time.Hour))
	ing.Start(context.Background())

	for i := 0; i < 5; i++ {
		ing.Log(&store.Invocation{ID: "x"})
	}
	ing.Stop()
	assert.Equal(t, 5, repo.count())
	assert.Equal(t, 1, repo.txs)

	ing.Log(&store.Invocation{ID: "late"})
	ing.Stop()
	assert.Equal(t, 5, repo.count())
}

func TestIngestor_DropsWhenBufferFull(t *testing.T) {
	repo := &memRepo{}
	ing := NewIngestor(zap.NewNop(), repo, WithBuffer(1), WithBatchSize(100), WithFlushInterval(time.Hour))

	// worker not started, so the second record has nowhere to go
	ing.Log(&store.Invocation{ID: "1"})
	ing.Log(&store.Invocation{ID: "2"})

	ing.Start(context.Background())
	ing.Stop()
	assert.Equal(t, 1, repo.count())
}

func TestIngestor_ContextCancelDrains(t *testing.T) {
	repo := &memRepo{}
	ing := NewIngestor(zap.NewNop(), repo, WithBatchSize(100), WithFlushInterval(time.Hour))

	ing.Log(&store.Invocation{ID: "1"})
	ing.Log(&store.Invocation{ID: "2"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ing.Start(ctx)
	ing.Stop()
	assert.Equal(t, 2, repo.count())
}

func TestIngestor_PersistErrorsAreLogged(t *testing.T) {
	repo := &memRepo{fail: true}
	ing := NewIngestor(zap.NewNop(), repo, WithBatchSize(1), WithFlushInterval(time.Hour))
	ing.Start(context.Background())
	ing.Log(&store.Invocation{ID: "1"})
	ing.Stop()
	assert.Equal(t, 0, repo.count())
}
