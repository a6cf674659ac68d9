package qr

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memQueue struct {
	mu      sync.Mutex
	pending []string
}

func (q *memQueue) Pending(ctx context.Context, limit int) ([]string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.pending) < limit {
		limit = len(q.pending)
	}
	return append([]string(nil), q.pending[:limit]...), nil
}

func (q *memQueue) MarkRendered(ctx context.Context, code string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i, c := range q.pending {
		if c == code {
			q.pending = append(q.pending[:i], q.pending[i+1:]...)
			break
		}
	}
	return nil
}

func (q *memQueue) CountPending(ctx context.Context) (int64, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return int64(len(q.pending)), nil
}

func TestRegeneratorRunOnce(t *testing.T) {
	store := newFlakyStore(0)
	queue := &memQueue{pending: []string{"a", "b", "c"}}
	g := NewRegenerator(fastRenderer(store, 1), queue, 2)

	n, err := g.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"c"}, queue.pending)

	n, err = g.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Empty(t, queue.pending)
	assert.Len(t, store.images, 3)
}

func TestRegeneratorKeepsFailedCodesPending(t *testing.T) {
	store := newFlakyStore(1)
	queue := &memQueue{pending: []string{"a", "b"}}
	g := NewRegenerator(fastRenderer(store, 1), queue, 10)

	n, err := g.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"a"}, queue.pending)
}

func TestRegeneratorRunStopsOnCancel(t *testing.T) {
	queue := &memQueue{pending: []string{"a"}}
	g := NewRegenerator(fastRenderer(newFlakyStore(0), 1), queue, 10)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		g.Run(ctx, 10*time.Millisecond)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		n, _ := queue.CountPending(context.Background())
		return n == 0
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
