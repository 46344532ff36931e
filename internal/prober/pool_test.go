package prober

import (
	"context"
	"sync"
	"testing"

	"github.com/aleister1102/userprobe/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCancellationPoolRegisterRemove(t *testing.T) {
	pool := NewCancellationPool()
	_, cancel := context.WithCancelCause(context.Background())
	defer cancel(nil)

	h1 := pool.Register(cancel)
	h2 := pool.Register(cancel)
	assert.NotEqual(t, h1, h2)
	assert.Equal(t, 2, pool.Len())
	assert.True(t, pool.Contains(h1))

	pool.Remove(h1)
	pool.Remove(h1)
	assert.False(t, pool.Contains(h1))
	assert.Equal(t, 1, pool.Len())
}

func TestCancellationPoolCancelAllSnapshot(t *testing.T) {
	pool := NewCancellationPool()
	ctxA, cancelA := context.WithCancelCause(context.Background())
	ctxB, cancelB := context.WithCancelCause(context.Background())
	defer cancelA(nil)
	defer cancelB(nil)

	pool.Register(cancelA)
	pool.Register(cancelB)

	require.Equal(t, 2, pool.CancelAll())
	assert.ErrorIs(t, context.Cause(ctxA), common.ErrCancelled)
	assert.ErrorIs(t, context.Cause(ctxB), common.ErrCancelled)

	ctxC, cancelC := context.WithCancelCause(context.Background())
	defer cancelC(nil)
	pool.Register(cancelC)
	assert.NoError(t, ctxC.Err())
}

func TestCancellationPoolConcurrentUse(t *testing.T) {
	pool := NewCancellationPool()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, cancel := context.WithCancelCause(context.Background())
			h := pool.Register(cancel)
			pool.CancelAll()
			pool.Remove(h)
		}()
	}
	wg.Wait()
	assert.Zero(t, pool.Len())
}
