package sequence

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormat(t *testing.T) {
	assert.Equal(t, "RES-000001", Format("RES", 1))
	assert.Equal(t, "INV-123456", Format("INV", 123456))
	assert.Equal(t, "INV-1234567", Format("INV", 1234567))
}

func TestMemoryGenerator_MonotonicPerPrefix(t *testing.T) {
	g := NewMemory()
	ctx := context.Background()

	first, err := g.Next(ctx, "RES")
	require.NoError(t, err)
	second, err := g.Next(ctx, "RES")
	require.NoError(t, err)
	inv, err := g.Next(ctx, "INV")
	require.NoError(t, err)

	assert.Equal(t, "RES-000001", first)
	assert.Equal(t, "RES-000002", second)
	assert.Equal(t, "INV-000001", inv)
}

func TestMemoryGenerator_ConcurrentUnique(t *testing.T) {
	g := NewMemory()
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		seen = make(map[string]bool)
	)
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := g.Next(context.Background(), "RES")
			assert.NoError(t, err)
			mu.Lock()
			seen[n] = true
			mu.Unlock()
		}()
	}
	wg.Wait()
	assert.Len(t, seen, 100)
}

func TestMemoryGenerator_EmptyPrefix(t *testing.T) {
	_, err := NewMemory().Next(context.Background(), "")
	assert.ErrorIs(t, err, ErrEmptyPrefix)
}
