package testutil

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordingSleeper_StartsEmpty(t *testing.T) {
	s := NewRecordingSleeper()
	assert.Empty(t, s.Sleeps())
	assert.Equal(t, time.Duration(0), s.Total())
}

func TestRecordingSleeper_RecordsInOrder(t *testing.T) {
	s := NewRecordingSleeper()
	ctx := context.Background()

	require.NoError(t, s.Sleep(ctx, 30*time.Second))
	require.NoError(t, s.Sleep(ctx, time.Minute))

	assert.Equal(t, []time.Duration{30 * time.Second, time.Minute}, s.Sleeps())
	assert.Equal(t, 90*time.Second, s.Total())
}

func TestRecordingSleeper_CancelledContext(t *testing.T) {
	s := NewRecordingSleeper()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, s.Sleep(ctx, time.Second), context.Canceled)
	assert.Empty(t, s.Sleeps())
}

func TestRecordingSleeper_Reset(t *testing.T) {
	s := NewRecordingSleeper()
	require.NoError(t, s.Sleep(context.Background(), time.Second))

	s.Reset()
	assert.Empty(t, s.Sleeps())
}

func TestRecordingSleeper_ThreadSafe(t *testing.T) {
	s := NewRecordingSleeper()
	const n = 50

	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			_ = s.Sleep(context.Background(), time.Millisecond)
		}()
	}
	wg.Wait()

	assert.Len(t, s.Sleeps(), n)
}

func TestFixedRunID(t *testing.T) {
	assert.Equal(t, "test-run-default", NewFixedRunID("").Generate())

	g := NewFixedRunID("run-1")
	assert.Equal(t, "run-1", g.Generate())
	assert.Equal(t, "run-1", g.Generate())
}
