package dispatcher

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/garyjia/dmm-case-workflow/internal/domain/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockLogger implements Logger for testing
type mockLogger struct {
	mu     sync.Mutex
	infos  []string
	errors []string
}

func (m *mockLogger) Info(msg string, keysAndValues ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.infos = append(m.infos, msg)
}

func (m *mockLogger) Error(msg string, keysAndValues ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors = append(m.errors, msg)
}

func (m *mockLogger) ErrorCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.errors)
}

func statusChanged() *event.Event {
	return event.NewEvent(event.TypeCaseStatusChanged, 1, map[string]interface{}{
		event.KeyNewStatus: "KURUM_BEKLENIYOR",
	})
}

func TestDispatch(t *testing.T) {
	t.Run("runs handlers in order", func(t *testing.T) {
		d := NewDispatcher()
		var order []int

		d.Subscribe(event.TypeCaseStatusChanged, func(ctx context.Context, evt *event.Event) error {
			order = append(order, 1)
			return nil
		})
		d.Subscribe(event.TypeCaseStatusChanged, func(ctx context.Context, evt *event.Event) error {
			order = append(order, 2)
			return nil
		})

		require.NoError(t, d.Dispatch(context.Background(), statusChanged()))
		assert.Equal(t, []int{1, 2}, order)
	})

	t.Run("ignores other event types", func(t *testing.T) {
		d := NewDispatcher()
		called := false
		d.Subscribe(event.TypeCaseCreated, func(ctx context.Context, evt *event.Event) error {
			called = true
			return nil
		})

		require.NoError(t, d.Dispatch(context.Background(), statusChanged()))
		assert.False(t, called)
	})

	t.Run("stops at first error", func(t *testing.T) {
		d := NewDispatcher()
		expectedErr := errors.New("handler error")
		called := false

		d.SubscribeNamed(event.TypeCaseStatusChanged, "failing", func(ctx context.Context, evt *event.Event) error {
			return expectedErr
		})
		d.Subscribe(event.TypeCaseStatusChanged, func(ctx context.Context, evt *event.Event) error {
			called = true
			return nil
		})

		err := d.Dispatch(context.Background(), statusChanged())
		assert.ErrorIs(t, err, expectedErr)
		assert.Contains(t, err.Error(), "failing")
		assert.False(t, called)
	})

	t.Run("recovers from handler panic", func(t *testing.T) {
		logger := &mockLogger{}
		d := NewDispatcher(WithLogger(logger))
		d.Subscribe(event.TypeCaseStatusChanged, func(ctx context.Context, evt *event.Event) error {
			panic("boom")
		})

		err := d.Dispatch(context.Background(), statusChanged())
		assert.Error(t, err)
		assert.Equal(t, 1, logger.ErrorCount())
	})

	t.Run("rejects events after close", func(t *testing.T) {
		d := NewDispatcher()
		require.NoError(t, d.Close())
		assert.Error(t, d.Dispatch(context.Background(), statusChanged()))
		assert.Error(t, d.Close())
	})
}

func TestDispatchAsync(t *testing.T) {
	t.Run("close waits for handlers", func(t *testing.T) {
		d := NewDispatcher()
		var called atomic.Int32

		for i := 0; i < 3; i++ {
			d.Subscribe(event.TypeCaseStatusChanged, func(ctx context.Context, evt *event.Event) error {
				time.Sleep(10 * time.Millisecond)
				called.Add(1)
				return nil
			})
		}

		d.DispatchAsync(context.Background(), statusChanged())
		require.NoError(t, d.Close())
		assert.Equal(t, int32(3), called.Load())
	})

	t.Run("handlers survive caller cancellation", func(t *testing.T) {
		d := NewDispatcher()
		var handlerErr atomic.Value

		d.Subscribe(event.TypeCaseStatusChanged, func(ctx context.Context, evt *event.Event) error {
			time.Sleep(20 * time.Millisecond)
			if err := ctx.Err(); err != nil {
				handlerErr.Store(err)
			}
			return nil
		})

		ctx, cancel := context.WithCancel(context.Background())
		d.DispatchAsync(ctx, statusChanged())
		cancel()

		require.NoError(t, d.Close())
		assert.Nil(t, handlerErr.Load())
	})

	t.Run("handler timeout applies", func(t *testing.T) {
		logger := &mockLogger{}
		d := NewDispatcher(WithLogger(logger), WithHandlerTimeout(5*time.Millisecond))

		d.Subscribe(event.TypeCaseStatusChanged, func(ctx context.Context, evt *event.Event) error {
			<-ctx.Done()
			return ctx.Err()
		})

		d.DispatchAsync(context.Background(), statusChanged())
		require.NoError(t, d.Close())
		assert.Equal(t, 1, logger.ErrorCount())
	})

	t.Run("dropped after close", func(t *testing.T) {
		logger := &mockLogger{}
		d := NewDispatcher(WithLogger(logger))
		require.NoError(t, d.Close())

		d.DispatchAsync(context.Background(), statusChanged())
		assert.Equal(t, 1, logger.ErrorCount())
	})
}

func TestConcurrentSubscribeAndDispatch(t *testing.T) {
	d := NewDispatcher()
	var wg sync.WaitGroup
	var count atomic.Int32

	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			d.Subscribe(event.TypeCaseCreated, func(ctx context.Context, evt *event.Event) error {
				count.Add(1)
				return nil
			})
		}()
		go func() {
			defer wg.Done()
			_ = d.Dispatch(context.Background(), event.NewEvent(event.TypeCaseCreated, 1, nil))
		}()
	}
	wg.Wait()

	require.NoError(t, d.Dispatch(context.Background(), event.NewEvent(event.TypeCaseCreated, 1, nil)))
	assert.GreaterOrEqual(t, count.Load(), int32(10))
}
