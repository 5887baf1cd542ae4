package events

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/serendib/internal/interfaces"
)

func TestPublish_DeliversAsynchronously(t *testing.T) {
	svc := NewService(arbor.NewLogger())
	var calls int32

	require.NoError(t, svc.Subscribe(interfaces.EventInquirySubmitted, func(ctx context.Context, e interfaces.Event) error {
		atomic.AddInt32(&calls, 1)
		return nil
	}))
	require.NoError(t, svc.Subscribe(interfaces.EventInquirySubmitted, func(ctx context.Context, e interfaces.Event) error {
		panic("handler bug")
	}))

	require.NoError(t, svc.Publish(context.Background(), interfaces.Event{Type: interfaces.EventInquirySubmitted}))

	assert.Eventually(t, func() bool { return atomic.LoadInt32(&calls) == 1 }, time.Second, 5*time.Millisecond)
}

func TestPublish_OutlivesCallerContext(t *testing.T) {
	svc := NewService(arbor.NewLogger())
	got := make(chan error, 1)

	require.NoError(t, svc.Subscribe(interfaces.EventContentChanged, func(ctx context.Context, e interfaces.Event) error {
		time.Sleep(10 * time.Millisecond)
		got <- ctx.Err()
		return nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, svc.Publish(ctx, interfaces.Event{Type: interfaces.EventContentChanged}))
	cancel()

	select {
	case err := <-got:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("handler did not run")
	}
}

func TestClose_WaitsForBackgroundHandlers(t *testing.T) {
	svc := NewService(arbor.NewLogger())
	var finished atomic.Bool

	require.NoError(t, svc.Subscribe(interfaces.EventSessionsSwept, func(ctx context.Context, e interfaces.Event) error {
		time.Sleep(20 * time.Millisecond)
		finished.Store(true)
		return nil
	}))
	require.NoError(t, svc.Publish(context.Background(), interfaces.Event{Type: interfaces.EventSessionsSwept}))

	require.NoError(t, svc.Close())
	assert.True(t, finished.Load())

	assert.ErrorIs(t, svc.Publish(context.Background(), interfaces.Event{Type: interfaces.EventSessionsSwept}), ErrClosed)
	assert.NoError(t, svc.Close())
}

func TestPublishSync_OrderErrorsAndPanics(t *testing.T) {
	svc := NewService(arbor.NewLogger())
	sentinel := errors.New("mail down")
	var order []string
	var stamped time.Time

	require.NoError(t, svc.Subscribe(interfaces.EventContentChanged, func(ctx context.Context, e interfaces.Event) error {
		order = append(order, "first")
		stamped = e.Time
		return sentinel
	}))
	require.NoError(t, svc.Subscribe(interfaces.EventContentChanged, func(ctx context.Context, e interfaces.Event) error {
		order = append(order, "second")
		panic("bad handler")
	}))
	require.NoError(t, svc.Subscribe(interfaces.EventContentChanged, func(ctx context.Context, e interfaces.Event) error {
		order = append(order, "third")
		return nil
	}))

	err := svc.PublishSync(context.Background(), interfaces.Event{Type: interfaces.EventContentChanged})
	require.Error(t, err)
	assert.ErrorIs(t, err, sentinel)
	assert.Contains(t, err.Error(), "panic: bad handler")
	assert.Equal(t, []string{"first", "second", "third"}, order)
	assert.False(t, stamped.IsZero())

	assert.NoError(t, svc.PublishSync(context.Background(), interfaces.Event{Type: interfaces.EventSessionsSwept}))
}

func TestSubscribe_RejectsNilAndClosed(t *testing.T) {
	svc := NewService(arbor.NewLogger())
	assert.Error(t, svc.Subscribe(interfaces.EventContentChanged, nil))

	require.NoError(t, svc.Close())
	assert.ErrorIs(t, svc.Subscribe(interfaces.EventContentChanged, func(ctx context.Context, e interfaces.Event) error { return nil }), ErrClosed)
}

func TestSubscribeLoggerToAllEvents(t *testing.T) {
	logger := arbor.NewLogger()
	svc := NewService(logger)

	require.NoError(t, SubscribeLoggerToAllEvents(svc, logger))

	err := svc.PublishSync(context.Background(), interfaces.Event{
		Type:    interfaces.EventInquirySubmitted,
		Payload: map[string]interface{}{"id": "inq_1", "kind": "trip_plan", "count": 3, "nested": []string{"x"}},
	})
	assert.NoError(t, err)
}
