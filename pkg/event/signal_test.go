package event_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/compass/pkg/event"
)

func TestSignal_Resolve(t *testing.T) {
	t.Parallel()

	s := event.NewSignal()
	require.False(t, s.Resolved())
	require.NoError(t, s.Err())

	first := errors.New("first")
	s.Resolve(first)
	s.Resolve(errors.New("second"))

	assert.True(t, s.Resolved())
	assert.ErrorIs(t, s.Err(), first)
	assert.ErrorIs(t, s.Wait(context.Background()), first)

	select {
	case <-s.Done():
	default:
		t.Fatal("Done channel not closed")
	}
}

func TestSignal_WaitFromGoroutine(t *testing.T) {
	t.Parallel()

	s := event.NewSignal()
	go func() {
		time.Sleep(10 * time.Millisecond)
		s.Resolve(nil)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, s.Wait(ctx))
}

func TestSignal_WaitContextDone(t *testing.T) {
	t.Parallel()

	s := event.NewSignal()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, s.Wait(ctx), context.Canceled)
	assert.False(t, s.Resolved())
}
