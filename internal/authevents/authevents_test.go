package authevents

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingRecorder struct {
	mu    sync.Mutex
	codes []int
}

func (r *countingRecorder) AuthEvent(_ context.Context, code int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.codes = append(r.codes, code)
}

func TestChannel_LatestEventWins(t *testing.T) {
	recorder := &countingRecorder{}
	ch := NewChannel(recorder)

	_, ok := ch.Last()
	assert.False(t, ok)

	ch.Emit(context.Background(), Unauthorized)
	ch.Emit(context.Background(), Forbidden)

	code, ok := ch.Last()
	require.True(t, ok)
	assert.Equal(t, Forbidden, code)
	assert.Equal(t, []int{401, 403}, recorder.codes)

	ch.Clear()
	_, ok = ch.Last()
	assert.False(t, ok)
}

func TestChannel_ChangedWakesWatchers(t *testing.T) {
	ch := NewChannel(nil)
	changed := ch.Changed()

	select {
	case <-changed:
		t.Fatal("Changed closed before any event")
	default:
	}

	ch.Emit(context.Background(), Unauthorized)

	select {
	case <-changed:
	case <-time.After(time.Second):
		t.Fatal("Changed not closed after Emit")
	}

	cleared := ch.Changed()
	ch.Clear()
	select {
	case <-cleared:
	case <-time.After(time.Second):
		t.Fatal("Changed not closed after Clear")
	}
}

func TestChannel_ClearWithoutEventDoesNotWake(t *testing.T) {
	ch := NewChannel(nil)
	changed := ch.Changed()

	ch.Clear()

	select {
	case <-changed:
		t.Fatal("Clear on empty channel should not notify")
	default:
	}
}

func TestCode_Message(t *testing.T) {
	assert.Equal(t, "session expired", Unauthorized.Message())
	assert.Equal(t, "access denied", Forbidden.Message())
	assert.Empty(t, Code(500).Message())
}

func TestNotify_DeliversWithoutAcknowledging(t *testing.T) {
	ch := NewChannel(nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan Code, 4)
	done := make(chan error, 1)
	go func() {
		done <- Notify(ctx, ch, func(code Code) { received <- code })
	}()

	ch.Emit(ctx, Forbidden)

	select {
	case code := <-received:
		assert.Equal(t, Forbidden, code)
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}

	code, ok := ch.Last()
	assert.True(t, ok)
	assert.Equal(t, Forbidden, code)

	// acknowledging is a change but not an event
	ch.Clear()
	ch.Emit(ctx, Unauthorized)

	select {
	case code := <-received:
		assert.Equal(t, Unauthorized, code)
	case <-time.After(time.Second):
		t.Fatal("second event not delivered")
	}

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Notify did not return after cancel")
	}
}
