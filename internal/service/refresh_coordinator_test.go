package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prperemyshlev/pettracker-client/internal/domain"
)

type fakeSession struct {
	mu      sync.Mutex
	refresh string
	pair    domain.TokenPair
	updates int
}

func (s *fakeSession) ValidRefreshToken(context.Context) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refresh, s.refresh != ""
}

func (s *fakeSession) UpdateTokenPair(_ context.Context, pair domain.TokenPair) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pair = pair
	s.refresh = pair.RefreshToken
	s.updates++
}

func (s *fakeSession) snapshot() (domain.TokenPair, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pair, s.updates
}

// gatedRefresher blocks every network call until release is closed
type gatedRefresher struct {
	calls   atomic.Int32
	release chan struct{}
	err     error
}

func newGatedRefresher() *gatedRefresher {
	return &gatedRefresher{release: make(chan struct{})}
}

func (r *gatedRefresher) Refresh(ctx context.Context, refreshToken string) (domain.TokenPair, error) {
	n := r.calls.Add(1)
	select {
	case <-r.release:
	case <-ctx.Done():
		return domain.TokenPair{}, ctx.Err()
	}
	if r.err != nil {
		return domain.TokenPair{}, r.err
	}
	return domain.TokenPair{
		AccessToken:  "access-" + refreshToken,
		RefreshToken: "refresh-" + string(rune('0'+n)),
		TokenType:    "Bearer",
	}, nil
}

type refreshCounter struct {
	success atomic.Int32
	failure atomic.Int32
}

func (c *refreshCounter) RefreshCompleted(_ context.Context, err error) {
	if err != nil {
		c.failure.Add(1)
		return
	}
	c.success.Add(1)
}

type refreshOutcome struct {
	pair domain.TokenPair
	err  error
}

func refreshConcurrently(t *testing.T, c *RefreshCoordinator, r *gatedRefresher, n int) []refreshOutcome {
	t.Helper()

	var started, done sync.WaitGroup
	outcomes := make([]refreshOutcome, n)
	started.Add(n)
	done.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer done.Done()
			started.Done()
			pair, err := c.RefreshTokens(context.Background())
			outcomes[i] = refreshOutcome{pair: pair, err: err}
		}(i)
	}

	started.Wait()
	require.Eventually(t, func() bool { return r.calls.Load() >= 1 }, time.Second, time.Millisecond)
	// let the remaining callers join the in-flight call
	time.Sleep(50 * time.Millisecond)
	close(r.release)
	done.Wait()

	return outcomes
}

func TestRefreshTokens_ConcurrentCallersShareOneCall(t *testing.T) {
	session := &fakeSession{refresh: "r0"}
	refresher := newGatedRefresher()
	metrics := &refreshCounter{}
	coordinator := NewRefreshCoordinator(session, refresher, time.Second, metrics, nil)

	outcomes := refreshConcurrently(t, coordinator, refresher, 10)

	assert.Equal(t, int32(1), refresher.calls.Load())
	for _, outcome := range outcomes {
		require.NoError(t, outcome.err)
		assert.Equal(t, outcomes[0].pair, outcome.pair)
	}

	pair, updates := session.snapshot()
	assert.Equal(t, 1, updates)
	assert.Equal(t, "access-r0", pair.AccessToken)
	assert.Equal(t, int32(1), metrics.success.Load())
}

func TestRefreshTokens_ConcurrentCallersShareFailure(t *testing.T) {
	session := &fakeSession{refresh: "r0"}
	refresher := newGatedRefresher()
	refresher.err = errors.New("connection reset")
	metrics := &refreshCounter{}
	coordinator := NewRefreshCoordinator(session, refresher, time.Second, metrics, nil)

	outcomes := refreshConcurrently(t, coordinator, refresher, 5)

	assert.Equal(t, int32(1), refresher.calls.Load())
	for _, outcome := range outcomes {
		require.Error(t, outcome.err)
		assert.ErrorIs(t, outcome.err, refresher.err)
		assert.Equal(t, outcomes[0].err, outcome.err)
	}

	_, updates := session.snapshot()
	assert.Zero(t, updates)
	assert.Equal(t, int32(1), metrics.failure.Load())
}

func TestRefreshTokens_NoRefreshTokenSkipsNetwork(t *testing.T) {
	session := &fakeSession{}
	refresher := newGatedRefresher()
	coordinator := NewRefreshCoordinator(session, refresher, time.Second, nil, nil)

	_, err := coordinator.RefreshTokens(context.Background())

	assert.ErrorIs(t, err, ErrNoRefreshToken)
	assert.Zero(t, refresher.calls.Load())
}

func TestRefreshTokens_NextCallStartsFresh(t *testing.T) {
	session := &fakeSession{refresh: "r0"}
	refresher := newGatedRefresher()
	close(refresher.release)
	coordinator := NewRefreshCoordinator(session, refresher, time.Second, nil, nil)

	first, err := coordinator.RefreshTokens(context.Background())
	require.NoError(t, err)

	second, err := coordinator.RefreshTokens(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int32(2), refresher.calls.Load())
	assert.NotEqual(t, first, second)
	assert.Equal(t, "access-"+first.RefreshToken, second.AccessToken)
}

func TestRefreshTokens_CallerCancellationDoesNotAbortSharedCall(t *testing.T) {
	session := &fakeSession{refresh: "r0"}
	refresher := newGatedRefresher()
	coordinator := NewRefreshCoordinator(session, refresher, time.Second, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		_, err := coordinator.RefreshTokens(ctx)
		errCh <- err
	}()

	require.Eventually(t, func() bool { return refresher.calls.Load() == 1 }, time.Second, time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-errCh, context.Canceled)

	close(refresher.release)
	assert.Eventually(t, func() bool {
		_, updates := session.snapshot()
		return updates == 1
	}, time.Second, 5*time.Millisecond)
}

func TestRefreshTokens_Timeout(t *testing.T) {
	session := &fakeSession{refresh: "r0"}
	refresher := newGatedRefresher()
	coordinator := NewRefreshCoordinator(session, refresher, 20*time.Millisecond, nil, nil)

	_, err := coordinator.RefreshTokens(context.Background())

	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
