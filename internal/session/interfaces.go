package session

import (
	"context"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/prperemyshlev/pettracker-client/internal/domain"
)

// Store is the persistence the manager derives session state from.
// Implementations are best-effort and never fail.
type Store interface {
	AccessToken(ctx context.Context) string
	RefreshToken(ctx context.Context) string
	TokenType(ctx context.Context) string
	ClearAccessToken(ctx context.Context)
	SetTokenPair(ctx context.Context, pair domain.TokenPair)
	Identity(ctx context.Context) domain.Identity
	SetIdentity(ctx context.Context, identity domain.Identity)
	Clear(ctx context.Context)
}

// Navigator is the shell's router
type Navigator interface {
	CurrentPath() string
	Navigate(path string)
}

// LogoutRecorder observes forced logouts
type LogoutRecorder interface {
	ForcedLogout(ctx context.Context, reason string)
}

// Option configures a Manager
type Option func(*Manager)

// WithClock replaces the wall clock, mainly for tests
func WithClock(clock clockwork.Clock) Option {
	return func(m *Manager) {
		m.clock = clock
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

func WithMetrics(metrics LogoutRecorder) Option {
	return func(m *Manager) {
		m.metrics = metrics
	}
}
