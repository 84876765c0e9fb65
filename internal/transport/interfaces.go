package transport

import (
	"context"

	"github.com/prperemyshlev/pettracker-client/internal/authevents"
	"github.com/prperemyshlev/pettracker-client/internal/domain"
)

// Session supplies credentials and ends the session on irrecoverable failures
type Session interface {
	AuthorizationHeaderValue(ctx context.Context) (string, bool)
	ForceLogout(ctx context.Context, code authevents.Code, reason string)
}

// TokenRefresher runs the shared refresh
type TokenRefresher interface {
	RefreshTokens(ctx context.Context) (domain.TokenPair, error)
}

// RetryRecorder observes requests replayed after a refresh
type RetryRecorder interface {
	RequestRetried(ctx context.Context)
}
