package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/prperemyshlev/pettracker-client/internal/domain"
	"github.com/prperemyshlev/pettracker-client/internal/utils"
)

// ErrNoRefreshToken is returned when no valid refresh token is available
var ErrNoRefreshToken = errors.New("no valid refresh token")

const (
	refreshKey = "refresh"

	// DefaultRefreshTimeout bounds the shared refresh call
	DefaultRefreshTimeout = 15 * time.Second
)

// RefreshCoordinator collapses concurrent refresh requests into a single
// network call whose outcome every caller observes.
type RefreshCoordinator struct {
	group     singleflight.Group
	session   SessionTokens
	refresher Refresher
	timeout   time.Duration
	metrics   RefreshRecorder
	logger    *zap.Logger
}

// NewRefreshCoordinator creates a new refresh coordinator
func NewRefreshCoordinator(session SessionTokens, refresher Refresher, timeout time.Duration, metrics RefreshRecorder, logger *zap.Logger) *RefreshCoordinator {
	if timeout <= 0 {
		timeout = DefaultRefreshTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RefreshCoordinator{
		session:   session,
		refresher: refresher,
		timeout:   timeout,
		metrics:   metrics,
		logger:    logger.Named("refresh"),
	}
}

// RefreshTokens joins the in-flight refresh or starts a new one.
//
// The shared call is detached from ctx so that one caller giving up does
// not fail the others; ctx only bounds how long this caller waits.
func (c *RefreshCoordinator) RefreshTokens(ctx context.Context) (domain.TokenPair, error) {
	ch := c.group.DoChan(refreshKey, func() (interface{}, error) {
		return c.refresh(context.WithoutCancel(ctx))
	})

	select {
	case <-ctx.Done():
		return domain.TokenPair{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return domain.TokenPair{}, res.Err
		}
		return res.Val.(domain.TokenPair), nil
	}
}

func (c *RefreshCoordinator) refresh(ctx context.Context) (pair domain.TokenPair, err error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	defer func() {
		if c.metrics != nil {
			c.metrics.RefreshCompleted(ctx, err)
		}
	}()

	refreshToken, ok := c.session.ValidRefreshToken(ctx)
	if !ok {
		c.logger.Info("refresh skipped: no valid refresh token")
		return domain.TokenPair{}, ErrNoRefreshToken
	}

	pair, err = c.refresher.Refresh(ctx, refreshToken)
	if err != nil {
		c.logger.Warn("token refresh failed", zap.Error(err))
		return domain.TokenPair{}, fmt.Errorf("failed to refresh tokens: %w", err)
	}

	c.session.UpdateTokenPair(ctx, pair)

	c.logger.Debug("tokens refreshed",
		zap.String("access_token", utils.RedactToken(pair.AccessToken)),
	)

	return pair, nil
}
