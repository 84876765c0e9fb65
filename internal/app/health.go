package app

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/prperemyshlev/pettracker-client/internal/domain"
	"github.com/prperemyshlev/pettracker-client/internal/repository"
)

const healthCheckTimeout = 2 * time.Second

type sessionState interface {
	State(ctx context.Context) domain.SessionState
}

type HealthChecker struct {
	backend repository.Backend
	session sessionState
}

func NewHealthChecker(backend repository.Backend, session sessionState) *HealthChecker {
	return &HealthChecker{
		backend: backend,
		session: session,
	}
}

func (h *HealthChecker) check(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	return h.backend.Ping(ctx)
}

// Handler reports the credential backend health. An expired session does
// not fail the check; it is reported alongside.
func (h *HealthChecker) Handler(c *gin.Context) {
	state := h.session.State(c.Request.Context()).String()

	if err := h.check(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "fail",
			"error":   err.Error(),
			"session": state,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "pass",
		"session": state,
	})
}
