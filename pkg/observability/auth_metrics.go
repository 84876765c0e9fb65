package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// AuthMetrics records session lifecycle counters.
// A nil *AuthMetrics is valid and records nothing.
type AuthMetrics struct {
	refreshes     metric.Int64Counter
	forcedLogouts metric.Int64Counter
	authEvents    metric.Int64Counter
	retries       metric.Int64Counter
}

// NewAuthMetrics creates the auth counters on meter
func NewAuthMetrics(meter metric.Meter) (*AuthMetrics, error) {
	refreshes, err := meter.Int64Counter("auth_refresh_total",
		metric.WithDescription("Completed token refresh attempts"))
	if err != nil {
		return nil, fmt.Errorf("failed to create refresh counter: %w", err)
	}

	forcedLogouts, err := meter.Int64Counter("auth_forced_logout_total",
		metric.WithDescription("Sessions terminated by the client"))
	if err != nil {
		return nil, fmt.Errorf("failed to create logout counter: %w", err)
	}

	authEvents, err := meter.Int64Counter("auth_event_total",
		metric.WithDescription("Auth failure events published"))
	if err != nil {
		return nil, fmt.Errorf("failed to create event counter: %w", err)
	}

	retries, err := meter.Int64Counter("auth_request_retry_total",
		metric.WithDescription("Requests retried after a token refresh"))
	if err != nil {
		return nil, fmt.Errorf("failed to create retry counter: %w", err)
	}

	return &AuthMetrics{
		refreshes:     refreshes,
		forcedLogouts: forcedLogouts,
		authEvents:    authEvents,
		retries:       retries,
	}, nil
}

// RefreshCompleted counts one shared refresh attempt by outcome
func (m *AuthMetrics) RefreshCompleted(ctx context.Context, err error) {
	if m == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	m.refreshes.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

func (m *AuthMetrics) ForcedLogout(ctx context.Context, reason string) {
	if m == nil {
		return
	}
	m.forcedLogouts.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}

func (m *AuthMetrics) AuthEvent(ctx context.Context, code int) {
	if m == nil {
		return
	}
	m.authEvents.Add(ctx, 1, metric.WithAttributes(attribute.Int("code", code)))
}

func (m *AuthMetrics) RequestRetried(ctx context.Context) {
	if m == nil {
		return
	}
	m.retries.Add(ctx, 1)
}
