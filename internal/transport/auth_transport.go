// Package transport holds the HTTP client pipeline: credential attachment,
// auth failure handling with a single refresh-and-retry, and request ids.
package transport

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/prperemyshlev/pettracker-client/internal/authevents"
	"github.com/prperemyshlev/pettracker-client/internal/session"
)

// ErrSessionExpired is returned when a 401 could not be recovered by a refresh
var ErrSessionExpired = errors.New("session expired")

const authorizationHeader = "Authorization"

// AuthTransport attaches credentials to API requests and reacts to 401 and
// 403 responses.
//
// A protected request answered with 401 triggers one shared refresh and is
// replayed once with the retry marker set; the replay passes through this
// transport again, so a second 401 ends the session instead of refreshing.
type AuthTransport struct {
	next       http.RoundTripper
	classifier *Classifier
	session    Session
	refresher  TokenRefresher
	metrics    RetryRecorder
	logger     *zap.Logger
}

// AuthTransportOption configures an AuthTransport
type AuthTransportOption func(*AuthTransport)

func WithRetryRecorder(metrics RetryRecorder) AuthTransportOption {
	return func(t *AuthTransport) {
		t.metrics = metrics
	}
}

func WithLogger(logger *zap.Logger) AuthTransportOption {
	return func(t *AuthTransport) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// NewAuthTransport creates a new auth transport on top of next
func NewAuthTransport(next http.RoundTripper, classifier *Classifier, session Session, refresher TokenRefresher, opts ...AuthTransportOption) *AuthTransport {
	if next == nil {
		next = http.DefaultTransport
	}
	t := &AuthTransport{
		next:       next,
		classifier: classifier,
		session:    session,
		refresher:  refresher,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	t.logger = t.logger.Named("transport")
	return t
}

// NewPipeline builds the client transport chain:
// auth handling, request ids, then otel instrumentation over base
func NewPipeline(base http.RoundTripper, classifier *Classifier, session Session, refresher TokenRefresher, opts ...AuthTransportOption) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	instrumented := otelhttp.NewTransport(base)
	return NewAuthTransport(NewRequestIDTransport(instrumented), classifier, session, refresher, opts...)
}

func (t *AuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if !t.classifier.IsAPIRequest(req) {
		return t.next.RoundTrip(req)
	}

	ctx := req.Context()
	skip := SkipsAuth(ctx)
	authEndpoint := t.classifier.IsAuthEndpoint(req)
	mayRetry := !skip && !authEndpoint && !RetryAttempted(ctx)

	var attach string
	if !skip && req.Header.Get(authorizationHeader) == "" {
		attach, _ = t.session.AuthorizationHeaderValue(ctx)
	}

	if attach != "" || (mayRetry && needsBuffering(req)) {
		req = req.Clone(ctx)
		if attach != "" {
			req.Header.Set(authorizationHeader, attach)
		}
		if mayRetry {
			if err := bufferBody(req); err != nil {
				return nil, err
			}
		}
	}

	resp, err := t.next.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	if skip || authEndpoint {
		return resp, nil
	}

	switch resp.StatusCode {
	case http.StatusForbidden:
		t.logger.Warn("protected request forbidden",
			zap.String("method", req.Method),
			zap.String("path", req.URL.Path),
		)
		t.session.ForceLogout(ctx, authevents.Forbidden, session.ReasonForbidden)
		return resp, nil

	case http.StatusUnauthorized:
		if RetryAttempted(ctx) {
			t.logger.Warn("retried request rejected",
				zap.String("method", req.Method),
				zap.String("path", req.URL.Path),
			)
			t.session.ForceLogout(ctx, authevents.Unauthorized, session.ReasonRetryRejected)
			return resp, nil
		}
		return t.refreshAndRetry(req, resp)

	default:
		return resp, nil
	}
}

func (t *AuthTransport) refreshAndRetry(req *http.Request, resp *http.Response) (*http.Response, error) {
	ctx := req.Context()
	discard(resp)

	if _, err := t.refresher.RefreshTokens(ctx); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		t.session.ForceLogout(ctx, authevents.Unauthorized, session.ReasonRefreshFailed)
		return nil, fmt.Errorf("%w: %w", ErrSessionExpired, err)
	}

	retry, err := replay(req)
	if err != nil {
		return nil, err
	}
	if value, ok := t.session.AuthorizationHeaderValue(ctx); ok {
		retry.Header.Set(authorizationHeader, value)
	}

	if t.metrics != nil {
		t.metrics.RequestRetried(ctx)
	}
	t.logger.Debug("retrying request after refresh",
		zap.String("method", req.Method),
		zap.String("path", req.URL.Path),
	)

	return t.RoundTrip(retry)
}

func needsBuffering(req *http.Request) bool {
	return req.Body != nil && req.Body != http.NoBody && req.GetBody == nil
}

// bufferBody makes the body of a cloned request replayable
func bufferBody(req *http.Request) error {
	if !needsBuffering(req) {
		return nil
	}

	data, err := io.ReadAll(req.Body)
	_ = req.Body.Close()
	if err != nil {
		return fmt.Errorf("failed to buffer request body: %w", err)
	}

	req.Body = io.NopCloser(bytes.NewReader(data))
	req.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(data)), nil
	}
	req.ContentLength = int64(len(data))
	return nil
}

func replay(req *http.Request) (*http.Request, error) {
	retry := req.Clone(WithRetryAttempted(req.Context()))

	if req.Body != nil && req.Body != http.NoBody {
		if req.GetBody == nil {
			return nil, fmt.Errorf("request body for %s %s cannot be replayed", req.Method, req.URL.Path)
		}
		body, err := req.GetBody()
		if err != nil {
			return nil, fmt.Errorf("failed to rewind request body: %w", err)
		}
		retry.Body = body
	}

	return retry, nil
}

func discard(resp *http.Response) {
	if resp == nil || resp.Body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	_ = resp.Body.Close()
}
