package transport

import "context"

type contextKey int

const (
	skipAuthKey contextKey = iota
	retryAttemptedKey
)

// WithSkipAuth marks requests made with ctx as opted out of credential
// attachment and auth failure handling
func WithSkipAuth(ctx context.Context) context.Context {
	return context.WithValue(ctx, skipAuthKey, true)
}

// SkipsAuth reports whether ctx carries the opt-out marker
func SkipsAuth(ctx context.Context) bool {
	skip, _ := ctx.Value(skipAuthKey).(bool)
	return skip
}

// WithRetryAttempted marks requests made with ctx as already retried after a refresh
func WithRetryAttempted(ctx context.Context) context.Context {
	return context.WithValue(ctx, retryAttemptedKey, true)
}

// RetryAttempted reports whether ctx carries the retry marker
func RetryAttempted(ctx context.Context) bool {
	retried, _ := ctx.Value(retryAttemptedKey).(bool)
	return retried
}
