package utils

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/prperemyshlev/pettracker-client/internal/domain"
)

var urlSafeToStd = strings.NewReplacer("-", "+", "_", "/")

var unixEpoch = time.Unix(0, 0)

// tokenPayload holds the only claim the client consumes.
// jwt.NumericDate does not range-check exp: a value beyond int64 seconds
// (e.g. 1e30) converts to an arbitrary instant, usually one in the far past,
// so such tokens read as expired rather than as never expiring.
type tokenPayload struct {
	ExpiresAt *jwt.NumericDate `json:"exp"`
}

// DecodePayload decodes the claims segment of a JWT without verifying its signature.
// It returns nil when the token is malformed, the segment is not base64 or not JSON.
func DecodePayload(token string) *domain.TokenClaims {
	segments := strings.Split(token, ".")
	if len(segments) < 2 {
		return nil
	}

	segment := urlSafeToStd.Replace(segments[1])
	if rem := len(segment) % 4; rem != 0 {
		segment += strings.Repeat("=", 4-rem)
	}

	raw, err := base64.StdEncoding.DecodeString(segment)
	if err != nil {
		return nil
	}

	var payload tokenPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil
	}

	claims := &domain.TokenClaims{}
	if payload.ExpiresAt != nil && !payload.ExpiresAt.Time.Equal(unixEpoch) {
		claims.ExpiresAt = payload.ExpiresAt.Time
	}

	return claims
}

// IsExpired reports whether token is expired at now.
// Undecodable tokens and tokens without exp are treated as expired.
func IsExpired(token string, now time.Time) bool {
	claims := DecodePayload(token)
	if claims == nil {
		return true
	}
	return claims.IsExpired(now)
}

// ExpiresAt returns the token expiry instant, if the token carries one
func ExpiresAt(token string) (time.Time, bool) {
	claims := DecodePayload(token)
	if claims == nil || claims.ExpiresAt.IsZero() {
		return time.Time{}, false
	}
	return claims.ExpiresAt, true
}

// RedactToken keeps a short prefix of token for log correlation
func RedactToken(token string) string {
	if len(token) <= 8 {
		return "[REDACTED_TOKEN]"
	}
	return token[:8] + "..."
}
