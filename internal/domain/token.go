package domain

import "time"

// DefaultTokenType is used when the API omits the token type.
const DefaultTokenType = "Bearer"

// TokenPair represents the access/refresh credential pair issued by the API
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
}

// TypeOrDefault returns the token type, falling back to DefaultTokenType
func (p TokenPair) TypeOrDefault() string {
	if p.TokenType == "" {
		return DefaultTokenType
	}
	return p.TokenType
}

// TokenClaims represents the decoded JWT claims consumed by the client.
// ExpiresAt is zero when the token carries no usable exp claim.
type TokenClaims struct {
	ExpiresAt time.Time
}

// IsExpired reports whether the claims are expired at now.
// A token expiring exactly at the current second counts as expired.
func (tc TokenClaims) IsExpired(now time.Time) bool {
	if tc.ExpiresAt.IsZero() {
		return true
	}
	return !tc.ExpiresAt.After(time.Unix(now.Unix(), 0))
}
