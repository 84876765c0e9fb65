package utils

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prperemyshlev/pettracker-client/internal/testutil"
)

func TestIsExpired(t *testing.T) {
	now := time.Unix(1700000000, 0)

	tests := []struct {
		name    string
		token   string
		expired bool
	}{
		{name: "single segment", token: "eyJleHAiOjE3MDAwMDAwNjB9", expired: true},
		{name: "empty token", token: "", expired: true},
		{name: "payload is not base64", token: testutil.RawToken("!!not*base64!!"), expired: true},
		{name: "payload is not json", token: testutil.RawToken("bm90IGpzb24"), expired: true},
		{name: "null payload", token: testutil.RawToken("bnVsbA"), expired: true},
		{name: "exp is not a number", token: testutil.UnsignedToken(map[string]any{"exp": "tomorrow"}), expired: true},
		{name: "missing exp", token: testutil.TokenWithoutExp(), expired: true},
		{name: "exp is zero", token: testutil.UnsignedToken(map[string]any{"exp": 0}), expired: true},
		{name: "exp equals now", token: testutil.TokenExpiringAt(now), expired: true},
		{name: "exp in the past", token: testutil.TokenExpiringAt(now.Add(-time.Hour)), expired: true},
		{name: "exp one second ahead", token: testutil.TokenExpiringAt(now.Add(time.Second)), expired: false},
		{name: "fractional exp ahead", token: testutil.UnsignedToken(map[string]any{"exp": 1700000030.5}), expired: false},
		{name: "url-safe payload without padding", token: testutil.RawToken("eyJleHAiOjE3MDAwMDAwNjAsIm5hbWUiOiI_Pz5hIn0"), expired: false},
		{name: "url-safe payload with dash", token: testutil.RawToken("eyJleHAiOjE3MDAwMDAwNjAsIm5hbWUiOiJ-fn4ifQ"), expired: false},
		{name: "padded payload", token: testutil.RawToken("eyJleHAiOjE3MDAwMDAwNjAgfQ=="), expired: false},
		{name: "two segments", token: "eyJhbGciOiJub25lIn0.eyJleHAiOjE3MDAwMDAwNjB9", expired: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expired, IsExpired(tt.token, now))
		})
	}
}

func TestDecodePayload_Malformed(t *testing.T) {
	for _, token := range []string{
		"opaque-refresh-token",
		testutil.RawToken("%%%"),
		testutil.RawToken("bm90IGpzb24"),
	} {
		assert.Nil(t, DecodePayload(token), token)
	}
}

func TestDecodePayload_URLSafePayload(t *testing.T) {
	segment := "eyJleHAiOjE3MDAwMDAwNjAsIm5hbWUiOiI_Pz4ifQ"
	require.True(t, strings.ContainsAny(segment, "-_"))
	require.NotZero(t, len(segment)%4)

	claims := DecodePayload(testutil.RawToken(segment))
	require.NotNil(t, claims)
	assert.True(t, claims.ExpiresAt.Equal(time.Unix(1700000060, 0)))
}

func TestExpiresAt(t *testing.T) {
	exp := time.Unix(1700000060, 0)

	got, ok := ExpiresAt(testutil.TokenExpiringAt(exp))
	require.True(t, ok)
	assert.True(t, got.Equal(exp))

	_, ok = ExpiresAt(testutil.TokenWithoutExp())
	assert.False(t, ok)

	_, ok = ExpiresAt(testutil.UnsignedToken(map[string]any{"exp": 0}))
	assert.False(t, ok)
}
