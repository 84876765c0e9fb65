// Package testutil provides token builders and a fake REST API for tests.
package testutil

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Token types carried in the "type" claim
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// JWTIssuer signs and validates the HS256 tokens of the fake API
type JWTIssuer struct {
	secret             []byte
	accessTokenExpiry  time.Duration
	refreshTokenExpiry time.Duration
}

// IssuedClaims are the claims the fake API reads back
type IssuedClaims struct {
	UserID string
	Type   string
	ID     string
}

// NewJWTIssuer creates a new token issuer
func NewJWTIssuer(secret string, accessTokenExpiry, refreshTokenExpiry time.Duration) *JWTIssuer {
	return &JWTIssuer{
		secret:             []byte(secret),
		accessTokenExpiry:  accessTokenExpiry,
		refreshTokenExpiry: refreshTokenExpiry,
	}
}

// GenerateAccessToken generates a new access token
func (j *JWTIssuer) GenerateAccessToken(userID string) (string, error) {
	return j.generate(userID, TokenTypeAccess, j.accessTokenExpiry)
}

// GenerateRefreshToken generates a new refresh token
func (j *JWTIssuer) GenerateRefreshToken(userID string) (string, error) {
	return j.generate(userID, TokenTypeRefresh, j.refreshTokenExpiry)
}

func (j *JWTIssuer) generate(userID, tokenType string, expiry time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"type":    tokenType,
		"exp":     now.Add(expiry).Unix(),
		"iat":     now.Unix(),
		"jti":     uuid.NewString(),
	})

	tokenString, err := token.SignedString(j.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign %s token: %w", tokenType, err)
	}
	return tokenString, nil
}

// ValidateToken validates signature, expiry and type of a token
func (j *JWTIssuer) ValidateToken(tokenString, wantType string) (*IssuedClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return j.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	issued := &IssuedClaims{}
	issued.UserID, _ = claims["user_id"].(string)
	issued.Type, _ = claims["type"].(string)
	issued.ID, _ = claims["jti"].(string)

	if issued.Type != wantType {
		return nil, fmt.Errorf("expected %s token, got %q", wantType, issued.Type)
	}
	return issued, nil
}

// TokenExpiringAt builds an unsigned JWT whose exp is exp.
// Each call yields a distinct token.
func TokenExpiringAt(exp time.Time) string {
	return UnsignedToken(map[string]any{"sub": "user", "exp": exp.Unix(), "jti": uuid.NewString()})
}

// TokenWithoutExp builds an unsigned JWT carrying no exp claim
func TokenWithoutExp() string {
	return UnsignedToken(map[string]any{"sub": "user"})
}

// UnsignedToken encodes claims as a JWT with an alg=none header and a dummy signature
func UnsignedToken(claims map[string]any) string {
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"none","typ":"JWT"}`))
	payload, err := json.Marshal(claims)
	if err != nil {
		panic(fmt.Sprintf("encode claims: %v", err))
	}
	return header + "." + base64.RawURLEncoding.EncodeToString(payload) + ".sig"
}

// RawToken builds a token whose payload segment is payload verbatim
func RawToken(payload string) string {
	return "eyJhbGciOiJub25lIn0." + payload + ".sig"
}
