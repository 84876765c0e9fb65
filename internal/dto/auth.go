package dto

import (
	"strconv"

	"github.com/prperemyshlev/pettracker-client/internal/domain"
)

// RegisterRequest represents a registration request
type RegisterRequest struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Login           string `json:"login"`
	ConfirmLogin    string `json:"confirmLogin"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

// LoginRequest represents a login request
type LoginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

// TokenPair represents the token pair returned by login and refresh
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	TokenType    string `json:"tokenType"`
}

// ToDomain converts the wire token pair into the domain type
func (t TokenPair) ToDomain() domain.TokenPair {
	return domain.TokenPair{
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		TokenType:    t.TokenType,
	}
}

// LoginResponse represents a login response
type LoginResponse struct {
	ID     int64     `json:"id"`
	Login  string    `json:"login"`
	Role   string    `json:"role"`
	Tokens TokenPair `json:"tokens"`
}

// Identity extracts the user identity persisted alongside the tokens
func (r LoginResponse) Identity() domain.Identity {
	return domain.Identity{
		UserID: strconv.FormatInt(r.ID, 10),
		Login:  r.Login,
		Role:   domain.Role(r.Role),
	}
}

// RefreshTokenRequest represents a token refresh request
type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// RefreshTokenResponse represents a token refresh response
type RefreshTokenResponse struct {
	Tokens TokenPair `json:"tokens"`
}
