package api

import (
	"context"
	"net/http"

	"github.com/prperemyshlev/pettracker-client/internal/domain"
	"github.com/prperemyshlev/pettracker-client/internal/dto"
	"github.com/prperemyshlev/pettracker-client/internal/transport"
)

// AuthService calls the auth endpoints; every call opts out of credential handling
type AuthService struct {
	client *Client
}

// NewAuthService creates a new auth endpoints wrapper
func NewAuthService(client *Client) *AuthService {
	return &AuthService{client: client}
}

func (s *AuthService) Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error) {
	var resp dto.LoginResponse
	if err := s.client.do(transport.WithSkipAuth(ctx), http.MethodPost, "/api/v1/auth/login", nil, req, &resp); err != nil {
		return nil, err
	}
	if resp.Tokens.AccessToken == "" || resp.Tokens.RefreshToken == "" {
		return nil, &Error{Kind: KindDecode, Method: http.MethodPost, Path: "/api/v1/auth/login", Status: http.StatusOK, Err: ErrInvalidResponse}
	}
	return &resp, nil
}

// Register creates an account; the response body is not used
func (s *AuthService) Register(ctx context.Context, req dto.RegisterRequest) error {
	return s.client.do(transport.WithSkipAuth(ctx), http.MethodPost, "/api/v1/auth/register", nil, req, nil)
}

// Refresh exchanges refreshToken for a new token pair
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (domain.TokenPair, error) {
	var resp dto.RefreshTokenResponse
	req := dto.RefreshTokenRequest{RefreshToken: refreshToken}
	if err := s.client.do(transport.WithSkipAuth(ctx), http.MethodPost, "/api/v1/auth/refresh", nil, req, &resp); err != nil {
		return domain.TokenPair{}, err
	}
	if resp.Tokens.AccessToken == "" || resp.Tokens.RefreshToken == "" {
		return domain.TokenPair{}, &Error{Kind: KindDecode, Method: http.MethodPost, Path: "/api/v1/auth/refresh", Status: http.StatusOK, Err: ErrInvalidResponse}
	}
	return resp.Tokens.ToDomain(), nil
}
