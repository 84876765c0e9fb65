package service

import (
	"context"

	"github.com/prperemyshlev/pettracker-client/internal/domain"
	"github.com/prperemyshlev/pettracker-client/internal/dto"
)

// Refresher exchanges a refresh token for a new token pair over the network
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (domain.TokenPair, error)
}

// SessionTokens is the part of the session manager the refresh path needs
type SessionTokens interface {
	ValidRefreshToken(ctx context.Context) (string, bool)
	UpdateTokenPair(ctx context.Context, pair domain.TokenPair)
}

// RefreshRecorder observes completed refresh attempts
type RefreshRecorder interface {
	RefreshCompleted(ctx context.Context, err error)
}

// AuthAPI is the credential-less part of the REST API
type AuthAPI interface {
	Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error)
	Register(ctx context.Context, req dto.RegisterRequest) error
}

// SessionWriter establishes and drops sessions
type SessionWriter interface {
	SetSessionFromLoginResponse(ctx context.Context, identity domain.Identity, pair domain.TokenPair)
	ClearSession(ctx context.Context)
}

// AuthService defines the user-driven authentication flows
type AuthService interface {
	Login(ctx context.Context, req dto.LoginRequest) (domain.Identity, error)
	Register(ctx context.Context, req dto.RegisterRequest) error
	RegisterAndLogin(ctx context.Context, req dto.RegisterRequest) (domain.Identity, error)
	Logout(ctx context.Context)
}
