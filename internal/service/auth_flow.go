package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/prperemyshlev/pettracker-client/internal/domain"
	"github.com/prperemyshlev/pettracker-client/internal/dto"
	"github.com/prperemyshlev/pettracker-client/internal/utils"
)

// authService implements AuthService interface
type authService struct {
	api     AuthAPI
	session SessionWriter
	logger  *zap.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(api AuthAPI, session SessionWriter, logger *zap.Logger) AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &authService{
		api:     api,
		session: session,
		logger:  logger.Named("auth"),
	}
}

// Login authenticates the user and establishes the session
func (s *authService) Login(ctx context.Context, req dto.LoginRequest) (domain.Identity, error) {
	if err := utils.ValidateLoginRequest(req); err != nil {
		return domain.Identity{}, err
	}

	resp, err := s.api.Login(ctx, req)
	if err != nil {
		return domain.Identity{}, fmt.Errorf("login failed: %w", err)
	}

	identity := resp.Identity()
	s.session.SetSessionFromLoginResponse(ctx, identity, resp.Tokens.ToDomain())

	s.logger.Info("user logged in",
		zap.String("login", identity.Login),
		zap.String("role", string(identity.Role)),
	)

	return identity, nil
}

// Register validates the form and creates the account
func (s *authService) Register(ctx context.Context, req dto.RegisterRequest) error {
	if err := utils.ValidateRegisterRequest(req); err != nil {
		return err
	}

	if err := s.api.Register(ctx, req); err != nil {
		return fmt.Errorf("registration failed: %w", err)
	}

	s.logger.Info("user registered", zap.String("login", req.Login))
	return nil
}

// RegisterAndLogin registers the account and logs in with the same credentials
func (s *authService) RegisterAndLogin(ctx context.Context, req dto.RegisterRequest) (domain.Identity, error) {
	if err := s.Register(ctx, req); err != nil {
		return domain.Identity{}, err
	}

	return s.Login(ctx, dto.LoginRequest{
		Login:    req.Login,
		Password: req.Password,
	})
}

// Logout drops the local session; the API keeps no server-side logout
func (s *authService) Logout(ctx context.Context) {
	s.session.ClearSession(ctx)
	s.logger.Info("user logged out")
}
