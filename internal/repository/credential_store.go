package repository

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/prperemyshlev/pettracker-client/internal/domain"
)

// DefaultNamespace prefixes every key written by the credential store
const DefaultNamespace = "pettracker.auth"

// CredentialStore is a best-effort persistent store for the session's
// tokens and identity.
//
// Backend failures never reach the caller: reads degrade to "absent" and
// writes are dropped, both with a warning in the log. An empty stored value
// is treated as absent.
type CredentialStore struct {
	backend   Backend
	namespace string
	logger    *zap.Logger
}

// NewCredentialStore creates a credential store on top of backend
func NewCredentialStore(backend Backend, namespace string, logger *zap.Logger) *CredentialStore {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CredentialStore{
		backend:   backend,
		namespace: namespace,
		logger:    logger.Named("credentials"),
	}
}

func (s *CredentialStore) AccessToken(ctx context.Context) string {
	return s.get(ctx, KeyAccessToken)
}

func (s *CredentialStore) SetAccessToken(ctx context.Context, token string) {
	s.set(ctx, KeyAccessToken, token)
}

func (s *CredentialStore) ClearAccessToken(ctx context.Context) {
	s.delete(ctx, KeyAccessToken)
}

func (s *CredentialStore) RefreshToken(ctx context.Context) string {
	return s.get(ctx, KeyRefreshToken)
}

func (s *CredentialStore) SetRefreshToken(ctx context.Context, token string) {
	s.set(ctx, KeyRefreshToken, token)
}

func (s *CredentialStore) ClearRefreshToken(ctx context.Context) {
	s.delete(ctx, KeyRefreshToken)
}

// TokenType returns the stored token type, or domain.DefaultTokenType when absent
func (s *CredentialStore) TokenType(ctx context.Context) string {
	if tokenType := s.get(ctx, KeyTokenType); tokenType != "" {
		return tokenType
	}
	return domain.DefaultTokenType
}

func (s *CredentialStore) SetTokenType(ctx context.Context, tokenType string) {
	s.set(ctx, KeyTokenType, tokenType)
}

func (s *CredentialStore) ClearTokenType(ctx context.Context) {
	s.delete(ctx, KeyTokenType)
}

// SetTokenPair persists all three token entries of a pair
func (s *CredentialStore) SetTokenPair(ctx context.Context, pair domain.TokenPair) {
	s.SetAccessToken(ctx, pair.AccessToken)
	s.SetRefreshToken(ctx, pair.RefreshToken)
	s.SetTokenType(ctx, pair.TypeOrDefault())
}

// Identity returns the stored user identity; the zero value means none
func (s *CredentialStore) Identity(ctx context.Context) domain.Identity {
	identity := domain.Identity{
		UserID: s.get(ctx, KeyUserID),
		Login:  s.get(ctx, KeyUserLogin),
		Role:   domain.Role(s.get(ctx, KeyUserRole)),
	}
	return identity
}

func (s *CredentialStore) SetIdentity(ctx context.Context, identity domain.Identity) {
	s.set(ctx, KeyUserID, identity.UserID)
	s.set(ctx, KeyUserLogin, identity.Login)
	s.set(ctx, KeyUserRole, string(identity.Role))
}

func (s *CredentialStore) ClearIdentity(ctx context.Context) {
	s.delete(ctx, identityKeys...)
}

// Clear removes every entry owned by the session
func (s *CredentialStore) Clear(ctx context.Context) {
	s.delete(ctx, AllKeys...)
}

// Ping reports whether the backend is reachable; unlike the other
// operations its error is returned to the caller
func (s *CredentialStore) Ping(ctx context.Context) error {
	return s.backend.Ping(ctx)
}

// Close releases the backend
func (s *CredentialStore) Close() error {
	return s.backend.Close()
}

func (s *CredentialStore) key(key Key) string {
	return s.namespace + "." + string(key)
}

func (s *CredentialStore) get(ctx context.Context, key Key) string {
	value, err := s.backend.Get(ctx, s.key(key))
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.logger.Warn("credential read failed",
				zap.String("key", string(key)),
				zap.Error(err),
			)
		}
		return ""
	}
	return value
}

func (s *CredentialStore) set(ctx context.Context, key Key, value string) {
	if value == "" {
		s.delete(ctx, key)
		return
	}
	if err := s.backend.Set(ctx, s.key(key), value); err != nil {
		s.logger.Warn("credential write failed",
			zap.String("key", string(key)),
			zap.Int("length", len(value)),
			zap.Error(err),
		)
	}
}

func (s *CredentialStore) delete(ctx context.Context, keys ...Key) {
	names := make([]string, 0, len(keys))
	for _, key := range keys {
		names = append(names, s.key(key))
	}
	if err := s.backend.Delete(ctx, names...); err != nil {
		s.logger.Warn("credential delete failed",
			zap.Strings("keys", names),
			zap.Error(err),
		)
	}
}
