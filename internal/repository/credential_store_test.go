package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/prperemyshlev/pettracker-client/internal/domain"
)

type CredentialStoreSuite struct {
	suite.Suite
	ctx     context.Context
	backend *MemoryBackend
	store   *CredentialStore
}

func TestCredentialStoreSuite(t *testing.T) {
	suite.Run(t, new(CredentialStoreSuite))
}

func (s *CredentialStoreSuite) SetupTest() {
	s.ctx = context.Background()
	s.backend = NewMemoryBackend()
	s.store = NewCredentialStore(s.backend, "", zap.NewNop())
}

func (s *CredentialStoreSuite) TestEmptyStoreReadsAbsent() {
	s.Empty(s.store.AccessToken(s.ctx))
	s.Empty(s.store.RefreshToken(s.ctx))
	s.Equal(domain.DefaultTokenType, s.store.TokenType(s.ctx))
	s.True(s.store.Identity(s.ctx).IsZero())
}

func (s *CredentialStoreSuite) TestSetTokenPair() {
	s.store.SetTokenPair(s.ctx, domain.TokenPair{
		AccessToken:  "access",
		RefreshToken: "refresh",
		TokenType:    "DPoP",
	})

	s.Equal("access", s.store.AccessToken(s.ctx))
	s.Equal("refresh", s.store.RefreshToken(s.ctx))
	s.Equal("DPoP", s.store.TokenType(s.ctx))

	raw, err := s.backend.Get(s.ctx, "pettracker.auth.access_token")
	s.Require().NoError(err)
	s.Equal("access", raw)
}

func (s *CredentialStoreSuite) TestSetTokenPairDefaultsType() {
	s.store.SetTokenPair(s.ctx, domain.TokenPair{AccessToken: "a", RefreshToken: "r"})

	raw, err := s.backend.Get(s.ctx, "pettracker.auth.token_type")
	s.Require().NoError(err)
	s.Equal("Bearer", raw)
}

func (s *CredentialStoreSuite) TestEmptyValueIsAbsent() {
	s.store.SetAccessToken(s.ctx, "access")
	s.store.SetAccessToken(s.ctx, "")

	_, err := s.backend.Get(s.ctx, "pettracker.auth.access_token")
	s.ErrorIs(err, ErrNotFound)
	s.Empty(s.store.AccessToken(s.ctx))
}

func (s *CredentialStoreSuite) TestClearAccessTokenKeepsRefresh() {
	s.store.SetTokenPair(s.ctx, domain.TokenPair{AccessToken: "a", RefreshToken: "r"})

	s.store.ClearAccessToken(s.ctx)

	s.Empty(s.store.AccessToken(s.ctx))
	s.Equal("r", s.store.RefreshToken(s.ctx))
}

func (s *CredentialStoreSuite) TestIdentityRoundTrip() {
	identity := domain.Identity{UserID: "42", Login: "alice", Role: domain.RoleUser}
	s.store.SetIdentity(s.ctx, identity)

	s.Equal(identity, s.store.Identity(s.ctx))

	s.store.ClearIdentity(s.ctx)
	s.True(s.store.Identity(s.ctx).IsZero())
}

func (s *CredentialStoreSuite) TestClearRemovesEverything() {
	s.store.SetTokenPair(s.ctx, domain.TokenPair{AccessToken: "a", RefreshToken: "r", TokenType: "Bearer"})
	s.store.SetIdentity(s.ctx, domain.Identity{UserID: "1", Login: "bob", Role: domain.RoleAdmin})

	s.store.Clear(s.ctx)

	for _, key := range AllKeys {
		_, err := s.backend.Get(s.ctx, "pettracker.auth."+string(key))
		s.ErrorIs(err, ErrNotFound, "key %s", key)
	}
}

func (s *CredentialStoreSuite) TestNamespaceIsolation() {
	other := NewCredentialStore(s.backend, "other", nil)

	s.store.SetAccessToken(s.ctx, "mine")
	other.SetAccessToken(s.ctx, "theirs")

	s.Equal("mine", s.store.AccessToken(s.ctx))
	s.Equal("theirs", other.AccessToken(s.ctx))
}

// brokenBackend fails every operation
type brokenBackend struct{}

var errBroken = errors.New("storage unavailable")

func (brokenBackend) Get(context.Context, string) (string, error) { return "", errBroken }
func (brokenBackend) Set(context.Context, string, string) error   { return errBroken }
func (brokenBackend) Delete(context.Context, ...string) error     { return errBroken }
func (brokenBackend) Ping(context.Context) error                  { return errBroken }
func (brokenBackend) Close() error                                { return nil }

func TestCredentialStore_SwallowsBackendFailures(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	store := NewCredentialStore(brokenBackend{}, "", zap.New(core))
	ctx := context.Background()

	store.SetTokenPair(ctx, domain.TokenPair{AccessToken: "secret-access-token", RefreshToken: "r"})
	store.Clear(ctx)

	if got := store.AccessToken(ctx); got != "" {
		t.Errorf("Expected absent access token, got %q", got)
	}
	if err := store.Ping(ctx); !errors.Is(err, errBroken) {
		t.Errorf("Expected Ping to surface backend error, got %v", err)
	}
	if logs.Len() == 0 {
		t.Fatal("Expected failures to be logged")
	}
	for _, entry := range logs.All() {
		for _, field := range entry.Context {
			if field.String == "secret-access-token" {
				t.Errorf("Token value leaked into log entry %q", entry.Message)
			}
		}
	}
}
