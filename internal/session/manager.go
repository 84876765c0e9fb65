// Package session owns the authenticated session lifecycle: persisted
// credentials, proactive access-token expiry and forced logout.
package session

import (
	"context"
	"sync"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/prperemyshlev/pettracker-client/internal/authevents"
	"github.com/prperemyshlev/pettracker-client/internal/domain"
	"github.com/prperemyshlev/pettracker-client/internal/utils"
)

// LoginPath is the view forced logouts navigate to
const LoginPath = "/login"

// Logout reasons reported to logs and metrics
const (
	ReasonSessionExpired = "session_expired"
	ReasonRefreshExpired = "refresh_token_expired"
	ReasonAccessExpired  = "access_token_expired"
	ReasonUndecodable    = "undecodable_access_token"
	ReasonRefreshFailed  = "refresh_failed"
	ReasonRetryRejected  = "retry_unauthorized"
	ReasonForbidden      = "forbidden"
)

// Manager derives session state from the credential store and the token
// claims, arms the access-token expiry timer and drives forced logout.
//
// All methods are safe for concurrent use. Auth events and navigation are
// issued after the internal lock is released.
type Manager struct {
	mu sync.Mutex

	store   Store
	events  *authevents.Channel
	nav     Navigator
	clock   clockwork.Clock
	logger  *zap.Logger
	metrics LogoutRecorder

	timer clockwork.Timer
	// timerGen invalidates callbacks of timers that were stopped after firing.
	timerGen uint64
}

// NewManager creates a session manager. nav may be nil when the process has no views.
func NewManager(store Store, events *authevents.Channel, nav Navigator, opts ...Option) *Manager {
	m := &Manager{
		store:  store,
		events: events,
		nav:    nav,
		clock:  clockwork.NewRealClock(),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.Named("session")
	return m
}

// InitializeSessionLifecycle reconciles persisted credentials with the
// current time and arms the expiry timer. Call once at startup.
func (m *Manager) InitializeSessionLifecycle(ctx context.Context) {
	m.mu.Lock()
	logout := m.initLocked(ctx)
	m.mu.Unlock()

	if logout {
		m.notifyLogout(ctx, authevents.Unauthorized, ReasonSessionExpired)
	}
}

func (m *Manager) initLocked(ctx context.Context) bool {
	now := m.clock.Now()
	refresh := m.store.RefreshToken(ctx)
	access := m.store.AccessToken(ctx)

	if refresh == "" && access == "" {
		m.stopTimerLocked()
		return false
	}

	if refresh != "" && utils.IsExpired(refresh, now) {
		m.clearLocked(ctx)
		return true
	}

	if access == "" {
		m.stopTimerLocked()
		return false
	}

	if utils.IsExpired(access, now) {
		return m.clearExpiredAccessLocked(ctx)
	}

	return m.scheduleLocked(ctx, access)
}

// SetSessionFromLoginResponse persists a freshly issued session and arms its expiry timer
func (m *Manager) SetSessionFromLoginResponse(ctx context.Context, identity domain.Identity, pair domain.TokenPair) {
	m.mu.Lock()
	m.store.SetIdentity(ctx, identity)
	m.store.SetTokenPair(ctx, pair)
	logout := m.scheduleLocked(ctx, pair.AccessToken)
	m.mu.Unlock()

	m.logger.Info("session established",
		zap.String("login", identity.Login),
		zap.String("access_token", utils.RedactToken(pair.AccessToken)),
	)

	if logout {
		m.notifyLogout(ctx, authevents.Unauthorized, ReasonUndecodable)
	}
}

// UpdateTokenPair replaces the persisted tokens after a refresh and reschedules expiry
func (m *Manager) UpdateTokenPair(ctx context.Context, pair domain.TokenPair) {
	m.mu.Lock()
	m.store.SetTokenPair(ctx, pair)
	logout := m.scheduleLocked(ctx, pair.AccessToken)
	m.mu.Unlock()

	m.logger.Debug("token pair updated",
		zap.String("access_token", utils.RedactToken(pair.AccessToken)),
	)

	if logout {
		m.notifyLogout(ctx, authevents.Unauthorized, ReasonUndecodable)
	}
}

// AuthorizationHeaderValue returns "<type> <access token>" while the access token is valid.
// An expired access token is cleared on the way.
func (m *Manager) AuthorizationHeaderValue(ctx context.Context) (string, bool) {
	m.mu.Lock()
	token, logout := m.validAccessLocked(ctx)
	tokenType := ""
	if token != "" {
		tokenType = m.store.TokenType(ctx)
	}
	m.mu.Unlock()

	if logout {
		m.notifyLogout(ctx, authevents.Unauthorized, ReasonAccessExpired)
	}
	if token == "" {
		return "", false
	}
	return tokenType + " " + token, true
}

// ValidAccessToken returns the access token if it has not expired
func (m *Manager) ValidAccessToken(ctx context.Context) (string, bool) {
	m.mu.Lock()
	token, logout := m.validAccessLocked(ctx)
	m.mu.Unlock()

	if logout {
		m.notifyLogout(ctx, authevents.Unauthorized, ReasonAccessExpired)
	}
	return token, token != ""
}

func (m *Manager) validAccessLocked(ctx context.Context) (string, bool) {
	access := m.store.AccessToken(ctx)
	if access == "" {
		return "", false
	}
	if utils.IsExpired(access, m.clock.Now()) {
		return "", m.clearExpiredAccessLocked(ctx)
	}
	return access, false
}

// ValidRefreshToken returns the refresh token if it has not expired.
// Finding it expired ends the session.
func (m *Manager) ValidRefreshToken(ctx context.Context) (string, bool) {
	m.mu.Lock()
	refresh := m.store.RefreshToken(ctx)
	expired := refresh != "" && utils.IsExpired(refresh, m.clock.Now())
	if expired {
		m.clearLocked(ctx)
	}
	m.mu.Unlock()

	if expired {
		m.notifyLogout(ctx, authevents.Unauthorized, ReasonRefreshExpired)
		return "", false
	}
	return refresh, refresh != ""
}

// HasActiveSession reports whether requests can still be authenticated.
// Credentials found expired are cleared without an auth event.
func (m *Manager) HasActiveSession(ctx context.Context) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock.Now()
	refresh := m.store.RefreshToken(ctx)
	access := m.store.AccessToken(ctx)

	switch {
	case refresh == "" && access == "":
		return false
	case refresh != "":
		if utils.IsExpired(refresh, now) {
			m.clearLocked(ctx)
			return false
		}
		return true
	case utils.IsExpired(access, now):
		m.clearLocked(ctx)
		return false
	default:
		return true
	}
}

// HandleExpiredToken ends the session with a 401 auth event
func (m *Manager) HandleExpiredToken(ctx context.Context) {
	m.ForceLogout(ctx, authevents.Unauthorized, ReasonSessionExpired)
}

// ForceLogout clears every credential, publishes code and navigates to the
// login view unless it is already shown
func (m *Manager) ForceLogout(ctx context.Context, code authevents.Code, reason string) {
	m.mu.Lock()
	m.clearLocked(ctx)
	m.mu.Unlock()

	m.notifyLogout(ctx, code, reason)
}

// ClearSession is an explicit logout: credentials and timer are dropped, no event is published
func (m *Manager) ClearSession(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.clearLocked(ctx)
}

// Identity returns the persisted user identity
func (m *Manager) Identity(ctx context.Context) domain.Identity {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.store.Identity(ctx)
}

// State classifies the persisted credentials without mutating them
func (m *Manager) State(ctx context.Context) domain.SessionState {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock.Now()
	refresh := m.store.RefreshToken(ctx)
	access := m.store.AccessToken(ctx)

	switch {
	case refresh == "" && access == "":
		return domain.SessionNone
	case refresh != "" && utils.IsExpired(refresh, now):
		return domain.SessionExpired
	case access == "" || utils.IsExpired(access, now):
		if refresh == "" {
			return domain.SessionExpired
		}
		return domain.SessionAccessExpiredRefreshValid
	case m.timer != nil:
		return domain.SessionActiveWithTimer
	default:
		return domain.SessionActiveNoTimer
	}
}

// Close stops the expiry timer
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stopTimerLocked()
}

// scheduleLocked arms the expiry timer for access, replacing any prior timer.
// It reports whether the session had to be terminated.
func (m *Manager) scheduleLocked(ctx context.Context, access string) bool {
	m.stopTimerLocked()

	expiresAt, ok := utils.ExpiresAt(access)
	if !ok {
		m.clearLocked(ctx)
		return true
	}

	delay := expiresAt.Sub(m.clock.Now())
	if delay <= 0 {
		return m.clearExpiredAccessLocked(ctx)
	}

	gen := m.timerGen
	m.timer = m.clock.AfterFunc(delay, func() { m.onTimer(gen) })

	m.logger.Debug("access token expiry scheduled",
		zap.Time("expires_at", expiresAt),
		zap.Duration("delay", delay),
	)
	return false
}

// onTimer treats the timer as a hint only; validity is re-derived from the claims.
func (m *Manager) onTimer(gen uint64) {
	ctx := context.Background()

	m.mu.Lock()
	if gen != m.timerGen {
		m.mu.Unlock()
		return
	}
	m.timer = nil

	var logout bool
	access := m.store.AccessToken(ctx)
	if access != "" && !utils.IsExpired(access, m.clock.Now()) {
		logout = m.scheduleLocked(ctx, access)
	} else {
		logout = m.clearExpiredAccessLocked(ctx)
	}
	m.mu.Unlock()

	if logout {
		m.notifyLogout(ctx, authevents.Unauthorized, ReasonAccessExpired)
	}
}

// clearExpiredAccessLocked drops only the access token while the refresh
// token can still restore access; otherwise it ends the session.
func (m *Manager) clearExpiredAccessLocked(ctx context.Context) bool {
	m.stopTimerLocked()

	refresh := m.store.RefreshToken(ctx)
	if refresh == "" || utils.IsExpired(refresh, m.clock.Now()) {
		m.clearLocked(ctx)
		return true
	}

	m.store.ClearAccessToken(ctx)
	m.logger.Debug("expired access token cleared")
	return false
}

func (m *Manager) clearLocked(ctx context.Context) {
	m.stopTimerLocked()
	m.store.Clear(ctx)
}

func (m *Manager) stopTimerLocked() {
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	m.timerGen++
}

func (m *Manager) notifyLogout(ctx context.Context, code authevents.Code, reason string) {
	m.logger.Info("session terminated",
		zap.Int("code", int(code)),
		zap.String("reason", reason),
	)

	if m.metrics != nil {
		m.metrics.ForcedLogout(ctx, reason)
	}
	if m.events != nil {
		m.events.Emit(ctx, code)
	}
	if m.nav != nil && m.nav.CurrentPath() != LoginPath {
		m.nav.Navigate(LoginPath)
	}
}
