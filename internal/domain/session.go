package domain

// SessionState describes where the session lifecycle currently is.
type SessionState int

const (
	// SessionNone means no credentials are persisted.
	SessionNone SessionState = iota
	// SessionActiveNoTimer means a valid access token exists but no expiry timer is armed yet.
	SessionActiveNoTimer
	// SessionActiveWithTimer means a valid access token exists and its expiry timer is armed.
	SessionActiveWithTimer
	// SessionAccessExpiredRefreshValid means only the refresh token is usable.
	SessionAccessExpiredRefreshValid
	// SessionExpired means the persisted credentials can no longer be used.
	SessionExpired
)

func (s SessionState) String() string {
	switch s {
	case SessionNone:
		return "no_session"
	case SessionActiveNoTimer:
		return "active_no_timer"
	case SessionActiveWithTimer:
		return "active_with_timer"
	case SessionAccessExpiredRefreshValid:
		return "access_expired_refresh_valid"
	case SessionExpired:
		return "expired"
	default:
		return "unknown"
	}
}

// Active reports whether requests can still be authenticated, possibly after a refresh.
func (s SessionState) Active() bool {
	switch s {
	case SessionActiveNoTimer, SessionActiveWithTimer, SessionAccessExpiredRefreshValid:
		return true
	default:
		return false
	}
}
