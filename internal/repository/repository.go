package repository

// Key identifies one persisted credential entry
type Key string

const (
	KeyAccessToken  Key = "access_token"
	KeyRefreshToken Key = "refresh_token"
	KeyTokenType    Key = "token_type"
	KeyUserID       Key = "user_id"
	KeyUserLogin    Key = "user_login"
	KeyUserRole     Key = "user_role"
)

// Backend kinds accepted by configuration
const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// AllKeys lists every entry owned by a session
var AllKeys = []Key{
	KeyAccessToken,
	KeyRefreshToken,
	KeyTokenType,
	KeyUserID,
	KeyUserLogin,
	KeyUserRole,
}

var identityKeys = []Key{KeyUserID, KeyUserLogin, KeyUserRole}

// KnownBackend reports whether kind names a supported backend
func KnownBackend(kind string) bool {
	switch kind {
	case BackendMemory, BackendFile, BackendRedis, BackendPostgres:
		return true
	default:
		return false
	}
}
