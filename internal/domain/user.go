package domain

// Role represents the account role returned on login
type Role string

const (
	RoleAdmin    Role = "ADMIN"
	RoleOperator Role = "OPERATOR"
	RoleUser     Role = "USER"
)

// Identity is the denormalized user identity persisted next to the tokens
type Identity struct {
	UserID string
	Login  string
	Role   Role
}

// IsZero reports whether no identity fields are set
func (i Identity) IsZero() bool {
	return i.UserID == "" && i.Login == "" && i.Role == ""
}
