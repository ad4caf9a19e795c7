package model

// User account types.
const (
	UserTypeOrdinary  = 0
	UserTypeAdmin     = 1
	UserTypeModerator = 2
)

// User account status.
const (
	UserStatusPending   = 0
	UserStatusActivated = 1
)

// Role is the authority tag derived from a user's account type.
type Role string

const (
	RoleUser      Role = "user"
	RoleAdmin     Role = "admin"
	RoleModerator Role = "moderator"
)

// AuthorityFor maps an account type to its role. Unknown types fall
// back to the ordinary user role.
func AuthorityFor(userType int) Role {
	switch userType {
	case UserTypeAdmin:
		return RoleAdmin
	case UserTypeModerator:
		return RoleModerator
	default:
		return RoleUser
	}
}

type User struct {
	ID             int64  `json:"id"`
	Username       string `json:"username"`
	Email          string `json:"email"`
	Password       string `json:"password,omitempty"`
	Salt           string `json:"salt,omitempty"`
	Type           int    `json:"type"`
	Status         int    `json:"status"`
	ActivationCode string `json:"activation_code,omitempty"`
	HeaderURL      string `json:"header_url"`
	Ctime          int64  `json:"ctime"`
}

func (u *User) Activated() bool {
	return u.Status == UserStatusActivated
}
