package domain

// Role is the kind of account a session belongs to.
type Role string

const (
	RoleClient Role = "client"
	RoleDriver Role = "driver"
	RoleAdmin  Role = "admin"
)

// Session carries the credentials and preferences of the caller of the
// remote freight API. It is created at startup and passed to whatever needs it.
type Session struct {
	Token     string `json:"-"`
	Role      Role   `json:"role"`
	DarkTheme bool   `json:"dark_theme"`
}

// Authenticated reports whether the session carries a token.
func (s Session) Authenticated() bool {
	return s.Token != ""
}
