package session

import "github.com/hydrovia/waterdesk/permission"

// Identity is the profile the backend returns on login. Field names follow
// the backend's wire contract.
type Identity struct {
	ID          int64           `json:"id"`
	DisplayName string          `json:"displayName"`
	Email       string          `json:"email"`
	Role        permission.Role `json:"role"`
	RoleID      int64           `json:"roleId"`
}

// Session pairs the bearer token with the identity it was issued for. The
// two travel together: a session missing either half is no session at all.
//
// A Session is created whole by a successful login and replaced or cleared
// as a unit, never patched in place.
type Session struct {
	Token    string
	Identity Identity
}

// Valid reports whether both halves of the session are present.
func (s *Session) Valid() bool {
	return s != nil && s.Token != "" && s.Identity.ID != 0
}
