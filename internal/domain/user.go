package domain

import "time"

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// ParseRole maps a stored role to a Role. Unknown values grant no privileges.
func ParseRole(s string) Role {
	if r := Role(s); r.Valid() {
		return r
	}
	return RoleUser
}

// User represents an account of the listing service.
type User struct {
	ID             string
	Username       string
	Email          string
	PasswordHash   string
	FirstName      string
	LastName       string
	ProfilePicture string
	Role           Role
	Bookmarks      []string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}


// Registration carries sign-up input.
type Registration struct {
	Username  string
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// ProfilePatch is a partial profile update; nil fields keep their stored value.
type ProfilePatch struct {
	Username       *string
	Email          *string
	Password       *string
	FirstName      *string
	LastName       *string
	ProfilePicture *string
}
