package domain

import "time"

// User models a community member as persisted by the store.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email,omitempty"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Identity is the principal proven by a verified token. It lives for one
// request and is never persisted.
type Identity struct {
	ID       string
	Username string
	Role     Role
}

func (i Identity) IsAdmin() bool { return i.Role == RoleAdmin }

// Identity returns the token subject for u.
func (u *User) Identity() Identity {
	return Identity{ID: u.ID, Username: u.Username, Role: u.Role}
}

// UserUpdate carries a partial profile update; nil fields are left untouched.
type UserUpdate struct {
	Username *string
	Email    *string
	Role     *Role
}

func (u UserUpdate) Empty() bool {
	return u.Username == nil && u.Email == nil && u.Role == nil
}
