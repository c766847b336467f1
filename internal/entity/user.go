package entity

import (
	"fmt"
	"strings"
	"time"
)

// Role values are persisted as integers and used in post-login redirects.
// The numbering is a stored contract: 1 is admin, 2 is teacher.
type Role int

const (
	RoleAdmin   Role = 1
	RoleTeacher Role = 2
)

func (r Role) String() string {
	switch r {
	case RoleAdmin:
		return "admin"
	case RoleTeacher:
		return "teacher"
	}
	return fmt.Sprintf("role(%d)", int(r))
}

func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "admin", "1":
		return RoleAdmin, nil
	case "teacher", "2":
		return RoleTeacher, nil
	}
	return 0, fmt.Errorf("unknown role %q", s)
}

type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

type User struct {
	ID           int       `json:"id"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	Status       Status    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
}

func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

func (u *User) Active() bool {
	return u.Status == StatusActive
}

// UserView is the sanitized shape handed to sessions and templates.
// It never carries the password hash.
type UserView struct {
	ID        int    `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Role      Role   `json:"role"`
}

func (u *User) View() UserView {
	return UserView{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Role:      u.Role,
	}
}

func (v UserView) FullName() string {
	return strings.TrimSpace(v.FirstName + " " + v.LastName)
}
