package model

import "time"

type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
	RoleAdmin   Role = "admin"
)

// Valid reports whether r is one of the known roles
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleTeacher, RoleAdmin:
		return true
	}
	return false
}

type User struct {
	ID          int64     `json:"id"`
	Role        Role      `json:"role"`
	DisplayName string    `json:"display_name"`
	Email       string    `json:"email"`
	Approved    bool      `json:"approved"`    // students start unapproved
	TelegramID  *int64    `json:"telegram_id"` // nil = no notifications
	CreatedAt   time.Time `json:"created_at"`
}

// Caller is the identity supplied by the identity collaborator on every call.
// The engine trusts it as given.
type Caller struct {
	ID       int64
	Role     Role
	Approved bool
}

// Caller returns the identity triple of the user
func (u *User) Caller() Caller {
	return Caller{ID: u.ID, Role: u.Role, Approved: u.Approved}
}

func (c Caller) IsStudent() bool { return c.Role == RoleStudent }
func (c Caller) IsTeacher() bool { return c.Role == RoleTeacher }
func (c Caller) IsAdmin() bool   { return c.Role == RoleAdmin }

// CanBook checks that the caller is a student approved by an admin
func (c Caller) CanBook() bool {
	return c.IsStudent() && c.Approved
}
