package models

import (
	"strings"
	"time"
)

type Role string

const (
	RoleStudent Role = "student"
	RoleFaculty Role = "faculty"
	RoleAdmin   Role = "admin"

	// RoleAny — требование «любой аутентифицированный пользователь» для гейта.
	RoleAny Role = "*"
)

// Valid — только закрытый список ролей; RoleAny ролью пользователя не является.
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleFaculty, RoleAdmin:
		return true
	}
	return false
}

func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	return r, r.Valid()
}

type User struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	Role         Role       `json:"role"`
	FullName     string     `json:"full_name"`
	Phone        string     `json:"phone,omitempty"`
	Department   string     `json:"department,omitempty"`
	ResetToken   *string    `json:"-"` // sha256 от токена сброса, сам токен не храним
	ResetExpiry  *time.Time `json:"-"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// HasPendingReset — тикет есть и ещё не истёк на момент now.
func (u *User) HasPendingReset(now time.Time) bool {
	return u.ResetToken != nil && u.ResetExpiry != nil && now.Before(*u.ResetExpiry)
}

// Identity — то, что гейт отдаёт дальше по цепочке после проверки токена.
type Identity struct {
	SubjectID string    `json:"subject_id"`
	Role      Role      `json:"role"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// NormalizeEmail — email сравниваются без учёта регистра.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
