// Package models defines the records learnkeeper persists.
package models

import "strings"

// Role is the account type stored with each record. Students are stored as
// "aluno" for compatibility with existing data files.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleStudent Role = "aluno"
)

// ParseRole maps user input to a Role. Anything other than "admin" is a
// student, matching how registration has always coerced unknown types.
func ParseRole(s string) Role {
	if strings.EqualFold(strings.TrimSpace(s), string(RoleAdmin)) {
		return RoleAdmin
	}
	return RoleStudent
}

// IsAdmin reports whether r grants the admin menu.
func (r Role) IsAdmin() bool { return r == RoleAdmin }

// Label is the human-facing role name.
func (r Role) Label() string {
	if r.IsAdmin() {
		return "admin"
	}
	return "student"
}

// UserRecord is one registered user. Name, FullName and Password hold
// FieldCipher tokens, never plaintext.
type UserRecord struct {
	// ID is assigned on insert and never changes.
	ID string `json:"id,omitempty"`
	// Lookup is the deterministic username token used as the index. Records
	// written before the index existed have it empty.
	Lookup string `json:"chave,omitempty"`

	// Name is the encrypted username.
	Name string `json:"nome"`
	// FullName is the encrypted display name given at registration.
	FullName string `json:"nome_exibicao,omitempty"`
	// Age is nil for records that never carried one.
	Age *int `json:"idade,omitempty"`

	AccessCount  int     `json:"acessos"`
	SessionHours float64 `json:"tempo_uso"`

	// Password is the encrypted password.
	Password string `json:"senha"`
	Role     Role   `json:"tipo"`
}

// EffectiveRole returns the stored role, treating a missing one as student.
func (r UserRecord) EffectiveRole() Role {
	if r.Role == "" {
		return RoleStudent
	}
	return r.Role
}

// IntPtr is a small helper for optional integer fields such as Age.
func IntPtr(n int) *int { return &n }
