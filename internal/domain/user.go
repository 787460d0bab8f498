package domain

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
)

// User is a persisted account. PasswordHash never leaves the server.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Roles        RoleSet   `json:"roles"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Identity is the authenticated principal extracted from a verified token.
type Identity struct {
	SubjectID string
	Email     string
	Roles     RoleSet
}

// IsZero reports whether the identity is unset.
func (i Identity) IsZero() bool {
	return i.SubjectID == ""
}

// NormalizeEmail trims and case-folds an email address so lookups and the
// unique index agree on one spelling. A Caser is stateful, so one is built per call.
func NormalizeEmail(email string) string {
	return cases.Fold().String(strings.TrimSpace(email))
}
