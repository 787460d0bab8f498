package testutil

import (
	"strings"

	"github.com/google/uuid"
)

// RandomEmail returns a unique email address for test isolation.
func RandomEmail() string {
	return "user-" + shortID() + "@example.com"
}

// RandomTitle returns a unique post title with the given prefix.
func RandomTitle(prefix string) string {
	return prefix + " " + shortID()
}

func shortID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}
