package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeEmail(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"admin@example.com", "admin@example.com"},
		{"  Admin@Example.COM ", "admin@example.com"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeEmail(tt.in))
		})
	}
}

func TestUser_JSONOmitsPasswordHash(t *testing.T) {
	u := User{ID: "1", Email: "a@example.com", PasswordHash: "$2a$10$secret", Roles: NewRoleSet(RoleAuthor)}

	data, err := json.Marshal(u)
	require.NoError(t, err)

	assert.NotContains(t, string(data), "secret")
	assert.Contains(t, string(data), `"roles":["AUTHOR"]`)
}
