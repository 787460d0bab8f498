//go:build integration

package integration

import (
	"net/http"
	"testing"

	"github.com/blogcore/blogcore/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type userResponse struct {
	ID    string   `json:"id"`
	Email string   `json:"email"`
	Roles []string `json:"roles"`
}

func TestUsers_AdminLifecycle(t *testing.T) {
	admin, _ := clientAs(t, "ADMIN")
	email := testutil.RandomEmail()

	resp, err := admin.POST("/api/v1/users", map[string]interface{}{
		"email":    email,
		"password": "secret-pass",
		"roles":    []string{"VIEWER"},
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created userResponse
	testutil.DecodeJSON(t, resp, &created)
	assert.Equal(t, email, created.Email)
	assert.Equal(t, []string{"VIEWER"}, created.Roles)
	t.Cleanup(func() {
		_, _ = testDB.Exec(t.Context(), `DELETE FROM users WHERE id = $1`, created.ID)
	})

	t.Run("duplicate email conflicts", func(t *testing.T) {
		admin.SetT(t)
		resp, err := admin.POST("/api/v1/users", map[string]interface{}{
			"email":    email,
			"password": "secret-pass",
			"roles":    []string{"AUTHOR"},
		})
		require.NoError(t, err)
		requireErrorMessage(t, resp, http.StatusConflict, "User with this email already exists")
	})

	t.Run("promote to author", func(t *testing.T) {
		admin.SetT(t)
		resp, err := admin.PUT("/api/v1/users/"+created.ID, map[string]interface{}{
			"roles": []string{"VIEWER", "AUTHOR"},
		})
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var updated userResponse
		testutil.DecodeJSON(t, resp, &updated)
		assert.ElementsMatch(t, []string{"VIEWER", "AUTHOR"}, updated.Roles)
	})

	t.Run("new user can log in and post", func(t *testing.T) {
		client := newTestClient(t)
		client.LoginAs(t, email, "secret-pass")
		post := createTestPost(t, client)
		assert.Equal(t, created.ID, post.UserID)
	})

	t.Run("list includes user", func(t *testing.T) {
		admin.SetT(t)
		resp, err := admin.GET("/api/v1/users?limit=100")
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var page pageResponse[userResponse]
		testutil.DecodeJSON(t, resp, &page)
		assert.GreaterOrEqual(t, page.Total, 2)
		assert.Equal(t, 100, page.Limit)
	})

	t.Run("delete", func(t *testing.T) {
		admin.SetT(t)
		resp, err := admin.DELETE("/api/v1/users/" + created.ID)
		require.NoError(t, err)
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
		_ = resp.Body.Close()

		resp, err = admin.GET("/api/v1/users/" + created.ID)
		require.NoError(t, err)
		requireErrorMessage(t, resp, http.StatusNotFound, "User with ID "+created.ID+" not found")
	})
}

func TestUsers_NonAdminForbidden(t *testing.T) {
	for _, role := range []string{"VIEWER", "AUTHOR"} {
		t.Run(role, func(t *testing.T) {
			client, _ := clientAs(t, role)

			resp, err := client.GET("/api/v1/users")
			require.NoError(t, err)
			requireErrorMessage(t, resp, http.StatusForbidden, "Access denied. Required roles: ADMIN")
		})
	}
}

func TestUsers_Create_ValidationError(t *testing.T) {
	admin, _ := clientAs(t, "ADMIN")
	admin = admin.WithoutValidation()

	resp, err := admin.POST("/api/v1/users", map[string]interface{}{
		"email":    testutil.RandomEmail(),
		"password": "secret-pass",
		"roles":    []string{"OWNER"},
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	_ = resp.Body.Close()
}
