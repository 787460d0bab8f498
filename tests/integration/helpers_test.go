//go:build integration

package integration

import (
	"context"
	"net/http"
	"testing"

	"github.com/blogcore/blogcore/internal/testutil"
	"github.com/stretchr/testify/require"
)

const testPassword = "password123"

type testUser struct {
	ID    string
	Email string
}

// seedUser inserts an account directly and removes it when the test ends.
// Posts and comments it owns cascade with it.
func seedUser(t *testing.T, roles ...string) testUser {
	t.Helper()

	hash, err := testHasher.Hash(testPassword)
	require.NoError(t, err)

	email := testutil.RandomEmail()
	var id string
	err = testDB.QueryRow(context.Background(),
		`INSERT INTO users (email, password_hash, roles) VALUES ($1, $2, $3) RETURNING id`,
		email, hash, roles,
	).Scan(&id)
	require.NoError(t, err)

	t.Cleanup(func() {
		_, _ = testDB.Exec(context.Background(), `DELETE FROM users WHERE id = $1`, id)
	})
	return testUser{ID: id, Email: email}
}

// clientAs seeds a user with roles and returns a client logged in as them.
func clientAs(t *testing.T, roles ...string) (*testutil.Client, testUser) {
	t.Helper()
	user := seedUser(t, roles...)
	client := newTestClient(t)
	client.LoginAs(t, user.Email, testPassword)
	return client, user
}

type postResponse struct {
	ID      string `json:"id"`
	UserID  string `json:"user_id"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

type commentResponse struct {
	ID      string `json:"id"`
	PostID  string `json:"post_id"`
	UserID  string `json:"user_id"`
	Content string `json:"content"`
}

type pageResponse[T any] struct {
	Data       []T `json:"data"`
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"total_pages"`
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

func createTestPost(t *testing.T, client *testutil.Client) postResponse {
	t.Helper()

	resp, err := client.POST("/api/v1/posts", map[string]string{
		"title":   testutil.RandomTitle("Post"),
		"content": "Some content that is long enough.",
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var post postResponse
	testutil.DecodeJSON(t, resp, &post)
	return post
}

func createTestComment(t *testing.T, client *testutil.Client, postID string) commentResponse {
	t.Helper()

	resp, err := client.POST("/api/v1/posts/"+postID+"/comments", map[string]string{
		"content": "Nice post!",
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var comment commentResponse
	testutil.DecodeJSON(t, resp, &comment)
	return comment
}

func requireErrorMessage(t *testing.T, resp *http.Response, status int, message string) {
	t.Helper()
	require.Equal(t, status, resp.StatusCode)

	var body errorResponse
	testutil.DecodeJSON(t, resp, &body)
	require.Equal(t, message, body.Error.Message)
}
