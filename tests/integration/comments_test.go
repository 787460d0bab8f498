//go:build integration

package integration

import (
	"net/http"
	"testing"

	"github.com/blogcore/blogcore/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComments_Flow(t *testing.T) {
	author, _ := clientAs(t, "AUTHOR")
	viewer, viewerUser := clientAs(t, "VIEWER")
	post := createTestPost(t, author)

	comment := createTestComment(t, viewer, post.ID)
	assert.Equal(t, viewerUser.ID, comment.UserID)
	assert.Equal(t, post.ID, comment.PostID)

	base := "/api/v1/posts/" + post.ID + "/comments"

	t.Run("list is public", func(t *testing.T) {
		client := newTestClient(t)
		resp, err := client.GET(base)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var page pageResponse[commentResponse]
		testutil.DecodeJSON(t, resp, &page)
		require.Len(t, page.Data, 1)
		assert.Equal(t, comment.ID, page.Data[0].ID)
	})

	t.Run("post author cannot edit viewer comment", func(t *testing.T) {
		author.SetT(t)
		resp, err := author.PUT(base+"/"+comment.ID, map[string]string{"content": "edited"})
		require.NoError(t, err)
		requireErrorMessage(t, resp, http.StatusForbidden, "You can only access your own resources")
	})

	t.Run("owner edits", func(t *testing.T) {
		viewer.SetT(t)
		resp, err := viewer.PUT(base+"/"+comment.ID, map[string]string{"content": "Edited comment"})
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var got commentResponse
		testutil.DecodeJSON(t, resp, &got)
		assert.Equal(t, "Edited comment", got.Content)
	})

	t.Run("owner deletes", func(t *testing.T) {
		viewer.SetT(t)
		resp, err := viewer.DELETE(base + "/" + comment.ID)
		require.NoError(t, err)
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
		_ = resp.Body.Close()
	})
}

func TestComments_UnknownPost(t *testing.T) {
	viewer, _ := clientAs(t, "VIEWER")
	missing := "00000000-0000-0000-0000-000000000000"

	resp, err := viewer.POST("/api/v1/posts/"+missing+"/comments", map[string]string{
		"content": "Anyone home?",
	})
	require.NoError(t, err)
	requireErrorMessage(t, resp, http.StatusNotFound, "Post with ID "+missing+" not found")
}

func TestComments_CascadeWithPost(t *testing.T) {
	author, _ := clientAs(t, "AUTHOR")
	post := createTestPost(t, author)
	comment := createTestComment(t, author, post.ID)

	resp, err := author.DELETE("/api/v1/posts/" + post.ID)
	require.NoError(t, err)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	_ = resp.Body.Close()

	var count int
	err = testDB.QueryRow(t.Context(), `SELECT COUNT(*) FROM comments WHERE id = $1`, comment.ID).Scan(&count)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestComments_RequireAuthentication(t *testing.T) {
	author, _ := clientAs(t, "AUTHOR")
	post := createTestPost(t, author)

	client := newTestClientWithoutValidation()
	resp, err := client.POST("/api/v1/posts/"+post.ID+"/comments", map[string]string{
		"content": "Anonymous comment",
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	_ = resp.Body.Close()
}
