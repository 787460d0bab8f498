package comments

import (
	"context"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/blogcore/blogcore/internal/domain"
	"github.com/blogcore/blogcore/internal/pkg/apperr"
	"github.com/blogcore/blogcore/internal/pkg/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	postID      = "aaaaaaaa-aaaa-aaaa-aaaa-aaaaaaaaaaaa"
	otherPostID = "bbbbbbbb-bbbb-bbbb-bbbb-bbbbbbbbbbbb"
	missingPost = "cccccccc-cccc-cccc-cccc-cccccccccccc"
)

var (
	viewer  = domain.Identity{SubjectID: "11111111-1111-1111-1111-111111111111", Roles: domain.NewRoleSet(domain.RoleViewer)}
	author  = domain.Identity{SubjectID: "22222222-2222-2222-2222-222222222222", Roles: domain.NewRoleSet(domain.RoleAuthor)}
	admin   = domain.Identity{SubjectID: "33333333-3333-3333-3333-333333333333", Roles: domain.NewRoleSet(domain.RoleAdmin)}
	noRoles = domain.Identity{SubjectID: "44444444-4444-4444-4444-444444444444"}
)

// mockPosts implements PostReader for testing.
type mockPosts map[string]*domain.Post

func (m mockPosts) GetPostByID(_ context.Context, id string) (*domain.Post, error) {
	if p, ok := m[id]; ok {
		return p, nil
	}
	return nil, apperr.NotFound("Post", id)
}

// mockRepository implements Repository for testing.
type mockRepository struct {
	comments map[string]*domain.Comment
	nextID   int
	clock    time.Time
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		comments: make(map[string]*domain.Comment),
		clock:    time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (m *mockRepository) CreateComment(_ context.Context, c *domain.Comment) error {
	m.nextID++
	m.clock = m.clock.Add(time.Second)
	c.ID = fmt.Sprintf("00000000-0000-0000-0000-%012d", m.nextID)
	c.CreatedAt = m.clock
	c.UpdatedAt = m.clock
	stored := *c
	m.comments[c.ID] = &stored
	return nil
}

func (m *mockRepository) GetCommentByID(_ context.Context, id string) (*domain.Comment, error) {
	if c, ok := m.comments[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, apperr.NotFound("Comment", id)
}

func (m *mockRepository) ListCommentsByPost(_ context.Context, postID string, page pagination.Params) ([]domain.Comment, int, error) {
	var all []domain.Comment
	for _, c := range m.comments {
		if c.PostID == postID {
			all = append(all, *c)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })

	start := min(page.Offset(), len(all))
	end := min(start+page.Limit, len(all))
	return all[start:end], len(all), nil
}

func (m *mockRepository) UpdateComment(_ context.Context, c *domain.Comment) error {
	if _, ok := m.comments[c.ID]; !ok {
		return apperr.NotFound("Comment", c.ID)
	}
	stored := *c
	m.comments[c.ID] = &stored
	return nil
}

func (m *mockRepository) DeleteComment(_ context.Context, id string) error {
	if _, ok := m.comments[id]; !ok {
		return apperr.NotFound("Comment", id)
	}
	delete(m.comments, id)
	return nil
}

func newTestService() (*Service, *mockRepository) {
	repo := newMockRepository()
	posts := mockPosts{
		postID:      {ID: postID, UserID: author.SubjectID},
		otherPostID: {ID: otherPostID, UserID: author.SubjectID},
	}
	return NewService(repo, posts), repo
}

func TestCreateComment(t *testing.T) {
	tests := []struct {
		name    string
		caller  domain.Identity
		post    string
		wantErr error
	}{
		{"viewer may comment", viewer, postID, nil},
		{"admin may comment", admin, postID, nil},
		{"no roles denied", noRoles, postID, apperr.ErrForbidden},
		{"missing post", viewer, missingPost, apperr.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo := newTestService()

			c, err := svc.CreateComment(context.Background(), tt.caller, tt.post, "Nice post!")

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, repo.comments)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.caller.SubjectID, c.UserID)
			assert.Equal(t, tt.post, c.PostID)
		})
	}
}

func TestGetComment_WrongPost(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	c, err := svc.CreateComment(ctx, viewer, postID, "Nice post!")
	require.NoError(t, err)

	got, err := svc.GetComment(ctx, postID, c.ID)
	require.NoError(t, err)
	assert.Equal(t, c.ID, got.ID)

	_, err = svc.GetComment(ctx, otherPostID, c.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.Equal(t, fmt.Sprintf("Comment with ID %s not found", c.ID), err.Error())
}

func TestUpdateComment_Ownership(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	c, err := svc.CreateComment(ctx, viewer, postID, "Nice post!")
	require.NoError(t, err)

	updated, err := svc.UpdateComment(ctx, viewer, postID, c.ID, "Edited by owner")
	require.NoError(t, err)
	assert.Equal(t, "Edited by owner", updated.Content)

	_, err = svc.UpdateComment(ctx, author, postID, c.ID, "Edited by someone else")
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	updated, err = svc.UpdateComment(ctx, admin, postID, c.ID, "Moderated")
	require.NoError(t, err)
	assert.Equal(t, "Moderated", updated.Content)
}

func TestDeleteComment_Ownership(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	c, err := svc.CreateComment(ctx, viewer, postID, "Nice post!")
	require.NoError(t, err)

	err = svc.DeleteComment(ctx, author, postID, c.ID)
	require.ErrorIs(t, err, apperr.ErrForbidden)
	assert.Equal(t, "You can only delete your own resources", err.Error())

	err = svc.DeleteComment(ctx, admin, otherPostID, c.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	require.NoError(t, svc.DeleteComment(ctx, viewer, postID, c.ID))
	assert.Empty(t, repo.comments)
}

func TestListComments(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	var ids []string
	for i := range 3 {
		c, err := svc.CreateComment(ctx, viewer, postID, fmt.Sprintf("Comment %d", i))
		require.NoError(t, err)
		ids = append(ids, c.ID)
	}
	_, err := svc.CreateComment(ctx, viewer, otherPostID, "Elsewhere")
	require.NoError(t, err)

	page, err := svc.ListComments(ctx, postID, pagination.Params{Page: 1, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)
	assert.Equal(t, 2, page.TotalPages)
	require.Len(t, page.Data, 2)
	assert.Equal(t, ids[2], page.Data[0].ID)

	_, err = svc.ListComments(ctx, missingPost, pagination.Default())
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}
