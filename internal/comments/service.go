// Package comments provides HTTP handlers and business logic for comments on
// posts. Any signed-in user may comment; only the author of a comment or an
// admin may change or remove it.
package comments

import (
	"context"

	"github.com/blogcore/blogcore/internal/domain"
	"github.com/blogcore/blogcore/internal/identity/authz"
	"github.com/blogcore/blogcore/internal/pkg/apperr"
	"github.com/blogcore/blogcore/internal/pkg/ctxlog"
	"github.com/blogcore/blogcore/internal/pkg/metrics"
	"github.com/blogcore/blogcore/internal/pkg/pagination"
)

// Service implements comment business logic.
type Service struct {
	repo  Repository
	posts PostReader
}

// NewService creates a new comments service.
func NewService(repo Repository, posts PostReader) *Service {
	return &Service{repo: repo, posts: posts}
}

// CreateComment adds a comment by the caller to an existing post.
func (s *Service) CreateComment(ctx context.Context, caller domain.Identity, postID, content string) (*domain.Comment, error) {
	if !authz.CanCreateComment(caller.Roles) {
		return nil, denied(ctx, "authenticated", apperr.Forbidden("Access denied. A role is required to comment"))
	}

	if _, err := s.posts.GetPostByID(ctx, postID); err != nil {
		return nil, err
	}

	comment := &domain.Comment{
		PostID:  postID,
		UserID:  caller.SubjectID,
		Content: content,
	}
	if err := s.repo.CreateComment(ctx, comment); err != nil {
		return nil, err
	}

	ctxlog.FromContext(ctx).Info("comment created", "post_id", postID, "comment_id", comment.ID)
	return comment, nil
}

// ListComments returns a page of comments on a post, newest first.
func (s *Service) ListComments(ctx context.Context, postID string, page pagination.Params) (pagination.Page[domain.Comment], error) {
	if _, err := s.posts.GetPostByID(ctx, postID); err != nil {
		return pagination.Page[domain.Comment]{}, err
	}

	items, total, err := s.repo.ListCommentsByPost(ctx, postID, page)
	if err != nil {
		return pagination.Page[domain.Comment]{}, err
	}
	return pagination.NewPage(items, total, page), nil
}

// GetComment returns a comment on the given post.
func (s *Service) GetComment(ctx context.Context, postID, id string) (*domain.Comment, error) {
	comment, err := s.repo.GetCommentByID(ctx, id)
	if err != nil {
		return nil, err
	}
	// A comment addressed through the wrong post does not exist there.
	if comment.PostID != postID {
		return nil, apperr.NotFound("Comment", id)
	}
	return comment, nil
}

// UpdateComment replaces the content of a comment.
func (s *Service) UpdateComment(ctx context.Context, caller domain.Identity, postID, id, content string) (*domain.Comment, error) {
	comment, err := s.GetComment(ctx, postID, id)
	if err != nil {
		return nil, err
	}

	if err := authz.CheckModifyPermission(caller.SubjectID, comment.UserID, caller.Roles); err != nil {
		return nil, denied(ctx, "owner", err)
	}

	comment.Content = content
	if err := s.repo.UpdateComment(ctx, comment); err != nil {
		return nil, err
	}

	ctxlog.FromContext(ctx).Info("comment updated", "comment_id", id)
	return comment, nil
}

// DeleteComment removes a comment.
func (s *Service) DeleteComment(ctx context.Context, caller domain.Identity, postID, id string) error {
	comment, err := s.GetComment(ctx, postID, id)
	if err != nil {
		return err
	}

	if err := authz.CheckDeletePermission(caller.SubjectID, comment.UserID, caller.Roles); err != nil {
		return denied(ctx, "owner", err)
	}

	if err := s.repo.DeleteComment(ctx, id); err != nil {
		return err
	}

	ctxlog.FromContext(ctx).Info("comment deleted", "comment_id", id)
	return nil
}

func denied(ctx context.Context, policy string, err error) error {
	metrics.AuthzDenialsTotal.WithLabelValues(policy).Inc()
	ctxlog.FromContext(ctx).Info("comment access denied", "policy", policy, "reason", err.Error())
	return err
}
