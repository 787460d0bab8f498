// Package posts provides HTTP handlers and business logic for blog posts.
//
// Anyone may read posts. Writing requires the AUTHOR or ADMIN role, and a post
// can only be changed or removed by its author or an admin. The service checks
// these rules itself, so they hold for callers other than the HTTP handlers.
package posts

import (
	"context"

	"github.com/blogcore/blogcore/internal/domain"
	"github.com/blogcore/blogcore/internal/identity/authz"
	"github.com/blogcore/blogcore/internal/pkg/ctxlog"
	"github.com/blogcore/blogcore/internal/pkg/metrics"
	"github.com/blogcore/blogcore/internal/pkg/pagination"
)

// Roles allowed to write posts.
var writerRoles = []domain.Role{domain.RoleAuthor, domain.RoleAdmin}

// Service implements post business logic.
type Service struct {
	repo Repository
}

// NewService creates a new posts service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// CreatePostInput contains data for creating a post.
type CreatePostInput struct {
	Title   string
	Content string
}

// UpdatePostInput contains data for updating a post. Empty fields are left unchanged.
type UpdatePostInput struct {
	Title   string
	Content string
}

// CreatePost creates a post owned by the caller.
func (s *Service) CreatePost(ctx context.Context, caller domain.Identity, input CreatePostInput) (*domain.Post, error) {
	if !authz.CanCreatePost(caller.Roles) {
		return nil, denied(ctx, "any_role", authz.RequireAnyRole(caller.Roles, writerRoles...))
	}

	post := &domain.Post{
		UserID:  caller.SubjectID,
		Title:   input.Title,
		Content: input.Content,
	}
	if err := s.repo.CreatePost(ctx, post); err != nil {
		return nil, err
	}

	ctxlog.FromContext(ctx).Info("post created", "post_id", post.ID)
	return post, nil
}

// GetPost returns a post by ID.
func (s *Service) GetPost(ctx context.Context, id string) (*domain.Post, error) {
	return s.repo.GetPostByID(ctx, id)
}

// ListPosts returns a page of posts, newest first.
func (s *Service) ListPosts(ctx context.Context, page pagination.Params) (pagination.Page[domain.Post], error) {
	items, total, err := s.repo.ListPosts(ctx, page)
	if err != nil {
		return pagination.Page[domain.Post]{}, err
	}
	return pagination.NewPage(items, total, page), nil
}

// ListPostsByAuthor returns a page of one author's posts, newest first.
func (s *Service) ListPostsByAuthor(ctx context.Context, authorID string, page pagination.Params) (pagination.Page[domain.Post], error) {
	items, total, err := s.repo.ListPostsByAuthor(ctx, authorID, page)
	if err != nil {
		return pagination.Page[domain.Post]{}, err
	}
	return pagination.NewPage(items, total, page), nil
}

// UpdatePost changes the title and/or content of a post.
func (s *Service) UpdatePost(ctx context.Context, caller domain.Identity, id string, input UpdatePostInput) (*domain.Post, error) {
	if err := authz.RequireAnyRole(caller.Roles, writerRoles...); err != nil {
		return nil, denied(ctx, "any_role", err)
	}

	post, err := s.repo.GetPostByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := authz.CheckModifyPermission(caller.SubjectID, post.UserID, caller.Roles); err != nil {
		return nil, denied(ctx, "owner", err)
	}

	if input.Title != "" {
		post.Title = input.Title
	}
	if input.Content != "" {
		post.Content = input.Content
	}

	if err := s.repo.UpdatePost(ctx, post); err != nil {
		return nil, err
	}

	ctxlog.FromContext(ctx).Info("post updated", "post_id", post.ID)
	return post, nil
}

// DeletePost removes a post and its comments.
func (s *Service) DeletePost(ctx context.Context, caller domain.Identity, id string) error {
	if err := authz.RequireAnyRole(caller.Roles, writerRoles...); err != nil {
		return denied(ctx, "any_role", err)
	}

	post, err := s.repo.GetPostByID(ctx, id)
	if err != nil {
		return err
	}

	if err := authz.CheckDeletePermission(caller.SubjectID, post.UserID, caller.Roles); err != nil {
		return denied(ctx, "owner", err)
	}

	if err := s.repo.DeletePost(ctx, id); err != nil {
		return err
	}

	ctxlog.FromContext(ctx).Info("post deleted", "post_id", id)
	return nil
}

func denied(ctx context.Context, policy string, err error) error {
	metrics.AuthzDenialsTotal.WithLabelValues(policy).Inc()
	ctxlog.FromContext(ctx).Info("post access denied", "policy", policy, "reason", err.Error())
	return err
}
