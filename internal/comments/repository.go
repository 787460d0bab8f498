package comments

import (
	"context"

	"github.com/blogcore/blogcore/internal/domain"
	"github.com/blogcore/blogcore/internal/pkg/pagination"
)

// Repository defines the interface for comment data operations.
type Repository interface {
	CreateComment(ctx context.Context, comment *domain.Comment) error
	GetCommentByID(ctx context.Context, id string) (*domain.Comment, error)
	ListCommentsByPost(ctx context.Context, postID string, page pagination.Params) ([]domain.Comment, int, error)
	UpdateComment(ctx context.Context, comment *domain.Comment) error
	DeleteComment(ctx context.Context, id string) error
}

// PostReader looks up the post a comment belongs to.
type PostReader interface {
	GetPostByID(ctx context.Context, id string) (*domain.Post, error)
}
