package posts

import (
	"context"

	"github.com/blogcore/blogcore/internal/domain"
	"github.com/blogcore/blogcore/internal/pkg/pagination"
)

// Repository defines the interface for post data operations.
type Repository interface {
	CreatePost(ctx context.Context, post *domain.Post) error
	GetPostByID(ctx context.Context, id string) (*domain.Post, error)
	ListPosts(ctx context.Context, page pagination.Params) ([]domain.Post, int, error)
	ListPostsByAuthor(ctx context.Context, userID string, page pagination.Params) ([]domain.Post, int, error)
	UpdatePost(ctx context.Context, post *domain.Post) error
	DeletePost(ctx context.Context, id string) error
}
