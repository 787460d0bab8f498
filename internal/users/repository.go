package users

import (
	"context"

	"github.com/blogcore/blogcore/internal/domain"
)

// Repository defines the interface for user data operations. Lookups of a
// missing user return an apperr not-found error; inserting a taken email
// returns an apperr conflict error.
type Repository interface {
	CreateUser(ctx context.Context, user *domain.User) error
	GetUserByID(ctx context.Context, id string) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	ListUsers(ctx context.Context) ([]domain.User, error)
	UpdateUserRoles(ctx context.Context, id string, roles domain.RoleSet) (*domain.User, error)
	UpdatePasswordHash(ctx context.Context, id, hash string) error
	DeleteUser(ctx context.Context, id string) error
}
