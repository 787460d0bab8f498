// Package users manages accounts. Every operation is reserved for admins; the
// routes are mounted behind an ADMIN policy.
package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/blogcore/blogcore/internal/domain"
	"github.com/blogcore/blogcore/internal/identity/password"
	"github.com/blogcore/blogcore/internal/pkg/apperr"
	"github.com/blogcore/blogcore/internal/pkg/ctxlog"
)

// ErrEmailExists is returned when creating a user with a taken email.
var ErrEmailExists = apperr.Conflict("User with this email already exists")

// PasswordHasher hashes new passwords.
type PasswordHasher interface {
	Hash(plain string) (string, error)
}

// Service implements user management.
type Service struct {
	repo   Repository
	hasher PasswordHasher
}

// NewService creates a new users service.
func NewService(repo Repository, hasher PasswordHasher) *Service {
	return &Service{repo: repo, hasher: hasher}
}

// CreateUserInput contains data for creating a user.
type CreateUserInput struct {
	Email    string
	Password string
	Roles    []domain.Role
}

// CreateUser creates an account with a hashed password.
func (s *Service) CreateUser(ctx context.Context, input CreateUserInput) (*domain.User, error) {
	roles, err := roleSet(input.Roles)
	if err != nil {
		return nil, err
	}
	email := domain.NormalizeEmail(input.Email)

	_, err = s.repo.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, ErrEmailExists
	case !errors.Is(err, apperr.ErrNotFound):
		return nil, fmt.Errorf("check email: %w", err)
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Email:        email,
		PasswordHash: hash,
		Roles:        roles,
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	ctxlog.FromContext(ctx).Info("user created", "created_user_id", user.ID, "roles", roles.Strings())
	return user, nil
}

// GetUser returns a user by ID.
func (s *Service) GetUser(ctx context.Context, id string) (*domain.User, error) {
	return s.repo.GetUserByID(ctx, id)
}

// ListUsers returns every user.
func (s *Service) ListUsers(ctx context.Context) ([]domain.User, error) {
	return s.repo.ListUsers(ctx)
}

// UpdateUserInput contains data for updating a user. Nil Roles leaves them unchanged.
type UpdateUserInput struct {
	Roles []domain.Role
}

// UpdateUser replaces the roles of a user.
func (s *Service) UpdateUser(ctx context.Context, id string, input UpdateUserInput) (*domain.User, error) {
	if input.Roles == nil {
		return s.repo.GetUserByID(ctx, id)
	}

	roles, err := roleSet(input.Roles)
	if err != nil {
		return nil, err
	}

	user, err := s.repo.UpdateUserRoles(ctx, id, roles)
	if err != nil {
		return nil, err
	}

	ctxlog.FromContext(ctx).Info("user roles updated", "updated_user_id", id, "roles", roles.Strings())
	return user, nil
}

// DeleteUser removes a user. Their posts and comments are removed with them.
func (s *Service) DeleteUser(ctx context.Context, id string) error {
	if err := s.repo.DeleteUser(ctx, id); err != nil {
		return err
	}
	ctxlog.FromContext(ctx).Info("user deleted", "deleted_user_id", id)
	return nil
}

// EnsureAdmin creates an ADMIN account for email unless one with that email
// exists. The generated password is returned only when an account was created.
func (s *Service) EnsureAdmin(ctx context.Context, email string) (string, bool, error) {
	_, err := s.repo.GetUserByEmail(ctx, domain.NormalizeEmail(email))
	switch {
	case err == nil:
		return "", false, nil
	case !errors.Is(err, apperr.ErrNotFound):
		return "", false, fmt.Errorf("check admin: %w", err)
	}

	plain, err := password.GenerateTemporary(16)
	if err != nil {
		return "", false, err
	}

	_, err = s.CreateUser(ctx, CreateUserInput{
		Email:    email,
		Password: plain,
		Roles:    []domain.Role{domain.RoleAdmin},
	})
	if err != nil {
		return "", false, fmt.Errorf("create admin: %w", err)
	}
	return plain, true, nil
}

func roleSet(roles []domain.Role) (domain.RoleSet, error) {
	if len(roles) == 0 {
		return nil, apperr.Validation("At least one role is required")
	}
	for _, r := range roles {
		if !r.IsValid() {
			return nil, apperr.Validation("Unknown role: %s", r)
		}
	}
	return domain.NewRoleSet(roles...), nil
}
