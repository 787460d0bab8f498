// Package postgres provides PostgreSQL implementation of the comments repository.
package postgres

import (
	"context"
	"fmt"

	"github.com/blogcore/blogcore/internal/domain"
	"github.com/blogcore/blogcore/internal/pkg/apperr"
	"github.com/blogcore/blogcore/internal/pkg/pagination"
	"github.com/blogcore/blogcore/internal/pkg/postgres"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const commentColumns = `id, post_id, user_id, content, created_at, updated_at`

// Repository implements the comments.Repository interface using PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new PostgreSQL repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// CreateComment inserts a comment and fills in the generated fields.
func (r *Repository) CreateComment(ctx context.Context, comment *domain.Comment) error {
	query := `
		INSERT INTO comments (post_id, user_id, content)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query,
		comment.PostID,
		comment.UserID,
		comment.Content,
	).Scan(&comment.ID, &comment.CreatedAt, &comment.UpdatedAt)

	if err != nil {
		// The post was deleted between the existence check and the insert.
		if postgres.IsForeignKeyViolation(err) {
			return apperr.NotFound("Post", comment.PostID)
		}
		return fmt.Errorf("create comment: %w", err)
	}
	return nil
}

// GetCommentByID retrieves a comment by ID.
func (r *Repository) GetCommentByID(ctx context.Context, id string) (*domain.Comment, error) {
	query := `SELECT ` + commentColumns + ` FROM comments WHERE id = $1`

	var c domain.Comment
	err := r.db.QueryRow(ctx, query, id).Scan(
		&c.ID,
		&c.PostID,
		&c.UserID,
		&c.Content,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		if postgres.IsNoRows(err) {
			return nil, apperr.NotFound("Comment", id)
		}
		return nil, fmt.Errorf("get comment by id: %w", err)
	}
	return &c, nil
}

// ListCommentsByPost retrieves a page of comments on a post, newest first.
func (r *Repository) ListCommentsByPost(ctx context.Context, postID string, page pagination.Params) ([]domain.Comment, int, error) {
	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM comments WHERE post_id = $1`, postID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count comments: %w", err)
	}

	query := `
		SELECT ` + commentColumns + `
		FROM comments
		WHERE post_id = $1
		ORDER BY created_at DESC, id
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.Query(ctx, query, postID, page.Limit, page.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("list comments: %w", err)
	}

	items, err := pgx.CollectRows(rows, pgx.RowToStructByPos[domain.Comment])
	if err != nil {
		return nil, 0, fmt.Errorf("scan comments: %w", err)
	}
	return items, total, nil
}

// UpdateComment saves the content of a comment.
func (r *Repository) UpdateComment(ctx context.Context, comment *domain.Comment) error {
	query := `
		UPDATE comments
		SET content = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	err := r.db.QueryRow(ctx, query, comment.ID, comment.Content).Scan(&comment.UpdatedAt)
	if err != nil {
		if postgres.IsNoRows(err) {
			return apperr.NotFound("Comment", comment.ID)
		}
		return fmt.Errorf("update comment: %w", err)
	}
	return nil
}

// DeleteComment deletes a comment.
func (r *Repository) DeleteComment(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM comments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Comment", id)
	}
	return nil
}
