// Package postgres provides PostgreSQL implementation of the posts repository.
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

const postColumns = `id, user_id, title, content, created_at, updated_at`

// Repository implements the posts.Repository interface using PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new PostgreSQL repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// CreatePost inserts a post and fills in the generated fields.
func (r *Repository) CreatePost(ctx context.Context, post *domain.Post) error {
	query := `
		INSERT INTO posts (user_id, title, content)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query,
		post.UserID,
		post.Title,
		post.Content,
	).Scan(&post.ID, &post.CreatedAt, &post.UpdatedAt)

	if err != nil {
		if postgres.IsForeignKeyViolation(err) {
			return apperr.NotFound("User", post.UserID)
		}
		return fmt.Errorf("create post: %w", err)
	}
	return nil
}

// GetPostByID retrieves a post by ID.
func (r *Repository) GetPostByID(ctx context.Context, id string) (*domain.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE id = $1`

	post, err := scanPost(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if postgres.IsNoRows(err) {
			return nil, apperr.NotFound("Post", id)
		}
		return nil, fmt.Errorf("get post by id: %w", err)
	}
	return post, nil
}

// ListPosts retrieves a page of posts, newest first, and the total count.
func (r *Repository) ListPosts(ctx context.Context, page pagination.Params) ([]domain.Post, int, error) {
	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM posts`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count posts: %w", err)
	}

	query := `
		SELECT ` + postColumns + `
		FROM posts
		ORDER BY created_at DESC, id
		LIMIT $1 OFFSET $2
	`
	rows, err := r.db.Query(ctx, query, page.Limit, page.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("list posts: %w", err)
	}

	items, err := collectPosts(rows)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// ListPostsByAuthor retrieves a page of one author's posts, newest first.
func (r *Repository) ListPostsByAuthor(ctx context.Context, userID string, page pagination.Params) ([]domain.Post, int, error) {
	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM posts WHERE user_id = $1`, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count posts by author: %w", err)
	}

	query := `
		SELECT ` + postColumns + `
		FROM posts
		WHERE user_id = $1
		ORDER BY created_at DESC, id
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.Query(ctx, query, userID, page.Limit, page.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("list posts by author: %w", err)
	}

	items, err := collectPosts(rows)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// UpdatePost saves the title and content of a post.
func (r *Repository) UpdatePost(ctx context.Context, post *domain.Post) error {
	query := `
		UPDATE posts
		SET title = $2, content = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	err := r.db.QueryRow(ctx, query, post.ID, post.Title, post.Content).Scan(&post.UpdatedAt)
	if err != nil {
		if postgres.IsNoRows(err) {
			return apperr.NotFound("Post", post.ID)
		}
		return fmt.Errorf("update post: %w", err)
	}
	return nil
}

// DeletePost deletes a post. Comments cascade.
func (r *Repository) DeletePost(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Post", id)
	}
	return nil
}

func collectPosts(rows pgx.Rows) ([]domain.Post, error) {
	defer rows.Close()

	items := make([]domain.Post, 0)
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		items = append(items, *post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate posts: %w", err)
	}
	return items, nil
}

func scanPost(row pgx.Row) (*domain.Post, error) {
	var post domain.Post
	err := row.Scan(
		&post.ID,
		&post.UserID,
		&post.Title,
		&post.Content,
		&post.CreatedAt,
		&post.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &post, nil
}
