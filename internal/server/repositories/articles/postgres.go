package articles

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/goblog/internal/common"
	"github.com/dmitrijs2005/goblog/internal/dbx"
	"github.com/dmitrijs2005/goblog/internal/server/models"
)

const articleColumns = `id, title, body, author, image, created_at, updated_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanArticle(s scanner) (*models.Article, error) {
	var (
		a       models.Article
		image   sql.NullString
		updated sql.NullTime
	)
	if err := s.Scan(&a.ID, &a.Title, &a.Body, &a.Author, &image, &a.CreatedAt, &updated); err != nil {
		return nil, err
	}
	a.Image = image.String
	a.UpdatedAt = updated.Time
	return &a, nil
}

func (r *PostgresRepository) Create(ctx context.Context, article *models.Article) (*models.Article, error) {
	query :=
		`INSERT INTO articles (title, body, author, image)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at, updated_at
		 `

	var updated sql.NullTime
	err := r.db.QueryRowContext(ctx, query,
		article.Title, article.Body, article.Author, nullString(article.Image)).
		Scan(&article.ID, &article.CreatedAt, &updated)

	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	article.UpdatedAt = updated.Time

	return article, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*models.Article, error) {
	query := `SELECT ` + articleColumns + ` FROM articles WHERE id = $1`

	return r.getOne(ctx, query, id)
}

func (r *PostgresRepository) GetByIDAndAuthor(ctx context.Context, id int64, author string) (*models.Article, error) {
	query := `SELECT ` + articleColumns + ` FROM articles WHERE id = $1 AND author = $2`

	return r.getOne(ctx, query, id, author)
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, args ...any) (*models.Article, error) {
	a, err := scanArticle(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return a, nil
}

func (r *PostgresRepository) List(ctx context.Context) ([]models.Article, error) {
	query := `SELECT ` + articleColumns + ` FROM articles ORDER BY created_at DESC, id DESC`

	return r.list(ctx, query)
}

func (r *PostgresRepository) ListByAuthor(ctx context.Context, author string) ([]models.Article, error) {
	query := `SELECT ` + articleColumns + ` FROM articles WHERE author = $1 ORDER BY created_at DESC, id DESC`

	return r.list(ctx, query, author)
}

func (r *PostgresRepository) list(ctx context.Context, query string, args ...any) ([]models.Article, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]models.Article, 0)
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, *a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

// Update rewrites title and body of an article owned by article.Author and
// bumps updated_at.
// Update writes title and body of an article owned by article.Author and
// stores the new updated_at back into article.
func (r *PostgresRepository) Update(ctx context.Context, article *models.Article) error {
	query :=
		`UPDATE articles SET title = $1, body = $2, updated_at = NOW()
		 WHERE id = $3 AND author = $4
		 RETURNING updated_at
		 `

	var updated sql.NullTime
	err := r.db.QueryRowContext(ctx, query, article.Title, article.Body, article.ID, article.Author).Scan(&updated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return common.ErrorNotFound
		}
		return fmt.Errorf("db error: %w", err)
	}
	article.UpdatedAt = updated.Time

	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id int64, author string) error {
	return r.exec(ctx, `DELETE FROM articles WHERE id = $1 AND author = $2`, id, author)
}

func (r *PostgresRepository) SetImage(ctx context.Context, id int64, author string, image string) error {
	query :=
		`UPDATE articles SET image = $1, updated_at = NOW()
		 WHERE id = $2 AND author = $3
		 `

	return r.exec(ctx, query, nullString(image), id, author)
}

// exec runs a single-row mutation; zero affected rows means the article is
// missing or owned by someone else.
func (r *PostgresRepository) exec(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}

	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
