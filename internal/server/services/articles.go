package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/dmitrijs2005/goblog/internal/common"
	"github.com/dmitrijs2005/goblog/internal/dbx"
	"github.com/dmitrijs2005/goblog/internal/server/models"
	"github.com/dmitrijs2005/goblog/internal/server/repositories/repomanager"
)

// ArticleService manages articles. Mutations are restricted to the author;
// an article owned by someone else is reported as common.ErrorNotFound,
// exactly like a missing one.
type ArticleService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewArticleService(db *sql.DB, m repomanager.RepositoryManager) *ArticleService {
	return &ArticleService{db: db, repomanager: m}
}

// Validate checks title (1-200 characters) and body (at least 30).
func (s *ArticleService) Validate(title, body string) error {
	if err := checkLength("title", "Title", title, titleMin, titleMax); err != nil {
		return err
	}
	if utf8.RuneCountInString(body) < bodyMin {
		return invalid("body", fmt.Sprintf("Body must be at least %d characters long", bodyMin))
	}
	return nil
}

func (s *ArticleService) Create(ctx context.Context, author, title, body string) (*models.Article, error) {
	if err := s.Validate(title, body); err != nil {
		return nil, err
	}

	a, err := s.repomanager.Articles(s.db).Create(ctx, &models.Article{
		Title:  title,
		Body:   body,
		Author: author,
	})
	if err != nil {
		return nil, internal(err)
	}
	return a, nil
}

func (s *ArticleService) Get(ctx context.Context, id int64) (*models.Article, error) {
	a, err := s.repomanager.Articles(s.db).GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return a, nil
}

func (s *ArticleService) GetOwned(ctx context.Context, id int64, author string) (*models.Article, error) {
	a, err := s.repomanager.Articles(s.db).GetByIDAndAuthor(ctx, id, author)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return a, nil
}

// List returns every article, newest first. No rows is an empty slice.
func (s *ArticleService) List(ctx context.Context) ([]models.Article, error) {
	list, err := s.repomanager.Articles(s.db).List(ctx)
	if err != nil {
		return nil, internal(err)
	}
	return list, nil
}

// ListByAuthor returns the articles of author, newest first.
func (s *ArticleService) ListByAuthor(ctx context.Context, author string) ([]models.Article, error) {
	list, err := s.repomanager.Articles(s.db).ListByAuthor(ctx, author)
	if err != nil {
		return nil, internal(err)
	}
	return list, nil
}

// Update validates the new content, then checks ownership and writes it in
// one transaction.
func (s *ArticleService) Update(ctx context.Context, id int64, author, title, body string) (*models.Article, error) {
	if err := s.Validate(title, body); err != nil {
		return nil, err
	}

	var updated *models.Article
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Articles(tx)

		a, err := repo.GetByIDAndAuthor(ctx, id, author)
		if err != nil {
			return err
		}

		a.Title = title
		a.Body = body
		if err := repo.Update(ctx, a); err != nil {
			return err
		}

		updated = a
		return nil
	})

	if err != nil {
		return nil, mapRepoError(err)
	}
	return updated, nil
}

// Delete checks ownership and removes the article in one transaction.
func (s *ArticleService) Delete(ctx context.Context, id int64, author string) error {
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Articles(tx)

		if _, err := repo.GetByIDAndAuthor(ctx, id, author); err != nil {
			return err
		}
		return repo.Delete(ctx, id, author)
	})

	if err != nil {
		return mapRepoError(err)
	}
	return nil
}

// AttachImage records an image key or URL on an article owned by author.
func (s *ArticleService) AttachImage(ctx context.Context, id int64, author, image string) error {
	if err := s.repomanager.Articles(s.db).SetImage(ctx, id, author, image); err != nil {
		return mapRepoError(err)
	}
	return nil
}

func mapRepoError(err error) error {
	if errors.Is(err, common.ErrorNotFound) {
		return common.ErrorNotFound
	}
	return internal(err)
}
