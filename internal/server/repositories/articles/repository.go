// Package articles persists blog articles. Lookups used before a mutation
// filter on both id and author so a foreign article reads as missing.
package articles

import (
	"context"

	"github.com/dmitrijs2005/goblog/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, article *models.Article) (*models.Article, error)
	GetByID(ctx context.Context, id int64) (*models.Article, error)
	GetByIDAndAuthor(ctx context.Context, id int64, author string) (*models.Article, error)
	List(ctx context.Context) ([]models.Article, error)
	ListByAuthor(ctx context.Context, author string) ([]models.Article, error)
	Update(ctx context.Context, article *models.Article) error
	Delete(ctx context.Context, id int64, author string) error
	SetImage(ctx context.Context, id int64, author string, image string) error
}
