// Package users persists registered blog authors.
package users

import (
	"context"

	"github.com/dmitrijs2005/goblog/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	Delete(ctx context.Context, username string) error
}
