// Package services contains the blog's business logic: registration and
// authentication of users, token issuance, article management and article
// image storage.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/goblog/internal/common"
	"github.com/dmitrijs2005/goblog/internal/server/auth"
	"github.com/dmitrijs2005/goblog/internal/server/config"
	"github.com/dmitrijs2005/goblog/internal/server/models"
	"github.com/dmitrijs2005/goblog/internal/server/repositories/repomanager"
)

// RegisterInput is the registration form.
type RegisterInput struct {
	Name     string
	Username string
	Email    string
	Password string
	Confirm  string
}

// Validate checks field lengths, the email shape and the password
// confirmation. The first failure is returned as a *ValidationError.
func (in RegisterInput) Validate() error {
	if err := checkLength("name", "Name", in.Name, nameMin, nameMax); err != nil {
		return err
	}
	if err := checkLength("username", "Username", in.Username, usernameMin, usernameMax); err != nil {
		return err
	}
	if err := checkEmail(in.Email); err != nil {
		return err
	}
	if in.Password == "" {
		return invalid("password", "Password is required")
	}
	if len(in.Password) > passwordMaxBytes {
		return invalid("password", fmt.Sprintf("Password must be at most %d bytes long", passwordMaxBytes))
	}
	if in.Password != in.Confirm {
		return invalid("confirm", "Passwords do not match")
	}
	return nil
}

// UserService registers and authenticates users and issues/resolves the
// access tokens used by the api app.
type UserService struct {
	db                          *sql.DB
	repomanager                 repomanager.RepositoryManager
	jwtSecret                   []byte
	accessTokenValidityDuration time.Duration
}

// NewUserService constructs a UserService using repositories and server config.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config) *UserService {
	return &UserService{
		db:                          db,
		repomanager:                 m,
		jwtSecret:                   []byte(cfg.SecretKey),
		accessTokenValidityDuration: cfg.AccessTokenValidityDuration,
	}
}

// TokenValidity is how long issued tokens stay valid.
func (s *UserService) TokenValidity() time.Duration {
	return s.accessTokenValidityDuration
}

// Register validates in, refuses a taken username and stores the user with
// a bcrypt-hashed password.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	repo := s.repomanager.Users(s.db)

	_, err := repo.GetByUsername(ctx, in.Username)
	switch {
	case err == nil:
		return nil, ErrUsernameTaken
	case !errors.Is(err, common.ErrorNotFound):
		return nil, internal(err)
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, internal(err)
	}

	user, err := repo.Create(ctx, &models.User{
		Name:     in.Name,
		Username: in.Username,
		Email:    in.Email,
		Password: hash,
	})
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, ErrUsernameTaken
		}
		return nil, internal(err)
	}

	return user, nil
}

// Authenticate checks password against the stored hash for username.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	repo := s.repomanager.Users(s.db)

	user, err := repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, internal(err)
	}

	if !auth.CheckPassword(user.Password, password) {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

// IssueToken mints an access token for username.
func (s *UserService) IssueToken(username string) (string, error) {
	token, err := auth.GenerateToken(username, s.jwtSecret, s.accessTokenValidityDuration)
	if err != nil {
		return "", internal(err)
	}
	return token, nil
}

// ResolveToken verifies token and loads its user. Every failure, including
// expiry and an unknown subject, is reported as common.ErrInvalidToken.
func (s *UserService) ResolveToken(ctx context.Context, token string) (*models.User, error) {
	username, err := auth.UsernameFromToken(token, s.jwtSecret)
	if err != nil {
		return nil, common.ErrInvalidToken
	}

	user, err := s.repomanager.Users(s.db).GetByUsername(ctx, username)
	if err != nil {
		return nil, common.ErrInvalidToken
	}

	return user, nil
}

func (s *UserService) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	user, err := s.repomanager.Users(s.db).GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, internal(err)
	}
	return user, nil
}

// Delete removes username and, through the foreign key cascade, every
// article they wrote.
func (s *UserService) Delete(ctx context.Context, username string) error {
	if err := s.repomanager.Users(s.db).Delete(ctx, username); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return ErrUserNotFound
		}
		return internal(err)
	}
	return nil
}
