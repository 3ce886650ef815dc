// Package memory holds map-backed repositories that mirror the PostgreSQL
// ones, including unique usernames, cascading user deletes and owner
// filtering. Handler and service tests run full flows against it.
package memory

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	"github.com/dmitrijs2005/goblog/internal/common"
	"github.com/dmitrijs2005/goblog/internal/dbx"
	"github.com/dmitrijs2005/goblog/internal/server/models"
	"github.com/dmitrijs2005/goblog/internal/server/repositories/articles"
	"github.com/dmitrijs2005/goblog/internal/server/repositories/users"
)

// Store is the shared state behind both repositories.
type Store struct {
	mu       sync.Mutex
	users    map[string]models.User
	articles map[int64]models.Article
	userSeq  int64
	artSeq   int64
	now      func() time.Time

	// Err, when set, is returned by every repository call.
	Err error
}

func NewStore() *Store {
	return &Store{
		users:    make(map[string]models.User),
		articles: make(map[int64]models.Article),
		now:      time.Now,
	}
}

// Manager satisfies repomanager.RepositoryManager. Transactions are not
// emulated; the DBTX argument is ignored.
type Manager struct {
	Store *Store
}

func NewManager() *Manager {
	return &Manager{Store: NewStore()}
}

func (m *Manager) RunMigrations(context.Context, *sql.DB) error { return nil }

func (m *Manager) Users(dbx.DBTX) users.Repository { return &UsersRepository{s: m.Store} }

func (m *Manager) Articles(dbx.DBTX) articles.Repository { return &ArticlesRepository{s: m.Store} }

// ArticleCount is a test helper reporting how many articles are stored.
func (s *Store) ArticleCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.articles)
}

type UsersRepository struct {
	s *Store
}

func (r *UsersRepository) Create(_ context.Context, user *models.User) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.s.Err != nil {
		return nil, r.s.Err
	}
	if _, ok := r.s.users[user.Username]; ok {
		return nil, common.ErrorAlreadyExists
	}

	r.s.userSeq++
	user.ID = r.s.userSeq
	user.CreatedAt = r.s.now()
	r.s.users[user.Username] = *user

	return user, nil
}

func (r *UsersRepository) GetByUsername(_ context.Context, username string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.s.Err != nil {
		return nil, r.s.Err
	}
	u, ok := r.s.users[username]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &u, nil
}

func (r *UsersRepository) Delete(_ context.Context, username string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.s.Err != nil {
		return r.s.Err
	}
	if _, ok := r.s.users[username]; !ok {
		return common.ErrorNotFound
	}
	delete(r.s.users, username)
	for id, a := range r.s.articles {
		if a.Author == username {
			delete(r.s.articles, id)
		}
	}
	return nil
}

type ArticlesRepository struct {
	s *Store
}

func (r *ArticlesRepository) Create(_ context.Context, article *models.Article) (*models.Article, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.s.Err != nil {
		return nil, r.s.Err
	}
	if _, ok := r.s.users[article.Author]; !ok {
		return nil, common.ErrorNotFound
	}

	r.s.artSeq++
	article.ID = r.s.artSeq
	article.CreatedAt = r.s.now()
	article.UpdatedAt = article.CreatedAt
	r.s.articles[article.ID] = *article

	return article, nil
}

func (r *ArticlesRepository) GetByID(_ context.Context, id int64) (*models.Article, error) {
	return r.get(id, "")
}

func (r *ArticlesRepository) GetByIDAndAuthor(_ context.Context, id int64, author string) (*models.Article, error) {
	return r.get(id, author)
}

func (r *ArticlesRepository) get(id int64, author string) (*models.Article, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.s.Err != nil {
		return nil, r.s.Err
	}
	a, ok := r.s.articles[id]
	if !ok || (author != "" && a.Author != author) {
		return nil, common.ErrorNotFound
	}
	return &a, nil
}

func (r *ArticlesRepository) List(_ context.Context) ([]models.Article, error) {
	return r.list("")
}

func (r *ArticlesRepository) ListByAuthor(_ context.Context, author string) ([]models.Article, error) {
	return r.list(author)
}

func (r *ArticlesRepository) list(author string) ([]models.Article, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.s.Err != nil {
		return nil, r.s.Err
	}

	result := make([]models.Article, 0, len(r.s.articles))
	for _, a := range r.s.articles {
		if author == "" || a.Author == author {
			result = append(result, a)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID > result[j].ID
	})
	return result, nil
}

func (r *ArticlesRepository) Update(_ context.Context, article *models.Article) error {
	return r.mutate(article.ID, article.Author, func(a *models.Article) {
		a.Title = article.Title
		a.Body = article.Body
		article.UpdatedAt = a.UpdatedAt
	})
}

func (r *ArticlesRepository) SetImage(_ context.Context, id int64, author string, image string) error {
	return r.mutate(id, author, func(a *models.Article) {
		a.Image = image
	})
}

func (r *ArticlesRepository) mutate(id int64, author string, fn func(a *models.Article)) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.s.Err != nil {
		return r.s.Err
	}
	a, ok := r.s.articles[id]
	if !ok || a.Author != author {
		return common.ErrorNotFound
	}
	a.UpdatedAt = r.s.now()
	fn(&a)
	r.s.articles[id] = a
	return nil
}

func (r *ArticlesRepository) Delete(_ context.Context, id int64, author string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.s.Err != nil {
		return r.s.Err
	}
	a, ok := r.s.articles[id]
	if !ok || a.Author != author {
		return common.ErrorNotFound
	}
	delete(r.s.articles, id)
	return nil
}
