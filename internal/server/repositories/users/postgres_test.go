package users

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dmitrijs2005/goblog/internal/common"
	"github.com/dmitrijs2005/goblog/internal/server/models"
)

const (
	insertQ = `(?s)^INSERT\s+INTO\s+users\s*\(name,\s*username,\s*email,\s*password\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4\)\s*RETURNING\s+id,\s*created_at\s*$`
	selectQ = `(?s)^SELECT\s+id,\s*name,\s*username,\s*email,\s*password,\s*created_at\s+FROM\s+users\s+WHERE\s+username\s*=\s*\$1\s*$`
	deleteQ = `^DELETE\s+FROM\s+users\s+WHERE\s+username\s*=\s*\$1$`
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(insertQ).
		WithArgs("Ann", "annie1", "ann@example.com", "hash").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(42), now))

	u := &models.User{Name: "Ann", Username: "annie1", Email: "ann@example.com", Password: "hash"}
	got, err := repo.Create(context.Background(), u)
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if got.ID != 42 || got.Username != "annie1" || !got.CreatedAt.Equal(now) {
		t.Fatalf("unexpected user: %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreate_DuplicateUsername(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(insertQ).
		WithArgs("Ann", "annie1", "ann@example.com", "hash").
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_username_key"})

	_, err := repo.Create(context.Background(), &models.User{Name: "Ann", Username: "annie1", Email: "ann@example.com", Password: "hash"})
	if !errors.Is(err, common.ErrorAlreadyExists) {
		t.Fatalf("want common.ErrorAlreadyExists, got %v", err)
	}
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(insertQ).
		WithArgs("Ann", "annie1", "ann@example.com", "hash").
		WillReturnError(errors.New("db down"))

	_, err := repo.Create(context.Background(), &models.User{Name: "Ann", Username: "annie1", Email: "ann@example.com", Password: "hash"})
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestGetByUsername_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"id", "name", "username", "email", "password", "created_at"}).
		AddRow(int64(1), "Ann", "annie1", "ann@example.com", "hash", time.Now())
	mock.ExpectQuery(selectQ).WithArgs("annie1").WillReturnRows(rows)

	got, err := repo.GetByUsername(context.Background(), "annie1")
	if err != nil {
		t.Fatalf("GetByUsername error: %v", err)
	}
	if got.ID != 1 || got.Username != "annie1" || got.Password != "hash" {
		t.Fatalf("unexpected user: %+v", got)
	}
}

func TestGetByUsername_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(selectQ).WithArgs("ghost").WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByUsername(context.Background(), "ghost")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}
}

func TestGetByUsername_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(selectQ).WithArgs("annie1").WillReturnError(errors.New("db err"))

	_, err := repo.GetByUsername(context.Background(), "annie1")
	if err == nil || !regexp.MustCompile(`db error: .*db err`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	t.Run("removes user", func(t *testing.T) {
		repo, mock, db := newRepoWithMock(t)
		defer db.Close()

		mock.ExpectExec(deleteQ).WithArgs("annie1").WillReturnResult(sqlmock.NewResult(0, 1))

		if err := repo.Delete(context.Background(), "annie1"); err != nil {
			t.Fatalf("Delete error: %v", err)
		}
	})

	t.Run("missing user", func(t *testing.T) {
		repo, mock, db := newRepoWithMock(t)
		defer db.Close()

		mock.ExpectExec(deleteQ).WithArgs("ghost").WillReturnResult(sqlmock.NewResult(0, 0))

		if err := repo.Delete(context.Background(), "ghost"); !errors.Is(err, common.ErrorNotFound) {
			t.Fatalf("want common.ErrorNotFound, got %v", err)
		}
	})

	t.Run("db error", func(t *testing.T) {
		repo, mock, db := newRepoWithMock(t)
		defer db.Close()

		mock.ExpectExec(deleteQ).WithArgs("annie1").WillReturnError(errors.New("boom"))

		err := repo.Delete(context.Background(), "annie1")
		if err == nil || !regexp.MustCompile(`db error: .*boom`).MatchString(err.Error()) {
			t.Fatalf("expected wrapped db error, got %v", err)
		}
	})
}
