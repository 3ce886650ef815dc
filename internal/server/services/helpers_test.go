package services

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/goblog/internal/server/config"
	"github.com/dmitrijs2005/goblog/internal/server/repositories/memory"
)

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func testConfig() *config.Config {
	return &config.Config{
		SecretKey:                   "k",
		AccessTokenValidityDuration: time.Hour,
		S3Region:                    "us-east-1",
		S3RootUser:                  "minioadmin",
		S3RootPassword:              "minioadmin",
		S3BaseEndpoint:              "http://127.0.0.1:9000",
		S3Bucket:                    "blog-images",
	}
}

func newServices(t *testing.T) (*UserService, *ArticleService, *memory.Manager, sqlmock.Sqlmock) {
	t.Helper()
	db, mock := newSQLMockDB(t)
	rm := memory.NewManager()
	return NewUserService(db, rm, testConfig()), NewArticleService(db, rm), rm, mock
}

func registerAnn(t *testing.T, us *UserService) {
	t.Helper()
	_, err := us.Register(context.Background(), RegisterInput{
		Name:     "Ann",
		Username: "annie1",
		Email:    "ann@example.com",
		Password: "secret123",
		Confirm:  "secret123",
	})
	require.NoError(t, err)
}
