package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/goblog/internal/common"
	"github.com/dmitrijs2005/goblog/internal/logging"
	"github.com/dmitrijs2005/goblog/internal/server/auth"
	"github.com/dmitrijs2005/goblog/internal/server/config"
	"github.com/dmitrijs2005/goblog/internal/server/repositories/memory"
	"github.com/dmitrijs2005/goblog/internal/server/services"
)

const (
	secret = "k"
	body30 = "This body is comfortably longer than thirty characters."
)

type env struct {
	srv      *httptest.Server
	rm       *memory.Manager
	mock     sqlmock.Sqlmock
	articles *services.ArticleService
}

func newEnv(t *testing.T) *env {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	cfg := &config.Config{SecretKey: secret, AccessTokenValidityDuration: 30 * time.Minute}
	rm := memory.NewManager()
	as := services.NewArticleService(db, rm)

	h := NewHandler(Options{
		Users:          services.NewUserService(db, rm, cfg),
		Articles:       as,
		Images:         services.NewImageService(cfg),
		Logger:         logging.Nop(),
		AllowedOrigins: []string{"http://localhost:3000"},
		AppName:        "Go Blog",
		Version:        "test",
	})

	srv := httptest.NewServer(h.Routes())
	t.Cleanup(srv.Close)

	return &env{srv: srv, rm: rm, mock: mock, articles: as}
}

func (e *env) client(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func (e *env) do(t *testing.T, c *http.Client, method, path, token string, body any) (*http.Response, []byte) {
	t.Helper()

	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, e.srv.URL+path, r)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set(common.AuthorizationHeaderName, common.BearerPrefix+token)
	}

	resp, err := c.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	return resp, b
}

func (e *env) postForm(t *testing.T, c *http.Client, path string, form url.Values) *http.Response {
	t.Helper()
	resp, err := c.PostForm(e.srv.URL+path, form)
	require.NoError(t, err)
	resp.Body.Close()
	return resp
}

func registerValues(username string) url.Values {
	return url.Values{
		"name":     {"Ann"},
		"username": {username},
		"email":    {"ann@example.com"},
		"password": {"secret123"},
		"confirm":  {"secret123"},
	}
}

// tokenFor registers username and logs in through JSON, returning the
// bearer token.
func (e *env) tokenFor(t *testing.T, username string) string {
	t.Helper()
	c := e.client(t)

	resp := e.postForm(t, c, "/auth/register", registerValues(username))
	require.Equal(t, http.StatusFound, resp.StatusCode)

	resp, b := e.do(t, c, http.MethodPost, "/auth/login", "", map[string]string{
		"username": username,
		"password": "secret123",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	require.NoError(t, json.Unmarshal(b, &out))
	require.Equal(t, "bearer", out.TokenType)
	require.NotEmpty(t, out.AccessToken)
	return out.AccessToken
}

func detailOf(t *testing.T, b []byte) string {
	t.Helper()
	var out struct {
		Detail string `json:"detail"`
	}
	require.NoError(t, json.Unmarshal(b, &out))
	return out.Detail
}

func TestRegisterLoginWithCookie(t *testing.T) {
	e := newEnv(t)
	c := e.client(t)

	resp := e.postForm(t, c, "/auth/register", registerValues("annie1"))
	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/auth/login", resp.Header.Get("Location"))

	resp = e.postForm(t, c, "/auth/login", url.Values{"username": {"annie1"}, "password": {"secret123"}})
	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/dashboard", resp.Header.Get("Location"))

	var tokenCookie *http.Cookie
	for _, ck := range resp.Cookies() {
		if ck.Name == common.AccessTokenCookieName {
			tokenCookie = ck
		}
	}
	require.NotNil(t, tokenCookie)
	assert.True(t, tokenCookie.HttpOnly)
	assert.Equal(t, 1800, tokenCookie.MaxAge)

	resp, b := e.do(t, c, http.MethodGet, "/dashboard/", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var dash struct {
		Msg         string            `json:"msg"`
		Articles    []json.RawMessage `json:"articles"`
		CurrentUser struct {
			Username string `json:"username"`
		} `json:"current_user"`
	}
	require.NoError(t, json.Unmarshal(b, &dash))
	assert.Equal(t, "No Articles Found", dash.Msg)
	assert.Empty(t, dash.Articles)
	assert.Equal(t, "annie1", dash.CurrentUser.Username)
}

func TestLoginFailureIsUniform(t *testing.T) {
	e := newEnv(t)
	e.tokenFor(t, "annie1")
	c := e.client(t)

	for _, creds := range []map[string]string{
		{"username": "annie1", "password": "wrong"},
		{"username": "nobody", "password": "secret123"},
	} {
		resp, b := e.do(t, c, http.MethodPost, "/auth/login", "", creds)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "Incorrect username or password", detailOf(t, b))
	}
}

func TestRegisterFailures(t *testing.T) {
	e := newEnv(t)
	e.tokenFor(t, "annie1")
	c := e.client(t)

	resp, b := e.do(t, c, http.MethodPost, "/auth/register", "", map[string]string{
		"name": "Ann", "username": "annie1", "email": "ann@example.com",
		"password": "secret123", "confirm": "secret123",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Username already registered", detailOf(t, b))

	resp, b = e.do(t, c, http.MethodPost, "/auth/register", "", map[string]string{
		"name": "Bob", "username": "bob", "email": "bob@example.com",
		"password": "secret123", "confirm": "secret123",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, detailOf(t, b), "Username")
}

func TestTokenGuard(t *testing.T) {
	e := newEnv(t)
	token := e.tokenFor(t, "annie1")
	c := e.client(t)

	expired, err := auth.GenerateToken("annie1", []byte(secret), -time.Minute)
	require.NoError(t, err)
	forged, err := auth.GenerateToken("annie1", []byte("other"), time.Minute)
	require.NoError(t, err)
	ghost, err := auth.GenerateToken("ghost", []byte(secret), time.Minute)
	require.NoError(t, err)

	resp, b := e.do(t, c, http.MethodGet, "/dashboard/", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Authentication required", detailOf(t, b))
	assert.Equal(t, "Bearer", resp.Header.Get("WWW-Authenticate"))

	for _, bad := range []string{expired, forged, ghost, "garbage"} {
		resp, b := e.do(t, c, http.MethodGet, "/dashboard/", bad, nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "Invalid authentication credentials", detailOf(t, b))
	}

	resp, _ = e.do(t, c, http.MethodGet, "/dashboard/", token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestHomeOptionalToken(t *testing.T) {
	e := newEnv(t)
	token := e.tokenFor(t, "annie1")
	c := e.client(t)

	var out struct {
		Articles    []json.RawMessage `json:"articles"`
		CurrentUser *struct {
			Username string `json:"username"`
		} `json:"current_user"`
	}

	resp, b := e.do(t, c, http.MethodGet, "/", "garbage", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(b, &out))
	assert.Nil(t, out.CurrentUser)
	assert.NotNil(t, out.Articles)

	resp, b = e.do(t, c, http.MethodGet, "/", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(b, &out))
	require.NotNil(t, out.CurrentUser)
	assert.Equal(t, "annie1", out.CurrentUser.Username)
}

func TestArticleLifecycle(t *testing.T) {
	e := newEnv(t)
	token := e.tokenFor(t, "annie1")
	c := e.client(t)

	resp, b := e.do(t, c, http.MethodPost, "/api/articles/", token, map[string]string{"title": "Hello", "body": body30})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created articleResponse
	require.NoError(t, json.Unmarshal(b, &created))
	assert.Equal(t, "annie1", created.Author)
	assert.Nil(t, created.Image)
	path := "/api/articles/" + strconv.FormatInt(created.ID, 10)

	resp, b = e.do(t, c, http.MethodGet, path, "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(b), "Hello")

	e.mock.ExpectBegin()
	e.mock.ExpectCommit()
	resp, b = e.do(t, c, http.MethodPut, path, token, map[string]string{"title": "Hello again", "body": body30})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(b), "Hello again")

	e.mock.ExpectBegin()
	e.mock.ExpectCommit()
	resp, b = e.do(t, c, http.MethodDelete, path, token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(b), "Article deleted successfully")

	resp, b = e.do(t, c, http.MethodGet, path, "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Article not found", detailOf(t, b))

	require.NoError(t, e.mock.ExpectationsWereMet())
}

func TestCreateArticleFormRedirects(t *testing.T) {
	e := newEnv(t)
	token := e.tokenFor(t, "annie1")
	c := e.client(t)

	req, err := http.NewRequest(http.MethodPost, e.srv.URL+"/api/articles/",
		strings.NewReader(url.Values{"title": {"Hello"}, "body": {body30}}.Encode()))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set(common.AuthorizationHeaderName, common.BearerPrefix+token)

	resp, err := c.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/dashboard", resp.Header.Get("Location"))
	assert.Equal(t, 1, e.rm.Store.ArticleCount())
}

func TestShortBodyRejectedAndNotPersisted(t *testing.T) {
	e := newEnv(t)
	token := e.tokenFor(t, "annie1")
	c := e.client(t)

	resp, b := e.do(t, c, http.MethodPost, "/api/articles/", token, map[string]string{"title": "Hello", "body": "too short"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Body must be at least 30 characters long", detailOf(t, b))
	assert.Equal(t, 0, e.rm.Store.ArticleCount())
}

func TestForeignArticleLooksMissing(t *testing.T) {
	e := newEnv(t)
	ann := e.tokenFor(t, "annie1")
	mallory := e.tokenFor(t, "mallory")
	c := e.client(t)

	resp, b := e.do(t, c, http.MethodPost, "/api/articles/", ann, map[string]string{"title": "Hello", "body": body30})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created articleResponse
	require.NoError(t, json.Unmarshal(b, &created))

	owned := "/api/articles/" + strconv.FormatInt(created.ID, 10)
	missing := "/api/articles/" + strconv.FormatInt(created.ID+100, 10)

	for _, path := range []string{owned, missing} {
		e.mock.ExpectBegin()
		e.mock.ExpectRollback()
		resp, b := e.do(t, c, http.MethodPut, path, mallory, map[string]string{"title": "Mine", "body": body30})
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "Article not found", detailOf(t, b))

		e.mock.ExpectBegin()
		e.mock.ExpectRollback()
		resp, b = e.do(t, c, http.MethodDelete, path, mallory, nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "Article not found", detailOf(t, b))

		resp, b = e.do(t, c, http.MethodPost, path+"/image", mallory, nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "Article not found", detailOf(t, b))

		resp, _ = e.do(t, c, http.MethodGet, "/dashboard/edit_article/"+strconv.FormatInt(created.ID, 10), mallory, nil)
		assert.Equal(t, http.StatusFound, resp.StatusCode)
	}

	a, err := e.articles.Get(t.Context(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Hello", a.Title)
	require.NoError(t, e.mock.ExpectationsWereMet())
}

func TestDeleteAccountCascades(t *testing.T) {
	e := newEnv(t)
	token := e.tokenFor(t, "annie1")
	c := e.client(t)

	resp, _ := e.do(t, c, http.MethodPost, "/api/articles/", token, map[string]string{"title": "Hello", "body": body30})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, _ = e.do(t, c, http.MethodDelete, "/auth/me", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 0, e.rm.Store.ArticleCount())

	resp, _ = e.do(t, c, http.MethodGet, "/dashboard/", token, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestLogoutClearsCookie(t *testing.T) {
	e := newEnv(t)
	c := e.client(t)

	resp := e.postForm(t, c, "/auth/logout", nil)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))

	var cleared bool
	for _, ck := range resp.Cookies() {
		if ck.Name == common.AccessTokenCookieName && ck.MaxAge < 0 {
			cleared = true
		}
	}
	assert.True(t, cleared)
}

func TestPublicEndpoints(t *testing.T) {
	e := newEnv(t)
	c := e.client(t)

	resp, b := e.do(t, c, http.MethodGet, "/about", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"app":"Go Blog","version":"test"}`, string(b))

	resp, b = e.do(t, c, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(b), "healthy")

	resp, _ = e.do(t, c, http.MethodGet, "/articles", "", nil)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/api/articles/", resp.Header.Get("Location"))

	resp, b = e.do(t, c, http.MethodGet, "/api/articles/", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `[]`, string(b))
}

func TestCORSPreflight(t *testing.T) {
	e := newEnv(t)

	req, err := http.NewRequest(http.MethodOptions, e.srv.URL+"/api/articles/", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	req.Header.Set("Access-Control-Request-Headers", "Authorization")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, "http://localhost:3000", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", resp.Header.Get("Access-Control-Allow-Credentials"))
}
