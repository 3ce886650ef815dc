package web

import (
	"net/http/httptest"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRenderer_ParsesEmbeddedPages(t *testing.T) {
	r, err := NewRenderer(templatesFS)
	require.NoError(t, err)

	for _, page := range []string{
		"home.page.html", "about.page.html", "articles.page.html", "article.page.html",
		"register.page.html", "login.page.html", "dashboard.page.html",
		"add_article.page.html", "edit_article.page.html", "notfound.page.html",
	} {
		assert.Contains(t, r.pages, page)
	}
}

func TestRender_UnknownPage(t *testing.T) {
	r, err := NewRenderer(templatesFS)
	require.NoError(t, err)

	err = r.Render(httptest.NewRecorder(), 200, "missing.page.html", &HTMLData{})
	assert.Error(t, err)
}

func TestRender_ExecutionErrorWritesNothing(t *testing.T) {
	fsys := fstest.MapFS{
		"templates/base.layout.html": {Data: []byte(`{{define "base"}}<p>{{template "content" .}}</p>{{end}}`)},
		"templates/bad.page.html":    {Data: []byte(`{{define "content"}}{{.Missing.Field}}{{end}}`)},
	}
	r, err := NewRenderer(fsys)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	err = r.Render(rec, 200, "bad.page.html", &HTMLData{})
	assert.Error(t, err)
	assert.Empty(t, rec.Body.String())
}
