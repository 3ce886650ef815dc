package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dmitrijs2005/goblog/internal/server/sessions"
)

//go:embed templates/*.html
var templatesFS embed.FS

const layoutFile = "templates/base.layout.html"

// ArticleView is an article prepared for a page.
type ArticleView struct {
	ID        int64
	Title     string
	Body      string
	Author    string
	ImageURL  string
	CreatedAt time.Time
}

// HTMLData is passed to every page template.
type HTMLData struct {
	Title   string
	Path    string
	AppName string
	Version string

	LoggedIn bool
	Username string
	Flashes  []sessions.Flash

	Error string
	Msg   string
	Form  map[string]string

	Article   *ArticleView
	ArticleID int64
	Articles  []ArticleView
}

var functions = template.FuncMap{
	"formatDate": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Format("02 Jan 2006, 15:04")
	},
}

// Renderer holds one parsed template set per page, each made of the shared
// layout plus the page itself.
type Renderer struct {
	pages map[string]*template.Template
}

// NewRenderer parses every *.page.html under templates/ in fsys.
func NewRenderer(fsys fs.FS) (*Renderer, error) {
	names, err := fs.Glob(fsys, "templates/*.page.html")
	if err != nil {
		return nil, err
	}

	r := &Renderer{pages: make(map[string]*template.Template, len(names))}
	for _, name := range names {
		ts, err := template.New("").Funcs(functions).ParseFS(fsys, layoutFile, name)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		page := strings.TrimPrefix(name, "templates/")
		r.pages[page] = ts
	}

	return r, nil
}

// Render executes page into a buffer first so a template error never
// leaves a half-written response.
func (r *Renderer) Render(w http.ResponseWriter, status int, page string, data *HTMLData) error {
	ts, ok := r.pages[page]
	if !ok {
		return fmt.Errorf("template %s does not exist", page)
	}

	buf := new(bytes.Buffer)
	if err := ts.ExecuteTemplate(buf, "base", data); err != nil {
		return err
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}

// render fills the per-request parts of data and writes the page. Pending
// flashes are consumed.
func (h *Handler) render(c *gin.Context, status int, page string, data *HTMLData) {
	if data == nil {
		data = &HTMLData{}
	}

	data.Path = c.Request.URL.Path
	data.AppName = h.appName
	data.Version = h.version

	if sess, ok := currentSession(c); ok {
		data.LoggedIn = sess.LoggedIn
		data.Username = sess.Username
		data.Flashes = h.sessions.PopFlashes(sess.ID)
	}

	if err := h.renderer.Render(c.Writer, status, page, data); err != nil {
		h.serverError(c, err)
	}
}

func (h *Handler) serverError(c *gin.Context, err error) {
	h.logger.Error(c.Request.Context(), "render error", "error", err, "path", c.Request.URL.Path)
	c.String(http.StatusInternalServerError, "Internal Server Error")
}
