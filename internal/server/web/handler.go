// Package web is the session-cookie front end of the blog: server-rendered
// pages, a server-side session per visitor and flash messages.
package web

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dmitrijs2005/goblog/internal/logging"
	"github.com/dmitrijs2005/goblog/internal/server/httpx"
	"github.com/dmitrijs2005/goblog/internal/server/models"
	"github.com/dmitrijs2005/goblog/internal/server/services"
	"github.com/dmitrijs2005/goblog/internal/server/sessions"
)

type Handler struct {
	users    *services.UserService
	articles *services.ArticleService
	images   *services.ImageService
	sessions *sessions.Store
	renderer *Renderer
	logger   logging.Logger
	appName  string
	version  string
}

// Options carries the dependencies of NewHandler.
type Options struct {
	Users    *services.UserService
	Articles *services.ArticleService
	Images   *services.ImageService
	Sessions *sessions.Store
	Logger   logging.Logger
	AppName  string
	Version  string
}

func NewHandler(o Options) (*Handler, error) {
	renderer, err := NewRenderer(templatesFS)
	if err != nil {
		return nil, err
	}

	return &Handler{
		users:    o.Users,
		articles: o.Articles,
		images:   o.Images,
		sessions: o.Sessions,
		renderer: renderer,
		logger:   o.Logger.With("module", "web"),
		appName:  o.AppName,
		version:  o.Version,
	}, nil
}

// Routes builds the gin engine serving the web app.
func (h *Handler) Routes() http.Handler {
	r := httpx.NewEngine(h.logger)
	r.Use(h.loadSession())

	r.GET("/health", httpx.Health(h.appName, h.version))

	r.GET("/", h.home)
	r.GET("/about", h.about)
	r.GET("/articles", h.listArticles)
	r.GET("/article/:id/", h.showArticle)

	r.GET("/register", h.registerForm)
	r.POST("/register", h.register)
	r.GET("/login", h.loginForm)
	r.POST("/login", h.login)

	private := r.Group("/", h.requireLogin(), httpx.NoStore())
	{
		private.GET("/logout", h.logout)
		private.GET("/dashboard", h.dashboard)
		private.GET("/add_article", h.addArticleForm)
		private.POST("/add_article", h.addArticle)
		private.GET("/edit_article/:id", h.editArticleForm)
		private.POST("/edit_article/:id", h.editArticle)
		private.POST("/delete_article/:id", h.deleteArticle)
	}

	r.NoRoute(func(c *gin.Context) {
		h.render(c, http.StatusNotFound, "notfound.page.html", &HTMLData{Title: "Not Found", Msg: "Page not found"})
	})

	return r
}

// view converts an article for display. A failing image lookup only drops
// the image.
func (h *Handler) view(ctx context.Context, a *models.Article) ArticleView {
	v := ArticleView{
		ID:        a.ID,
		Title:     a.Title,
		Body:      a.Body,
		Author:    a.Author,
		CreatedAt: a.CreatedAt,
	}

	if a.Image != "" && h.images != nil {
		url, err := h.images.URL(ctx, a.Image)
		if err != nil {
			h.logger.Warn(ctx, "image url unavailable", "article_id", a.ID, "error", err)
		}
		v.ImageURL = url
	}

	return v
}

func (h *Handler) views(ctx context.Context, list []models.Article) []ArticleView {
	result := make([]ArticleView, 0, len(list))
	for i := range list {
		result = append(result, h.view(ctx, &list[i]))
	}
	return result
}
