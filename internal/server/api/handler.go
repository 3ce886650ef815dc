// Package api is the token front end of the blog: JSON endpoints guarded by
// a signed access token carried in the access_token cookie or an
// Authorization: Bearer header.
package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/dmitrijs2005/goblog/internal/logging"
	"github.com/dmitrijs2005/goblog/internal/server/httpx"
	"github.com/dmitrijs2005/goblog/internal/server/models"
	"github.com/dmitrijs2005/goblog/internal/server/services"
)

type Handler struct {
	users          *services.UserService
	articles       *services.ArticleService
	images         *services.ImageService
	logger         logging.Logger
	allowedOrigins []string
	appName        string
	version        string
}

// Options carries the dependencies of NewHandler.
type Options struct {
	Users          *services.UserService
	Articles       *services.ArticleService
	Images         *services.ImageService
	Logger         logging.Logger
	AllowedOrigins []string
	AppName        string
	Version        string
}

func NewHandler(o Options) *Handler {
	return &Handler{
		users:          o.Users,
		articles:       o.Articles,
		images:         o.Images,
		logger:         o.Logger.With("module", "api"),
		allowedOrigins: o.AllowedOrigins,
		appName:        o.AppName,
		version:        o.Version,
	}
}

// Routes builds the gin engine serving the api app.
func (h *Handler) Routes() http.Handler {
	r := httpx.NewEngine(h.logger)
	r.Use(cors.New(h.corsConfig()))

	r.GET("/", h.optionalToken(), h.home)
	r.GET("/health", httpx.Health(h.appName, h.version))
	r.GET("/about", h.about)
	r.GET("/articles", func(c *gin.Context) { c.Redirect(http.StatusFound, "/api/articles/") })

	authGroup := r.Group("/auth")
	{
		authGroup.POST("/register", h.register)
		authGroup.POST("/login", h.login)
		authGroup.POST("/logout", h.logout)
		authGroup.DELETE("/me", h.requireToken(), h.deleteMe)
	}

	articles := r.Group("/api/articles")
	{
		articles.GET("/", h.listArticles)
		articles.GET("/:id", h.getArticle)
		articles.POST("/", h.requireToken(), h.createArticle)
		articles.PUT("/:id", h.requireToken(), h.updateArticle)
		articles.DELETE("/:id", h.requireToken(), h.deleteArticle)
		articles.POST("/:id/image", h.requireToken(), h.uploadImage)
	}

	dashboard := r.Group("/dashboard", h.requireToken(), httpx.NoStore())
	{
		dashboard.GET("/", h.dashboard)
		dashboard.GET("/edit_article/:id", h.dashboardEdit)
	}

	return r
}

func (h *Handler) corsConfig() cors.Config {
	config := cors.DefaultConfig()
	config.AllowCredentials = true
	config.AddAllowHeaders("Authorization")
	config.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	config.MaxAge = 12 * time.Hour

	origins := make([]string, 0, len(h.allowedOrigins))
	for _, o := range h.allowedOrigins {
		if o == "*" {
			config.AllowAllOrigins = true
			config.AllowCredentials = false
			return config
		}
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	if len(origins) == 0 {
		config.AllowAllOrigins = true
		config.AllowCredentials = false
		return config
	}
	config.AllowOrigins = origins

	return config
}

type articleResponse struct {
	ID        int64      `json:"id"`
	Title     string     `json:"title"`
	Body      string     `json:"body"`
	Author    string     `json:"author"`
	Image     *string    `json:"image"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`
}

// toResponse renders an article. An image that cannot be presigned is
// reported as absent.
func (h *Handler) toResponse(ctx context.Context, a *models.Article) articleResponse {
	resp := articleResponse{
		ID:        a.ID,
		Title:     a.Title,
		Body:      a.Body,
		Author:    a.Author,
		CreatedAt: a.CreatedAt,
	}
	if !a.UpdatedAt.IsZero() {
		updated := a.UpdatedAt
		resp.UpdatedAt = &updated
	}

	if a.Image != "" && h.images != nil {
		url, err := h.images.URL(ctx, a.Image)
		if err != nil {
			h.logger.Warn(ctx, "image url unavailable", "article_id", a.ID, "error", err)
		} else if url != "" {
			resp.Image = &url
		}
	}

	return resp
}

func (h *Handler) toResponses(ctx context.Context, list []models.Article) []articleResponse {
	result := make([]articleResponse, 0, len(list))
	for i := range list {
		result = append(result, h.toResponse(ctx, &list[i]))
	}
	return result
}

func detail(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"detail": msg})
}

func wantsJSON(c *gin.Context) bool {
	return c.ContentType() == gin.MIMEJSON
}
