package web

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/dmitrijs2005/goblog/internal/common"
)

const noArticles = "No Articles Found"

func (h *Handler) home(c *gin.Context) {
	h.render(c, http.StatusOK, "home.page.html", &HTMLData{Title: "Home"})
}

func (h *Handler) about(c *gin.Context) {
	h.render(c, http.StatusOK, "about.page.html", &HTMLData{Title: "About"})
}

func (h *Handler) listArticles(c *gin.Context) {
	ctx := c.Request.Context()
	data := &HTMLData{Title: "Articles"}

	list, err := h.articles.List(ctx)
	if err != nil {
		h.logger.Error(ctx, "list articles", "error", err)
	}
	if len(list) == 0 {
		data.Msg = noArticles
	}
	data.Articles = h.views(ctx, list)

	h.render(c, http.StatusOK, "articles.page.html", data)
}

func (h *Handler) showArticle(c *gin.Context) {
	ctx := c.Request.Context()

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		h.articleNotFound(c)
		return
	}

	a, err := h.articles.Get(ctx, id)
	if err != nil {
		if !errors.Is(err, common.ErrorNotFound) {
			h.logger.Error(ctx, "get article", "id", id, "error", err)
		}
		h.articleNotFound(c)
		return
	}

	v := h.view(ctx, a)
	h.render(c, http.StatusOK, "article.page.html", &HTMLData{Title: a.Title, Article: &v})
}

func (h *Handler) articleNotFound(c *gin.Context) {
	h.render(c, http.StatusNotFound, "notfound.page.html", &HTMLData{Title: "Not Found", Msg: "Article not found"})
}

func (h *Handler) dashboard(c *gin.Context) {
	ctx := c.Request.Context()
	data := &HTMLData{Title: "Dashboard"}

	list, err := h.articles.ListByAuthor(ctx, currentUsername(c))
	if err != nil {
		h.logger.Error(ctx, "list own articles", "error", err)
	}
	if len(list) == 0 {
		data.Msg = noArticles
	}
	data.Articles = h.views(ctx, list)

	h.render(c, http.StatusOK, "dashboard.page.html", data)
}
