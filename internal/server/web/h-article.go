package web

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/dmitrijs2005/goblog/internal/common"
	"github.com/dmitrijs2005/goblog/internal/server/services"
)

type articleForm struct {
	Title string `form:"title"`
	Body  string `form:"body"`
}

func (f articleForm) values() map[string]string {
	return map[string]string{"title": f.Title, "body": f.Body}
}

func (h *Handler) addArticleForm(c *gin.Context) {
	h.render(c, http.StatusOK, "add_article.page.html", &HTMLData{Title: "Add Article"})
}

func (h *Handler) addArticle(c *gin.Context) {
	ctx := c.Request.Context()

	var form articleForm
	if err := c.ShouldBind(&form); err != nil {
		h.render(c, http.StatusBadRequest, "add_article.page.html", &HTMLData{Title: "Add Article", Error: malformedRequest})
		return
	}

	a, err := h.articles.Create(ctx, currentUsername(c), form.Title, form.Body)
	if err != nil {
		data := &HTMLData{Title: "Add Article", Form: form.values()}

		var verr *services.ValidationError
		if errors.As(err, &verr) {
			data.Error = verr.Message
			h.render(c, http.StatusBadRequest, "add_article.page.html", data)
			return
		}

		h.logger.Error(ctx, "create article", "error", err)
		data.Error = "Failed to create article"
		h.render(c, http.StatusInternalServerError, "add_article.page.html", data)
		return
	}

	h.logger.Info(ctx, "article created", "id", a.ID, "author", a.Author)

	h.flash(c, "success", "Article Created")
	c.Redirect(http.StatusFound, "/dashboard")
}

// ownedArticleID parses :id. Unparseable ids are treated like a missing
// article.
func ownedArticleID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	return id, err == nil
}

func (h *Handler) editArticleForm(c *gin.Context) {
	ctx := c.Request.Context()

	id, ok := ownedArticleID(c)
	if !ok {
		h.redirectNotFound(c)
		return
	}

	a, err := h.articles.GetOwned(ctx, id, currentUsername(c))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			h.redirectNotFound(c)
			return
		}
		h.logger.Error(ctx, "get article", "id", id, "error", err)
		h.flash(c, "danger", "Can't display the article")
		c.Redirect(http.StatusFound, "/dashboard")
		return
	}

	h.render(c, http.StatusOK, "edit_article.page.html", &HTMLData{
		Title:     "Edit Article",
		ArticleID: a.ID,
		Form:      map[string]string{"title": a.Title, "body": a.Body},
	})
}

func (h *Handler) editArticle(c *gin.Context) {
	ctx := c.Request.Context()

	id, ok := ownedArticleID(c)
	if !ok {
		h.redirectNotFound(c)
		return
	}

	var form articleForm
	if err := c.ShouldBind(&form); err != nil {
		h.render(c, http.StatusBadRequest, "edit_article.page.html", &HTMLData{
			Title:     "Edit Article",
			ArticleID: id,
			Error:     malformedRequest,
		})
		return
	}

	_, err := h.articles.Update(ctx, id, currentUsername(c), form.Title, form.Body)
	if err != nil {
		var verr *services.ValidationError
		switch {
		case errors.As(err, &verr):
			h.render(c, http.StatusBadRequest, "edit_article.page.html", &HTMLData{
				Title:     "Edit Article",
				ArticleID: id,
				Form:      form.values(),
				Error:     verr.Message,
			})
		case errors.Is(err, common.ErrorNotFound):
			h.redirectNotFound(c)
		default:
			h.logger.Error(ctx, "update article", "id", id, "error", err)
			h.flash(c, "danger", "Can't update the article")
			c.Redirect(http.StatusFound, "/dashboard")
		}
		return
	}

	h.flash(c, "success", "Article Updated")
	c.Redirect(http.StatusFound, "/dashboard")
}

func (h *Handler) deleteArticle(c *gin.Context) {
	ctx := c.Request.Context()

	id, ok := ownedArticleID(c)
	if !ok {
		h.redirectNotFound(c)
		return
	}

	if err := h.articles.Delete(ctx, id, currentUsername(c)); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			h.redirectNotFound(c)
			return
		}
		h.logger.Error(ctx, "delete article", "id", id, "error", err)
		h.flash(c, "danger", "Can't delete the article")
		c.Redirect(http.StatusFound, "/dashboard")
		return
	}

	h.flash(c, "success", "Article Deleted")
	c.Redirect(http.StatusFound, "/dashboard")
}

// redirectNotFound answers missing and foreign articles the same way.
func (h *Handler) redirectNotFound(c *gin.Context) {
	h.flash(c, "danger", "Article not found")
	c.Redirect(http.StatusFound, "/dashboard")
}
