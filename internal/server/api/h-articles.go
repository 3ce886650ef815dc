package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/dmitrijs2005/goblog/internal/common"
	"github.com/dmitrijs2005/goblog/internal/server/services"
)

type articleRequest struct {
	Title string `form:"title" json:"title"`
	Body  string `form:"body" json:"body"`
}

func articleID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		detail(c, http.StatusNotFound, "Article not found")
		return 0, false
	}
	return id, true
}

// writeArticleError maps service errors to responses. Foreign articles
// come back from the services as not found.
func (h *Handler) writeArticleError(c *gin.Context, op string, err error) {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		detail(c, http.StatusBadRequest, verr.Message)
	case errors.Is(err, common.ErrorNotFound):
		detail(c, http.StatusNotFound, "Article not found")
	default:
		h.logger.Error(c.Request.Context(), op, "error", err)
		detail(c, http.StatusInternalServerError, "Internal server error")
	}
}

func (h *Handler) listArticles(c *gin.Context) {
	list, err := h.articles.List(c.Request.Context())
	if err != nil {
		h.writeArticleError(c, "list articles", err)
		return
	}
	c.JSON(http.StatusOK, h.toResponses(c.Request.Context(), list))
}

func (h *Handler) getArticle(c *gin.Context) {
	id, ok := articleID(c)
	if !ok {
		return
	}

	a, err := h.articles.Get(c.Request.Context(), id)
	if err != nil {
		h.writeArticleError(c, "get article", err)
		return
	}
	c.JSON(http.StatusOK, h.toResponse(c.Request.Context(), a))
}

func (h *Handler) createArticle(c *gin.Context) {
	ctx := c.Request.Context()

	var req articleRequest
	if err := c.ShouldBind(&req); err != nil {
		detail(c, http.StatusBadRequest, "Malformed request")
		return
	}

	a, err := h.articles.Create(ctx, currentUser(c).Username, req.Title, req.Body)
	if err != nil {
		h.writeArticleError(c, "create article", err)
		return
	}

	h.logger.Info(ctx, "article created", "article_id", a.ID, "author", a.Author)

	if wantsJSON(c) {
		c.JSON(http.StatusCreated, h.toResponse(ctx, a))
		return
	}
	c.Redirect(http.StatusFound, "/dashboard")
}

func (h *Handler) updateArticle(c *gin.Context) {
	ctx := c.Request.Context()

	id, ok := articleID(c)
	if !ok {
		return
	}

	var req articleRequest
	if err := c.ShouldBind(&req); err != nil {
		detail(c, http.StatusBadRequest, "Malformed request")
		return
	}

	a, err := h.articles.Update(ctx, id, currentUser(c).Username, req.Title, req.Body)
	if err != nil {
		h.writeArticleError(c, "update article", err)
		return
	}

	c.JSON(http.StatusOK, h.toResponse(ctx, a))
}

func (h *Handler) deleteArticle(c *gin.Context) {
	id, ok := articleID(c)
	if !ok {
		return
	}

	if err := h.articles.Delete(c.Request.Context(), id, currentUser(c).Username); err != nil {
		h.writeArticleError(c, "delete article", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Article deleted successfully"})
}

func (h *Handler) uploadImage(c *gin.Context) {
	ctx := c.Request.Context()

	id, ok := articleID(c)
	if !ok {
		return
	}
	username := currentUser(c).Username

	if _, err := h.articles.GetOwned(ctx, id, username); err != nil {
		h.writeArticleError(c, "image upload", err)
		return
	}

	upload, err := h.images.PresignUpload(ctx, id)
	if err != nil {
		h.logger.Error(ctx, "presign upload", "article_id", id, "error", err)
		detail(c, http.StatusBadGateway, "Image storage unavailable")
		return
	}

	if err := h.articles.AttachImage(ctx, id, username, upload.Key); err != nil {
		h.writeArticleError(c, "attach image", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"key":        upload.Key,
		"upload_url": upload.URL,
		"expires_in": int(upload.ExpiresIn.Seconds()),
	})
}
