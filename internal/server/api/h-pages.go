package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type userResponse struct {
	Name     string `json:"name"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

func (h *Handler) currentUserResponse(c *gin.Context) *userResponse {
	u := currentUser(c)
	if u == nil {
		return nil
	}
	return &userResponse{Name: u.Name, Username: u.Username, Email: u.Email}
}

func (h *Handler) home(c *gin.Context) {
	ctx := c.Request.Context()

	list, err := h.articles.List(ctx)
	if err != nil {
		h.logger.Error(ctx, "home", "error", err)
		list = nil
	}

	c.JSON(http.StatusOK, gin.H{
		"articles":     h.toResponses(ctx, list),
		"current_user": h.currentUserResponse(c),
	})
}

func (h *Handler) about(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"app": h.appName, "version": h.version})
}

func (h *Handler) dashboard(c *gin.Context) {
	ctx := c.Request.Context()

	resp := gin.H{"current_user": h.currentUserResponse(c)}

	list, err := h.articles.ListByAuthor(ctx, currentUser(c).Username)
	if err != nil {
		h.logger.Error(ctx, "dashboard", "error", err)
		list = nil
	}
	if len(list) == 0 {
		resp["msg"] = "No Articles Found"
	}
	resp["articles"] = h.toResponses(ctx, list)

	c.JSON(http.StatusOK, resp)
}

func (h *Handler) dashboardEdit(c *gin.Context) {
	ctx := c.Request.Context()

	id, ok := articleID(c)
	if !ok {
		return
	}

	a, err := h.articles.GetOwned(ctx, id, currentUser(c).Username)
	if err != nil {
		c.Redirect(http.StatusFound, "/dashboard/")
		return
	}

	c.JSON(http.StatusOK, h.toResponse(ctx, a))
}
