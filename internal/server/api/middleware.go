package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/dmitrijs2005/goblog/internal/common"
	"github.com/dmitrijs2005/goblog/internal/server/models"
)

const userKey = "user"

// tokenFromRequest prefers the access_token cookie over the Authorization
// header.
func tokenFromRequest(c *gin.Context) string {
	if cookie, err := c.Cookie(common.AccessTokenCookieName); err == nil {
		if token := strings.TrimSpace(strings.TrimPrefix(cookie, common.BearerPrefix)); token != "" {
			return token
		}
	}

	header := c.GetHeader(common.AuthorizationHeaderName)
	if len(header) > len(common.BearerPrefix) && strings.EqualFold(header[:len(common.BearerPrefix)], common.BearerPrefix) {
		return strings.TrimSpace(header[len(common.BearerPrefix):])
	}

	return ""
}

// requireToken rejects the request with 401 unless it carries a valid
// token for an existing user.
func (h *Handler) requireToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := tokenFromRequest(c)
		if token == "" {
			c.Header("WWW-Authenticate", "Bearer")
			detail(c, http.StatusUnauthorized, "Authentication required")
			return
		}

		user, err := h.users.ResolveToken(c.Request.Context(), token)
		if err != nil {
			c.Header("WWW-Authenticate", "Bearer")
			detail(c, http.StatusUnauthorized, "Invalid authentication credentials")
			return
		}

		c.Set(userKey, user)
		c.Next()
	}
}

// optionalToken resolves the user when a valid token is present and never
// rejects.
func (h *Handler) optionalToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := tokenFromRequest(c); token != "" {
			if user, err := h.users.ResolveToken(c.Request.Context(), token); err == nil {
				c.Set(userKey, user)
			}
		}
		c.Next()
	}
}

func currentUser(c *gin.Context) *models.User {
	v, ok := c.Get(userKey)
	if !ok {
		return nil
	}
	user, _ := v.(*models.User)
	return user
}
