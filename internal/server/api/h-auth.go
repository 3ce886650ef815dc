package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dmitrijs2005/goblog/internal/common"
	"github.com/dmitrijs2005/goblog/internal/server/services"
)

type registerRequest struct {
	Name     string `form:"name" json:"name"`
	Username string `form:"username" json:"username"`
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
	Confirm  string `form:"confirm" json:"confirm"`
}

type loginRequest struct {
	Username string `form:"username" json:"username"`
	Password string `form:"password" json:"password"`
}

func (h *Handler) register(c *gin.Context) {
	ctx := c.Request.Context()

	var req registerRequest
	if err := c.ShouldBind(&req); err != nil {
		detail(c, http.StatusBadRequest, "Malformed request")
		return
	}

	user, err := h.users.Register(ctx, services.RegisterInput{
		Name:     req.Name,
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Confirm:  req.Confirm,
	})
	if err != nil {
		var verr *services.ValidationError
		switch {
		case errors.As(err, &verr):
			detail(c, http.StatusBadRequest, verr.Message)
		case errors.Is(err, common.ErrorAlreadyExists):
			detail(c, http.StatusBadRequest, "Username already registered")
		default:
			h.logger.Error(ctx, "register", "error", err)
			detail(c, http.StatusInternalServerError, "Registration failed")
		}
		return
	}

	h.logger.Info(ctx, "user registered", "username", user.Username)

	c.Redirect(http.StatusFound, "/auth/login")
}

func (h *Handler) login(c *gin.Context) {
	ctx := c.Request.Context()

	var req loginRequest
	if err := c.ShouldBind(&req); err != nil {
		detail(c, http.StatusBadRequest, "Malformed request")
		return
	}

	user, err := h.users.Authenticate(ctx, req.Username, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) || errors.Is(err, services.ErrInvalidCredentials) {
			c.Header("WWW-Authenticate", "Bearer")
			detail(c, http.StatusUnauthorized, "Incorrect username or password")
			return
		}
		h.logger.Error(ctx, "login", "error", err)
		detail(c, http.StatusInternalServerError, "Login failed")
		return
	}

	token, err := h.users.IssueToken(user.Username)
	if err != nil {
		h.logger.Error(ctx, "issue token", "error", err)
		detail(c, http.StatusInternalServerError, "Login failed")
		return
	}

	setTokenCookie(c, token, h.users.TokenValidity())

	h.logger.Info(ctx, "user logged in", "username", user.Username)

	if wantsJSON(c) {
		c.JSON(http.StatusOK, gin.H{"access_token": token, "token_type": "bearer"})
		return
	}
	c.Redirect(http.StatusFound, "/dashboard")
}

func (h *Handler) logout(c *gin.Context) {
	clearTokenCookie(c)
	c.Redirect(http.StatusFound, "/")
}

func (h *Handler) deleteMe(c *gin.Context) {
	ctx := c.Request.Context()
	user := currentUser(c)

	if err := h.users.Delete(ctx, user.Username); err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			detail(c, http.StatusNotFound, "User not found")
			return
		}
		h.logger.Error(ctx, "delete account", "username", user.Username, "error", err)
		detail(c, http.StatusInternalServerError, "Account deletion failed")
		return
	}

	clearTokenCookie(c)

	h.logger.Info(ctx, "account deleted", "username", user.Username)

	c.JSON(http.StatusOK, gin.H{"message": "Account deleted successfully"})
}

func setTokenCookie(c *gin.Context, token string, validity time.Duration) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     common.AccessTokenCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(validity.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearTokenCookie(c *gin.Context) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     common.AccessTokenCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
