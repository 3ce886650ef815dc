package web

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dmitrijs2005/goblog/internal/common"
	"github.com/dmitrijs2005/goblog/internal/server/services"
	"github.com/dmitrijs2005/goblog/internal/server/sessions"
)

const malformedRequest = "Malformed request"

type registerForm struct {
	Name     string `form:"name"`
	Username string `form:"username"`
	Email    string `form:"email"`
	Password string `form:"password"`
	Confirm  string `form:"confirm"`
}

type loginForm struct {
	Username string `form:"username"`
	Password string `form:"password"`
}

func (h *Handler) registerForm(c *gin.Context) {
	h.render(c, http.StatusOK, "register.page.html", &HTMLData{Title: "Register"})
}

func (h *Handler) register(c *gin.Context) {
	ctx := c.Request.Context()

	var form registerForm
	if err := c.ShouldBind(&form); err != nil {
		h.render(c, http.StatusBadRequest, "register.page.html", &HTMLData{Title: "Register", Error: malformedRequest})
		return
	}

	data := &HTMLData{
		Title: "Register",
		Form: map[string]string{
			"name":     form.Name,
			"username": form.Username,
			"email":    form.Email,
		},
	}

	user, err := h.users.Register(ctx, services.RegisterInput{
		Name:     form.Name,
		Username: form.Username,
		Email:    form.Email,
		Password: form.Password,
		Confirm:  form.Confirm,
	})
	if err != nil {
		var verr *services.ValidationError
		switch {
		case errors.As(err, &verr):
			data.Error = verr.Message
		case errors.Is(err, common.ErrorAlreadyExists):
			data.Error = "Username already registered"
		default:
			h.logger.Error(ctx, "register", "error", err)
			data.Error = "Registration failed, please try again"
			h.render(c, http.StatusInternalServerError, "register.page.html", data)
			return
		}
		h.render(c, http.StatusBadRequest, "register.page.html", data)
		return
	}

	h.logger.Info(ctx, "user registered", "username", user.Username)

	h.flash(c, "success", "You are now registered and can log in")
	c.Redirect(http.StatusFound, "/login")
}

func (h *Handler) loginForm(c *gin.Context) {
	h.render(c, http.StatusOK, "login.page.html", &HTMLData{Title: "Login"})
}

func (h *Handler) login(c *gin.Context) {
	ctx := c.Request.Context()

	var form loginForm
	if err := c.ShouldBind(&form); err != nil {
		h.render(c, http.StatusBadRequest, "login.page.html", &HTMLData{Title: "Login", Error: malformedRequest})
		return
	}

	data := &HTMLData{Title: "Login", Form: map[string]string{"username": form.Username}}

	user, err := h.users.Authenticate(ctx, form.Username, form.Password)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrUserNotFound):
			data.Error = "Username not found"
		case errors.Is(err, services.ErrInvalidCredentials):
			data.Error = "Invalid login"
		default:
			h.logger.Error(ctx, "login", "error", err)
			data.Error = "Login failed, please try again"
			h.render(c, http.StatusInternalServerError, "login.page.html", data)
			return
		}
		h.render(c, http.StatusUnauthorized, "login.page.html", data)
		return
	}

	// A fresh session id on every login; the anonymous one is dropped.
	if old, ok := currentSession(c); ok {
		h.sessions.Destroy(old.ID)
	}
	sess, err := h.sessions.Start()
	if err != nil {
		h.logger.Error(ctx, "session start failed", "error", err)
		data.Error = "Login failed, please try again"
		h.render(c, http.StatusInternalServerError, "login.page.html", data)
		return
	}
	h.sessions.Login(sess.ID, user.Username)
	h.sessions.Update(sess.ID, func(s *sessions.Session) {
		s.Flashes = append(s.Flashes, sessions.Flash{Category: "success", Message: "You are now logged in"})
	})
	sessions.WriteCookie(c.Writer, sess.ID, h.sessions.TTL())

	h.logger.Info(ctx, "user logged in", "username", user.Username)

	c.Redirect(http.StatusFound, "/dashboard")
}

func (h *Handler) logout(c *gin.Context) {
	sess, _ := currentSession(c)

	h.sessions.Logout(sess.ID)
	h.sessions.Update(sess.ID, func(s *sessions.Session) {
		s.Flashes = append(s.Flashes, sessions.Flash{Category: "success", Message: "You are now logged out"})
	})
	sessions.WriteCookie(c.Writer, sess.ID, h.sessions.AnonymousTTL())

	c.Redirect(http.StatusFound, "/login")
}
