package web

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dmitrijs2005/goblog/internal/server/sessions"
)

const sessionKey = "session"

// loadSession attaches the visitor's session, if the cookie names a live
// one, to the gin context.
func (h *Handler) loadSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		if id, ok := sessions.ReadCookie(c.Request); ok {
			if sess, ok := h.sessions.Get(id); ok {
				c.Set(sessionKey, sess)
			}
		}
		c.Next()
	}
}

// requireLogin lets logged-in visitors through. Everyone else gets a flash
// and a redirect to the login page.
func (h *Handler) requireLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if sess, ok := currentSession(c); ok && sess.LoggedIn {
			c.Next()
			return
		}

		h.flash(c, "danger", "Unauthorized, Please login")
		c.Redirect(http.StatusFound, "/login")
		c.Abort()
	}
}

func currentSession(c *gin.Context) (sessions.Session, bool) {
	v, ok := c.Get(sessionKey)
	if !ok {
		return sessions.Session{}, false
	}
	sess, ok := v.(sessions.Session)
	return sess, ok
}

// currentUsername is only meaningful behind requireLogin.
func currentUsername(c *gin.Context) string {
	sess, _ := currentSession(c)
	return sess.Username
}

// flash queues a message for the next rendered page, starting an anonymous
// session when the visitor has none.
func (h *Handler) flash(c *gin.Context, category, message string) {
	sess, ok := currentSession(c)
	if !ok || !h.sessions.Update(sess.ID, func(s *sessions.Session) {
		s.Flashes = append(s.Flashes, sessions.Flash{Category: category, Message: message})
	}) {
		started, err := h.sessions.Start()
		if err != nil {
			h.logger.Error(c.Request.Context(), "session start failed", "error", err)
			return
		}
		h.sessions.Update(started.ID, func(s *sessions.Session) {
			s.Flashes = append(s.Flashes, sessions.Flash{Category: category, Message: message})
		})
		sessions.WriteCookie(c.Writer, started.ID, h.sessions.AnonymousTTL())
		c.Set(sessionKey, started)
	}
}
