package session

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/glutton4gainz/edge/internal/domain"
	"github.com/glutton4gainz/edge/internal/pkg"
)

// AdminRole is the role claim allowed to list revocations.
const AdminRole = "admin"

// HandlerConfig configures a SessionHandler.
type HandlerConfig struct {
	CookieName string
	LoginPath  string
	// Secure marks the cleared cookie Secure, matching how it was set.
	Secure bool
}

// SessionHandler serves the session API and the logout form.
type SessionHandler struct {
	svc domain.SessionService
	cfg HandlerConfig
}

// NewSessionHandler creates a SessionHandler.
func NewSessionHandler(svc domain.SessionService, cfg HandlerConfig) *SessionHandler {
	if cfg.CookieName == "" {
		cfg.CookieName = DefaultCookieName
	}
	if cfg.LoginPath == "" {
		cfg.LoginPath = "/login"
	}
	return &SessionHandler{svc: svc, cfg: cfg}
}

// Current handles GET /api/v1/session.
func (h *SessionHandler) Current(c *gin.Context) {
	sess, err := h.authenticate(c)
	if err != nil {
		pkg.Error(c, err)
		return
	}
	pkg.Success(c, newSessionView(sess))
}

// SignOut handles DELETE /api/v1/session.
func (h *SessionHandler) SignOut(c *gin.Context) {
	if err := h.signOut(c); err != nil {
		pkg.Error(c, err)
		return
	}
	pkg.Success(c, nil)
}

// ListRevocations handles GET /api/v1/session/revocations. Only sessions
// with the admin role may call it.
func (h *SessionHandler) ListRevocations(c *gin.Context) {
	sess, err := h.authenticate(c)
	if err != nil {
		pkg.Error(c, err)
		return
	}
	if sess.Role != AdminRole {
		pkg.Error(c, domain.ErrForbidden)
		return
	}

	req := pkg.ParsePageRequest(c, "created_at:desc")
	result, err := h.svc.ListRevocations(c.Request.Context(), req)
	if err != nil {
		pkg.Error(c, err)
		return
	}
	pkg.Success(c, result)
}

// LogoutPage handles the POST /logout form. The user ends up on the login
// page whether or not a session was present.
func (h *SessionHandler) LogoutPage(c *gin.Context) {
	if err := h.signOut(c); err != nil && !domain.IsNoSession(err) {
		pkg.Error(c, err)
		return
	}
	target := h.cfg.LoginPath
	if c.GetHeader("HX-Request") == "true" {
		c.Header("HX-Redirect", target)
		c.Status(http.StatusOK)
		return
	}
	c.Redirect(http.StatusSeeOther, target+"?"+url.Values{"signed_out": {"1"}}.Encode())
}

func (h *SessionHandler) authenticate(c *gin.Context) (*domain.Session, error) {
	token := TokenFromRequest(c.Request, h.cfg.CookieName)
	if token == "" {
		return nil, domain.ErrUnauthenticated
	}
	return h.svc.Authenticate(c.Request.Context(), token)
}

// signOut revokes the request's token and clears the cookie, even when the
// token turns out to be invalid.
func (h *SessionHandler) signOut(c *gin.Context) error {
	token := TokenFromRequest(c.Request, h.cfg.CookieName)
	h.clearCookie(c)
	if token == "" {
		return domain.ErrUnauthenticated
	}
	return h.svc.SignOut(c.Request.Context(), token)
}

func (h *SessionHandler) clearCookie(c *gin.Context) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     h.cfg.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}
