package session

import (
	"net/http"
	"strings"

	"github.com/glutton4gainz/edge/internal/domain"
)

// DefaultCookieName is the cookie the auth provider stores its access token in.
const DefaultCookieName = "sb-access-token"

// RequestChecker adapts a SessionService to middleware.SessionChecker.
type RequestChecker struct {
	svc        domain.SessionService
	cookieName string
}

// NewRequestChecker creates a RequestChecker reading tokens from cookieName
// or the Authorization header.
func NewRequestChecker(svc domain.SessionService, cookieName string) *RequestChecker {
	if cookieName == "" {
		cookieName = DefaultCookieName
	}
	return &RequestChecker{svc: svc, cookieName: cookieName}
}

// CheckSession authenticates the token carried by r.
func (rc *RequestChecker) CheckSession(r *http.Request) (*domain.Session, error) {
	token := TokenFromRequest(r, rc.cookieName)
	if token == "" {
		return nil, domain.ErrUnauthenticated
	}
	return rc.svc.Authenticate(r.Context(), token)
}

// TokenFromRequest returns the bearer token from the Authorization header,
// or else the value of the named cookie.
func TokenFromRequest(r *http.Request, cookieName string) string {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
	}
	if c, err := r.Cookie(cookieName); err == nil {
		return c.Value
	}
	return ""
}
