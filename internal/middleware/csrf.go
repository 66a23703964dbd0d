package middleware

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/glutton4gainz/edge/internal/pkg"
)

const (
	csrfCookieName = "_csrf_token"
	csrfFormField  = "_csrf_token"
	csrfHeaderName = "X-CSRF-Token"
	csrfContextKey = "CSRFToken"
	csrfNonceBytes = 32
)

var (
	errCSRFMissing = errors.New("csrf token missing")
	errCSRFInvalid = errors.New("csrf token invalid")
)

// csrfSigner issues and checks double-submit tokens of the form
// hex(nonce) + "." + base64url(HMAC-SHA256(secret, hex(nonce))).
type csrfSigner struct {
	secret []byte
}

func (s csrfSigner) sign(nonce string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(nonce))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

func (s csrfSigner) issue() (string, error) {
	nonce := make([]byte, csrfNonceBytes)
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}
	n := hex.EncodeToString(nonce)
	return n + "." + s.sign(n), nil
}

func (s csrfSigner) valid(token string) bool {
	nonce, sig, ok := strings.Cut(token, ".")
	if !ok || nonce == "" || sig == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(sig), []byte(s.sign(nonce))) == 1
}

// CSRF returns a gin middleware protecting HTML form posts with a signed
// double-submit cookie.
//
// Safe methods get a token: the existing cookie when its signature checks
// out, otherwise a new one set as a SameSite=Strict cookie readable by
// scripts. The token is stored in the gin context for templates (see
// GetCSRFToken). Unsafe methods must echo the cookie value in the
// _csrf_token form field or the X-CSRF-Token header, or they are rejected
// with 403.
//
// Mount it on page groups only; JSON APIs under /api are not covered.
func CSRF(secret string) gin.HandlerFunc {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return func(c *gin.Context) {
			c.AbortWithStatusJSON(http.StatusInternalServerError, pkg.Response{
				Code:    http.StatusInternalServerError,
				Message: "csrf secret is not configured",
			})
		}
	}

	signer := csrfSigner{secret: []byte(secret)}
	secure := gin.Mode() == gin.ReleaseMode

	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
			token, err := c.Cookie(csrfCookieName)
			if err != nil || !signer.valid(token) {
				if token, err = signer.issue(); err != nil {
					c.AbortWithStatusJSON(http.StatusInternalServerError, pkg.Response{
						Code:    http.StatusInternalServerError,
						Message: "failed to generate csrf token",
					})
					return
				}
				http.SetCookie(c.Writer, &http.Cookie{
					Name:     csrfCookieName,
					Value:    token,
					Path:     "/",
					HttpOnly: false,
					Secure:   secure,
					SameSite: http.SameSiteStrictMode,
				})
			}
			c.Set(csrfContextKey, token)
			c.Next()

		default:
			token, err := checkCSRF(c, signer)
			if err != nil {
				c.AbortWithStatusJSON(http.StatusForbidden, pkg.Response{
					Code:    http.StatusForbidden,
					Message: err.Error(),
				})
				return
			}
			c.Set(csrfContextKey, token)
			c.Next()
		}
	}
}

// checkCSRF returns the cookie token when the submitted token matches it
// and both carry a valid signature.
func checkCSRF(c *gin.Context, signer csrfSigner) (string, error) {
	cookie, err := c.Cookie(csrfCookieName)
	if err != nil || cookie == "" {
		return "", errCSRFMissing
	}
	submitted := c.PostForm(csrfFormField)
	if submitted == "" {
		submitted = c.GetHeader(csrfHeaderName)
	}
	if submitted == "" {
		return "", errCSRFMissing
	}
	if !signer.valid(cookie) || !signer.valid(submitted) {
		return "", errCSRFInvalid
	}
	if subtle.ConstantTimeCompare([]byte(cookie), []byte(submitted)) != 1 {
		return "", errCSRFInvalid
	}
	return cookie, nil
}

// GetCSRFToken returns the token CSRF stored for this request, or "".
func GetCSRFToken(c *gin.Context) string {
	return c.GetString(csrfContextKey)
}
