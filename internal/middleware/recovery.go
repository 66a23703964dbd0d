package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/glutton4gainz/edge/internal/domain"
	"github.com/glutton4gainz/edge/internal/pkg"
)

const errorPage500 = "errors/500.html"

// Recovery returns a gin middleware that turns a handler panic into a 500.
// The panic value and stack are logged. Browsers asking for HTML get the
// errors/500.html page; API paths and everything else get the JSON
// envelope produced by pkg.Error.
//
// http.ErrAbortHandler is re-raised so net/http can drop the connection.
func Recovery(logger *slog.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}

	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if err, ok := rec.(error); ok && errors.Is(err, http.ErrAbortHandler) {
				panic(rec)
			}

			logger.ErrorContext(c.Request.Context(), "panic recovered",
				slog.Any("panic", rec),
				slog.String("method", c.Request.Method),
				slog.String("path", c.Request.URL.Path),
				slog.String("stack", string(debug.Stack())),
			)

			c.Abort()
			if c.Writer.Written() {
				return
			}
			if wantsHTML(c) {
				renderErrorPage(c)
				return
			}
			pkg.Error(c, domain.ErrInternal)
		}()
		c.Next()
	}
}

// renderErrorPage renders the 500 page, falling back to plain text when no
// HTML renderer is configured.
func renderErrorPage(c *gin.Context) {
	defer func() {
		if recover() != nil {
			c.Data(http.StatusInternalServerError, "text/plain; charset=utf-8", []byte("500 Internal Server Error"))
		}
	}()
	c.HTML(http.StatusInternalServerError, errorPage500, gin.H{"Title": "Server error", "Status": http.StatusInternalServerError, "Path": c.Request.URL.Path})
}

func wantsHTML(c *gin.Context) bool {
	if strings.HasPrefix(c.Request.URL.Path, "/api/") {
		return false
	}
	return strings.Contains(strings.ToLower(c.GetHeader("Accept")), "text/html")
}
