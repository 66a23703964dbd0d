package app

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/glutton4gainz/edge/internal/pkg"
)

// errorPages maps a status to its page under templates/errors/. Statuses
// not listed use the 500 page.
var errorPages = map[int]string{
	http.StatusBadRequest:          "errors/400.html",
	http.StatusForbidden:           "errors/403.html",
	http.StatusNotFound:            "errors/404.html",
	http.StatusInternalServerError: "errors/500.html",
}

// renderError answers with an error page for browsers and the JSON
// envelope for API paths and JSON clients.
func renderError(c *gin.Context, status int, message string) {
	if !wantsHTML(c) {
		c.JSON(status, pkg.Response{Code: status, Message: message})
		return
	}

	defer func() {
		if recover() != nil {
			c.Data(status, "text/plain; charset=utf-8",
				[]byte(fmt.Sprintf("%d %s", status, http.StatusText(status))))
		}
	}()
	page, ok := errorPages[status]
	if !ok {
		page = errorPages[http.StatusInternalServerError]
	}
	c.HTML(status, page, gin.H{
		"Title":   http.StatusText(status),
		"Status":  status,
		"Message": message,
		"Path":    c.Request.URL.Path,
	})
}

// wantsHTML reports whether the client should get an HTML page. API paths
// never do. Otherwise text/html, */* and a missing Accept header count,
// unless the client asks for JSON without mentioning HTML.
func wantsHTML(c *gin.Context) bool {
	if strings.HasPrefix(c.Request.URL.Path, "/api/") || c.Request.URL.Path == "/api" {
		return false
	}
	accept := strings.ToLower(c.GetHeader("Accept"))
	switch {
	case strings.Contains(accept, "text/html"):
		return true
	case strings.Contains(accept, "application/json"):
		return false
	default:
		return strings.Contains(accept, "*/*") || strings.TrimSpace(accept) == ""
	}
}
