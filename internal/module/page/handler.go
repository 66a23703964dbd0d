package page

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/glutton4gainz/edge/internal/middleware"
)

// Template names rendered by PageHandler.
const (
	homeTemplate    = "home.html"
	pricingTemplate = "pages/pricing.html"
	aboutTemplate   = "pages/about.html"
	sectionTemplate = "pages/section.html"
	authTemplate    = "pages/auth.html"
)

// PageHandler renders the placeholder pages of the web front.
type PageHandler struct {
	dashboardPath string
}

// NewPageHandler creates a PageHandler. Every page links to dashboardPath.
func NewPageHandler(dashboardPath string) *PageHandler {
	if dashboardPath == "" {
		dashboardPath = "/app"
	}
	return &PageHandler{dashboardPath: dashboardPath}
}

// Home handles GET /.
func (h *PageHandler) Home(c *gin.Context) {
	c.HTML(http.StatusOK, homeTemplate, h.data(c, "Glutton4Gainz"))
}

// Pricing handles GET /pricing.
func (h *PageHandler) Pricing(c *gin.Context) {
	c.HTML(http.StatusOK, pricingTemplate, h.data(c, "Pricing"))
}

// About handles GET /about.
func (h *PageHandler) About(c *gin.Context) {
	c.HTML(http.StatusOK, aboutTemplate, h.data(c, "About"))
}

// Section renders the placeholder for a protected area such as /coach or
// /stats/weekly, and for /dashboard.
func (h *PageHandler) Section(c *gin.Context) {
	d := h.data(c, sectionTitle(c.Request.URL.Path))
	d["Section"] = sectionName(c.Request.URL.Path)
	c.HTML(http.StatusOK, sectionTemplate, d)
}

// AuthFlow renders the placeholder for a sign-in, sign-up or onboarding step.
func (h *PageHandler) AuthFlow(c *gin.Context) {
	d := h.data(c, sectionTitle(c.Request.URL.Path))
	d["Section"] = sectionName(c.Request.URL.Path)
	d["Next"] = c.Query("next")
	d["SignedOut"] = c.Query("signed_out") == "1"
	c.HTML(http.StatusOK, authTemplate, d)
}

// data collects the fields every page template uses.
func (h *PageHandler) data(c *gin.Context, title string) gin.H {
	d := gin.H{
		"Title":     title,
		"Path":      c.Request.URL.Path,
		"CSRFToken": middleware.GetCSRFToken(c),
		"Dashboard": h.dashboardPath,
	}
	if class, ok := middleware.GetClassification(c); ok {
		d["Classification"] = class.String()
	}
	if sess, ok := middleware.GetSession(c); ok {
		d["Session"] = sess
	}
	return d
}

// sectionName returns the first path segment, "coach" for /coach/123.
func sectionName(path string) string {
	first, _, _ := strings.Cut(strings.TrimPrefix(path, "/"), "/")
	return first
}

func sectionTitle(path string) string {
	name := sectionName(path)
	if name == "" {
		return "Glutton4Gainz"
	}
	return strings.ToUpper(name[:1]) + name[1:]
}

// sectionRoutes returns the prefixes to mount, in order and without
// duplicates. A prefix nested under any prefix in all is dropped since that
// prefix's catch-all already serves it, and so is any prefix in taken.
func sectionRoutes(prefixes, all []string, taken map[string]bool) []string {
	out := make([]string, 0, len(prefixes))
	for _, p := range prefixes {
		p = strings.TrimSuffix(p, "/")
		if p == "" || taken[p] {
			continue
		}
		nested := false
		for _, q := range all {
			q = strings.TrimSuffix(q, "/")
			if q != "" && q != p && strings.HasPrefix(p, q+"/") {
				nested = true
				break
			}
		}
		if nested {
			continue
		}
		taken[p] = true
		out = append(out, p)
	}
	return out
}
