package page

import (
	"slices"

	"github.com/gin-gonic/gin"

	"github.com/glutton4gainz/edge/internal/route"
)

// PageModule implements the app.Module interface for the placeholder pages.
type PageModule struct {
	handler    *PageHandler
	classifier *route.Classifier
}

// NewModule creates a PageModule serving a page under every prefix of
// classifier. Panics if h is nil.
func NewModule(h *PageHandler, classifier *route.Classifier) *PageModule {
	if h == nil {
		panic("page.NewModule: handler must not be nil")
	}
	if classifier == nil {
		classifier = route.DefaultClassifier()
	}
	return &PageModule{handler: h, classifier: classifier}
}

// RegisterRoutes registers the public pages and one catch-all page per
// protected and auth prefix. It has no API routes.
func (m *PageModule) RegisterRoutes(_ *gin.RouterGroup, pages *gin.RouterGroup) {
	taken := map[string]bool{"/pricing": true, "/about": true, "/dashboard": true}

	pages.GET("/", m.handler.Home)
	pages.GET("/pricing", m.handler.Pricing)
	pages.GET("/about", m.handler.About)
	pages.GET("/dashboard", m.handler.Section)

	protected := m.classifier.ProtectedPrefixes()
	auth := m.classifier.AuthPrefixes()
	all := append(slices.Clone(protected), auth...)

	for _, p := range sectionRoutes(protected, all, taken) {
		pages.GET(p, m.handler.Section)
		pages.GET(p+"/*rest", m.handler.Section)
	}
	for _, p := range sectionRoutes(auth, all, taken) {
		pages.GET(p, m.handler.AuthFlow)
		pages.GET(p+"/*rest", m.handler.AuthFlow)
	}
}
