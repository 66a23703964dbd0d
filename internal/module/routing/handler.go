package routing

import (
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/glutton4gainz/edge/internal/pkg"
	"github.com/glutton4gainz/edge/internal/route"
)

// RouteHandler exposes the route classifier for inspection.
type RouteHandler struct {
	classifier *route.Classifier
	mode       string
}

// NewRouteHandler creates a RouteHandler. mode is reported as-is by Prefixes.
func NewRouteHandler(classifier *route.Classifier, mode string) *RouteHandler {
	if classifier == nil {
		classifier = route.DefaultClassifier()
	}
	return &RouteHandler{classifier: classifier, mode: mode}
}

// Classify handles GET /api/v1/routes/classify?path=.
//
// Any query string or fragment in path is dropped first, since the guard
// only ever sees the request path. Excluded paths carry no classification.
func (h *RouteHandler) Classify(c *gin.Context) {
	var q ClassifyQuery
	if !pkg.BindQuery(c, &q) {
		return
	}

	path := q.Path
	if u, err := url.Parse(path); err == nil {
		path = u.Path
	}

	res := ClassifyResult{Path: path, Excluded: route.Excluded(path)}
	if !res.Excluded {
		res.Classification = h.classifier.Classify(path).String()
	}
	pkg.Success(c, res)
}

// Prefixes handles GET /api/v1/routes.
func (h *RouteHandler) Prefixes(c *gin.Context) {
	pkg.Success(c, PrefixesView{
		Protected: h.classifier.ProtectedPrefixes(),
		Auth:      h.classifier.AuthPrefixes(),
		Mode:      h.mode,
	})
}
