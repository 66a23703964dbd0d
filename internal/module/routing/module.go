package routing

import "github.com/gin-gonic/gin"

// RoutingModule implements the app.Module interface for route inspection.
type RoutingModule struct {
	handler *RouteHandler
}

// NewModule creates a RoutingModule. Panics if h is nil.
func NewModule(h *RouteHandler) *RoutingModule {
	if h == nil {
		panic("routing.NewModule: handler must not be nil")
	}
	return &RoutingModule{handler: h}
}

// RegisterRoutes registers the route API. It has no pages.
func (m *RoutingModule) RegisterRoutes(api *gin.RouterGroup, _ *gin.RouterGroup) {
	api.GET("/routes", m.handler.Prefixes)
	api.GET("/routes/classify", m.handler.Classify)
}
