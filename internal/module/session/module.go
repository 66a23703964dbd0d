package session

import "github.com/gin-gonic/gin"

// SessionModule implements the app.Module interface for sessions.
type SessionModule struct {
	handler *SessionHandler
}

// NewModule creates a SessionModule. Panics if h is nil.
func NewModule(h *SessionHandler) *SessionModule {
	if h == nil {
		panic("session.NewModule: handler must not be nil")
	}
	return &SessionModule{handler: h}
}

// RegisterRoutes registers the session API and the logout form.
func (m *SessionModule) RegisterRoutes(api *gin.RouterGroup, pages *gin.RouterGroup) {
	api.GET("/session", m.handler.Current)
	api.DELETE("/session", m.handler.SignOut)
	api.GET("/session/revocations", m.handler.ListRevocations)

	pages.POST("/logout", m.handler.LogoutPage)
}
