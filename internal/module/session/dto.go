package session

import (
	"time"

	"github.com/glutton4gainz/edge/internal/domain"
)

// SessionView is the body of GET /api/v1/session.
type SessionView struct {
	Authenticated bool      `json:"authenticated"`
	UserID        string    `json:"user_id"`
	Email         string    `json:"email,omitempty"`
	Role          string    `json:"role,omitempty"`
	ExpiresAt     time.Time `json:"expires_at"`
}

func newSessionView(s *domain.Session) SessionView {
	return SessionView{
		Authenticated: true,
		UserID:        s.UserID,
		Email:         s.Email,
		Role:          s.Role,
		ExpiresAt:     s.ExpiresAt,
	}
}
