package domain

import (
	"context"
	"time"

	"github.com/simp-lee/pagination"
)

// Session is the verified identity carried by a request.
type Session struct {
	TokenID   string    `json:"-"`
	UserID    string    `json:"user_id"`
	Email     string    `json:"email,omitempty"`
	Role      string    `json:"role,omitempty"`
	ExpiresAt time.Time `json:"expires_at"`
}

// RevokedSession records a signed-out token so it is no longer accepted
// before it expires.
type RevokedSession struct {
	BaseModel
	TokenID   string    `gorm:"size:128;uniqueIndex;not null" json:"token_id"`
	UserID    string    `gorm:"size:128;index;not null" json:"user_id"`
	ExpiresAt time.Time `gorm:"index;not null" json:"expires_at"`
}

// RevocationRepository defines data access for revoked sessions.
type RevocationRepository interface {
	Revoke(ctx context.Context, rec *RevokedSession) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
	List(ctx context.Context, req PageRequest) (*pagination.Pagination[RevokedSession], error)
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}

// SessionService verifies session tokens and manages revocations.
type SessionService interface {
	// Authenticate verifies a raw token and rejects revoked ones.
	Authenticate(ctx context.Context, token string) (*Session, error)
	// SignOut revokes the token until it expires. Expired tokens are a no-op.
	SignOut(ctx context.Context, token string) error
	ListRevocations(ctx context.Context, req PageRequest) (*pagination.Pagination[RevokedSession], error)
	// PurgeExpired drops revocations whose token has expired anyway.
	PurgeExpired(ctx context.Context) (int64, error)
}
