package session

import (
	"context"
	"time"

	"github.com/simp-lee/pagination"

	"github.com/glutton4gainz/edge/internal/domain"
)

// sessionService implements domain.SessionService.
type sessionService struct {
	verifier *Verifier
	repo     domain.RevocationRepository
	now      func() time.Time
}

// NewSessionService creates a SessionService that verifies tokens with v
// and keeps revocations in repo.
func NewSessionService(v *Verifier, repo domain.RevocationRepository) domain.SessionService {
	return &sessionService{verifier: v, repo: repo, now: time.Now}
}

func (s *sessionService) Authenticate(ctx context.Context, token string) (*domain.Session, error) {
	sess, err := s.verifier.Verify(token)
	if err != nil {
		return nil, err
	}
	if sess.TokenID == "" {
		return sess, nil
	}
	revoked, err := s.repo.IsRevoked(ctx, sess.TokenID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, domain.NewAppError(domain.CodeUnauthenticated, "session has been revoked", nil)
	}
	return sess, nil
}

// SignOut revokes token. A token that is already expired or revoked needs
// no record and succeeds. A token without a jti or session_id cannot be
// revoked and is rejected as invalid input.
func (s *sessionService) SignOut(ctx context.Context, token string) error {
	sess, err := s.verifier.Verify(token)
	switch {
	case domain.IsSessionExpired(err):
		return nil
	case err != nil:
		return err
	}
	if sess.TokenID == "" {
		return domain.NewAppError(domain.CodeValidation, "session token has no id and cannot be revoked", nil)
	}
	return s.repo.Revoke(ctx, &domain.RevokedSession{
		TokenID:   sess.TokenID,
		UserID:    sess.UserID,
		ExpiresAt: sess.ExpiresAt,
	})
}

func (s *sessionService) ListRevocations(ctx context.Context, req domain.PageRequest) (*pagination.Pagination[domain.RevokedSession], error) {
	return s.repo.List(ctx, req)
}

func (s *sessionService) PurgeExpired(ctx context.Context) (int64, error) {
	return s.repo.PurgeExpired(ctx, s.now())
}
