package session

import (
	"context"
	"errors"
	"time"

	"github.com/simp-lee/pagination"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/glutton4gainz/edge/internal/domain"
	"github.com/glutton4gainz/edge/internal/pkg"
)

var (
	allowedSortFields   = []string{"id", "created_at", "expires_at"}
	allowedFilterFields = []string{"user_id"}
)

// revocationRepository implements domain.RevocationRepository using GORM.
type revocationRepository struct {
	db *gorm.DB
}

// NewRevocationRepository creates a RevocationRepository backed by db.
func NewRevocationRepository(db *gorm.DB) domain.RevocationRepository {
	return &revocationRepository{db: db}
}

// Revoke records rec. Revoking the same token twice keeps the first record.
func (r *revocationRepository) Revoke(ctx context.Context, rec *domain.RevokedSession) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "token_id"}},
			DoNothing: true,
		}).
		Create(rec).Error
	return mapError(err)
}

func (r *revocationRepository) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&domain.RevokedSession{}).
		Where("token_id = ?", tokenID).
		Count(&n).Error
	if err != nil {
		return false, mapError(err)
	}
	return n > 0, nil
}

// List returns a page of revocations, filtered by user_id when given.
func (r *revocationRepository) List(ctx context.Context, req domain.PageRequest) (*pagination.Pagination[domain.RevokedSession], error) {
	query := func() *gorm.DB {
		return r.db.WithContext(ctx).
			Model(&domain.RevokedSession{}).
			Scopes(pkg.Filter(req, allowedFilterFields))
	}

	var total int64
	if err := query().Count(&total).Error; err != nil {
		return nil, mapError(err)
	}

	var items []domain.RevokedSession
	if err := query().Scopes(
		pkg.Sort(req, allowedSortFields),
		pkg.Paginate(req),
	).Find(&items).Error; err != nil {
		return nil, mapError(err)
	}

	return pkg.PageOf(items, total, req), nil
}

// PurgeExpired deletes revocations of tokens that expired before now.
func (r *revocationRepository) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("expires_at < ?", now).
		Delete(&domain.RevokedSession{})
	if res.Error != nil {
		return 0, mapError(res.Error)
	}
	return res.RowsAffected, nil
}

// mapError converts GORM errors to domain errors.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ErrNotFound
	}
	return domain.NewAppError(domain.CodeInternal, "database error", err)
}
