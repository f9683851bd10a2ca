package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/identity"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/marketplace/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormEmailVerificationTokenRepository implements EmailVerificationTokenRepository using GORM
type GormEmailVerificationTokenRepository struct {
	db *gorm.DB
}

// NewGormEmailVerificationTokenRepository creates a new GormEmailVerificationTokenRepository
func NewGormEmailVerificationTokenRepository(db *gorm.DB) *GormEmailVerificationTokenRepository {
	return &GormEmailVerificationTokenRepository{db: db}
}

func (r *GormEmailVerificationTokenRepository) Create(ctx context.Context, token *identity.EmailVerificationToken) error {
	return r.db.WithContext(ctx).Create(models.EmailVerificationTokenModelFromDomain(token)).Error
}

func (r *GormEmailVerificationTokenRepository) FindByToken(ctx context.Context, token string) (*identity.EmailVerificationToken, error) {
	var model models.EmailVerificationTokenModel
	if err := r.db.WithContext(ctx).Where("token = ?", token).First(&model).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return model.ToDomain(), nil
}

func (r *GormEmailVerificationTokenRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.EmailVerificationTokenModel{}, "id = ?", id).Error
}

// DeleteByUser removes every outstanding token for the user
func (r *GormEmailVerificationTokenRepository) DeleteByUser(ctx context.Context, userID uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.EmailVerificationTokenModel{}, "user_id = ?", userID).Error
}

// DeleteExpired removes tokens that expired at or before cutoff
func (r *GormEmailVerificationTokenRepository) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Delete(&models.EmailVerificationTokenModel{}, "expires_at <= ?", cutoff.UTC())
	return result.RowsAffected, result.Error
}

var _ identity.EmailVerificationTokenRepository = (*GormEmailVerificationTokenRepository)(nil)

// GormInvitationTokenRepository implements InvitationTokenRepository using GORM
type GormInvitationTokenRepository struct {
	db *gorm.DB
}

// NewGormInvitationTokenRepository creates a new GormInvitationTokenRepository
func NewGormInvitationTokenRepository(db *gorm.DB) *GormInvitationTokenRepository {
	return &GormInvitationTokenRepository{db: db}
}

func (r *GormInvitationTokenRepository) Create(ctx context.Context, invitation *identity.InvitationToken) error {
	return r.db.WithContext(ctx).Create(models.InvitationTokenModelFromDomain(invitation)).Error
}

func (r *GormInvitationTokenRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.InvitationToken, error) {
	var model models.InvitationTokenModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return model.ToDomain(), nil
}

func (r *GormInvitationTokenRepository) FindByToken(ctx context.Context, token string) (*identity.InvitationToken, error) {
	var model models.InvitationTokenModel
	if err := r.db.WithContext(ctx).Where("token = ?", token).First(&model).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return model.ToDomain(), nil
}

// FindPendingByEmail returns the newest unused, unexpired invitation for email
func (r *GormInvitationTokenRepository) FindPendingByEmail(ctx context.Context, email string) (*identity.InvitationToken, error) {
	var model models.InvitationTokenModel
	if err := r.db.WithContext(ctx).
		Where("email = ? AND used_at IS NULL AND expires_at > ?", identity.NormalizeEmail(email), time.Now().UTC()).
		Order("created_at DESC").
		First(&model).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return model.ToDomain(), nil
}

// FindAll lists invitations; Filters["state"] is one of pending, used, expired
func (r *GormInvitationTokenRepository) FindAll(ctx context.Context, filter shared.Filter) ([]identity.InvitationToken, error) {
	var invitationModels []models.InvitationTokenModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.InvitationTokenModel{}), filter)
	if err := applySortAndPage(query, filter, InvitationSortFields, "created_at").Find(&invitationModels).Error; err != nil {
		return nil, err
	}

	invitations := make([]identity.InvitationToken, len(invitationModels))
	for i := range invitationModels {
		invitations[i] = *invitationModels[i].ToDomain()
	}
	return invitations, nil
}

func (r *GormInvitationTokenRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	err := r.applyFilter(r.db.WithContext(ctx).Model(&models.InvitationTokenModel{}), filter).Count(&count).Error
	return count, err
}

func (r *GormInvitationTokenRepository) Update(ctx context.Context, invitation *identity.InvitationToken) error {
	result := r.db.WithContext(ctx).Model(&models.InvitationTokenModel{}).
		Where("id = ?", invitation.ID).
		Updates(map[string]any{"used_at": invitation.UsedAt, "expires_at": invitation.ExpiresAt})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *GormInvitationTokenRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.InvitationTokenModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// DeleteExpired removes unused invitations that expired at or before cutoff.
// Accepted invitations are kept as the record of who onboarded a brand.
func (r *GormInvitationTokenRepository) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Delete(&models.InvitationTokenModel{}, "used_at IS NULL AND expires_at <= ?", cutoff.UTC())
	return result.RowsAffected, result.Error
}

func (r *GormInvitationTokenRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		pattern := likePattern(filter.Search)
		query = query.Where("LOWER(email) LIKE ? ESCAPE '\\' OR LOWER(brand_name) LIKE ? ESCAPE '\\'", pattern, pattern)
	}
	if state, ok := filter.Filters["state"]; ok {
		now := time.Now().UTC()
		switch state {
		case "pending":
			query = query.Where("used_at IS NULL AND expires_at > ?", now)
		case "used":
			query = query.Where("used_at IS NOT NULL")
		case "expired":
			query = query.Where("used_at IS NULL AND expires_at <= ?", now)
		}
	}
	return query
}

var _ identity.InvitationTokenRepository = (*GormInvitationTokenRepository)(nil)
