package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/cart"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/marketplace/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormCouponRepository implements CouponRepository using GORM
type GormCouponRepository struct {
	db *gorm.DB
}

// NewGormCouponRepository creates a new GormCouponRepository
func NewGormCouponRepository(db *gorm.DB) *GormCouponRepository {
	return &GormCouponRepository{db: db}
}

func (r *GormCouponRepository) FindByID(ctx context.Context, id uuid.UUID) (*cart.Coupon, error) {
	var model models.CouponModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return model.ToDomain(), nil
}

func (r *GormCouponRepository) FindByCode(ctx context.Context, code string) (*cart.Coupon, error) {
	var model models.CouponModel
	if err := r.db.WithContext(ctx).Where("code = ?", cart.NormalizeCode(code)).First(&model).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return model.ToDomain(), nil
}

// FindAll lists coupons; Filters["active"] narrows by active flag
func (r *GormCouponRepository) FindAll(ctx context.Context, filter shared.Filter) ([]cart.Coupon, error) {
	var couponModels []models.CouponModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.CouponModel{}), filter)
	if err := applySortAndPage(query, filter, CouponSortFields, "created_at").Find(&couponModels).Error; err != nil {
		return nil, err
	}

	coupons := make([]cart.Coupon, len(couponModels))
	for i := range couponModels {
		coupons[i] = *couponModels[i].ToDomain()
	}
	return coupons, nil
}

func (r *GormCouponRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	err := r.applyFilter(r.db.WithContext(ctx).Model(&models.CouponModel{}), filter).Count(&count).Error
	return count, err
}

func (r *GormCouponRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.CouponModel{}).
		Where("code = ?", cart.NormalizeCode(code)).
		Count(&count).Error
	return count > 0, err
}

func (r *GormCouponRepository) Create(ctx context.Context, coupon *cart.Coupon) error {
	if err := r.db.WithContext(ctx).Create(models.CouponModelFromDomain(coupon)).Error; err != nil {
		return translateCreate(err, shared.NewDomainError("ALREADY_EXISTS", "A coupon with this code already exists"))
	}
	coupon.MarkPersisted()
	return nil
}

// Update saves a coupon guarded by its persisted version
func (r *GormCouponRepository) Update(ctx context.Context, coupon *cart.Coupon) error {
	expected := coupon.PersistedVersion()
	coupon.NextVersion()
	coupon.UpdatedAt = time.Now().UTC()

	result := r.db.WithContext(ctx).Model(&models.CouponModel{}).
		Where("id = ? AND version = ?", coupon.ID, expected).
		Select("*").Omit("id", "created_at", "code").
		Updates(models.CouponModelFromDomain(coupon))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		coupon.Version = expected
		return shared.ErrConcurrencyConflict
	}
	coupon.MarkPersisted()
	return nil
}

func (r *GormCouponRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.CouponModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// IncrementRedemptions counts one use only while redemptions remain
func (r *GormCouponRepository) IncrementRedemptions(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Model(&models.CouponModel{}).
		Where("id = ? AND active = ? AND (max_redemptions = 0 OR redemptions < max_redemptions)", id, true).
		Updates(map[string]any{
			"redemptions": gorm.Expr("redemptions + 1"),
			"version":     gorm.Expr("version + 1"),
			"updated_at":  time.Now().UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewDomainError(cart.CodeCouponExhausted, "Coupon has no redemptions left")
	}
	return nil
}

func (r *GormCouponRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		query = query.Where("LOWER(code) LIKE ? ESCAPE '\\'", likePattern(filter.Search))
	}
	if active, ok := filter.Filters["active"]; ok {
		query = query.Where("active = ?", active)
	}
	return query
}

var _ cart.CouponRepository = (*GormCouponRepository)(nil)
