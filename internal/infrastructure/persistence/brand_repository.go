package persistence

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/partner"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/marketplace/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormBrandRepository implements BrandRepository using GORM
type GormBrandRepository struct {
	db *gorm.DB
}

// NewGormBrandRepository creates a new GormBrandRepository
func NewGormBrandRepository(db *gorm.DB) *GormBrandRepository {
	return &GormBrandRepository{db: db}
}

// FindByID finds a brand by its ID
func (r *GormBrandRepository) FindByID(ctx context.Context, id uuid.UUID) (*partner.Brand, error) {
	var model models.BrandModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return model.ToDomain(), nil
}

// FindByOwnerID finds the brand owned by a user account
func (r *GormBrandRepository) FindByOwnerID(ctx context.Context, ownerID uuid.UUID) (*partner.Brand, error) {
	var model models.BrandModel
	if err := r.db.WithContext(ctx).Where("owner_id = ?", ownerID).First(&model).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return model.ToDomain(), nil
}

// FindBySlug finds a brand by its URL slug
func (r *GormBrandRepository) FindBySlug(ctx context.Context, slug string) (*partner.Brand, error) {
	var model models.BrandModel
	if err := r.db.WithContext(ctx).Where("slug = ?", strings.ToLower(slug)).First(&model).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return model.ToDomain(), nil
}

// FindAll lists brands matching the filter
func (r *GormBrandRepository) FindAll(ctx context.Context, filter shared.Filter) ([]partner.Brand, error) {
	var brandModels []models.BrandModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.BrandModel{}), filter)
	if err := applySortAndPage(query, filter, BrandSortFields, "name").Find(&brandModels).Error; err != nil {
		return nil, err
	}

	brands := make([]partner.Brand, len(brandModels))
	for i := range brandModels {
		brands[i] = *brandModels[i].ToDomain()
	}
	return brands, nil
}

// Count counts brands matching the filter
func (r *GormBrandRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	err := r.applyFilter(r.db.WithContext(ctx).Model(&models.BrandModel{}), filter).Count(&count).Error
	return count, err
}

// ExistsByName checks brand names case-insensitively
func (r *GormBrandRepository) ExistsByName(ctx context.Context, name string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.BrandModel{}).
		Where("LOWER(name) = ?", strings.ToLower(strings.TrimSpace(name))).
		Count(&count).Error
	return count > 0, err
}

// Create inserts a new brand
func (r *GormBrandRepository) Create(ctx context.Context, brand *partner.Brand) error {
	if err := r.db.WithContext(ctx).Create(models.BrandModelFromDomain(brand)).Error; err != nil {
		return translateCreate(err, shared.NewDomainError("ALREADY_EXISTS", "A brand with this name already exists"))
	}
	brand.MarkPersisted()
	return nil
}

// Update saves a brand guarded by its persisted version
func (r *GormBrandRepository) Update(ctx context.Context, brand *partner.Brand) error {
	expected := brand.PersistedVersion()
	brand.NextVersion()
	brand.UpdatedAt = time.Now().UTC()

	result := r.db.WithContext(ctx).Model(&models.BrandModel{}).
		Where("id = ? AND version = ?", brand.ID, expected).
		Select("*").Omit("id", "created_at", "owner_id").
		Updates(models.BrandModelFromDomain(brand))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		brand.Version = expected
		return shared.ErrConcurrencyConflict
	}
	brand.MarkPersisted()
	return nil
}

// Delete deletes a brand
func (r *GormBrandRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.BrandModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *GormBrandRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		query = query.Where("LOWER(name) LIKE ? ESCAPE '\\'", likePattern(filter.Search))
	}
	if status, ok := filter.Filters["status"]; ok {
		query = query.Where("status = ?", status)
	}
	return query
}

// Ensure GormBrandRepository implements BrandRepository
var _ partner.BrandRepository = (*GormBrandRepository)(nil)
