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

// GormCartRepository implements CartRepository using GORM
type GormCartRepository struct {
	db *gorm.DB
}

// NewGormCartRepository creates a new GormCartRepository
func NewGormCartRepository(db *gorm.DB) *GormCartRepository {
	return &GormCartRepository{db: db}
}

// FindByCustomerID loads the customer's cart
func (r *GormCartRepository) FindByCustomerID(ctx context.Context, customerID uuid.UUID) (*cart.Cart, error) {
	var model models.CartModel
	if err := r.db.WithContext(ctx).Where("customer_id = ?", customerID).First(&model).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return model.ToDomain(), nil
}

// Save inserts a cart that was never stored, otherwise updates it guarded by version
func (r *GormCartRepository) Save(ctx context.Context, c *cart.Cart) error {
	if c.PersistedVersion() == 0 {
		if err := r.db.WithContext(ctx).Create(models.CartModelFromDomain(c)).Error; err != nil {
			if isDuplicateKey(err) {
				return shared.ErrConcurrencyConflict
			}
			return err
		}
		c.MarkPersisted()
		return nil
	}

	expected := c.PersistedVersion()
	c.NextVersion()
	c.UpdatedAt = time.Now().UTC()
	result := r.db.WithContext(ctx).Model(&models.CartModel{}).
		Where("id = ? AND version = ?", c.ID, expected).
		Select("*").Omit("id", "created_at", "customer_id").
		Updates(models.CartModelFromDomain(c))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		c.Version = expected
		return shared.ErrConcurrencyConflict
	}
	c.MarkPersisted()
	return nil
}

// Delete removes a cart
func (r *GormCartRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.CartModel{}, "id = ?", id).Error
}

// Ensure GormCartRepository implements CartRepository
var _ cart.CartRepository = (*GormCartRepository)(nil)
