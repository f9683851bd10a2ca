package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/order"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/marketplace/backend/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormOrderRepository implements OrderRepository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// FindByID finds an order by its ID
func (r *GormOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	var model models.OrderModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return model.ToDomain(), nil
}

// FindByOrderNumber finds an order by its human-readable number
func (r *GormOrderRepository) FindByOrderNumber(ctx context.Context, number string) (*order.Order, error) {
	var model models.OrderModel
	if err := r.db.WithContext(ctx).Where("order_number = ?", number).First(&model).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return model.ToDomain(), nil
}

// FindByCustomer lists a customer's orders, newest first by default
func (r *GormOrderRepository) FindByCustomer(ctx context.Context, customerID uuid.UUID, filter shared.Filter) ([]order.Order, error) {
	return r.find(ctx, r.db.WithContext(ctx).Where("customer_id = ?", customerID), filter)
}

// CountByCustomer counts a customer's orders
func (r *GormOrderRepository) CountByCustomer(ctx context.Context, customerID uuid.UUID, filter shared.Filter) (int64, error) {
	return r.count(r.db.WithContext(ctx).Where("customer_id = ?", customerID), filter)
}

// FindByBrand lists a brand's orders, newest first by default
func (r *GormOrderRepository) FindByBrand(ctx context.Context, brandID uuid.UUID, filter shared.Filter) ([]order.Order, error) {
	return r.find(ctx, r.db.WithContext(ctx).Where("brand_id = ?", brandID), filter)
}

// CountByBrand counts a brand's orders
func (r *GormOrderRepository) CountByBrand(ctx context.Context, brandID uuid.UUID, filter shared.Filter) (int64, error) {
	return r.count(r.db.WithContext(ctx).Where("brand_id = ?", brandID), filter)
}

type statusSummaryRow struct {
	Status  string
	Count   int64
	Revenue decimal.Decimal
}

// SummarizeByBrand aggregates order count and revenue per status in one query
func (r *GormOrderRepository) SummarizeByBrand(ctx context.Context, brandID uuid.UUID) ([]order.StatusSummary, error) {
	var rows []statusSummaryRow
	if err := r.db.WithContext(ctx).Model(&models.OrderModel{}).
		Select("status, COUNT(*) AS count, COALESCE(SUM(total), 0) AS revenue").
		Where("brand_id = ?", brandID).
		Group("status").
		Order("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	summaries := make([]order.StatusSummary, len(rows))
	for i, row := range rows {
		summaries[i] = order.StatusSummary{
			Status:  order.OrderStatus(row.Status),
			Count:   row.Count,
			Revenue: row.Revenue.Round(2),
		}
	}
	return summaries, nil
}

// Create inserts a new order
func (r *GormOrderRepository) Create(ctx context.Context, o *order.Order) error {
	if err := r.db.WithContext(ctx).Create(models.OrderModelFromDomain(o)).Error; err != nil {
		return translateCreate(err, shared.ErrAlreadyExists)
	}
	o.MarkPersisted()
	return nil
}

// Update writes the mutable status fields guarded by the persisted version
func (r *GormOrderRepository) Update(ctx context.Context, o *order.Order) error {
	expected := o.PersistedVersion()
	o.NextVersion()
	o.UpdatedAt = time.Now().UTC()

	model := models.OrderModelFromDomain(o)
	result := r.db.WithContext(ctx).Model(&models.OrderModel{}).
		Where("id = ? AND version = ?", o.ID, expected).
		Select("status", "status_history", "cancel_reason",
			"confirmed_at", "shipped_at", "delivered_at", "cancelled_at", "returned_at", "refunded_at",
			"version", "updated_at").
		Updates(model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		o.Version = expected
		return shared.ErrConcurrencyConflict
	}
	o.MarkPersisted()
	return nil
}

func (r *GormOrderRepository) find(ctx context.Context, query *gorm.DB, filter shared.Filter) ([]order.Order, error) {
	var orderModels []models.OrderModel
	query = applyOrderFilter(query.Model(&models.OrderModel{}), filter)
	if err := applySortAndPage(query, filter, OrderSortFields, "created_at").Find(&orderModels).Error; err != nil {
		return nil, err
	}

	orders := make([]order.Order, len(orderModels))
	for i := range orderModels {
		orders[i] = *orderModels[i].ToDomain()
	}
	return orders, nil
}

func (r *GormOrderRepository) count(query *gorm.DB, filter shared.Filter) (int64, error) {
	var count int64
	err := applyOrderFilter(query.Model(&models.OrderModel{}), filter).Count(&count).Error
	return count, err
}

func applyOrderFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		query = query.Where("LOWER(order_number) LIKE ? ESCAPE '\\'", likePattern(filter.Search))
	}
	if status, ok := filter.Filters[order.FilterStatus]; ok {
		query = query.Where("status = ?", status)
	}
	return query
}

// Ensure GormOrderRepository implements OrderRepository
var _ order.OrderRepository = (*GormOrderRepository)(nil)
