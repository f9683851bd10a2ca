package cart

import (
	"context"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/cart"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/marketplace/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// CouponService lets admins manage discount codes
type CouponService struct {
	coupons cart.CouponRepository
	logger  *zap.Logger
}

// NewCouponService creates a new CouponService
func NewCouponService(coupons cart.CouponRepository, logger *zap.Logger) *CouponService {
	return &CouponService{coupons: coupons, logger: logger}
}

// Create adds a coupon; codes are unique case-insensitively
func (s *CouponService) Create(ctx context.Context, req CreateCouponRequest) (*CouponResponse, error) {
	coupon, err := cart.NewCoupon(req.Code, req.PercentOff, req.MinSubtotal, req.ExpiresAt, req.MaxRedemptions)
	if err != nil {
		return nil, err
	}
	exists, err := s.coupons.ExistsByCode(ctx, coupon.Code)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "Coupon code already exists")
	}
	if err := s.coupons.Create(ctx, coupon); err != nil {
		return nil, err
	}
	logger.L(ctx).Info("Coupon created",
		zap.String("code", coupon.Code),
		zap.String("percent_off", coupon.PercentOff.String()))
	resp := ToCouponResponse(coupon)
	return &resp, nil
}

// List returns coupons, newest first
func (s *CouponService) List(ctx context.Context, filter CouponListFilter) (shared.Paginated[CouponResponse], error) {
	domainFilter := shared.DefaultFilter()
	if filter.Page > 0 {
		domainFilter.Page = filter.Page
	}
	if filter.PageSize > 0 {
		domainFilter.PageSize = filter.PageSize
	}
	domainFilter.Search = filter.Search
	if filter.Active != nil {
		domainFilter.Filters["active"] = *filter.Active
	}

	coupons, err := s.coupons.FindAll(ctx, domainFilter)
	if err != nil {
		return shared.Paginated[CouponResponse]{}, err
	}
	total, err := s.coupons.Count(ctx, domainFilter)
	if err != nil {
		return shared.Paginated[CouponResponse]{}, err
	}
	items := make([]CouponResponse, len(coupons))
	for i := range coupons {
		items[i] = ToCouponResponse(&coupons[i])
	}
	return shared.NewPaginated(items, total, domainFilter.Page, domainFilter.PageSize), nil
}

// Delete removes an unused coupon. A coupon that was already redeemed is
// deactivated instead so orders keep a valid reference.
func (s *CouponService) Delete(ctx context.Context, id uuid.UUID) error {
	coupon, err := s.coupons.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if coupon.Redemptions == 0 {
		return s.coupons.Delete(ctx, id)
	}
	if !coupon.Active {
		return nil
	}
	coupon.Deactivate()
	if err := s.coupons.Update(ctx, coupon); err != nil {
		return err
	}
	logger.L(ctx).Info("Redeemed coupon deactivated", zap.String("code", coupon.Code))
	return nil
}
