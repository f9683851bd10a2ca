package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/cart"
	"github.com/marketplace/backend/internal/domain/identity"
	"github.com/marketplace/backend/internal/domain/order"
	"github.com/marketplace/backend/internal/domain/partner"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/marketplace/backend/internal/domain/shared/valueobject"
	"github.com/marketplace/backend/internal/infrastructure/logger"
	"github.com/marketplace/backend/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// OrderService handles checkout, status changes and order queries
type OrderService struct {
	orders    order.OrderRepository
	brands    partner.BrandRepository
	customers partner.CustomerRepository
	scope     TransactionScope
	publisher shared.EventPublisher
	logger    *zap.Logger
	now       func() time.Time
}

// NewOrderService creates a new OrderService
func NewOrderService(
	orders order.OrderRepository,
	brands partner.BrandRepository,
	customers partner.CustomerRepository,
	scope TransactionScope,
	publisher shared.EventPublisher,
	logger *zap.Logger,
) *OrderService {
	if publisher == nil {
		publisher = shared.NoopEventPublisher{}
	}
	return &OrderService{
		orders:    orders,
		brands:    brands,
		customers: customers,
		scope:     scope,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// Checkout turns the customer's cart into one pending order per brand.
// Stock, coupon redemption, order rows and the cleared cart commit together.
func (s *OrderService) Checkout(ctx context.Context, customerID uuid.UUID, req CheckoutRequest) (*CheckoutResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "order", "checkout",
		telemetry.SpanAttrCustomerID, customerID.String())
	defer span.End()

	shipping, err := s.shippingAddress(ctx, customerID, req)
	if err != nil {
		return nil, err
	}

	var placed []*order.Order
	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		c, err := repos.Carts().FindByCustomerID(ctx, customerID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return shared.NewDomainError("CART_EMPTY", "Cart is empty")
			}
			return err
		}
		if c.IsEmpty() {
			return shared.NewDomainError("CART_EMPTY", "Cart is empty")
		}

		groups := c.ItemsByBrand()
		lines := make(map[uuid.UUID][]order.OrderItem, len(groups))
		subtotals := make([]decimal.Decimal, 0, len(c.Items))
		for _, group := range groups {
			items, err := s.priceGroup(ctx, repos, group)
			if err != nil {
				return err
			}
			lines[group.BrandID] = items
			for _, item := range items {
				subtotals = append(subtotals, item.LineTotal)
			}
		}

		couponCode, percentOff := "", decimal.Zero
		if c.Coupon != nil {
			coupon, err := s.redeemCoupon(ctx, repos, c.Coupon.Code, valueobject.SumAmounts(subtotals...))
			if err != nil {
				return err
			}
			couponCode, percentOff = coupon.Code, coupon.PercentOff
		}

		orders := make([]*order.Order, 0, len(groups))
		for _, group := range groups {
			for _, item := range lines[group.BrandID] {
				if err := repos.Products().DecrementStock(ctx, item.ProductID, item.Quantity); err != nil {
					if errors.Is(err, shared.ErrInsufficientStock) {
						return shared.NewDomainError("INSUFFICIENT_STOCK",
							fmt.Sprintf("%s is no longer in stock in the requested quantity", item.Name))
					}
					return err
				}
			}
			o, err := order.NewOrder(customerID, group.BrandID, lines[group.BrandID], shipping, couponCode, percentOff)
			if err != nil {
				return err
			}
			if err := repos.Orders().Create(ctx, o); err != nil {
				return err
			}
			orders = append(orders, o)
		}

		c.Clear()
		if err := repos.Carts().Save(ctx, c); err != nil {
			return err
		}
		placed = orders
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	resp := &CheckoutResponse{
		Orders:     make([]OrderResponse, len(placed)),
		OrderCount: len(placed),
		GrandTotal: decimal.Zero,
	}
	for i, o := range placed {
		s.publish(ctx, o)
		resp.Orders[i] = ToOrderResponse(o)
		resp.GrandTotal = resp.GrandTotal.Add(o.Total)
	}
	telemetry.SetAttributes(span, telemetry.SpanAttrOrderCount, len(placed))
	logger.L(ctx).Info("Checkout completed",
		zap.String("customer_id", customerID.String()),
		zap.Int("orders", len(placed)),
		zap.String("grand_total", resp.GrandTotal.StringFixed(2)))
	return resp, nil
}

// priceGroup re-reads the products of one brand's lines and prices them at the current price
func (s *OrderService) priceGroup(ctx context.Context, repos TransactionalRepositories, group cart.BrandItems) ([]order.OrderItem, error) {
	brand, err := repos.Brands().FindByID(ctx, group.BrandID)
	if err != nil {
		return nil, err
	}
	if !brand.IsActive() {
		return nil, shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("%s is not currently selling", brand.Name))
	}

	items := make([]order.OrderItem, 0, len(group.Items))
	for _, line := range group.Items {
		product, err := repos.Products().FindByID(ctx, line.ProductID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return nil, shared.NewDomainError("INVALID_STATE",
					fmt.Sprintf("%s is no longer available", line.Name))
			}
			return nil, err
		}
		if !product.Active || product.BrandID != group.BrandID {
			return nil, shared.NewDomainError("INVALID_STATE",
				fmt.Sprintf("%s is no longer available", product.Name))
		}
		if !product.HasStock(line.Quantity) {
			return nil, shared.NewDomainError("INSUFFICIENT_STOCK",
				fmt.Sprintf("Only %d of %s in stock", product.Stock, product.Name))
		}
		item, err := order.NewOrderItem(product.ID, product.Name, product.SKU, product.Price, line.Quantity)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// redeemCoupon re-validates the cart's coupon against the checkout subtotal and counts one use
func (s *OrderService) redeemCoupon(ctx context.Context, repos TransactionalRepositories, code string, subtotal decimal.Decimal) (*cart.Coupon, error) {
	coupon, err := repos.Coupons().FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError(cart.CodeCouponNotFound, "Coupon not found")
		}
		return nil, err
	}
	if err := coupon.CheckApplicable(subtotal, s.now()); err != nil {
		return nil, err
	}
	if err := repos.Coupons().IncrementRedemptions(ctx, coupon.ID); err != nil {
		return nil, err
	}
	return coupon, nil
}

func (s *OrderService) shippingAddress(ctx context.Context, customerID uuid.UUID, req CheckoutRequest) (valueobject.Address, error) {
	if req.ShippingAddress != nil {
		return req.ShippingAddress.ToAddress()
	}
	customer, err := s.customers.FindByUserID(ctx, customerID)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return valueobject.Address{}, err
	}
	if customer == nil || customer.DefaultAddress == nil {
		return valueobject.Address{}, shared.NewDomainError("INVALID_ADDRESS",
			"Shipping address is required when no default address is saved")
	}
	return *customer.DefaultAddress, nil
}

// ResolveActor maps an authenticated user to the principal used for status changes
func (s *OrderService) ResolveActor(ctx context.Context, userID uuid.UUID, role identity.Role) (order.Actor, error) {
	switch role {
	case identity.RoleCustomer:
		return order.Actor{UserID: userID, Role: order.ActorCustomer}, nil
	case identity.RoleAdmin:
		return order.Actor{UserID: userID, Role: order.ActorAdmin}, nil
	case identity.RoleBrand:
		brand, err := s.brands.FindByOwnerID(ctx, userID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return order.Actor{}, shared.NewDomainError("FORBIDDEN", "No brand profile for this account")
			}
			return order.Actor{}, err
		}
		return order.Actor{UserID: userID, Role: order.ActorBrand, BrandID: brand.ID}, nil
	}
	return order.Actor{}, shared.NewDomainError("FORBIDDEN", "Unknown role")
}

// UpdateStatus applies a status change requested by a brand or an admin
func (s *OrderService) UpdateStatus(ctx context.Context, actor order.Actor, orderID uuid.UUID, req UpdateStatusRequest) (*OrderResponse, error) {
	return s.ChangeStatus(ctx, actor, orderID, order.OrderStatus(req.Status), req.Note)
}

// Cancel cancels a customer's pending or confirmed order
func (s *OrderService) Cancel(ctx context.Context, customerID, orderID uuid.UUID, req CancelOrderRequest) (*OrderResponse, error) {
	actor := order.Actor{UserID: customerID, Role: order.ActorCustomer}
	return s.ChangeStatus(ctx, actor, orderID, order.StatusCancelled, req.Reason)
}

// Return marks a customer's delivered order as returned
func (s *OrderService) Return(ctx context.Context, customerID, orderID uuid.UUID, req ReturnOrderRequest) (*OrderResponse, error) {
	actor := order.Actor{UserID: customerID, Role: order.ActorCustomer}
	return s.ChangeStatus(ctx, actor, orderID, order.StatusReturned, req.Reason)
}

// ChangeStatus moves an order to target on behalf of actor. Entering cancelled
// or returned puts every item back in stock in the same transaction.
func (s *OrderService) ChangeStatus(ctx context.Context, actor order.Actor, orderID uuid.UUID, target order.OrderStatus, note string) (*OrderResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "order", "change_status",
		telemetry.SpanAttrOrderID, orderID.String(),
		telemetry.SpanAttrUserID, actor.UserID.String(),
		telemetry.SpanAttrOrderStatus, string(target))
	defer span.End()

	var changed *order.Order
	var from order.OrderStatus
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		o, err := repos.Orders().FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		from = o.Status
		if err := o.ChangeStatus(actor, target, note); err != nil {
			return err
		}
		if target.RestoresStock() {
			for _, item := range o.Items {
				err := repos.Products().IncrementStock(ctx, item.ProductID, item.Quantity)
				if errors.Is(err, shared.ErrNotFound) {
					logger.L(ctx).Warn("Product removed, stock not restored",
						zap.String("product_id", item.ProductID.String()),
						zap.String("order_number", o.OrderNumber))
					continue
				}
				if err != nil {
					return err
				}
			}
		}
		if err := repos.Orders().Update(ctx, o); err != nil {
			return err
		}
		changed = o
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.publish(ctx, changed)
	telemetry.SetAttributes(span, telemetry.SpanAttrOrderNumber, changed.OrderNumber)
	logger.L(ctx).Info("Order status changed",
		zap.String("order_number", changed.OrderNumber),
		zap.String("from", string(from)),
		zap.String("to", string(changed.Status)),
		zap.String("actor_role", string(actor.Role)))
	resp := ToOrderResponse(changed)
	return &resp, nil
}

// Get returns an order visible to actor: its customer, its brand or an admin
func (s *OrderService) Get(ctx context.Context, actor order.Actor, orderID uuid.UUID) (*OrderResponse, error) {
	o, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	switch actor.Role {
	case order.ActorAdmin:
	case order.ActorBrand:
		if o.BrandID != actor.BrandID {
			return nil, shared.NewDomainError(order.CodeNotOrderOwner, "Order does not belong to this brand")
		}
	default:
		if o.CustomerID != actor.UserID {
			return nil, shared.NewDomainError(order.CodeNotOrderOwner, "Order does not belong to this customer")
		}
	}
	resp := ToOrderResponse(o)
	return &resp, nil
}

// ListForCustomer returns the customer's orders, newest first
func (s *OrderService) ListForCustomer(ctx context.Context, customerID uuid.UUID, filter OrderListFilter) (shared.Paginated[OrderResponse], error) {
	domainFilter, err := toDomainFilter(filter)
	if err != nil {
		return shared.Paginated[OrderResponse]{}, err
	}
	orders, err := s.orders.FindByCustomer(ctx, customerID, domainFilter)
	if err != nil {
		return shared.Paginated[OrderResponse]{}, err
	}
	total, err := s.orders.CountByCustomer(ctx, customerID, domainFilter)
	if err != nil {
		return shared.Paginated[OrderResponse]{}, err
	}
	return paginate(orders, total, domainFilter), nil
}

// ListForBrand returns orders placed with the brand, optionally narrowed by status
func (s *OrderService) ListForBrand(ctx context.Context, brandID uuid.UUID, filter OrderListFilter) (shared.Paginated[OrderResponse], error) {
	domainFilter, err := toDomainFilter(filter)
	if err != nil {
		return shared.Paginated[OrderResponse]{}, err
	}
	orders, err := s.orders.FindByBrand(ctx, brandID, domainFilter)
	if err != nil {
		return shared.Paginated[OrderResponse]{}, err
	}
	total, err := s.orders.CountByBrand(ctx, brandID, domainFilter)
	if err != nil {
		return shared.Paginated[OrderResponse]{}, err
	}
	return paginate(orders, total, domainFilter), nil
}

// SalesSummary reports order count and revenue per status for a brand.
// Every status is listed; revenue totals skip cancelled, returned and refunded orders.
func (s *OrderService) SalesSummary(ctx context.Context, brandID uuid.UUID) (*SalesSummaryResponse, error) {
	rows, err := s.orders.SummarizeByBrand(ctx, brandID)
	if err != nil {
		return nil, err
	}
	byStatus := make(map[order.OrderStatus]order.StatusSummary, len(rows))
	for _, row := range rows {
		byStatus[row.Status] = row
	}

	resp := &SalesSummaryResponse{BrandID: brandID, TotalRevenue: decimal.Zero}
	for _, status := range order.AllStatuses() {
		row, ok := byStatus[status]
		if !ok {
			row = order.StatusSummary{Status: status, Revenue: decimal.Zero}
		}
		resp.ByStatus = append(resp.ByStatus, row)
		resp.TotalOrders += row.Count
		if !countsAsLostRevenue(status) {
			resp.TotalRevenue = resp.TotalRevenue.Add(row.Revenue)
		}
	}
	return resp, nil
}

func countsAsLostRevenue(status order.OrderStatus) bool {
	return status == order.StatusCancelled || status == order.StatusReturned || status == order.StatusRefunded
}

func (s *OrderService) publish(ctx context.Context, o *order.Order) {
	events := o.GetDomainEvents()
	o.ClearDomainEvents()
	if len(events) == 0 {
		return
	}
	if err := s.publisher.Publish(ctx, events...); err != nil {
		logger.L(ctx).Warn("Failed to publish order events",
			zap.String("order_number", o.OrderNumber), zap.Error(err))
	}
}

func toDomainFilter(filter OrderListFilter) (shared.Filter, error) {
	domainFilter := shared.DefaultFilter()
	if filter.Page > 0 {
		domainFilter.Page = filter.Page
	}
	if filter.PageSize > 0 {
		domainFilter.PageSize = filter.PageSize
	}
	if filter.OrderBy != "" {
		domainFilter.OrderBy = filter.OrderBy
	}
	if filter.OrderDir != "" {
		domainFilter.OrderDir = filter.OrderDir
	}
	domainFilter.Search = filter.Search
	if filter.Status != "" {
		status := order.OrderStatus(filter.Status)
		if !status.IsValid() {
			return shared.Filter{}, shared.NewDomainError("INVALID_STATUS", "Unknown order status: "+filter.Status)
		}
		domainFilter.Filters[order.FilterStatus] = string(status)
	}
	return domainFilter, nil
}

func paginate(orders []order.Order, total int64, filter shared.Filter) shared.Paginated[OrderResponse] {
	items := make([]OrderResponse, len(orders))
	for i := range orders {
		items[i] = ToOrderResponse(&orders[i])
	}
	return shared.NewPaginated(items, total, filter.Page, filter.PageSize)
}
