package partner

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/partner"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/marketplace/backend/internal/infrastructure/logger"
	"github.com/marketplace/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

var errBrandNotFound = shared.NewDomainError("NOT_FOUND", "Brand not found")

// BrandService covers brand storefronts: owner profile edits, public listing
// and admin suspension.
type BrandService struct {
	brands partner.BrandRepository
	logger *zap.Logger
}

// NewBrandService creates a new BrandService
func NewBrandService(brands partner.BrandRepository, logger *zap.Logger) *BrandService {
	return &BrandService{brands: brands, logger: logger}
}

// GetProfile returns the brand owned by ownerID
func (s *BrandService) GetProfile(ctx context.Context, ownerID uuid.UUID) (*BrandResponse, error) {
	brand, err := s.findByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	resp := ToBrandResponse(brand)
	return &resp, nil
}

// UpdateProfile edits the storefront fields of the owner's brand
func (s *BrandService) UpdateProfile(ctx context.Context, ownerID uuid.UUID, req UpdateBrandProfileRequest) (*BrandResponse, error) {
	brand, err := s.findByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if err := brand.UpdateProfile(req.Description, req.LogoURL, req.Website); err != nil {
		return nil, err
	}
	if err := s.brands.Update(ctx, brand); err != nil {
		return nil, err
	}
	resp := ToBrandResponse(brand)
	return &resp, nil
}

// List returns brands. Public listings only ever include active brands.
func (s *BrandService) List(ctx context.Context, filter BrandListFilter, public bool) (shared.Paginated[BrandResponse], error) {
	domainFilter := shared.DefaultFilter()
	domainFilter.OrderBy = "name"
	domainFilter.OrderDir = "asc"
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
	switch {
	case public:
		domainFilter.Filters["status"] = string(partner.BrandStatusActive)
	case filter.Status != "":
		domainFilter.Filters["status"] = filter.Status
	}

	brands, err := s.brands.FindAll(ctx, domainFilter)
	if err != nil {
		return shared.Paginated[BrandResponse]{}, err
	}
	total, err := s.brands.Count(ctx, domainFilter)
	if err != nil {
		return shared.Paginated[BrandResponse]{}, err
	}
	items := make([]BrandResponse, len(brands))
	for i := range brands {
		items[i] = ToBrandResponse(&brands[i])
	}
	return shared.NewPaginated(items, total, domainFilter.Page, domainFilter.PageSize), nil
}

// Get looks a brand up by id or slug. Suspended brands are hidden from public lookups.
func (s *BrandService) Get(ctx context.Context, idOrSlug string, public bool) (*BrandResponse, error) {
	var (
		brand *partner.Brand
		err   error
	)
	if id, parseErr := uuid.Parse(idOrSlug); parseErr == nil {
		brand, err = s.brands.FindByID(ctx, id)
	} else {
		brand, err = s.brands.FindBySlug(ctx, idOrSlug)
	}
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, errBrandNotFound
		}
		return nil, err
	}
	if public && !brand.IsActive() {
		return nil, errBrandNotFound
	}
	resp := ToBrandResponse(brand)
	return &resp, nil
}

// UpdateStatus suspends or reinstates a brand
func (s *BrandService) UpdateStatus(ctx context.Context, adminID, brandID uuid.UUID, req UpdateBrandStatusRequest) (*BrandResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "partner", "update_brand_status", telemetry.SpanAttrUserID, adminID.String())
	defer span.End()

	brand, err := s.brands.FindByID(ctx, brandID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, errBrandNotFound
		}
		return nil, err
	}

	switch partner.BrandStatus(req.Status) {
	case partner.BrandStatusSuspended:
		err = brand.Suspend()
	case partner.BrandStatusActive:
		err = brand.Reinstate()
	default:
		err = shared.NewDomainError("INVALID_STATUS", "Unknown brand status")
	}
	if err != nil {
		return nil, err
	}
	if err := s.brands.Update(ctx, brand); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	logger.L(ctx).Info("Brand status changed",
		zap.String("brand_id", brand.ID.String()),
		zap.String("status", string(brand.Status)),
		zap.String("admin_id", adminID.String()))
	resp := ToBrandResponse(brand)
	return &resp, nil
}

func (s *BrandService) findByOwner(ctx context.Context, ownerID uuid.UUID) (*partner.Brand, error) {
	brand, err := s.brands.FindByOwnerID(ctx, ownerID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, errBrandNotFound
		}
		return nil, err
	}
	return brand, nil
}
