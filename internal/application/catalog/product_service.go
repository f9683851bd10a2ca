package catalog

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/catalog"
	"github.com/marketplace/backend/internal/domain/partner"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/marketplace/backend/internal/infrastructure/csvimport"
	"github.com/marketplace/backend/internal/infrastructure/logger"
	"github.com/marketplace/backend/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// imageExtensions lists accepted image content types and the extension used for their keys
var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

var errProductNotFound = shared.NewDomainError("NOT_FOUND", "Product not found")

// ProductServiceConfig contains limits for product images and bulk imports
type ProductServiceConfig struct {
	MaxImageBytes       int64
	MaxImagesPerProduct int
	MaxImportRows       int
}

// ProductService manages the product catalog. Mutations are restricted to
// the owner of the product's brand.
type ProductService struct {
	products  catalog.ProductRepository
	brands    partner.BrandRepository
	storage   ObjectStorage
	publisher shared.EventPublisher
	config    ProductServiceConfig
	logger    *zap.Logger
}

// NewProductService creates a new ProductService
func NewProductService(
	products catalog.ProductRepository,
	brands partner.BrandRepository,
	storage ObjectStorage,
	publisher shared.EventPublisher,
	config ProductServiceConfig,
	logger *zap.Logger,
) *ProductService {
	if publisher == nil {
		publisher = shared.NoopEventPublisher{}
	}
	if config.MaxImageBytes <= 0 {
		config.MaxImageBytes = 5 << 20
	}
	if config.MaxImagesPerProduct <= 0 {
		config.MaxImagesPerProduct = catalog.DefaultMaxImages
	}
	if config.MaxImportRows <= 0 {
		config.MaxImportRows = csvimport.DefaultMaxRows
	}
	return &ProductService{
		products:  products,
		brands:    brands,
		storage:   storage,
		publisher: publisher,
		config:    config,
		logger:    logger,
	}
}

// List returns products matching the filter. Public listings only include active products.
func (s *ProductService) List(ctx context.Context, filter ProductListFilter, public bool) (shared.Paginated[ProductResponse], error) {
	domainFilter, err := toDomainFilter(filter)
	if err != nil {
		return shared.Paginated[ProductResponse]{}, err
	}
	if public {
		domainFilter.Filters[catalog.FilterActive] = true
	}

	products, err := s.products.FindAll(ctx, domainFilter)
	if err != nil {
		return shared.Paginated[ProductResponse]{}, err
	}
	total, err := s.products.Count(ctx, domainFilter)
	if err != nil {
		return shared.Paginated[ProductResponse]{}, err
	}
	items := make([]ProductResponse, len(products))
	for i := range products {
		items[i] = ToProductResponse(&products[i])
	}
	return shared.NewPaginated(items, total, domainFilter.Page, domainFilter.PageSize), nil
}

func toDomainFilter(filter ProductListFilter) (shared.Filter, error) {
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

	if filter.BrandID != "" {
		brandID, err := uuid.Parse(filter.BrandID)
		if err != nil {
			return shared.Filter{}, shared.NewDomainError("INVALID_INPUT", "brand_id must be a UUID")
		}
		domainFilter.Filters[catalog.FilterBrandID] = brandID
	}
	if filter.Category != "" {
		domainFilter.Filters[catalog.FilterCategory] = filter.Category
	}
	for key, raw := range map[string]string{catalog.FilterMinPrice: filter.MinPrice, catalog.FilterMaxPrice: filter.MaxPrice} {
		if raw == "" {
			continue
		}
		price, err := decimal.NewFromString(raw)
		if err != nil {
			return shared.Filter{}, shared.NewDomainError("INVALID_INPUT", key+" must be a number")
		}
		domainFilter.Filters[key] = price
	}
	return domainFilter, nil
}

// Get returns a product. Inactive products are only visible to their brand owner;
// requesterID is uuid.Nil for anonymous callers.
func (s *ProductService) Get(ctx context.Context, id, requesterID uuid.UUID) (*ProductResponse, error) {
	product, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !product.Active {
		if requesterID == uuid.Nil {
			return nil, errProductNotFound
		}
		brand, err := s.brands.FindByOwnerID(ctx, requesterID)
		if err != nil || !product.IsOwnedBy(brand.ID) {
			return nil, errProductNotFound
		}
	}
	resp := ToProductResponse(product)
	return &resp, nil
}

// Create lists a new product under the owner's brand
func (s *ProductService) Create(ctx context.Context, ownerID uuid.UUID, req CreateProductRequest) (*ProductResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "catalog", "create_product", telemetry.SpanAttrUserID, ownerID.String())
	defer span.End()

	brand, err := s.ownerBrand(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if !brand.IsActive() {
		return nil, shared.NewDomainError("FORBIDDEN", "Suspended brands cannot list products")
	}

	product, err := catalog.NewProduct(brand.ID, req.Name, req.SKU, req.Price, req.Stock)
	if err != nil {
		return nil, err
	}
	if req.Description != "" || req.Category != "" {
		if err := product.Update(product.Name, req.Description, req.Category, product.Price); err != nil {
			return nil, err
		}
	}
	if req.Active != nil {
		product.SetActive(*req.Active)
	}

	exists, err := s.products.ExistsBySKU(ctx, brand.ID, product.SKU)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "SKU is already used by another product")
	}

	if err := s.products.Create(ctx, product); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttributes(span, telemetry.SpanAttrProductID, product.ID.String(), telemetry.SpanAttrBrandID, brand.ID.String())

	s.publish(ctx, product)
	logger.L(ctx).Info("Product created",
		zap.String("product_id", product.ID.String()),
		zap.String("sku", product.SKU))
	resp := ToProductResponse(product)
	return &resp, nil
}

// Update edits a product's descriptive fields, price and visibility
func (s *ProductService) Update(ctx context.Context, ownerID, id uuid.UUID, req UpdateProductRequest) (*ProductResponse, error) {
	product, err := s.ownedProduct(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if err := product.Update(req.Name, req.Description, req.Category, req.Price); err != nil {
		return nil, err
	}
	if req.Active != nil {
		product.SetActive(*req.Active)
	}
	if err := s.products.Update(ctx, product); err != nil {
		return nil, err
	}
	s.publish(ctx, product)
	resp := ToProductResponse(product)
	return &resp, nil
}

// Delete removes a product and its stored images
func (s *ProductService) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	product, err := s.ownedProduct(ctx, ownerID, id)
	if err != nil {
		return err
	}
	if err := s.products.Delete(ctx, product.ID); err != nil {
		return err
	}
	for _, img := range product.Images {
		s.deleteObject(ctx, img.Key)
	}
	logger.L(ctx).Info("Product deleted", zap.String("product_id", product.ID.String()))
	return nil
}

// AdjustStock applies a stock delta or sets an absolute stock level
func (s *ProductService) AdjustStock(ctx context.Context, ownerID, id uuid.UUID, req AdjustStockRequest) (*ProductResponse, error) {
	if (req.Delta == nil) == (req.Stock == nil) {
		return nil, shared.NewDomainError("INVALID_INPUT", "Provide exactly one of delta or stock")
	}
	product, err := s.ownedProduct(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	var delta int
	if req.Delta != nil {
		delta = *req.Delta
	} else {
		delta = *req.Stock - product.Stock
	}
	if delta == 0 {
		resp := ToProductResponse(product)
		return &resp, nil
	}
	if err := product.AdjustStock(delta); err != nil {
		return nil, err
	}
	if err := s.products.Update(ctx, product); err != nil {
		return nil, err
	}
	s.publish(ctx, product)
	resp := ToProductResponse(product)
	return &resp, nil
}

// UploadImage stores an image and attaches it to the product. The stored object
// is deleted again when the product cannot be saved.
func (s *ProductService) UploadImage(ctx context.Context, ownerID, id uuid.UUID, upload ImageUpload) (*ProductResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "catalog", "upload_image", telemetry.SpanAttrProductID, id.String())
	defer span.End()

	if upload.Size <= 0 {
		return nil, shared.NewDomainError("INVALID_IMAGE", "Image file is empty")
	}
	if upload.Size > s.config.MaxImageBytes {
		return nil, shared.NewDomainError("IMAGE_TOO_LARGE",
			fmt.Sprintf("Image exceeds the %d byte limit", s.config.MaxImageBytes))
	}

	product, err := s.ownedProduct(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if len(product.Images) >= s.config.MaxImagesPerProduct {
		return nil, shared.NewDomainError("TOO_MANY_IMAGES", "Product image limit reached")
	}

	contentType, body, err := sniffContentType(upload.Body)
	if err != nil {
		return nil, err
	}
	ext, ok := imageExtensions[contentType]
	if !ok {
		return nil, shared.NewDomainError("INVALID_IMAGE_TYPE", "Only JPEG, PNG, GIF and WebP images are accepted")
	}

	imageID := uuid.New()
	key := fmt.Sprintf("products/%s/%s%s", product.ID, imageID, ext)
	url, err := s.storage.Upload(ctx, key, body, upload.Size, contentType)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("upload product image: %w", err)
	}

	if err := product.AddImage(catalog.ProductImage{ID: imageID, URL: url, Key: key}, s.config.MaxImagesPerProduct); err != nil {
		s.deleteObject(ctx, key)
		return nil, err
	}
	if err := s.products.Update(ctx, product); err != nil {
		telemetry.RecordError(span, err)
		s.deleteObject(ctx, key)
		return nil, err
	}

	logger.L(ctx).Info("Product image uploaded",
		zap.String("product_id", product.ID.String()),
		zap.String("key", key))
	resp := ToProductResponse(product)
	return &resp, nil
}

// DeleteImage detaches an image from the product and deletes the stored object
func (s *ProductService) DeleteImage(ctx context.Context, ownerID, id, imageID uuid.UUID) (*ProductResponse, error) {
	product, err := s.ownedProduct(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	img, err := product.RemoveImage(imageID)
	if err != nil {
		return nil, err
	}
	if err := s.products.Update(ctx, product); err != nil {
		return nil, err
	}
	s.deleteObject(ctx, img.Key)
	resp := ToProductResponse(product)
	return &resp, nil
}

func (s *ProductService) find(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, errProductNotFound
		}
		return nil, err
	}
	return product, nil
}

func (s *ProductService) ownerBrand(ctx context.Context, ownerID uuid.UUID) (*partner.Brand, error) {
	brand, err := s.brands.FindByOwnerID(ctx, ownerID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("FORBIDDEN", "No brand is registered for this account")
		}
		return nil, err
	}
	return brand, nil
}

// ownedProduct loads a product and checks that ownerID owns its brand
func (s *ProductService) ownedProduct(ctx context.Context, ownerID, id uuid.UUID) (*catalog.Product, error) {
	brand, err := s.ownerBrand(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	product, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !product.IsOwnedBy(brand.ID) {
		return nil, shared.NewDomainError("FORBIDDEN", "Product belongs to another brand")
	}
	return product, nil
}

func (s *ProductService) deleteObject(ctx context.Context, key string) {
	if err := s.storage.Delete(ctx, key); err != nil {
		logger.L(ctx).Warn("Failed to delete stored image", zap.String("key", key), zap.Error(err))
	}
}

func (s *ProductService) publish(ctx context.Context, product *catalog.Product) {
	events := product.GetDomainEvents()
	product.ClearDomainEvents()
	if len(events) == 0 {
		return
	}
	if err := s.publisher.Publish(ctx, events...); err != nil {
		logger.L(ctx).Warn("Failed to publish product events", zap.Error(err))
	}
}

// sniffContentType detects the content type from the leading bytes and returns
// a reader that still yields the whole body
func sniffContentType(body io.Reader) (string, io.Reader, error) {
	head := make([]byte, 512)
	n, err := io.ReadFull(body, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", nil, fmt.Errorf("read image: %w", err)
	}
	head = head[:n]
	return http.DetectContentType(head), io.MultiReader(bytes.NewReader(head), body), nil
}
