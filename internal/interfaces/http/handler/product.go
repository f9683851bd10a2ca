package handler

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/marketplace/backend/internal/application/catalog"
	"github.com/marketplace/backend/internal/interfaces/http/middleware"
)

const (
	// ImageFormField is the multipart field carrying a product image
	ImageFormField = "image"
	// ImportFormField is the multipart field carrying a product CSV
	ImportFormField = "file"
	// MaxImportFileBytes caps the size of an uploaded product CSV
	MaxImportFileBytes = 2 << 20
)

// ProductHandler handles product catalog endpoints
type ProductHandler struct {
	BaseHandler
	productService *catalog.ProductService
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(productService *catalog.ProductService) *ProductHandler {
	return &ProductHandler{
		productService: productService,
	}
}

// List returns active products from active brands
func (h *ProductHandler) List(c *gin.Context) {
	var filter catalog.ProductListFilter
	if !h.bindQuery(c, &filter) {
		return
	}

	page, err := h.productService.List(c.Request.Context(), filter, true)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	paginated(&h.BaseHandler, c, page)
}

// Get returns one product. The owning brand also sees it while inactive.
func (h *ProductHandler) Get(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	product, err := h.productService.Get(c.Request.Context(), id, middleware.GetJWTUserUUID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, product)
}

// Create lists a new product under the caller's brand
func (h *ProductHandler) Create(c *gin.Context) {
	ownerID, ok := h.currentUserID(c)
	if !ok {
		return
	}
	var req catalog.CreateProductRequest
	if !h.bindJSON(c, &req) {
		return
	}

	product, err := h.productService.Create(c.Request.Context(), ownerID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, product)
}

// Update replaces a product's descriptive fields and price
func (h *ProductHandler) Update(c *gin.Context) {
	ownerID, ok := h.currentUserID(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req catalog.UpdateProductRequest
	if !h.bindJSON(c, &req) {
		return
	}

	product, err := h.productService.Update(c.Request.Context(), ownerID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, product)
}

// Delete removes a product
func (h *ProductHandler) Delete(c *gin.Context) {
	ownerID, ok := h.currentUserID(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	if err := h.productService.Delete(c.Request.Context(), ownerID, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// AdjustStock applies a stock delta or sets an absolute level
func (h *ProductHandler) AdjustStock(c *gin.Context) {
	ownerID, ok := h.currentUserID(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req catalog.AdjustStockRequest
	if !h.bindJSON(c, &req) {
		return
	}

	product, err := h.productService.AdjustStock(c.Request.Context(), ownerID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, product)
}

// UploadImage attaches a multipart image to the product
func (h *ProductHandler) UploadImage(c *gin.Context) {
	ownerID, ok := h.currentUserID(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	file, header, err := c.Request.FormFile(ImageFormField)
	if err != nil {
		h.BadRequest(c, "image file is required")
		return
	}
	defer file.Close()

	product, err := h.productService.UploadImage(c.Request.Context(), ownerID, id, catalog.ImageUpload{
		Filename: header.Filename,
		Size:     header.Size,
		Body:     file,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, product)
}

// Import lists products in bulk from a multipart CSV file. Row failures are
// reported in the body; the request itself only fails on a malformed file.
func (h *ProductHandler) Import(c *gin.Context) {
	ownerID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	file, header, err := c.Request.FormFile(ImportFormField)
	if err != nil {
		h.BadRequest(c, "CSV file is required")
		return
	}
	defer file.Close()
	if header.Size > MaxImportFileBytes {
		h.BadRequest(c, fmt.Sprintf("CSV file exceeds the %d byte limit", MaxImportFileBytes))
		return
	}

	result, err := h.productService.ImportProducts(c.Request.Context(), ownerID, file)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// DeleteImage detaches an image and deletes the stored object
func (h *ProductHandler) DeleteImage(c *gin.Context) {
	ownerID, ok := h.currentUserID(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	imageID, ok := h.uuidParam(c, "image_id")
	if !ok {
		return
	}

	product, err := h.productService.DeleteImage(c.Request.Context(), ownerID, id, imageID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, product)
}
