package catalog

import (
	"context"
	"errors"
	"io"
	"sort"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/marketplace/backend/internal/infrastructure/csvimport"
	"github.com/marketplace/backend/internal/infrastructure/logger"
	"github.com/marketplace/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// ImportResult reports which rows of a product file were listed
type ImportResult struct {
	Total    int                  `json:"total"`
	Created  int                  `json:"created"`
	Failed   int                  `json:"failed"`
	Products []ProductResponse    `json:"products"`
	Errors   []csvimport.RowError `json:"errors"`
}

// ImportProducts lists every valid row of a CSV file under the owner's brand.
// Rows are created independently: a rejected row does not undo the others.
func (s *ProductService) ImportProducts(ctx context.Context, ownerID uuid.UUID, file io.Reader) (*ImportResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "catalog", "import_products", telemetry.SpanAttrUserID, ownerID.String())
	defer span.End()

	brand, err := s.ownerBrand(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if !brand.IsActive() {
		return nil, shared.NewDomainError("FORBIDDEN", "Suspended brands cannot list products")
	}

	sheet, err := csvimport.ParseProducts(file, s.config.MaxImportRows)
	if err != nil {
		return nil, shared.NewDomainError("INVALID_IMPORT_FILE", err.Error())
	}

	result := &ImportResult{
		Total:    sheet.Total,
		Products: make([]ProductResponse, 0, len(sheet.Rows)),
		Errors:   append([]csvimport.RowError(nil), sheet.Errors...),
	}
	for _, row := range sheet.Rows {
		product, err := s.Create(ctx, ownerID, CreateProductRequest{
			Name:        row.Name,
			Description: row.Description,
			SKU:         row.SKU,
			Category:    row.Category,
			Price:       row.Price,
			Stock:       row.Stock,
			Active:      row.Active,
		})
		if err != nil {
			var domainErr *shared.DomainError
			if !errors.As(err, &domainErr) {
				telemetry.RecordError(span, err)
				return nil, err
			}
			result.Errors = append(result.Errors,
				csvimport.NewRowErrorWithValue(row.Line, "", domainErr.Code, domainErr.Message, row.SKU))
			continue
		}
		result.Products = append(result.Products, *product)
	}

	sort.SliceStable(result.Errors, func(i, j int) bool { return result.Errors[i].Row < result.Errors[j].Row })
	result.Created = len(result.Products)
	result.Failed = len(result.Errors)

	logger.L(ctx).Info("Product import finished",
		zap.String("brand_id", brand.ID.String()),
		zap.Int("total", result.Total),
		zap.Int("created", result.Created),
		zap.Int("failed", result.Failed))
	return result, nil
}
