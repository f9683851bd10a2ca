package csvimport

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Product columns. name, sku, price and stock are required.
const (
	ColumnName        = "name"
	ColumnSKU         = "sku"
	ColumnPrice       = "price"
	ColumnStock       = "stock"
	ColumnDescription = "description"
	ColumnCategory    = "category"
	ColumnActive      = "active"
)

// DefaultMaxRows caps the number of data rows accepted in one file
const DefaultMaxRows = 1000

// ProductRow is a syntactically valid product line
type ProductRow struct {
	Line        int
	Name        string
	SKU         string
	Description string
	Category    string
	Price       decimal.Decimal
	Stock       int
	Active      *bool
}

// ProductSheet is the outcome of parsing a product file: rows that can be
// submitted and rows rejected before reaching the catalog
type ProductSheet struct {
	Rows   []ProductRow
	Errors []RowError
	Total  int
}

// ParseProducts reads a product CSV. File-level problems are returned as an
// error; row-level problems are collected in the sheet.
func ParseProducts(r io.Reader, maxRows int) (*ProductSheet, error) {
	if maxRows <= 0 {
		maxRows = DefaultMaxRows
	}
	parser, err := NewParser(r)
	if err != nil {
		return nil, err
	}
	if err := parser.ParseHeader(); err != nil {
		return nil, err
	}
	if missing := parser.MissingHeaders(ColumnName, ColumnSKU, ColumnPrice, ColumnStock); len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing columns %s", ErrMissingHeader, strings.Join(missing, ", "))
	}

	sheet := &ProductSheet{}
	seen := make(map[string]int)
	for {
		row, err := parser.ReadRow()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var rowErr RowError
			if errors.As(err, &rowErr) {
				sheet.Total++
				sheet.Errors = append(sheet.Errors, rowErr)
				continue
			}
			return nil, err
		}
		if row.IsEmpty() {
			continue
		}
		sheet.Total++
		if sheet.Total > maxRows {
			return nil, fmt.Errorf("%w of %d", ErrTooManyRows, maxRows)
		}

		product, rowErr := parseProductRow(row)
		if rowErr != nil {
			sheet.Errors = append(sheet.Errors, *rowErr)
			continue
		}
		if first, dup := seen[product.SKU]; dup {
			sheet.Errors = append(sheet.Errors, NewRowErrorWithValue(row.Line, ColumnSKU, ErrCodeDuplicateInFile,
				fmt.Sprintf("SKU already appears on row %d", first), product.SKU))
			continue
		}
		seen[product.SKU] = row.Line
		sheet.Rows = append(sheet.Rows, product)
	}

	if sheet.Total == 0 {
		return nil, ErrNoDataRows
	}
	return sheet, nil
}

func parseProductRow(row *Row) (ProductRow, *RowError) {
	p := ProductRow{
		Line:        row.Line,
		Name:        row.Get(ColumnName),
		SKU:         strings.ToUpper(row.Get(ColumnSKU)),
		Description: row.Get(ColumnDescription),
		Category:    row.Get(ColumnCategory),
	}
	for _, col := range []string{ColumnName, ColumnSKU, ColumnPrice, ColumnStock} {
		if row.Get(col) == "" {
			e := NewRowError(row.Line, col, ErrCodeRequiredField, col+" is required")
			return p, &e
		}
	}

	raw := row.Get(ColumnPrice)
	price, err := decimal.NewFromString(raw)
	if err != nil {
		e := NewRowErrorWithValue(row.Line, ColumnPrice, ErrCodeInvalidType, "price must be a decimal number", raw)
		return p, &e
	}
	if !price.IsPositive() {
		e := NewRowErrorWithValue(row.Line, ColumnPrice, ErrCodeInvalidRange, "price must be greater than zero", raw)
		return p, &e
	}
	p.Price = price

	raw = row.Get(ColumnStock)
	stock, err := strconv.Atoi(raw)
	if err != nil {
		e := NewRowErrorWithValue(row.Line, ColumnStock, ErrCodeInvalidType, "stock must be a whole number", raw)
		return p, &e
	}
	if stock < 0 {
		e := NewRowErrorWithValue(row.Line, ColumnStock, ErrCodeInvalidRange, "stock cannot be negative", raw)
		return p, &e
	}
	p.Stock = stock

	if raw = row.Get(ColumnActive); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			e := NewRowErrorWithValue(row.Line, ColumnActive, ErrCodeInvalidType, "active must be true or false", raw)
			return p, &e
		}
		p.Active = &active
	}
	return p, nil
}
