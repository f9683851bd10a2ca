package valueobject

import (
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// MoneyScale is the number of decimal places kept for monetary amounts
const MoneyScale int32 = 2

var hundred = decimal.NewFromInt(100)

// RoundMoney rounds an amount to MoneyScale places, half away from zero
func RoundMoney(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(MoneyScale)
}

// LineTotal returns unitPrice × quantity rounded to money scale
func LineTotal(unitPrice decimal.Decimal, quantity int) decimal.Decimal {
	return RoundMoney(unitPrice.Mul(decimal.NewFromInt(int64(quantity))))
}

// PercentOf returns percent% of amount rounded to money scale
func PercentOf(amount, percent decimal.Decimal) decimal.Decimal {
	return RoundMoney(amount.Mul(percent).Div(hundred))
}

// SumAmounts adds the given amounts
func SumAmounts(amounts ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}

// ValidatePrice ensures a unit price is positive and has at most two decimals
func ValidatePrice(price decimal.Decimal) error {
	if !price.IsPositive() {
		return shared.NewDomainError("INVALID_PRICE", "Price must be greater than zero")
	}
	if !price.Equal(RoundMoney(price)) {
		return shared.NewDomainError("INVALID_PRICE", "Price cannot have more than 2 decimal places")
	}
	return nil
}

// ValidatePercent ensures 0 < percent <= 100
func ValidatePercent(percent decimal.Decimal) error {
	if !percent.IsPositive() || percent.GreaterThan(hundred) {
		return shared.NewDomainError("INVALID_PERCENT", "Percentage must be greater than 0 and at most 100")
	}
	return nil
}
