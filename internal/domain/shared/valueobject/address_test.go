package valueobject

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAddress(t *testing.T) {
	t.Run("trims and normalizes", func(t *testing.T) {
		addr, err := NewAddress(" 1 Main St ", "", " Springfield ", "IL", " 62701 ", "us")
		require.NoError(t, err)
		assert.Equal(t, "1 Main St", addr.Line1)
		assert.Equal(t, "Springfield", addr.City)
		assert.Equal(t, "62701", addr.PostalCode)
		assert.Equal(t, "US", addr.Country)
		assert.False(t, addr.IsEmpty())
	})

	tests := []struct {
		name                             string
		line1, city, postalCode, country string
	}{
		{"missing line1", "", "City", "123", "US"},
		{"missing city", "1 Main", "", "123", "US"},
		{"missing postal code", "1 Main", "City", "", "US"},
		{"bad country", "1 Main", "City", "123", "USA"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewAddress(tt.line1, "", tt.city, "", tt.postalCode, tt.country)
			assert.Error(t, err)
		})
	}
}

func TestAddress_String(t *testing.T) {
	addr := Address{Line1: "1 Main St", Line2: "Apt 2", City: "Springfield", PostalCode: "62701", Country: "US"}
	assert.Equal(t, "1 Main St, Apt 2, Springfield, 62701, US", addr.String())
	assert.True(t, Address{}.IsEmpty())
}
