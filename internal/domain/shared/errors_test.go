package shared

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainError_Is(t *testing.T) {
	err := NewDomainError("NOT_FOUND", "Product not found")
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.True(t, errors.Is(fmt.Errorf("lookup: %w", err), ErrNotFound))
	assert.False(t, errors.Is(err, ErrAlreadyExists))
	assert.False(t, errors.Is(errors.New("NOT_FOUND"), ErrNotFound))
	assert.Equal(t, "Product not found", err.Error())
}

func TestNewPaginated(t *testing.T) {
	p := NewPaginated([]int{1, 2, 3}, 45, 2, 20)
	assert.Equal(t, 3, p.TotalPages)
	assert.Equal(t, int64(45), p.Total)

	empty := NewPaginated([]int{}, 0, 1, 0)
	assert.Equal(t, 0, empty.TotalPages)
}

func TestFilter_Offset(t *testing.T) {
	f := DefaultFilter()
	assert.Equal(t, 0, f.Offset())
	f.Page = 3
	assert.Equal(t, 40, f.Offset())
	f.Page = 0
	assert.Equal(t, 0, f.Offset())
}

func TestBaseAggregateRoot_Versioning(t *testing.T) {
	agg := NewBaseAggregateRoot()
	assert.Equal(t, 1, agg.GetVersion())
	assert.Equal(t, 0, agg.PersistedVersion())

	agg.MarkPersisted()
	assert.Equal(t, 1, agg.PersistedVersion())

	// untouched aggregate still advances on save
	assert.Equal(t, 2, agg.NextVersion())
	agg.MarkPersisted()

	agg.IncrementVersion()
	agg.IncrementVersion()
	assert.Equal(t, 4, agg.NextVersion())
	assert.Equal(t, 2, agg.PersistedVersion())
}
