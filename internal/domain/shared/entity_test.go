package shared

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestBaseAggregateRoot_ImplementsAggregateRoot(t *testing.T) {
	var root AggregateRoot = func() *BaseAggregateRoot {
		r := NewBaseAggregateRoot()
		return &r
	}()

	assert.NotEqual(t, uuid.Nil, root.GetID())
	assert.Equal(t, time.UTC, root.GetCreatedAt().Location())
	assert.Equal(t, root.GetCreatedAt(), root.GetUpdatedAt())
	assert.Equal(t, 1, root.GetVersion())
	assert.Empty(t, root.GetDomainEvents())
}

func TestBaseEntity_Touch(t *testing.T) {
	e := NewBaseEntity()
	e.UpdatedAt = e.UpdatedAt.Add(-time.Minute)
	before := e.GetUpdatedAt()

	e.Touch()

	assert.True(t, e.GetUpdatedAt().After(before))
	assert.Equal(t, e.CreatedAt, e.GetCreatedAt())
}
