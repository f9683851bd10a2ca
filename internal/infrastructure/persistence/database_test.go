package persistence

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newMockDatabase(t *testing.T) (*Database, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	database, err := Open(postgres.New(postgres.Config{Conn: mockDB}), nil)
	require.NoError(t, err)
	return database, mock
}

func TestDatabase_PingAndStats(t *testing.T) {
	database, mock := newMockDatabase(t)

	require.NoError(t, database.Ping(context.Background()))

	stats, err := database.Stats()
	require.NoError(t, err)
	assert.GreaterOrEqual(t, stats.OpenConnections, stats.InUse)

	mock.ExpectClose()
	require.NoError(t, database.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_DecrementStockUsesConditionalUpdate(t *testing.T) {
	database, mock := newMockDatabase(t)
	repo := NewGormProductRepository(database.DB)
	id := uuid.New()

	mock.ExpectExec(`UPDATE "products" SET .* WHERE id = \$\d+ AND stock >= \$\d+`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	err := repo.DecrementStock(context.Background(), id, 3)
	assert.ErrorIs(t, err, shared.ErrInsufficientStock)

	mock.ExpectExec(`UPDATE "products" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	assert.NoError(t, repo.DecrementStock(context.Background(), id, 3))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTranslateHelpers(t *testing.T) {
	assert.ErrorIs(t, translateNotFound(gorm.ErrRecordNotFound), shared.ErrNotFound)

	other := errors.New("boom")
	assert.Equal(t, other, translateNotFound(other))

	assert.ErrorIs(t, translateCreate(gorm.ErrDuplicatedKey, shared.ErrAlreadyExists), shared.ErrAlreadyExists)
	assert.ErrorIs(t,
		translateCreate(errors.New("UNIQUE constraint failed: users.email"), shared.ErrAlreadyExists),
		shared.ErrAlreadyExists)
	assert.Equal(t, other, translateCreate(other, shared.ErrAlreadyExists))
	assert.False(t, isDuplicateKey(nil))
}
