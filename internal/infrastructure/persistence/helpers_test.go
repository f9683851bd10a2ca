package persistence

import (
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/catalog"
	"github.com/marketplace/backend/internal/domain/identity"
	"github.com/marketplace/backend/internal/domain/partner"
	"github.com/marketplace/backend/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupTestDB opens an in-memory SQLite database with every model migrated.
// A single connection keeps the in-memory schema visible to transactions.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	database, err := Open(sqlite.Open(":memory:"), nil)
	require.NoError(t, err)

	sqlDB, err := database.DB.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.DB.AutoMigrate(models.AllModels()...))
	return database.DB
}

func newTestUser(t *testing.T, role identity.Role) *identity.User {
	t.Helper()
	user, err := identity.NewUser(gofakeit.Email(), "Passw0rd!", role)
	require.NoError(t, err)
	return user
}

func newTestBrand(t *testing.T, db *gorm.DB) *partner.Brand {
	t.Helper()
	brand, err := partner.NewBrand(uuid.New(), gofakeit.Company()+" "+gofakeit.LetterN(6), "")
	require.NoError(t, err)
	require.NoError(t, NewGormBrandRepository(db).Create(t.Context(), brand))
	return brand
}

func newTestProduct(t *testing.T, db *gorm.DB, brandID uuid.UUID, price string, stock int) *catalog.Product {
	t.Helper()
	product, err := catalog.NewProduct(brandID, gofakeit.ProductName(), "SKU-"+gofakeit.LetterN(8), decimal.RequireFromString(price), stock)
	require.NoError(t, err)
	require.NoError(t, NewGormProductRepository(db).Create(t.Context(), product))
	return product
}
