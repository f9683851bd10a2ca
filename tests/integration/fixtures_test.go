package integration

import (
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/cart"
	"github.com/marketplace/backend/internal/domain/catalog"
	"github.com/marketplace/backend/internal/domain/identity"
	"github.com/marketplace/backend/internal/domain/partner"
	"github.com/marketplace/backend/internal/infrastructure/persistence"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func seedUser(t *testing.T, tdb *TestDB, role identity.Role) *identity.User {
	t.Helper()
	user, err := identity.NewUser(gofakeit.Email(), "Passw0rd!", role)
	require.NoError(t, err)
	require.NoError(t, persistence.NewGormUserRepository(tdb.DB).Create(t.Context(), user))
	return user
}

func seedBrand(t *testing.T, tdb *TestDB) *partner.Brand {
	t.Helper()
	owner := seedUser(t, tdb, identity.RoleBrand)
	brand, err := partner.NewBrand(owner.ID, gofakeit.Company()+" "+gofakeit.LetterN(6), "")
	require.NoError(t, err)
	require.NoError(t, persistence.NewGormBrandRepository(tdb.DB).Create(t.Context(), brand))
	return brand
}

func seedProduct(t *testing.T, tdb *TestDB, brandID uuid.UUID, price string, stock int) *catalog.Product {
	t.Helper()
	product, err := catalog.NewProduct(brandID, gofakeit.ProductName(), "SKU-"+gofakeit.LetterN(8), decimal.RequireFromString(price), stock)
	require.NoError(t, err)
	require.NoError(t, persistence.NewGormProductRepository(tdb.DB).Create(t.Context(), product))
	return product
}

// seedCart creates a customer whose cart holds quantity units of product
func seedCart(t *testing.T, tdb *TestDB, product *catalog.Product, quantity int) *identity.User {
	t.Helper()
	customer := seedUser(t, tdb, identity.RoleCustomer)
	c := cart.NewCart(customer.ID)
	require.NoError(t, c.AddItem(product.ID, product.BrandID, product.Name, product.Price, quantity))
	require.NoError(t, persistence.NewGormCartRepository(tdb.DB).Save(t.Context(), c))
	return customer
}

func stockOf(t *testing.T, tdb *TestDB, productID uuid.UUID) int {
	t.Helper()
	product, err := persistence.NewGormProductRepository(tdb.DB).FindByID(t.Context(), productID)
	require.NoError(t, err)
	return product.Stock
}
