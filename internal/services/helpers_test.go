package services_test

import (
	"context"
	"testing"

	"hystore/internal/cache"
	"hystore/internal/locker"
	"hystore/internal/models"
	"hystore/internal/repositories"
	"hystore/internal/services"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testEnv struct {
	set     *repositories.Set
	carts   *services.CartService
	orders  *services.OrderService
	reports *services.ReportService
}

func newTestEnv(t *testing.T, cartCache cache.CartCache, publisher services.EventPublisher) *testEnv {
	t.Helper()
	set := repositories.NewMockSet()
	return newTestEnvWithStore(t, set, set.Checkout, cartCache, publisher)
}

func newTestEnvWithStore(t *testing.T, set *repositories.Set, store repositories.CheckoutStore, cartCache cache.CartCache, publisher services.EventPublisher) *testEnv {
	t.Helper()
	logger := zap.NewNop()
	carts := services.NewCartService(set.Carts, set.Products, cartCache, logger)
	return &testEnv{
		set:     set,
		carts:   carts,
		orders:  services.NewOrderService(store, set.Orders, carts, locker.NewKeyedMutex(), publisher, logger),
		reports: services.NewReportService(set.Customers, set.Orders, set.Reports, logger),
	}
}

func (e *testEnv) product(t *testing.T, name, price string) *models.Product {
	t.Helper()
	p := &models.Product{Name: name, Price: decimal.RequireFromString(price)}
	require.NoError(t, e.set.Products.Create(context.Background(), p))
	return p
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func strPtr(s string) *string {
	return &s
}

var mockAnyContext = mock.MatchedBy(func(context.Context) bool { return true })
