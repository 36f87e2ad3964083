package services_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"hystore/internal/cache"
	"hystore/internal/models"
	"hystore/internal/repositories"
	"hystore/internal/services"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCartService_AddOrMergeLine_ReplacesPersonalization(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	ctx := context.Background()
	p := env.product(t, "Birthday HyCard", "10.00")

	_, err := env.carts.AddOrMergeLine(ctx, "c-1", services.AddLineInput{
		ProductID: p.ID, Quantity: 2, PreloadAmount: dec("1.00"),
		CustomMessage: strPtr("Hi"), PersonalizationImageRef: strPtr("img-1"),
	})
	require.NoError(t, err)

	line, err := env.carts.AddOrMergeLine(ctx, "c-1", services.AddLineInput{ProductID: p.ID, Quantity: 3})
	require.NoError(t, err)

	assert.Equal(t, 5, line.Quantity)
	assert.True(t, line.PreloadAmount.IsZero())
	assert.Nil(t, line.CustomMessage)
	assert.Nil(t, line.PersonalizationImageRef)

	lines, err := env.carts.ListLines(ctx, "c-1")
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, 5, lines[0].Quantity)
	assert.Nil(t, lines[0].CustomMessage)
}

func TestCartService_AddOrMergeLine_BlankPersonalizationIsNil(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	ctx := context.Background()
	p := env.product(t, "Blank HyCard", "3.00")

	line, err := env.carts.AddOrMergeLine(ctx, "c-1", services.AddLineInput{
		ProductID: p.ID, Quantity: 1, CustomMessage: strPtr(""), PersonalizationImageRef: strPtr(""),
	})
	require.NoError(t, err)
	assert.Nil(t, line.CustomMessage)
	assert.Nil(t, line.PersonalizationImageRef)
}

func TestCartService_AddOrMergeLine_Rejects(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	ctx := context.Background()
	p := env.product(t, "Valid HyCard", "3.00")

	tests := []struct {
		name       string
		customerID string
		in         services.AddLineInput
		want       error
	}{
		{"zero quantity", "c-1", services.AddLineInput{ProductID: p.ID, Quantity: 0}, services.ErrInvalidQuantity},
		{"negative quantity", "c-1", services.AddLineInput{ProductID: p.ID, Quantity: -2}, services.ErrInvalidQuantity},
		{"quantity over limit", "c-1", services.AddLineInput{ProductID: p.ID, Quantity: models.MaxLineQuantity + 1}, services.ErrInvalidQuantity},
		{"negative preload", "c-1", services.AddLineInput{ProductID: p.ID, Quantity: 1, PreloadAmount: dec("-0.01")}, services.ErrInvalidPreload},
		{"unknown product", "c-1", services.AddLineInput{ProductID: "missing", Quantity: 1}, services.ErrProductNotFound},
		{"no customer", "", services.AddLineInput{ProductID: p.ID, Quantity: 1}, services.ErrUnauthenticated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.carts.AddOrMergeLine(ctx, tt.customerID, tt.in)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	lines, err := env.carts.ListLines(ctx, "c-1")
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestCartService_AddOrMergeLine_MergeBeyondLimit(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	ctx := context.Background()
	p := env.product(t, "Bulk HyCard", "1.00")

	_, err := env.carts.AddOrMergeLine(ctx, "c-1", services.AddLineInput{ProductID: p.ID, Quantity: models.MaxLineQuantity})
	require.NoError(t, err)

	_, err = env.carts.AddOrMergeLine(ctx, "c-1", services.AddLineInput{ProductID: p.ID, Quantity: 1, CustomMessage: strPtr("one more")})
	assert.ErrorIs(t, err, services.ErrInvalidQuantity)

	lines, err := env.carts.ListLines(ctx, "c-1")
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, models.MaxLineQuantity, lines[0].Quantity)
	assert.Nil(t, lines[0].CustomMessage)

	result, err := env.orders.Checkout(ctx, customer("c-1"))
	require.NoError(t, err)
	assert.Equal(t, "999.00", result.TotalPrice.StringFixed(2))
}

func TestCartService_ListLines_Idempotent(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	ctx := context.Background()
	a := env.product(t, "HyCard A", "10.75")
	b := env.product(t, "HyCard B", "1.00")

	_, err := env.carts.AddOrMergeLine(ctx, "c-1", services.AddLineInput{ProductID: b.ID, Quantity: 1, CustomMessage: strPtr("first")})
	require.NoError(t, err)
	_, err = env.carts.AddOrMergeLine(ctx, "c-1", services.AddLineInput{ProductID: a.ID, Quantity: 2, PreloadAmount: dec("5.00")})
	require.NoError(t, err)

	first, err := env.carts.ListLines(ctx, "c-1")
	require.NoError(t, err)
	second, err := env.carts.ListLines(ctx, "c-1")
	require.NoError(t, err)

	firstJSON, err := json.Marshal(first)
	require.NoError(t, err)
	secondJSON, err := json.Marshal(second)
	require.NoError(t, err)
	assert.JSONEq(t, string(firstJSON), string(secondJSON))

	require.Len(t, first, 2)
	assert.Equal(t, b.ID, first[0].ProductID)
	assert.Equal(t, a.ID, first[1].ProductID)
	assert.Equal(t, "HyCard A", first[1].ProductName)
	assert.Equal(t, "26.50", first[1].LineTotal.StringFixed(2))
}

func TestCartService_ListLines_ReadsThroughCache(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	env := newTestEnv(t, cache.NewRedisCache(client), nil)
	ctx := context.Background()
	p := env.product(t, "Cached HyCard", "2.00")

	_, err := env.carts.AddOrMergeLine(ctx, "c-1", services.AddLineInput{ProductID: p.ID, Quantity: 1})
	require.NoError(t, err)
	lines, err := env.carts.ListLines(ctx, "c-1")
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.True(t, mr.Exists("cart:c-1"))

	// a write that bypasses the service is invisible until the entry is invalidated
	_, err = env.set.Carts.AddOrMerge(ctx, &models.CartLine{CustomerID: "c-1", ProductID: p.ID, Quantity: 4})
	require.NoError(t, err)
	lines, err = env.carts.ListLines(ctx, "c-1")
	require.NoError(t, err)
	assert.Equal(t, 1, lines[0].Quantity)

	env.carts.Invalidate("c-1")
	assert.False(t, mr.Exists("cart:c-1"))
	lines, err = env.carts.ListLines(ctx, "c-1")
	require.NoError(t, err)
	assert.Equal(t, 5, lines[0].Quantity)

	// mutations through the service drop the cached listing
	_, err = env.carts.AddOrMergeLine(ctx, "c-1", services.AddLineInput{ProductID: p.ID, Quantity: 1})
	require.NoError(t, err)
	lines, err = env.carts.ListLines(ctx, "c-1")
	require.NoError(t, err)
	assert.Equal(t, 6, lines[0].Quantity)
}

// pausingCartRepo holds the first ListByCustomer call after it has read the
// database, until resume is closed.
type pausingCartRepo struct {
	repositories.CartRepository
	once   sync.Once
	listed chan struct{}
	resume chan struct{}
}

func (r *pausingCartRepo) ListByCustomer(ctx context.Context, customerID string) ([]models.CartLineView, error) {
	lines, err := r.CartRepository.ListByCustomer(ctx, customerID)
	r.once.Do(func() {
		close(r.listed)
		<-r.resume
	})
	return lines, err
}

func TestCartService_ListLines_SlowReadDoesNotRecacheStaleCart(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	set := repositories.NewMockSet()
	repo := &pausingCartRepo{CartRepository: set.Carts, listed: make(chan struct{}), resume: make(chan struct{})}
	carts := services.NewCartService(repo, set.Products, cache.NewRedisCache(client), zap.NewNop())
	ctx := context.Background()
	p := &models.Product{Name: "Racing HyCard", Price: dec("3.00")}
	require.NoError(t, set.Products.Create(ctx, p))

	type listResult struct {
		lines []models.CartLineView
		err   error
	}
	done := make(chan listResult, 1)
	go func() {
		lines, err := carts.ListLines(ctx, "c-1")
		done <- listResult{lines, err}
	}()

	<-repo.listed
	_, err := carts.AddOrMergeLine(ctx, "c-1", services.AddLineInput{ProductID: p.ID, Quantity: 2})
	require.NoError(t, err)
	close(repo.resume)

	slow := <-done
	require.NoError(t, slow.err)
	assert.Empty(t, slow.lines)
	assert.False(t, mr.Exists("cart:c-1"))

	lines, err := carts.ListLines(ctx, "c-1")
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, 2, lines[0].Quantity)
	assert.True(t, mr.Exists("cart:c-1"))
}

func TestCartService_ListLines_SurvivesCacheOutage(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	env := newTestEnv(t, cache.NewRedisCache(client), nil)
	ctx := context.Background()
	p := env.product(t, "Resilient HyCard", "2.00")
	mr.Close()

	_, err := env.carts.AddOrMergeLine(ctx, "c-1", services.AddLineInput{ProductID: p.ID, Quantity: 1})
	require.NoError(t, err)
	lines, err := env.carts.ListLines(ctx, "c-1")
	require.NoError(t, err)
	assert.Len(t, lines, 1)
}

func TestCartService_RemoveLine(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	ctx := context.Background()
	p := env.product(t, "Removable HyCard", "2.00")

	_, err := env.carts.AddOrMergeLine(ctx, "c-1", services.AddLineInput{ProductID: p.ID, Quantity: 1})
	require.NoError(t, err)

	require.NoError(t, env.carts.RemoveLine(ctx, "c-1", p.ID))
	assert.ErrorIs(t, env.carts.RemoveLine(ctx, "c-1", p.ID), services.ErrLineNotFound)

	lines, err := env.carts.ListLines(ctx, "c-1")
	require.NoError(t, err)
	assert.Empty(t, lines)
	assert.NotNil(t, lines)
}
