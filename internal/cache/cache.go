package cache

import (
	"context"
	"errors"

	"hystore/internal/models"
)

// CartCache stores the joined cart listing of a customer.
//
// Every customer has a generation counter. Delete advances it, and Set only
// stores a listing read under the generation the caller observed through
// Version before going to the database, so a slow reader cannot put back a
// listing that a concurrent mutation already invalidated.
type CartCache interface {
	Version(ctx context.Context, customerID string) (int64, error)
	Get(ctx context.Context, customerID string) ([]models.CartLineView, error)
	Set(ctx context.Context, customerID string, version int64, lines []models.CartLineView) error
	Delete(ctx context.Context, customerID string) error
}

var (
	ErrCacheMiss = errors.New("cache miss")
	// ErrStaleVersion is returned by Set when the generation moved on since Version.
	ErrStaleVersion = errors.New("cart cache generation changed")
)

// NoopCache never holds anything. Used when Redis is not configured.
type NoopCache struct{}

func (NoopCache) Version(context.Context, string) (int64, error) { return 0, nil }

func (NoopCache) Get(context.Context, string) ([]models.CartLineView, error) {
	return nil, ErrCacheMiss
}

func (NoopCache) Set(context.Context, string, int64, []models.CartLineView) error { return nil }

func (NoopCache) Delete(context.Context, string) error { return nil }
