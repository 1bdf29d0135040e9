// Package store provides data storage interfaces and implementations.
package store

import (
	"context"
	"errors"

	"github.com/vyrodovalexey/product-api/internal/model"
)

// Store errors.
var (
	ErrNotFound  = errors.New("product not found")
	ErrInvalidID = errors.New("invalid product ID")
	ErrDuplicate = errors.New("duplicate key")
	ErrNilInput  = errors.New("product input cannot be nil")
)

// Store defines the product accessor used by the HTTP handlers.
type Store interface {
	// Find returns the products matching filter, newest first, limited to page.
	Find(ctx context.Context, filter model.ProductFilter, page model.Page) ([]model.Product, error)

	// Count returns the number of products matching filter.
	Count(ctx context.Context, filter model.ProductFilter) (int64, error)

	// Search returns products whose name contains query, ignoring case.
	Search(ctx context.Context, query string) ([]model.Product, error)

	// FindByID retrieves a product by its ID.
	FindByID(ctx context.Context, id string) (*model.Product, error)

	// Create persists a new product and returns it with its generated ID.
	Create(ctx context.Context, input *model.ProductInput) (*model.Product, error)

	// Update sets the supplied fields on an existing product.
	Update(ctx context.Context, id string, input *model.ProductInput) (*model.Product, error)

	// Delete removes a product and returns the removed document.
	Delete(ctx context.Context, id string) (*model.Product, error)

	// AggregateByCategory returns per-category price statistics.
	AggregateByCategory(ctx context.Context) ([]model.CategoryStats, error)

	// Ping reports whether the backing database is reachable.
	Ping(ctx context.Context) error

	// Close releases the database connection.
	Close(ctx context.Context) error
}
