package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vyrodovalexey/product-api/internal/model"
)

// MemoryStore implements Store with in-process storage. It backs the
// "memory" driver and the handler tests.
type MemoryStore struct {
	mu       sync.RWMutex
	products map[string]memoryRecord
	seq      uint64
	now      func() time.Time
}

// memoryRecord keeps the insertion sequence next to the product so that
// products created within the same clock tick still sort newest first.
type memoryRecord struct {
	product model.Product
	seq     uint64
}

// NewMemoryStore creates a new MemoryStore instance.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		products: make(map[string]memoryRecord),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Find returns the products matching filter, newest first, limited to page.
func (s *MemoryStore) Find(
	ctx context.Context,
	filter model.ProductFilter,
	page model.Page,
) ([]model.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("find products: %w", err)
	}

	matched := s.collect(filter.Matches)

	skip64 := page.Skip()
	if skip64 < 0 || skip64 >= int64(len(matched)) {
		return []model.Product{}, nil
	}
	skip := int(skip64)

	end := len(matched)
	if page.Limit > 0 && skip+page.Limit < end {
		end = skip + page.Limit
	}

	return matched[skip:end], nil
}

// Count returns the number of products matching filter.
func (s *MemoryStore) Count(ctx context.Context, filter model.ProductFilter) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, rec := range s.products {
		if filter.Matches(rec.product) {
			n++
		}
	}

	return n, nil
}

// Search returns products whose name contains query, ignoring case.
func (s *MemoryStore) Search(ctx context.Context, query string) ([]model.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("search products: %w", err)
	}

	needle := strings.ToLower(query)

	return s.collect(func(p model.Product) bool {
		return strings.Contains(strings.ToLower(p.Name), needle)
	}), nil
}

// FindByID retrieves a product by its ID.
func (s *MemoryStore) FindByID(ctx context.Context, id string) (*model.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("find product: %w", err)
	}

	if err := validateID(id); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, exists := s.products[id]
	if !exists {
		return nil, ErrNotFound
	}

	return &rec.product, nil
}

// Create adds a new product to the store and returns it with a generated ID.
func (s *MemoryStore) Create(ctx context.Context, input *model.ProductInput) (*model.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}

	if input == nil {
		return nil, fmt.Errorf("create product: %w", ErrNilInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	p := model.Product{
		ID:        uuid.New().String(),
		InStock:   input.InStockOrDefault(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	input.Apply(&p)

	s.seq++
	s.products[p.ID] = memoryRecord{product: p, seq: s.seq}

	return &p, nil
}

// Update sets the supplied fields on an existing product.
func (s *MemoryStore) Update(ctx context.Context, id string, input *model.ProductInput) (*model.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}

	if err := validateID(id); err != nil {
		return nil, err
	}

	if input == nil {
		return nil, fmt.Errorf("update product: %w", ErrNilInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, exists := s.products[id]
	if !exists {
		return nil, ErrNotFound
	}

	p := rec.product
	input.Apply(&p)
	p.UpdatedAt = s.now()

	s.products[id] = memoryRecord{product: p, seq: rec.seq}

	return &p, nil
}

// Delete removes a product from the store and returns it.
func (s *MemoryStore) Delete(ctx context.Context, id string) (*model.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("delete product: %w", err)
	}

	if err := validateID(id); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, exists := s.products[id]
	if !exists {
		return nil, ErrNotFound
	}

	delete(s.products, id)

	return &rec.product, nil
}

// AggregateByCategory returns per-category price statistics.
func (s *MemoryStore) AggregateByCategory(ctx context.Context) ([]model.CategoryStats, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("aggregate products: %w", err)
	}

	all := s.collect(func(model.Product) bool { return true })

	return model.AggregateByCategory(all), nil
}

// Ping always succeeds for the in-memory store.
func (s *MemoryStore) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close(_ context.Context) error {
	return nil
}

// collect returns the products accepted by keep, newest first.
func (s *MemoryStore) collect(keep func(model.Product) bool) []model.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()

	recs := make([]memoryRecord, 0, len(s.products))
	for _, rec := range s.products {
		if keep(rec.product) {
			recs = append(recs, rec)
		}
	}

	sort.Slice(recs, func(i, j int) bool {
		a, b := recs[i], recs[j]
		if !a.product.CreatedAt.Equal(b.product.CreatedAt) {
			return a.product.CreatedAt.After(b.product.CreatedAt)
		}
		return a.seq > b.seq
	})

	out := make([]model.Product, len(recs))
	for i, rec := range recs {
		out[i] = rec.product
	}

	return out
}

func validateID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return nil
}
