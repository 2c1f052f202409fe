package store

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/abgdnv/gocatalog/internal/product/errors"
)

// inMemory implements ProductStore using an ordered in-memory slice.
type inMemory struct {
	mu       sync.RWMutex
	products []Product
}

// NewInMemoryStore creates a new instance of ProductStore holding the given products.
func NewInMemoryStore(seed ...Product) ProductStore {
	return &inMemory{
		products: slices.Clone(seed),
	}
}

// FindByID retrieves a product by its ID.
func (s *inMemory) FindByID(_ context.Context, id string) (*Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexOf(id)
	if i < 0 {
		return nil, errors.ErrProductNotFound
	}
	p := s.products[i]
	return &p, nil
}

// FindAll retrieves all products.
func (s *inMemory) FindAll(_ context.Context) ([]Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]Product, len(s.products))
	copy(list, s.products)
	return list, nil
}

// Create appends a product and returns it.
func (s *inMemory) Create(_ context.Context, product Product) (*Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if product.ID == "" {
		return nil, fmt.Errorf("%w: empty ID", errors.ErrCantCreateProduct)
	}
	if s.indexOf(product.ID) >= 0 {
		return nil, fmt.Errorf("%w: ID %s already exists", errors.ErrCantCreateProduct, product.ID)
	}
	s.products = append(s.products, product)
	return &product, nil
}

// Update replaces a product in place, keeping its position.
func (s *inMemory) Update(_ context.Context, product Product) (*Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(product.ID)
	if i < 0 {
		return nil, errors.ErrProductNotFound
	}
	s.products[i] = product
	return &product, nil
}

// DeleteByID deletes a product by its ID.
func (s *inMemory) DeleteByID(_ context.Context, id string) (*Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return nil, errors.ErrProductNotFound
	}
	removed := s.products[i]
	s.products = slices.Delete(s.products, i, i+1)
	return &removed, nil
}

// indexOf returns the position of the product with the given ID or -1. Callers hold the lock.
func (s *inMemory) indexOf(id string) int {
	return slices.IndexFunc(s.products, func(p Product) bool {
		return p.ID == id
	})
}
