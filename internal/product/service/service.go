// Package service provides the implementation of product-related business logic.
package service

import (
	"context"
	"fmt"
	"math"
	"strings"

	producterrors "github.com/abgdnv/gocatalog/internal/product/errors"
	"github.com/abgdnv/gocatalog/internal/product/store"
	"github.com/google/uuid"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
)

// ProductService defines the methods for managing products.
// It abstracts the underlying business logic and data access.
type ProductService interface {
	// FindByID retrieves a single product by its unique identifier.
	// Returns ErrProductNotFound if no product exists with the given ID.
	FindByID(ctx context.Context, id string) (*ProductDto, error)

	// FindAll returns one page of the products matching the filter.
	FindAll(ctx context.Context, filter ListFilter) (*ProductPage, error)

	// Search returns products whose name or description contains the query, ignoring case.
	Search(ctx context.Context, query string) (*SearchResult, error)

	// Stats aggregates counts and the average price over the whole catalog.
	Stats(ctx context.Context) (*Stats, error)

	// Create adds a new product to the system under a freshly generated ID.
	// Returns error if the product cannot be created.
	Create(ctx context.Context, product ProductCreateDto) (*ProductDto, error)

	// Update applies the fields present in the patch to an existing product.
	// Returns ErrProductNotFound if no product exists with the given ID.
	Update(ctx context.Context, id string, patch ProductPatchDto) (*ProductDto, error)

	// DeleteByID removes a product by its ID and returns it.
	// Returns ErrProductNotFound if no product exists with the given ID.
	DeleteByID(ctx context.Context, id string) (*ProductDto, error)
}

// service implements ProductService and provides methods to manage products.
type service struct {
	repository store.ProductStore
	newID      func() string
}

// NewService creates a new instance of ProductService with the provided repository.
func NewService(repo store.ProductStore) ProductService {
	return &service{
		repository: repo,
		newID:      uuid.NewString,
	}
}

// ProductDto represents the data transfer object for a product.
type ProductDto struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Category    string  `json:"category"`
	InStock     bool    `json:"inStock"`
}

// ProductCreateDto is the payload of a create request. InStock defaults to true when absent.
type ProductCreateDto struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Price       *float64 `json:"price"`
	Category    string   `json:"category"`
	InStock     *bool    `json:"inStock"`
}

// ProductPatchDto is the payload of an update request. A nil field means "keep the current value".
type ProductPatchDto struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	Price       *float64 `json:"price"`
	Category    *string  `json:"category"`
	InStock     *bool    `json:"inStock"`
}

// ListFilter selects and paginates products. Empty Category and nil InStock disable the filters.
type ListFilter struct {
	Category string
	InStock  *bool
	Page     int
	Limit    int
}

// Pagination describes the position of a page within the filtered result.
type Pagination struct {
	CurrentPage   int  `json:"currentPage"`
	TotalPages    int  `json:"totalPages"`
	TotalProducts int  `json:"totalProducts"`
	HasNext       bool `json:"hasNext"`
	HasPrevious   bool `json:"hasPrevious"`
}

// ProductPage is one page of a product listing.
type ProductPage struct {
	Products   []ProductDto `json:"products"`
	Pagination Pagination   `json:"pagination"`
}

// SearchResult holds the products matching a search query.
type SearchResult struct {
	Query   string       `json:"query"`
	Results []ProductDto `json:"results"`
	Count   int          `json:"count"`
}

// Stats is a summary of the catalog.
type Stats struct {
	TotalProducts int            `json:"totalProducts"`
	InStock       int            `json:"inStock"`
	OutOfStock    int            `json:"outOfStock"`
	Categories    map[string]int `json:"categories"`
	AveragePrice  float64        `json:"averagePrice"`
}

// FindByID retrieves a product by its ID and returns it as a ProductDto.
func (s *service) FindByID(ctx context.Context, id string) (*ProductDto, error) {
	product, err := s.repository.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch product by ID %s: %w", id, err)
	}
	return toDto(product), nil
}

// FindAll filters the catalog and cuts one page out of the result.
// Page and limit values below 1 fall back to the defaults.
func (s *service) FindAll(ctx context.Context, filter ListFilter) (*ProductPage, error) {
	products, err := s.repository.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch products: %w", err)
	}

	page, limit := filter.Page, filter.Limit
	if page < 1 {
		page = DefaultPage
	}
	if limit < 1 {
		limit = DefaultLimit
	}

	filtered := make([]store.Product, 0, len(products))
	for _, p := range products {
		if filter.Category != "" && !strings.EqualFold(p.Category, filter.Category) {
			continue
		}
		if filter.InStock != nil && p.InStock != *filter.InStock {
			continue
		}
		filtered = append(filtered, p)
	}

	total := len(filtered)
	// (page-1)*limit and page*limit overflow for large query values, so compare by division.
	start := total
	if page-1 <= total/limit {
		start = min((page-1)*limit, total)
	}
	end := start + min(limit, total-start)
	totalPages := total / limit
	if total%limit != 0 {
		totalPages++
	}

	return &ProductPage{
		Products: toDtos(filtered[start:end]),
		Pagination: Pagination{
			CurrentPage:   page,
			TotalPages:    totalPages,
			TotalProducts: total,
			HasNext:       total > 0 && page <= (total-1)/limit,
			HasPrevious:   page > 1,
		},
	}, nil
}

// Search matches the query against name and description, ignoring case.
func (s *service) Search(ctx context.Context, query string) (*SearchResult, error) {
	products, err := s.repository.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to search products: %w", err)
	}

	needle := strings.ToLower(query)
	matches := make([]store.Product, 0)
	for _, p := range products {
		if strings.Contains(strings.ToLower(p.Name), needle) ||
			strings.Contains(strings.ToLower(p.Description), needle) {
			matches = append(matches, p)
		}
	}

	return &SearchResult{
		Query:   query,
		Results: toDtos(matches),
		Count:   len(matches),
	}, nil
}

// Stats computes stock counts, per-category counts and the average price.
func (s *service) Stats(ctx context.Context) (*Stats, error) {
	products, err := s.repository.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compute product stats: %w", err)
	}

	stats := &Stats{
		TotalProducts: len(products),
		Categories:    make(map[string]int),
	}
	var sum float64
	for _, p := range products {
		if p.InStock {
			stats.InStock++
		} else {
			stats.OutOfStock++
		}
		stats.Categories[p.Category]++
		sum += p.Price
	}
	if len(products) > 0 {
		stats.AveragePrice = math.Round(sum/float64(len(products))*100) / 100
	}
	return stats, nil
}

// Create creates a new product and returns it as a ProductDto.
func (s *service) Create(ctx context.Context, product ProductCreateDto) (*ProductDto, error) {
	inStock := true
	if product.InStock != nil {
		inStock = *product.InStock
	}
	var price float64
	if product.Price != nil {
		price = *product.Price
	}

	candidate := store.Product{
		ID:          s.newID(),
		Name:        product.Name,
		Description: product.Description,
		Price:       price,
		Category:    product.Category,
		InStock:     inStock,
	}
	if err := checkProduct(candidate); err != nil {
		return nil, err
	}
	p, err := s.repository.Create(ctx, candidate)
	if err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	return toDto(p), nil
}

// Update merges the patch into the stored product. Present fields win, including zero values.
func (s *service) Update(ctx context.Context, id string, patch ProductPatchDto) (*ProductDto, error) {
	current, err := s.repository.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch product by ID %s: %w", id, err)
	}

	merged := *current
	if patch.Name != nil {
		merged.Name = *patch.Name
	}
	if patch.Description != nil {
		merged.Description = *patch.Description
	}
	if patch.Price != nil {
		merged.Price = *patch.Price
	}
	if patch.Category != nil {
		merged.Category = *patch.Category
	}
	if patch.InStock != nil {
		merged.InStock = *patch.InStock
	}

	if err := checkProduct(merged); err != nil {
		return nil, err
	}
	updated, err := s.repository.Update(ctx, merged)
	if err != nil {
		return nil, fmt.Errorf("failed to update product with ID %s: %w", id, err)
	}
	return toDto(updated), nil
}

// DeleteByID deletes a product by its ID.
func (s *service) DeleteByID(ctx context.Context, id string) (*ProductDto, error) {
	removed, err := s.repository.DeleteByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to delete product with ID %s: %w", id, err)
	}
	return toDto(removed), nil
}

// checkProduct enforces the invariants every stored product must satisfy.
func checkProduct(p store.Product) error {
	switch {
	case p.Name == "":
		return producterrors.NewValidation("Name is required and must be a string")
	case p.Description == "":
		return producterrors.NewValidation("Description is required and must be a string")
	case p.Price < 0 || math.IsNaN(p.Price) || math.IsInf(p.Price, 0):
		return producterrors.NewValidation("Price is required and must be a non-negative number")
	case p.Category == "":
		return producterrors.NewValidation("Category is required and must be a string")
	}
	return nil
}

// toDto converts a store.Product to a ProductDto.
func toDto(product *store.Product) *ProductDto {
	return &ProductDto{
		ID:          product.ID,
		Name:        product.Name,
		Description: product.Description,
		Price:       product.Price,
		Category:    product.Category,
		InStock:     product.InStock,
	}
}

func toDtos(products []store.Product) []ProductDto {
	dtos := make([]ProductDto, len(products))
	for i := range products {
		dtos[i] = *toDto(&products[i])
	}
	return dtos
}
