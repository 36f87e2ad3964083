package services

import (
	"context"
	"errors"
	"strings"

	"hystore/internal/models"
	"hystore/internal/repositories"
)

// ProductService handles business logic related to the HyCard catalog.
type ProductService struct {
	repo repositories.ProductRepository
}

// NewProductService creates a new ProductService.
func NewProductService(repo repositories.ProductRepository) *ProductService {
	return &ProductService{
		repo: repo,
	}
}

// GetAllProducts retrieves all products.
func (s *ProductService) GetAllProducts(ctx context.Context) ([]models.Product, error) {
	products, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, persistenceError("list products", err)
	}
	return products, nil
}

// GetProductByID retrieves a single product by its ID.
func (s *ProductService) GetProductByID(ctx context.Context, id string) (*models.Product, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapProductError("get product", err)
	}
	return product, nil
}

// CreateProduct adds a product to the catalog.
func (s *ProductService) CreateProduct(ctx context.Context, product *models.Product) error {
	if product.Price.IsNegative() {
		return ErrInvalidPrice
	}
	product.Name = strings.TrimSpace(product.Name)
	if err := s.repo.Create(ctx, product); err != nil {
		return persistenceError("create product", err)
	}
	return nil
}

// UpdateProduct updates an existing product.
func (s *ProductService) UpdateProduct(ctx context.Context, product *models.Product) error {
	if product.Price.IsNegative() {
		return ErrInvalidPrice
	}
	product.Name = strings.TrimSpace(product.Name)
	if err := s.repo.Update(ctx, product); err != nil {
		return mapProductError("update product", err)
	}
	return nil
}

// DeleteProduct deletes a product by its ID.
func (s *ProductService) DeleteProduct(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return mapProductError("delete product", err)
	}
	return nil
}

func mapProductError(op string, err error) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return ErrProductNotFound
	}
	return persistenceError(op, err)
}
