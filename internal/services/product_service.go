package services

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"cafe_pos_backend/internal/models"
	"cafe_pos_backend/internal/repositories"
)

// ProductService defines the interface for product business logic.
type ProductService interface {
	CreateProduct(product *models.Product) (*models.Product, error)
	GetProducts(userID int64, filters models.ProductFilters) ([]models.Product, int, error)
	GetProductByID(userID, productID int64) (*models.Product, error)
	UpdateProduct(product *models.Product) (*models.Product, error)
	DeleteProduct(userID, productID int64) error
	GetLowStockProducts(userID int64) ([]models.Product, error)
	GetStockLevel(userID, productID int64) (*models.StockLevel, error)
}

type productService struct {
	productRepo repositories.ProductRepository
	db          *sql.DB
}

// NewProductService creates a new instance of ProductService.
func NewProductService(pr repositories.ProductRepository, db *sql.DB) ProductService {
	return &productService{productRepo: pr, db: db}
}

func (s *productService) CreateProduct(product *models.Product) (*models.Product, error) {
	if err := validateProduct(product); err != nil {
		return nil, err
	}
	if _, err := s.productRepo.CreateProduct(s.db, product); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, fmt.Errorf("%w: barcode already in use", ErrDuplicateBarcode)
		}
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	return product, nil
}

func (s *productService) GetProducts(userID int64, filters models.ProductFilters) ([]models.Product, int, error) {
	products, totalCount, err := s.productRepo.GetProducts(userID, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get products: %w", err)
	}
	return products, totalCount, nil
}

func (s *productService) GetProductByID(userID, productID int64) (*models.Product, error) {
	product, err := s.productRepo.GetProductByID(userID, productID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product by ID: %w", err)
	}
	return product, nil
}

func (s *productService) UpdateProduct(product *models.Product) (*models.Product, error) {
	if err := validateProduct(product); err != nil {
		return nil, err
	}
	if err := s.productRepo.UpdateProduct(s.db, product); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, fmt.Errorf("%w: barcode already in use", ErrDuplicateBarcode)
		}
		return nil, fmt.Errorf("failed to update product: %w", err)
	}
	return s.GetProductByID(product.UserID, product.ID)
}

func (s *productService) DeleteProduct(userID, productID int64) error {
	if err := s.productRepo.DeleteProduct(s.db, userID, productID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrProductNotFound
		}
		if errors.Is(err, repositories.ErrReferenced) {
			return fmt.Errorf("%w: product ID %d", ErrProductInUse, productID)
		}
		return fmt.Errorf("failed to delete product: %w", err)
	}
	return nil
}

func (s *productService) GetLowStockProducts(userID int64) ([]models.Product, error) {
	products, err := s.productRepo.GetLowStockProducts(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get low stock products: %w", err)
	}
	return products, nil
}

func (s *productService) GetStockLevel(userID, productID int64) (*models.StockLevel, error) {
	product, err := s.productRepo.GetProductByID(userID, productID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get stock level: %w", err)
	}
	level := &models.StockLevel{
		ProductID:     product.ID,
		Name:          product.Name,
		StockQuantity: product.StockQuantity,
		MinStock:      product.MinStock,
		Tracked:       product.Tracked(),
	}
	if product.Tracked() {
		level.Low = *product.StockQuantity <= product.MinStock
	}
	return level, nil
}

func validateProduct(product *models.Product) error {
	if strings.TrimSpace(product.Name) == "" {
		return fmt.Errorf("%w: product name is required", ErrValidation)
	}
	if product.Price < 0 {
		return fmt.Errorf("%w: price cannot be negative", ErrValidation)
	}
	if product.StockQuantity != nil && *product.StockQuantity < 0 {
		return fmt.Errorf("%w: stock quantity cannot be negative", ErrValidation)
	}
	if product.MinStock < 0 {
		return fmt.Errorf("%w: min stock cannot be negative", ErrValidation)
	}
	return nil
}
