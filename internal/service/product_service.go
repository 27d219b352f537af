package service

import (
	"fmt"
	"strings"

	"github.com/shopfront/internal/logger"
	"github.com/shopfront/internal/models"
	"github.com/shopfront/internal/repository"
)

// ProductService 商品服务
type ProductService struct {
	productRepo repository.ProductRepository
}

// NewProductService 创建商品服务
func NewProductService(productRepo repository.ProductRepository) *ProductService {
	return &ProductService{productRepo: productRepo}
}

// List 商品列表（公开接口仅返回上架商品）
func (s *ProductService) List(filter repository.ProductListFilter) ([]models.Product, int64, error) {
	return s.productRepo.List(filter)
}

// Get 获取商品详情
func (s *ProductService) Get(id uint) (*models.Product, error) {
	product, err := s.productRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	return product, nil
}

// CreateProductInput 创建商品输入
type CreateProductInput struct {
	Name        string
	Description string
	SKU         string
	Price       models.Money
	Stock       int
	ImageURL    string
	IsActive    *bool
}

// Create 创建商品（管理端）
func (s *ProductService) Create(input CreateProductInput) (*models.Product, error) {
	name := strings.TrimSpace(input.Name)
	sku := strings.TrimSpace(input.SKU)
	if name == "" || sku == "" {
		return nil, fmt.Errorf("%w: name and sku are required", ErrInvalidParam)
	}
	if input.Price.Decimal.IsNegative() || input.Stock < 0 {
		return nil, fmt.Errorf("%w: price and stock must be non-negative", ErrInvalidParam)
	}
	count, err := s.productRepo.CountBySKU(sku, nil)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrProductSKUExists
	}

	product := &models.Product{
		Name:        name,
		Description: input.Description,
		SKU:         sku,
		Price:       input.Price,
		Stock:       input.Stock,
		ImageURL:    strings.TrimSpace(input.ImageURL),
		IsActive:    true,
	}
	if input.IsActive != nil {
		product.IsActive = *input.IsActive
	}
	if err := s.productRepo.Create(product); err != nil {
		return nil, err
	}
	logger.Infow("product_created", "product_id", product.ID, "sku", product.SKU)
	return product, nil
}

// UpdateProductInput 更新商品输入（nil 字段不变更）
type UpdateProductInput struct {
	Name        *string
	Description *string
	SKU         *string
	Price       *models.Money
	Stock       *int
	ImageURL    *string
	IsActive    *bool
}

// Update 更新商品（管理端）
func (s *ProductService) Update(id uint, input UpdateProductInput) (*models.Product, error) {
	product, err := s.productRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: name cannot be empty", ErrInvalidParam)
		}
		product.Name = name
	}
	if input.Description != nil {
		product.Description = *input.Description
	}
	if input.SKU != nil {
		sku := strings.TrimSpace(*input.SKU)
		if sku == "" {
			return nil, fmt.Errorf("%w: sku cannot be empty", ErrInvalidParam)
		}
		if sku != product.SKU {
			count, err := s.productRepo.CountBySKU(sku, &product.ID)
			if err != nil {
				return nil, err
			}
			if count > 0 {
				return nil, ErrProductSKUExists
			}
			product.SKU = sku
		}
	}
	if input.Price != nil {
		if input.Price.Decimal.IsNegative() {
			return nil, fmt.Errorf("%w: price must be non-negative", ErrInvalidParam)
		}
		product.Price = *input.Price
	}
	if input.Stock != nil {
		if *input.Stock < 0 {
			return nil, fmt.Errorf("%w: stock must be non-negative", ErrInvalidParam)
		}
		product.Stock = *input.Stock
	}
	if input.ImageURL != nil {
		product.ImageURL = strings.TrimSpace(*input.ImageURL)
	}
	if input.IsActive != nil {
		product.IsActive = *input.IsActive
	}

	if err := s.productRepo.Update(product); err != nil {
		return nil, err
	}
	logger.Infow("product_updated", "product_id", product.ID, "sku", product.SKU)
	return product, nil
}

// Deactivate 下架商品（管理端）
//
// 历史订单项持有名称与价格快照，下架不影响已有订单。
func (s *ProductService) Deactivate(id uint) error {
	product, err := s.productRepo.GetByID(id)
	if err != nil {
		return err
	}
	if product == nil {
		return ErrProductNotFound
	}
	if !product.IsActive {
		return nil
	}
	product.IsActive = false
	if err := s.productRepo.Update(product); err != nil {
		return err
	}
	logger.Infow("product_deactivated", "product_id", product.ID, "sku", product.SKU)
	return nil
}
