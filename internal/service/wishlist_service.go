package service

import (
	"fmt"

	"github.com/shopfront/internal/models"
	"github.com/shopfront/internal/repository"
)

// WishlistService 心愿单服务
type WishlistService struct {
	wishlistRepo repository.WishlistRepository
	productRepo  repository.ProductRepository
}

// NewWishlistService 创建心愿单服务
func NewWishlistService(wishlistRepo repository.WishlistRepository, productRepo repository.ProductRepository) *WishlistService {
	return &WishlistService{
		wishlistRepo: wishlistRepo,
		productRepo:  productRepo,
	}
}

// List 获取用户心愿单
func (s *WishlistService) List(userID uint) ([]models.WishlistItem, error) {
	return s.wishlistRepo.ListByUser(userID)
}

// Add 添加心愿单项
func (s *WishlistService) Add(userID, productID uint) (*models.WishlistItem, error) {
	product, err := s.productRepo.GetActiveByID(productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, fmt.Errorf("%w: product %d", ErrProductNotAvailable, productID)
	}

	exist, err := s.wishlistRepo.Get(userID, productID)
	if err != nil {
		return nil, err
	}
	if exist != nil {
		return nil, ErrWishlistItemExists
	}

	item := &models.WishlistItem{
		UserID:    userID,
		ProductID: productID,
	}
	if err := s.wishlistRepo.Create(item); err != nil {
		return nil, err
	}
	item.Product = product
	return item, nil
}

// Remove 移除心愿单项
func (s *WishlistService) Remove(userID, productID uint) error {
	affected, err := s.wishlistRepo.Delete(userID, productID)
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrWishlistItemNotFound
	}
	return nil
}
