package service

import (
	"fmt"

	"github.com/shopfront/internal/models"
	"github.com/shopfront/internal/repository"

	"github.com/shopspring/decimal"
)

// CartService 购物车服务
type CartService struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
}

// NewCartService 创建购物车服务
func NewCartService(cartRepo repository.CartRepository, productRepo repository.ProductRepository) *CartService {
	return &CartService{
		cartRepo:    cartRepo,
		productRepo: productRepo,
	}
}

// CartItemView 购物车项视图
type CartItemView struct {
	ID        uint            `json:"id"`
	ProductID uint            `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice models.Money    `json:"unit_price"`
	Subtotal  models.Money    `json:"subtotal"`
	Product   *models.Product `json:"product,omitempty"`
}

// CartView 购物车视图
//
// Total 为快照价小计之和，实时计算不落库；下单金额以当前价为准。
type CartView struct {
	ID    uint           `json:"id"`
	Items []CartItemView `json:"items"`
	Total models.Money   `json:"total"`
}

// GetCart 获取购物车（不存在则懒创建）
func (s *CartService) GetCart(userID uint) (*CartView, error) {
	cart, err := s.cartRepo.GetOrCreateByUser(userID)
	if err != nil {
		return nil, err
	}
	return s.buildView(cart)
}

// AddItem 加入购物车
//
// 重复加入同一商品时累加数量并刷新快照单价。
func (s *CartService) AddItem(userID, productID uint, quantity int) (*CartView, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive", ErrInvalidParam)
	}
	product, err := s.productRepo.GetActiveByID(productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, fmt.Errorf("%w: product %d", ErrProductNotAvailable, productID)
	}

	cart, err := s.cartRepo.GetOrCreateByUser(userID)
	if err != nil {
		return nil, err
	}

	item, err := s.cartRepo.GetItem(cart.ID, productID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		item = &models.CartItem{
			CartID:    cart.ID,
			ProductID: productID,
			Quantity:  quantity,
			UnitPrice: product.Price,
		}
	} else {
		item.Quantity += quantity
		item.UnitPrice = product.Price
	}
	if err := s.cartRepo.SaveItem(item); err != nil {
		return nil, err
	}
	return s.buildView(cart)
}

// UpdateItemQuantity 修改购物车项数量
func (s *CartService) UpdateItemQuantity(userID, itemID uint, quantity int) (*CartView, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive", ErrInvalidParam)
	}
	cart, err := s.cartRepo.GetOrCreateByUser(userID)
	if err != nil {
		return nil, err
	}
	item, err := s.cartRepo.GetItemByID(cart.ID, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, ErrCartItemNotFound
	}
	item.Quantity = quantity
	if err := s.cartRepo.SaveItem(item); err != nil {
		return nil, err
	}
	return s.buildView(cart)
}

// RemoveItem 移除购物车项
func (s *CartService) RemoveItem(userID, itemID uint) (*CartView, error) {
	cart, err := s.cartRepo.GetOrCreateByUser(userID)
	if err != nil {
		return nil, err
	}
	item, err := s.cartRepo.GetItemByID(cart.ID, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, ErrCartItemNotFound
	}
	if err := s.cartRepo.DeleteItem(cart.ID, itemID); err != nil {
		return nil, err
	}
	return s.buildView(cart)
}

// Clear 清空购物车
func (s *CartService) Clear(userID uint) (*CartView, error) {
	cart, err := s.cartRepo.GetOrCreateByUser(userID)
	if err != nil {
		return nil, err
	}
	if err := s.cartRepo.ClearItems(cart.ID); err != nil {
		return nil, err
	}
	return s.buildView(cart)
}

func (s *CartService) buildView(cart *models.Cart) (*CartView, error) {
	items, err := s.cartRepo.ListItems(cart.ID)
	if err != nil {
		return nil, err
	}

	view := &CartView{
		ID:    cart.ID,
		Items: make([]CartItemView, 0, len(items)),
	}
	total := decimal.Zero
	for _, item := range items {
		subtotal := item.UnitPrice.Decimal.Mul(decimal.NewFromInt(int64(item.Quantity)))
		total = total.Add(subtotal)
		view.Items = append(view.Items, CartItemView{
			ID:        item.ID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			Subtotal:  models.NewMoneyFromDecimal(subtotal),
			Product:   item.Product,
		})
	}
	view.Total = models.NewMoneyFromDecimal(total)
	return view, nil
}
