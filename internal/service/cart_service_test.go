package service

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopfront/internal/models"
	"github.com/shopfront/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupCartServiceTest(t *testing.T) (*CartService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:cart_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.Product{},
		&models.Cart{},
		&models.CartItem{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db

	cartRepo := repository.NewCartRepository(db)
	productRepo := repository.NewProductRepository(db)
	return NewCartService(cartRepo, productRepo), db
}

func TestGetCartLazyCreates(t *testing.T) {
	svc, db := setupCartServiceTest(t)
	user := createOrderTestUser(t, db, "lazy_cart@example.com")

	view, err := svc.GetCart(user.ID)
	if err != nil {
		t.Fatalf("get cart failed: %v", err)
	}
	if view.ID == 0 {
		t.Fatalf("expected cart created")
	}
	if len(view.Items) != 0 {
		t.Fatalf("expected empty cart, got %d items", len(view.Items))
	}
	if view.Total.String() != "0.00" {
		t.Fatalf("expected total 0.00, got %s", view.Total.String())
	}

	again, err := svc.GetCart(user.ID)
	if err != nil {
		t.Fatalf("get cart again failed: %v", err)
	}
	if again.ID != view.ID {
		t.Fatalf("expected same cart, got %d and %d", view.ID, again.ID)
	}
}

func TestAddItemAccumulatesAndRefreshesPrice(t *testing.T) {
	svc, db := setupCartServiceTest(t)
	user := createOrderTestUser(t, db, "cart_add@example.com")
	product := createOrderTestProduct(t, db, "SKU-CART-ADD", "10.00", 100)

	if _, err := svc.AddItem(user.ID, product.ID, 2); err != nil {
		t.Fatalf("first add failed: %v", err)
	}

	if err := db.Model(&models.Product{}).Where("id = ?", product.ID).
		Update("price", "12.00").Error; err != nil {
		t.Fatalf("update price failed: %v", err)
	}

	view, err := svc.AddItem(user.ID, product.ID, 3)
	if err != nil {
		t.Fatalf("second add failed: %v", err)
	}
	if len(view.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(view.Items))
	}
	if view.Items[0].Quantity != 5 {
		t.Fatalf("expected quantity 5, got %d", view.Items[0].Quantity)
	}
	if view.Items[0].UnitPrice.String() != "12.00" {
		t.Fatalf("expected refreshed price 12.00, got %s", view.Items[0].UnitPrice.String())
	}
	if view.Total.String() != "60.00" {
		t.Fatalf("expected total 60.00, got %s", view.Total.String())
	}
}

func TestAddItemRejectsInactiveProduct(t *testing.T) {
	svc, db := setupCartServiceTest(t)
	user := createOrderTestUser(t, db, "cart_inactive@example.com")
	product := createOrderTestProduct(t, db, "SKU-CART-INACTIVE", "10.00", 5)

	if err := db.Model(&models.Product{}).Where("id = ?", product.ID).
		Update("is_active", false).Error; err != nil {
		t.Fatalf("deactivate product failed: %v", err)
	}

	if _, err := svc.AddItem(user.ID, product.ID, 1); !errors.Is(err, ErrProductNotAvailable) {
		t.Fatalf("expected ErrProductNotAvailable, got %v", err)
	}
}

func TestAddItemRejectsNonPositiveQuantity(t *testing.T) {
	svc, db := setupCartServiceTest(t)
	user := createOrderTestUser(t, db, "cart_qty@example.com")
	product := createOrderTestProduct(t, db, "SKU-CART-QTY", "10.00", 5)

	if _, err := svc.AddItem(user.ID, product.ID, 0); !errors.Is(err, ErrInvalidParam) {
		t.Fatalf("expected ErrInvalidParam, got %v", err)
	}
}

func TestUpdateItemQuantity(t *testing.T) {
	svc, db := setupCartServiceTest(t)
	user := createOrderTestUser(t, db, "cart_update@example.com")
	product := createOrderTestProduct(t, db, "SKU-CART-UPDATE", "4.00", 10)

	view, err := svc.AddItem(user.ID, product.ID, 1)
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}

	view, err = svc.UpdateItemQuantity(user.ID, view.Items[0].ID, 4)
	if err != nil {
		t.Fatalf("update quantity failed: %v", err)
	}
	if view.Items[0].Quantity != 4 {
		t.Fatalf("expected quantity 4, got %d", view.Items[0].Quantity)
	}
	if view.Total.String() != "16.00" {
		t.Fatalf("expected total 16.00, got %s", view.Total.String())
	}

	if _, err := svc.UpdateItemQuantity(user.ID, 99999, 2); !errors.Is(err, ErrCartItemNotFound) {
		t.Fatalf("expected ErrCartItemNotFound, got %v", err)
	}
}

func TestRemoveItemAndClear(t *testing.T) {
	svc, db := setupCartServiceTest(t)
	user := createOrderTestUser(t, db, "cart_remove@example.com")
	first := createOrderTestProduct(t, db, "SKU-CART-R1", "2.00", 10)
	second := createOrderTestProduct(t, db, "SKU-CART-R2", "3.00", 10)

	view, err := svc.AddItem(user.ID, first.ID, 1)
	if err != nil {
		t.Fatalf("add first failed: %v", err)
	}
	if _, err := svc.AddItem(user.ID, second.ID, 1); err != nil {
		t.Fatalf("add second failed: %v", err)
	}

	view, err = svc.RemoveItem(user.ID, view.Items[0].ID)
	if err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	if len(view.Items) != 1 {
		t.Fatalf("expected 1 item left, got %d", len(view.Items))
	}

	if _, err := svc.RemoveItem(user.ID, 99999); !errors.Is(err, ErrCartItemNotFound) {
		t.Fatalf("expected ErrCartItemNotFound, got %v", err)
	}

	view, err = svc.Clear(user.ID)
	if err != nil {
		t.Fatalf("clear failed: %v", err)
	}
	if len(view.Items) != 0 {
		t.Fatalf("expected empty cart, got %d items", len(view.Items))
	}
}
