package public

import (
	"errors"
	"strconv"
	"strings"

	handlershared "github.com/shopfront/internal/http/handlers/shared"
	"github.com/shopfront/internal/http/response"
	"github.com/shopfront/internal/models"
	"github.com/shopfront/internal/repository"
	"github.com/shopfront/internal/service"

	"github.com/gin-gonic/gin"
)

// ProductCreateRequest 创建商品请求
type ProductCreateRequest struct {
	Name        string       `json:"name" binding:"required"`
	Description string       `json:"description"`
	SKU         string       `json:"sku" binding:"required"`
	Price       models.Money `json:"price"`
	Stock       int          `json:"stock"`
	ImageURL    string       `json:"image_url"`
	IsActive    *bool        `json:"is_active"`
}

// ProductUpdateRequest 更新商品请求
type ProductUpdateRequest struct {
	Name        *string       `json:"name"`
	Description *string       `json:"description"`
	SKU         *string       `json:"sku"`
	Price       *models.Money `json:"price"`
	Stock       *int          `json:"stock"`
	ImageURL    *string       `json:"image_url"`
	IsActive    *bool         `json:"is_active"`
}

func parseProductID(c *gin.Context) (uint, bool) {
	rawID := c.Param("id")
	id, err := strconv.ParseUint(rawID, 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "product id invalid", nil)
		return 0, false
	}
	return uint(id), true
}

func (h *Handler) listProducts(c *gin.Context, onlyActive bool) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = handlershared.NormalizePagination(page, pageSize)

	products, total, err := h.ProductService.List(repository.ProductListFilter{
		Page:       page,
		PageSize:   pageSize,
		Search:     strings.TrimSpace(c.Query("search")),
		OnlyActive: onlyActive,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "product list failed", err)
		return
	}

	totalPage := (total + int64(pageSize) - 1) / int64(pageSize)
	response.SuccessWithPage(c, products, response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: totalPage,
	})
}

// GetProducts 商品列表（仅上架商品）
func (h *Handler) GetProducts(c *gin.Context) {
	h.listProducts(c, true)
}

// GetProduct 商品详情
func (h *Handler) GetProduct(c *gin.Context) {
	id, ok := parseProductID(c)
	if !ok {
		return
	}
	product, err := h.ProductService.Get(id)
	if err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			respondError(c, response.CodeNotFound, "product not found", nil)
			return
		}
		respondError(c, response.CodeInternal, "product fetch failed", err)
		return
	}
	// 下架商品对前台隐藏，管理端走 /admin/products
	if !product.IsActive {
		respondError(c, response.CodeNotFound, "product not found", nil)
		return
	}
	response.Success(c, product)
}

// AdminListProducts 商品列表（含下架商品）
func (h *Handler) AdminListProducts(c *gin.Context) {
	h.listProducts(c, false)
}

// AdminGetProduct 商品详情（管理端）
func (h *Handler) AdminGetProduct(c *gin.Context) {
	id, ok := parseProductID(c)
	if !ok {
		return
	}
	product, err := h.ProductService.Get(id)
	if err != nil {
		respondWithMappedError(c, err, productManageErrorRules, response.CodeInternal, "product fetch failed")
		return
	}
	response.Success(c, product)
}

// AdminCreateProduct 创建商品
func (h *Handler) AdminCreateProduct(c *gin.Context) {
	var req ProductCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	product, err := h.ProductService.Create(service.CreateProductInput{
		Name:        req.Name,
		Description: req.Description,
		SKU:         req.SKU,
		Price:       req.Price,
		Stock:       req.Stock,
		ImageURL:    req.ImageURL,
		IsActive:    req.IsActive,
	})
	if err != nil {
		respondWithMappedError(c, err, productManageErrorRules, response.CodeInternal, "product create failed")
		return
	}
	response.Success(c, product)
}

// AdminUpdateProduct 更新商品
func (h *Handler) AdminUpdateProduct(c *gin.Context) {
	id, ok := parseProductID(c)
	if !ok {
		return
	}
	var req ProductUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	product, err := h.ProductService.Update(id, service.UpdateProductInput{
		Name:        req.Name,
		Description: req.Description,
		SKU:         req.SKU,
		Price:       req.Price,
		Stock:       req.Stock,
		ImageURL:    req.ImageURL,
		IsActive:    req.IsActive,
	})
	if err != nil {
		respondWithMappedError(c, err, productManageErrorRules, response.CodeInternal, "product update failed")
		return
	}
	response.Success(c, product)
}

// AdminDeactivateProduct 下架商品
func (h *Handler) AdminDeactivateProduct(c *gin.Context) {
	id, ok := parseProductID(c)
	if !ok {
		return
	}
	if err := h.ProductService.Deactivate(id); err != nil {
		respondWithMappedError(c, err, productManageErrorRules, response.CodeInternal, "product deactivate failed")
		return
	}
	response.Success(c, gin.H{"deactivated": true})
}
