package public

import (
	"strconv"

	"github.com/shopfront/internal/http/response"

	"github.com/gin-gonic/gin"
)

// WishlistAddRequest 加入心愿单请求
type WishlistAddRequest struct {
	ProductID uint `json:"product_id" binding:"required"`
}

// GetWishlist 心愿单列表
func (h *Handler) GetWishlist(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	items, err := h.WishlistService.List(uid)
	if err != nil {
		respondError(c, response.CodeInternal, "wishlist fetch failed", err)
		return
	}
	response.Success(c, gin.H{"items": items})
}

// AddWishlistItem 加入心愿单
func (h *Handler) AddWishlistItem(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	var req WishlistAddRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	item, err := h.WishlistService.Add(uid, req.ProductID)
	if err != nil {
		respondWithMappedError(c, err, wishlistErrorRules, response.CodeInternal, "wishlist update failed")
		return
	}
	response.Success(c, item)
}

// DeleteWishlistItem 移出心愿单
func (h *Handler) DeleteWishlistItem(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	rawID := c.Param("product_id")
	productID, err := strconv.ParseUint(rawID, 10, 64)
	if err != nil || productID == 0 {
		respondError(c, response.CodeBadRequest, "product id invalid", nil)
		return
	}
	if err := h.WishlistService.Remove(uid, uint(productID)); err != nil {
		respondWithMappedError(c, err, wishlistErrorRules, response.CodeInternal, "wishlist update failed")
		return
	}
	response.Success(c, gin.H{"deleted": true})
}
