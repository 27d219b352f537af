package public

import (
	"errors"
	"strconv"
	"strings"

	handlershared "github.com/shopfront/internal/http/handlers/shared"
	"github.com/shopfront/internal/http/response"
	"github.com/shopfront/internal/repository"
	"github.com/shopfront/internal/service"

	"github.com/gin-gonic/gin"
)

// OrderCreateRequest 下单请求
type OrderCreateRequest struct {
	ShippingAddress string `json:"shipping_address"`
}

// OrderStatusUpdateRequest 订单状态变更请求
type OrderStatusUpdateRequest struct {
	Status string `json:"status" binding:"required"`
}

func parseOrderID(c *gin.Context) (uint, bool) {
	rawID := c.Param("id")
	id, err := strconv.ParseUint(rawID, 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "order id invalid", nil)
		return 0, false
	}
	return uint(id), true
}

func parseOrderListFilter(c *gin.Context) repository.OrderListFilter {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = handlershared.NormalizePagination(page, pageSize)
	return repository.OrderListFilter{
		Page:     page,
		PageSize: pageSize,
		Status:   strings.TrimSpace(c.Query("status")),
		OrderNo:  strings.TrimSpace(c.Query("order_no")),
	}
}

// CreateOrder 从购物车结算下单
func (h *Handler) CreateOrder(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	var req OrderCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	result, err := h.OrderService.CreateOrder(c.Request.Context(), service.CreateOrderInput{
		UserID:          uid,
		ShippingAddress: req.ShippingAddress,
	})
	if err != nil {
		respondWithMappedError(c, err, orderCreateErrorRules, response.CodeInternal, "order create failed")
		return
	}

	payload := gin.H{"order": result.Order}
	if result.ClientSecret != "" {
		payload["client_secret"] = result.ClientSecret
	}
	response.Success(c, payload)
}

// ListOrders 当前用户订单列表
func (h *Handler) ListOrders(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	filter := parseOrderListFilter(c)
	filter.UserID = uid

	orders, total, err := h.OrderService.ListOrders(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "order list failed", err)
		return
	}
	totalPage := (total + int64(filter.PageSize) - 1) / int64(filter.PageSize)
	response.SuccessWithPage(c, orders, response.Pagination{
		Page:      filter.Page,
		PageSize:  filter.PageSize,
		Total:     total,
		TotalPage: totalPage,
	})
}

// GetOrder 订单详情（仅限本人订单）
func (h *Handler) GetOrder(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	orderID, ok := parseOrderID(c)
	if !ok {
		return
	}
	order, err := h.OrderService.GetOrder(uid, orderID)
	if err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			respondError(c, response.CodeNotFound, "order not found", nil)
			return
		}
		respondError(c, response.CodeInternal, "order fetch failed", err)
		return
	}
	response.Success(c, order)
}

// AdminListOrders 订单列表（管理端）
func (h *Handler) AdminListOrders(c *gin.Context) {
	filter := parseOrderListFilter(c)
	if rawUserID := strings.TrimSpace(c.Query("user_id")); rawUserID != "" {
		if userID, err := strconv.ParseUint(rawUserID, 10, 64); err == nil {
			filter.UserID = uint(userID)
		}
	}

	orders, total, err := h.OrderService.ListOrders(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "order list failed", err)
		return
	}
	totalPage := (total + int64(filter.PageSize) - 1) / int64(filter.PageSize)
	response.SuccessWithPage(c, orders, response.Pagination{
		Page:      filter.Page,
		PageSize:  filter.PageSize,
		Total:     total,
		TotalPage: totalPage,
	})
}

// AdminUpdateOrderStatus 订单状态流转（管理端）
func (h *Handler) AdminUpdateOrderStatus(c *gin.Context) {
	orderID, ok := parseOrderID(c)
	if !ok {
		return
	}
	var req OrderStatusUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	order, err := h.OrderService.UpdateStatus(orderID, req.Status)
	if err != nil {
		respondWithMappedError(c, err, orderStatusErrorRules, response.CodeInternal, "order update failed")
		return
	}
	requestLog(c).Infow("order_status_updated_by_admin", "order_id", order.ID, "status", order.Status)
	response.Success(c, order)
}
