package public

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/shopfront/internal/http/response"
	"github.com/shopfront/internal/service"

	"github.com/gin-gonic/gin"
)

func parseAnalyticsRange(c *gin.Context) (time.Time, time.Time, bool) {
	var startAt, endAt time.Time
	if raw := strings.TrimSpace(c.Query("start_at")); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			respondError(c, response.CodeBadRequest, "start_at invalid", nil)
			return startAt, endAt, false
		}
		startAt = parsed
	}
	if raw := strings.TrimSpace(c.Query("end_at")); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			respondError(c, response.CodeBadRequest, "end_at invalid", nil)
			return startAt, endAt, false
		}
		endAt = parsed
	}
	return startAt, endAt, true
}

// GetSalesReport 销售统计报表（管理端）
func (h *Handler) GetSalesReport(c *gin.Context) {
	startAt, endAt, ok := parseAnalyticsRange(c)
	if !ok {
		return
	}
	report, err := h.AnalyticsService.GetSalesReport(startAt, endAt, c.Query("period"))
	if err != nil {
		if errors.Is(err, service.ErrInvalidParam) {
			respondError(c, response.CodeBadRequest, "report query invalid", nil)
			return
		}
		respondError(c, response.CodeInternal, "report build failed", err)
		return
	}
	response.Success(c, report)
}

// GetTopProducts 商品销量排行（管理端）
func (h *Handler) GetTopProducts(c *gin.Context) {
	startAt, endAt, ok := parseAnalyticsRange(c)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	items, err := h.AnalyticsService.GetTopProducts(startAt, endAt, limit)
	if err != nil {
		if errors.Is(err, service.ErrInvalidParam) {
			respondError(c, response.CodeBadRequest, "report query invalid", nil)
			return
		}
		respondError(c, response.CodeInternal, "report build failed", err)
		return
	}
	response.Success(c, gin.H{"items": items})
}
