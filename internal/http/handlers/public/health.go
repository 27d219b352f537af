package public

import (
	"github.com/shopfront/internal/cache"
	"github.com/shopfront/internal/http/response"

	"github.com/gin-gonic/gin"
)

// Health 健康检查
func (h *Handler) Health(c *gin.Context) {
	response.Success(c, gin.H{
		"status": "ok",
		"redis":  cache.Enabled(),
		"queue":  h.QueueClient.Enabled(),
	})
}
