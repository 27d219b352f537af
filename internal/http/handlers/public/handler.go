package public

import "github.com/shopfront/internal/provider"

// Handler 接口处理器入口
// 说明：前台与管理端共用同一处理器，管理端路由由 RBAC 中间件把关。
type Handler struct {
	*provider.Container
}

// New 创建处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
