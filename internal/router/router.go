package router

import (
	"fmt"
	"strings"

	"github.com/shopfront/internal/cache"
	"github.com/shopfront/internal/config"
	"github.com/shopfront/internal/constants"
	publichandlers "github.com/shopfront/internal/http/handlers/public"
	"github.com/shopfront/internal/logger"
	"github.com/shopfront/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	handler := publichandlers.New(c)
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = constants.RedisPrefixDefault
	}
	redisClient := cache.Client()
	loginRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:login", redisPrefix),
		WindowSeconds: cfg.Security.LoginRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.LoginRateLimit.MaxAttempts,
		BlockSeconds:  cfg.Security.LoginRateLimit.BlockSeconds,
		Message:       "too many login attempts",
	}

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	r.GET("/health", handler.Health)

	// API 路由组
	apiV1 := r.Group("/api/v1")
	{
		// 公开接口
		public := apiV1.Group("/public")
		{
			public.GET("/products", handler.GetProducts)
			public.GET("/products/:id", handler.GetProduct)
			public.GET("/captcha/image", handler.GetImageCaptcha)
		}

		// 用户认证接口
		auth := apiV1.Group("/auth")
		{
			auth.POST("/register", handler.UserRegister)
			auth.POST("/login", RateLimitMiddleware(redisClient, loginRule, KeyByIPAndJSONField("email")), handler.UserLogin)
		}

		// 支付网关回调（网关侧签名校验，不走用户鉴权）
		apiV1.POST("/payments/webhook/stripe", handler.StripeWebhook)

		// 用户接口（需鉴权）
		user := apiV1.Group("")
		user.Use(UserJWTAuthMiddleware(cfg.JWT.SecretKey, c.UserRepo), RBACMiddleware(c.AuthzService))
		{
			user.GET("/auth/me", handler.GetCurrentUser)
			user.PUT("/auth/me", handler.UpdateCurrentUser)
			user.GET("/cart", handler.GetCart)
			user.DELETE("/cart", handler.ClearCart)
			user.POST("/cart/items", handler.AddCartItem)
			user.PUT("/cart/items/:id", handler.UpdateCartItem)
			user.DELETE("/cart/items/:id", handler.DeleteCartItem)
			user.POST("/orders", handler.CreateOrder)
			user.GET("/orders", handler.ListOrders)
			user.GET("/orders/:id", handler.GetOrder)
			user.GET("/wishlist", handler.GetWishlist)
			user.POST("/wishlist", handler.AddWishlistItem)
			user.DELETE("/wishlist/:product_id", handler.DeleteWishlistItem)
		}

		// 管理员接口（RBAC 按角色放行 /admin/*）
		admin := apiV1.Group("/admin")
		admin.Use(UserJWTAuthMiddleware(cfg.JWT.SecretKey, c.UserRepo), RBACMiddleware(c.AuthzService))
		{
			admin.GET("/products", handler.AdminListProducts)
			admin.POST("/products", handler.AdminCreateProduct)
			admin.GET("/products/:id", handler.AdminGetProduct)
			admin.PUT("/products/:id", handler.AdminUpdateProduct)
			admin.DELETE("/products/:id", handler.AdminDeactivateProduct)
			admin.GET("/orders", handler.AdminListOrders)
			admin.PUT("/orders/:id/status", handler.AdminUpdateOrderStatus)
			admin.GET("/analytics/sales", handler.GetSalesReport)
			admin.GET("/analytics/top-products", handler.GetTopProducts)
		}
	}

	return r
}
