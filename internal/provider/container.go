package provider

import (
	"github.com/shopfront/internal/authz"
	"github.com/shopfront/internal/cache"
	"github.com/shopfront/internal/config"
	"github.com/shopfront/internal/logger"
	"github.com/shopfront/internal/models"
	"github.com/shopfront/internal/queue"
	"github.com/shopfront/internal/repository"
	"github.com/shopfront/internal/service"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client

	// Repositories
	UserRepo      repository.UserRepository
	ProductRepo   repository.ProductRepository
	CartRepo      repository.CartRepository
	OrderRepo     repository.OrderRepository
	WishlistRepo  repository.WishlistRepository
	AnalyticsRepo repository.AnalyticsRepository

	// Services
	AuthzService     *authz.Service
	AuthService      *service.AuthService
	CaptchaService   *service.CaptchaService
	EmailService     *service.EmailService
	ProductService   *service.ProductService
	CartService      *service.CartService
	PaymentService   *service.PaymentService
	OrderService     *service.OrderService
	WishlistService  *service.WishlistService
	AnalyticsService *service.AnalyticsService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端
	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
	}

	// 1. 初始化 Repositories
	c.initRepositories()

	// 2. 初始化 Services
	c.initServices()

	return c
}

func (c *Container) initRepositories() {
	db := models.DB
	c.UserRepo = repository.NewUserRepository(db)
	c.ProductRepo = repository.NewProductRepository(db)
	c.CartRepo = repository.NewCartRepository(db)
	c.OrderRepo = repository.NewOrderRepository(db)
	c.WishlistRepo = repository.NewWishlistRepository(db)
	c.AnalyticsRepo = repository.NewAnalyticsRepository(db)
}

func (c *Container) initServices() {
	authzService, err := authz.NewService(models.DB)
	if err != nil {
		logger.Errorw("provider_init_authz_failed", "error", err)
		panic(err)
	}
	c.AuthzService = authzService
	if err := c.AuthzService.BootstrapBuiltinRoles(); err != nil {
		logger.Errorw("provider_bootstrap_builtin_roles_failed", "error", err)
		panic(err)
	}

	c.EmailService = service.NewEmailService(c.Config.Email)
	c.CaptchaService = service.NewCaptchaService(c.Config.Captcha)
	c.AuthService = service.NewAuthService(c.Config, c.UserRepo)
	c.ProductService = service.NewProductService(c.ProductRepo)
	c.CartService = service.NewCartService(c.CartRepo, c.ProductRepo)
	c.PaymentService = service.NewPaymentService(c.Config.Payment, c.OrderRepo, c.QueueClient)
	c.OrderService = service.NewOrderService(
		c.OrderRepo,
		c.ProductRepo,
		c.CartRepo,
		c.UserRepo,
		c.QueueClient,
		c.PaymentService,
		c.EmailService,
		c.Config.Payment.Currency,
	)
	// 支付回调需要触发库存扣减，装配完成后回填
	c.PaymentService.SetReconciler(c.OrderService)
	c.WishlistService = service.NewWishlistService(c.WishlistRepo, c.ProductRepo)
	c.AnalyticsService = service.NewAnalyticsService(c.AnalyticsRepo)
}
