package provider

import (
	"time"

	"github.com/kedai-next/internal/cache"
	"github.com/kedai-next/internal/cart"
	"github.com/kedai-next/internal/config"
	"github.com/kedai-next/internal/geocode"
	"github.com/kedai-next/internal/logger"
	"github.com/kedai-next/internal/models"
	"github.com/kedai-next/internal/queue"
	"github.com/kedai-next/internal/realtime"
	"github.com/kedai-next/internal/repository"
	"github.com/kedai-next/internal/service"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client

	// Realtime
	Hub       *realtime.Hub
	Bridge    *realtime.RedisBridge
	Publisher realtime.Publisher

	// Repositories
	AdminRepo      repository.AdminRepository
	OrderRepo      repository.OrderRepository
	ProductRepo    repository.ProductRepository
	SettingRepo    repository.SettingRepository
	AuditEventRepo repository.AuditEventRepository

	// Services
	AuditService       *service.AuditService
	StoreConfigService *service.StoreConfigService
	AuthService        *service.AuthService
	ProductService     *service.ProductService
	CartService        *service.CartService
	OrderService       *service.OrderService
	PaymentService     *service.PaymentService
	AssistedService    *service.AssistedService
	CheckoutService    *service.CheckoutService
	GeocodeService     *service.GeocodeService
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

	// 1. 初始化实时推送
	c.initRealtime()

	// 2. 初始化 Repositories
	c.initRepositories()

	// 3. 初始化 Services
	c.initServices()

	return c
}

func (c *Container) initRealtime() {
	c.Hub = realtime.NewHub(c.Config.Realtime.BufferSize)
	c.Publisher = c.Hub
	if cache.Enabled() {
		channel := cache.BuildKey(c.Config.Realtime.Channel)
		c.Bridge = realtime.NewRedisBridge(cache.Client(), channel, c.Hub)
		c.Publisher = c.Bridge
		return
	}
	logger.Infow("provider_realtime_local_only", "reason", "redis_disabled")
}

func (c *Container) initRepositories() {
	db := models.DB
	c.AdminRepo = repository.NewAdminRepository(db)
	c.OrderRepo = repository.NewOrderRepository(db)
	c.ProductRepo = repository.NewProductRepository(db)
	c.SettingRepo = repository.NewSettingRepository(db)
	c.AuditEventRepo = repository.NewAuditEventRepository(db)
}

func (c *Container) initServices() {
	cfg := c.Config
	c.AuditService = service.NewAuditService(c.AuditEventRepo, c.QueueClient)
	c.StoreConfigService = service.NewStoreConfigService(c.SettingRepo, cfg.Store)
	c.AuthService = service.NewAuthService(cfg, c.AdminRepo, c.AuditService)
	c.ProductService = service.NewProductService(c.ProductRepo)
	c.CartService = service.NewCartService(c.buildCartStore(), c.ProductRepo)
	c.OrderService = service.NewOrderService(c.OrderRepo, c.StoreConfigService, c.Publisher, c.AuditService)
	c.PaymentService = service.NewPaymentService(cfg.Payment, c.OrderService, c.OrderRepo, c.StoreConfigService, c.AuditService)
	c.AssistedService = service.NewAssistedService(c.StoreConfigService, c.OrderService)
	c.CheckoutService = service.NewCheckoutService(c.CartService, c.OrderService, c.PaymentService, c.AssistedService, c.AuditService)
	c.GeocodeService = service.NewGeocodeService(
		geocode.NewClient(geocode.Config{
			BaseURL:           cfg.Geocode.BaseURL,
			UserAgent:         cfg.Geocode.UserAgent,
			CountryCodes:      cfg.Geocode.CountryCodes,
			Limit:             cfg.Geocode.Limit,
			Timeout:           time.Duration(cfg.Geocode.TimeoutSeconds) * time.Second,
			RequestsPerSecond: cfg.Geocode.RequestsPerSecond,
		}),
		time.Duration(cfg.Geocode.CacheTTLSeconds)*time.Second,
	)
}

func (c *Container) buildCartStore() cart.Store {
	if cache.Enabled() {
		ttl := time.Duration(c.Config.Store.CartTTLHours) * time.Hour
		return cart.NewRedisStore(cache.Client(), cache.Prefix(), ttl)
	}
	logger.Warnw("provider_cart_store_memory", "reason", "redis_disabled")
	return cart.NewMemoryStore()
}
