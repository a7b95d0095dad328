package router

import (
	"fmt"
	"strings"

	"github.com/kedai-next/internal/cache"
	"github.com/kedai-next/internal/config"
	adminhandlers "github.com/kedai-next/internal/http/handlers/admin"
	publichandlers "github.com/kedai-next/internal/http/handlers/public"
	handlershared "github.com/kedai-next/internal/http/handlers/shared"
	"github.com/kedai-next/internal/http/response"
	"github.com/kedai-next/internal/logger"
	"github.com/kedai-next/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	// 初始化 Handler（按前台/后台分组）
	publicHandler := publichandlers.New(c)
	adminHandler := adminhandlers.New(c)
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "kedai"
	}
	limiter := NewLimiter(cache.Client())
	adminLoginRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:login", redisPrefix),
		WindowSeconds: cfg.Security.LoginRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.LoginRateLimit.MaxAttempts,
		MessageKey:    "error.login_rate_limited",
	}
	checkoutRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:checkout", redisPrefix),
		WindowSeconds: cfg.Security.CheckoutRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.CheckoutRateLimit.MaxAttempts,
		MessageKey:    "error.checkout_rate_limited",
	}

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	// API 路由组
	apiV1 := r.Group("/api/v1")
	{
		// 公开接口
		public := apiV1.Group("/public")
		{
			public.GET("/store", publicHandler.GetStore)
			public.GET("/store/status", publicHandler.GetStoreStatus)
			public.POST("/delivery/quote", publicHandler.QuoteDelivery)
			public.GET("/geocode/search", publicHandler.SearchGeocode)
			public.GET("/products", publicHandler.GetProducts)
			public.GET("/orders/:order_no", publicHandler.GetOrder)
			public.POST("/orders/:order_no/payment-session", publicHandler.CreatePaymentSession)
			public.POST("/orders/:order_no/payment-result", publicHandler.SubmitPaymentResult)
			public.GET("/orders/:order_no/assist-qr", publicHandler.GetAssistQRCode)
			public.GET("/orders/:order_no/ws", publicHandler.OrderEvents)
		}

		// 购物车（X-Cart-Session 标识）
		cartGroup := apiV1.Group("/cart")
		{
			cartGroup.GET("", publicHandler.GetCart)
			cartGroup.DELETE("", publicHandler.ClearCart)
			cartGroup.POST("/items", publicHandler.AddCartItem)
			cartGroup.PATCH("/items/:key", publicHandler.UpdateCartItem)
			cartGroup.DELETE("/items/:key", publicHandler.DeleteCartItem)
		}

		apiV1.POST("/checkout", RateLimitMiddleware(limiter, checkoutRule, KeyByIP), publicHandler.Checkout)

		// 支付网关回调
		apiV1.POST("/payments/snap/notify", publicHandler.SnapNotify)

		// 店员后台
		admin := apiV1.Group("/admin")
		{
			admin.POST("/login", RateLimitMiddleware(limiter, adminLoginRule, KeyByIPAndJSONField("username")), adminHandler.AdminLogin)

			authorized := admin.Group("")
			authorized.Use(JWTAuthMiddleware(cfg.JWT.SecretKey, c.AdminRepo))
			{
				authorized.GET("/orders", adminHandler.AdminListOrders)
				authorized.GET("/orders/ws", adminHandler.AdminOrderEvents)
				authorized.GET("/orders/:id", adminHandler.AdminGetOrder)
				authorized.PATCH("/orders/:id/status", adminHandler.AdminUpdateOrderStatus)

				authorized.GET("/settings/store", adminHandler.GetStoreSettings)
				authorized.PUT("/settings/store", adminHandler.UpdateStoreSettings)

				authorized.GET("/audit-events", adminHandler.GetAuditEvents)
			}
		}
	}

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		redisStatus := "disabled"
		if cache.Enabled() {
			redisStatus = "ok"
			if err := cache.Ping(c.Request.Context()); err != nil {
				redisStatus = "unreachable"
			}
		}
		c.JSON(200, gin.H{"status": "ok", "redis": redisStatus})
	})
	r.NoRoute(func(c *gin.Context) {
		handlershared.RespondError(c, response.CodeNotFound, "error.not_found", nil)
	})

	return r
}
