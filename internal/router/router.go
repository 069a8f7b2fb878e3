package router

import (
	"fmt"
	"strings"

	"github.com/studiocard/internal/cache"
	"github.com/studiocard/internal/config"
	adminhandlers "github.com/studiocard/internal/http/handlers/admin"
	publichandlers "github.com/studiocard/internal/http/handlers/public"
	"github.com/studiocard/internal/logger"
	"github.com/studiocard/internal/provider"

	"github.com/gin-gonic/gin"
)

const (
	loginRateWindowSeconds = 300
	loginRateMaxAttempts   = 10

	balanceRateWindowSeconds = 60
	balanceRateMaxAttempts   = 10
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	publicHandler := publichandlers.New(c)
	adminHandler := adminhandlers.New(c)

	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "sc"
	}
	redisClient := cache.Client()
	loginRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:admin_login", redisPrefix),
		WindowSeconds: loginRateWindowSeconds,
		MaxRequests:   loginRateMaxAttempts,
	}
	balanceRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:balance", redisPrefix),
		WindowSeconds: balanceRateWindowSeconds,
		MaxRequests:   balanceRateMaxAttempts,
	}

	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	apiV1 := r.Group("/api/v1")
	{
		// 公开接口（顾客侧）
		public := apiV1.Group("/public")
		{
			public.GET("/shops/:id/templates", publicHandler.ListShopTemplates)
			public.POST("/purchases", publicHandler.CreatePurchase)
			public.POST("/redemptions", publicHandler.CreateRedemption)
			public.POST("/gift-cards/:code/balance",
				RateLimitMiddleware(redisClient, balanceRule, KeyByIP),
				publicHandler.CheckBalance)
		}

		// 支付处理器回调
		webhooks := apiV1.Group("/webhooks")
		{
			webhooks.POST("/stripe", publicHandler.StripeWebhook)
		}

		// 管理端登录
		apiV1.POST("/admin/login",
			RateLimitMiddleware(redisClient, loginRule, KeyByIPAndJSONField("email")),
			adminHandler.Login)

		// 管理端接口（需鉴权；店铺所有者与平台管理员共用）
		admin := apiV1.Group("/admin")
		admin.Use(JWTAuthMiddleware(c.AuthService, c.UserRepo))
		{
			admin.PUT("/password", adminHandler.ChangePassword)

			admin.GET("/gift-cards", adminHandler.GetGiftCards)
			admin.GET("/gift-cards/:id", adminHandler.GetGiftCard)
			admin.POST("/gift-cards/:id/block", adminHandler.BlockGiftCard)
			admin.POST("/gift-cards/:id/unblock", adminHandler.UnblockGiftCard)
			admin.PUT("/gift-cards/:id/comment", adminHandler.UpdateGiftCardComment)

			admin.GET("/redemptions", adminHandler.GetRedemptions)

			admin.GET("/invoices", adminHandler.GetInvoices)
			admin.GET("/invoices/:id", adminHandler.GetInvoice)
			admin.POST("/invoices/:id/resend-email", adminHandler.ResendInvoiceEmail)
			admin.GET("/invoices/:id/refunds", adminHandler.GetRefunds)

			admin.GET("/shops/:id/templates", adminHandler.GetTemplates)
			admin.POST("/templates", adminHandler.CreateTemplate)
			admin.PUT("/templates/:id", adminHandler.UpdateTemplate)

			// 平台管理员专属
			platform := admin.Group("")
			platform.Use(RequireAdminRole())
			{
				platform.POST("/invoices/:id/refunds", adminHandler.CreateRefund)
				platform.POST("/invoices/:id/sync-payment", adminHandler.SyncInvoicePayment)

				platform.GET("/shops", adminHandler.GetShops)
				platform.GET("/shops/:id", adminHandler.GetShop)
				platform.POST("/shops", adminHandler.CreateShop)
				platform.PUT("/shops/:id", adminHandler.UpdateShop)

				platform.POST("/payment-invoices", adminHandler.GeneratePaymentInvoice)
				platform.GET("/payment-invoices", adminHandler.GetPaymentInvoices)
				platform.GET("/payment-invoices/:id", adminHandler.GetPaymentInvoice)
				platform.POST("/payment-invoices/:id/issue", adminHandler.IssuePaymentInvoice)
			}
		}
	}

	// 健康检查
	r.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(200, gin.H{"status": "ok"})
	})

	return r
}
