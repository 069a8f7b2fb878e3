package provider

import (
	"time"

	"github.com/studiocard/internal/cache"
	"github.com/studiocard/internal/config"
	"github.com/studiocard/internal/logger"
	"github.com/studiocard/internal/models"
	"github.com/studiocard/internal/payment/stripe"
	"github.com/studiocard/internal/queue"
	"github.com/studiocard/internal/repository"
	"github.com/studiocard/internal/service"
)

// Container 依赖注入容器
type Container struct {
	Config       *config.Config
	QueueClient  *queue.Client
	StripeClient *stripe.Client

	// Repositories
	UserRepo           repository.UserRepository
	ShopRepo           repository.ShopRepository
	TaxTypeRepo        repository.TaxTypeRepository
	TemplateRepo       repository.GiftCardTemplateRepository
	GiftCardRepo       repository.GiftCardRepository
	InvoiceRepo        repository.InvoiceRepository
	RedeemRepo         repository.RedeemGiftCardRepository
	RefundInvoiceRepo  repository.RefundInvoiceRepository
	PaymentInvoiceRepo repository.PaymentInvoiceRepository

	// Services
	AuthService           *service.AuthService
	EmailService          *service.EmailService
	ShopService           *service.ShopService
	GiftCardService       *service.GiftCardService
	PurchaseService       *service.PurchaseService
	RedeemService         *service.RedeemService
	InvoiceService        *service.InvoiceService
	RefundService         *service.RefundService
	FulfillmentService    *service.FulfillmentService
	SettlementService     *service.SettlementService
	PaymentWebhookService *service.PaymentWebhookService
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

	// 初始化支付处理器客户端；未配置密钥时走无处理器模式，
	// LIVE 店铺购买会被拒绝，DEMO 店铺不受影响。
	var stripeClient *stripe.Client
	if cfg.Stripe.SecretKey != "" {
		sc, err := stripe.NewClient(stripe.Config{
			SecretKey:      cfg.Stripe.SecretKey,
			WebhookSecret:  cfg.Stripe.WebhookSecret,
			Currency:       cfg.Stripe.Currency,
			RequestTimeout: time.Duration(cfg.Stripe.RequestTimeoutMS) * time.Millisecond,
		})
		if err != nil {
			logger.Errorw("provider_init_stripe_failed", "error", err)
		} else {
			stripeClient = sc
		}
	}

	c := &Container{
		Config:       cfg,
		QueueClient:  queueClient,
		StripeClient: stripeClient,
	}

	c.initRepositories()
	c.initServices()

	return c
}

func (c *Container) initRepositories() {
	db := models.DB
	c.UserRepo = repository.NewUserRepository(db)
	c.ShopRepo = repository.NewShopRepository(db)
	c.TaxTypeRepo = repository.NewTaxTypeRepository(db)
	c.TemplateRepo = repository.NewGiftCardTemplateRepository(db)
	c.GiftCardRepo = repository.NewGiftCardRepository(db)
	c.InvoiceRepo = repository.NewInvoiceRepository(db)
	c.RedeemRepo = repository.NewRedeemGiftCardRepository(db)
	c.RefundInvoiceRepo = repository.NewRefundInvoiceRepository(db)
	c.PaymentInvoiceRepo = repository.NewPaymentInvoiceRepository(db)
}

func (c *Container) initServices() {
	c.AuthService = service.NewAuthService(&c.Config.JWT, c.UserRepo)
	c.EmailService = service.NewEmailService(&c.Config.Email)
	c.ShopService = service.NewShopService(c.ShopRepo, c.TemplateRepo, c.TaxTypeRepo, c.UserRepo)
	c.GiftCardService = service.NewGiftCardService(c.GiftCardRepo, &c.Config.GiftCard)
	c.PurchaseService = service.NewPurchaseService(
		c.ShopRepo,
		c.TemplateRepo,
		c.GiftCardRepo,
		c.InvoiceRepo,
		c.TaxTypeRepo,
		c.StripeClient,
		c.QueueClient,
		&c.Config.GiftCard,
	)
	c.RedeemService = service.NewRedeemService(c.GiftCardRepo, c.ShopRepo, c.RedeemRepo, c.QueueClient, &c.Config.GiftCard)
	c.InvoiceService = service.NewInvoiceService(c.InvoiceRepo)
	c.FulfillmentService = service.NewFulfillmentService(
		c.InvoiceRepo,
		c.GiftCardRepo,
		c.ShopRepo,
		c.RedeemRepo,
		c.RefundInvoiceRepo,
		c.EmailService,
		c.QueueClient,
		&c.Config.GiftCard,
	)
	c.SettlementService = service.NewSettlementService(c.InvoiceRepo, c.PaymentInvoiceRepo, c.ShopRepo)

	var processor service.RefundProcessor
	var verifier service.WebhookVerifier
	var intents service.IntentRetriever
	if c.StripeClient != nil {
		processor = c.StripeClient
		verifier = c.StripeClient
		intents = c.StripeClient
	}
	c.RefundService = service.NewRefundService(c.InvoiceRepo, c.GiftCardRepo, c.RefundInvoiceRepo, processor, c.QueueClient)
	c.PaymentWebhookService = service.NewPaymentWebhookService(verifier, intents, c.InvoiceRepo, c.FulfillmentService, c.QueueClient)
}
