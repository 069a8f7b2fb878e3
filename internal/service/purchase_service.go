package service

import (
	"context"
	crand "crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/studiocard/internal/config"
	"github.com/studiocard/internal/constants"
	"github.com/studiocard/internal/logger"
	"github.com/studiocard/internal/models"
	"github.com/studiocard/internal/money"
	"github.com/studiocard/internal/payment/stripe"
	"github.com/studiocard/internal/queue"
	"github.com/studiocard/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PurchaseService 购买服务
type PurchaseService struct {
	shopRepo     repository.ShopRepository
	templateRepo repository.GiftCardTemplateRepository
	cardRepo     repository.GiftCardRepository
	invoiceRepo  repository.InvoiceRepository
	taxRepo      repository.TaxTypeRepository
	stripeClient *stripe.Client
	queue        *queue.Client
	cfg          *config.GiftCardConfig
}

// NewPurchaseService 创建购买服务
func NewPurchaseService(
	shopRepo repository.ShopRepository,
	templateRepo repository.GiftCardTemplateRepository,
	cardRepo repository.GiftCardRepository,
	invoiceRepo repository.InvoiceRepository,
	taxRepo repository.TaxTypeRepository,
	stripeClient *stripe.Client,
	queueClient *queue.Client,
	cfg *config.GiftCardConfig,
) *PurchaseService {
	return &PurchaseService{
		shopRepo:     shopRepo,
		templateRepo: templateRepo,
		cardRepo:     cardRepo,
		invoiceRepo:  invoiceRepo,
		taxRepo:      taxRepo,
		stripeClient: stripeClient,
		queue:        queueClient,
		cfg:          cfg,
	}
}

// CartLine 购物车条目
type CartLine struct {
	TemplateID uint         `json:"template_id"`
	Quantity   int          `json:"quantity"`
	Amount     models.Money `json:"amount"`
	Message    string       `json:"message"`
}

// PurchaseInput 购买输入
type PurchaseInput struct {
	ShopID        uint       `json:"shop_id"`
	CustomerEmail string     `json:"customer_email"`
	Cart          []CartLine `json:"cart"`
}

// PurchaseResult 购买结果
type PurchaseResult struct {
	Invoice      *models.Invoice `json:"invoice"`
	ClientSecret string          `json:"client_secret,omitempty"`
}

// Purchase 下单购买礼品卡。
//
// LIVE 店铺先创建支付意图再落库，卡片以 pending_payment 入库，
// 等 webhook 激活；DEMO 店铺跳过支付处理器，发票直接完成、卡片直接激活。
// 发票与全部卡片在同一事务内写入。
func (s *PurchaseService) Purchase(ctx context.Context, input PurchaseInput) (*PurchaseResult, error) {
	if s == nil || s.shopRepo == nil || s.cardRepo == nil || s.invoiceRepo == nil {
		return nil, ErrPurchaseFailed
	}

	email, err := validateCustomerEmail(input.CustomerEmail)
	if err != nil {
		return nil, err
	}
	if len(input.Cart) == 0 {
		return nil, ErrCartEmpty
	}

	shop, err := s.shopRepo.GetByID(input.ShopID)
	if err != nil {
		return nil, ErrPurchaseFailed
	}
	if shop == nil {
		return nil, ErrShopNotFound
	}
	if shop.Owner == nil {
		return nil, ErrUserNotFound
	}
	taxPercent := models.MoneyZero()
	if shop.TaxType != nil {
		taxPercent = shop.TaxType.Percent
	}

	totalCards, cartTotal, err := s.validateCart(shop.ID, input.Cart)
	if err != nil {
		return nil, err
	}

	_, applicationFee, err := money.PurchaseFees(
		cartTotal.Decimal, shop.PlatformFee.Decimal, shop.FixedPaymentFee.Decimal)
	if err != nil {
		return nil, ErrFeeExceedsCart
	}
	net, tax := money.SplitInclusiveTax(cartTotal.Decimal, taxPercent.Decimal)

	now := time.Now()
	invoiceNo := generateInvoiceNo(now)
	invoice := &models.Invoice{
		InvoiceNo:         invoiceNo,
		ShopID:            shop.ID,
		CustomerEmail:     email,
		TransactionStatus: constants.TransactionStatusPending,
		OrderStatus:       constants.OrderStatusPending,
		TotalAmount:       cartTotal,
		NetAmount:         models.NewMoneyFromDecimal(net),
		TaxAmount:         models.NewMoneyFromDecimal(tax),
		Fees:              models.NewMoneyFromDecimal(applicationFee),
		Mode:              shop.StudioMode,
	}

	cards, err := s.buildGiftCards(shop, input.Cart, now)
	if err != nil {
		return nil, err
	}
	if len(cards) != totalCards {
		return nil, ErrPurchaseFailed
	}

	clientSecret := ""
	if shop.IsLive() {
		if s.stripeClient == nil {
			return nil, ErrPaymentInitFailed
		}
		customerID, err := s.resolveCustomer(ctx, shop.ID, email)
		if err != nil {
			return nil, err
		}
		intent, err := s.stripeClient.CreatePaymentIntent(ctx, stripe.PaymentIntentInput{
			Amount:             cartTotal,
			CustomerID:         customerID,
			Description:        "Gift card purchase " + invoiceNo,
			ReceiptEmail:       email,
			ApplicationFee:     invoice.Fees,
			ConnectedAccountID: shop.StripeAccountID,
			IdempotencyKey:     "purchase-" + invoiceNo,
			Metadata: map[string]string{
				"invoice_no": invoiceNo,
				"shop_id":    fmt.Sprintf("%d", shop.ID),
			},
		})
		if err != nil {
			logger.Errorw("purchase_payment_intent_failed", "invoice_no", invoiceNo, "error", err)
			return nil, ErrPaymentInitFailed
		}
		invoice.StripeCustomerID = customerID
		invoice.StripePaymentIntentID = intent.PaymentIntentID
		clientSecret = intent.ClientSecret
	} else {
		invoice.TransactionStatus = constants.TransactionStatusCompleted
		invoice.OrderStatus = constants.OrderStatusCompleted
		for i := range cards {
			cards[i].Status = constants.GiftCardStatusActive
		}
	}

	err = models.DB.Transaction(func(tx *gorm.DB) error {
		invoiceRepo := s.invoiceRepo.WithTx(tx)
		cardRepo := s.cardRepo.WithTx(tx)
		if err := invoiceRepo.Create(invoice); err != nil {
			return err
		}
		for i := range cards {
			cards[i].InvoiceID = invoice.ID
		}
		return cardRepo.CreateBatch(cards)
	})
	if err != nil {
		logger.Errorw("purchase_persist_failed", "invoice_no", invoiceNo, "error", err)
		return nil, ErrPurchaseFailed
	}

	logger.Infow("purchase_created",
		"invoice_no", invoiceNo,
		"shop_id", shop.ID,
		"mode", shop.StudioMode,
		"cards", len(cards),
		"total", invoice.TotalAmount.String(),
	)
	if !shop.IsLive() {
		if err := s.queue.EnqueueInvoiceEmail(queue.InvoiceEmailPayload{InvoiceID: invoice.ID}); err != nil {
			logger.Warnw("purchase_email_enqueue_failed", "invoice_id", invoice.ID, "error", err)
		}
	}

	invoice.GiftCards = cards
	return &PurchaseResult{Invoice: invoice, ClientSecret: clientSecret}, nil
}

// validateCart 校验购物车并返回卡片总数与购物车总额
func (s *PurchaseService) validateCart(shopID uint, cart []CartLine) (int, models.Money, error) {
	maxUnits := 10
	minAmount := int64(10)
	maxAmount := int64(250)
	if s.cfg != nil {
		if s.cfg.MaxUnitsPerLine > 0 {
			maxUnits = s.cfg.MaxUnitsPerLine
		}
		if s.cfg.MinUnitAmount > 0 {
			minAmount = int64(s.cfg.MinUnitAmount)
		}
		if s.cfg.MaxUnitAmount > 0 {
			maxAmount = int64(s.cfg.MaxUnitAmount)
		}
	}

	totalCards := 0
	cartTotal := models.MoneyZero()
	min := models.NewMoneyFromInt(minAmount)
	max := models.NewMoneyFromInt(maxAmount)
	for _, line := range cart {
		if line.Quantity < 1 || line.Quantity > maxUnits {
			return 0, models.MoneyZero(), ErrCartLineInvalid
		}
		if line.Amount.LessThan(min.Decimal) || line.Amount.GreaterThan(max.Decimal) {
			return 0, models.MoneyZero(), ErrCartLineInvalid
		}
		template, err := s.templateRepo.GetByID(line.TemplateID)
		if err != nil {
			return 0, models.MoneyZero(), ErrPurchaseFailed
		}
		if template == nil || template.ShopID != shopID || !template.IsActive {
			return 0, models.MoneyZero(), ErrTemplateNotFound
		}
		totalCards += line.Quantity
		lineTotal := line.Amount.Decimal.Mul(decimal.NewFromInt(int64(line.Quantity)))
		cartTotal = models.NewMoneyFromDecimal(cartTotal.Decimal.Add(lineTotal))
	}
	if totalCards == 0 {
		return 0, models.MoneyZero(), ErrCartEmpty
	}
	return totalCards, cartTotal, nil
}

// buildGiftCards 为购物车每个单位生成一张待支付卡片，卡号逐张重试去重
func (s *PurchaseService) buildGiftCards(shop *models.Shop, cart []CartLine, now time.Time) ([]models.GiftCard, error) {
	validityYears := 3
	codeRetry := 10
	if s.cfg != nil {
		if s.cfg.ValidityYears > 0 {
			validityYears = s.cfg.ValidityYears
		}
		if s.cfg.CodeRetryPerCard > 0 {
			codeRetry = s.cfg.CodeRetryPerCard
		}
	}
	validTill := computeValidTill(now, validityYears)

	cards := make([]models.GiftCard, 0)
	seen := make(map[string]struct{})
	for _, line := range cart {
		for unit := 0; unit < line.Quantity; unit++ {
			code, err := s.generateUniqueCode(seen, codeRetry)
			if err != nil {
				return nil, err
			}
			pin, err := generatePin()
			if err != nil {
				return nil, err
			}
			cards = append(cards, models.GiftCard{
				Code:            code,
				Pin:             pin,
				Amount:          line.Amount,
				AvailableAmount: line.Amount,
				RefundedAmount:  models.MoneyZero(),
				Status:          constants.GiftCardStatusPendingPayment,
				Mode:            shop.StudioMode,
				PurchaseDate:    now,
				ValidTillDate:   validTill,
				Message:         strings.TrimSpace(line.Message),
				ShopID:          shop.ID,
				TemplateID:      line.TemplateID,
			})
		}
	}
	return cards, nil
}

// generateUniqueCode 单卡重试生成唯一卡号；重试耗尽直接失败
func (s *PurchaseService) generateUniqueCode(seen map[string]struct{}, retries int) (string, error) {
	for attempt := 0; attempt < retries; attempt++ {
		code, err := generateCardCode()
		if err != nil {
			return "", err
		}
		if _, dup := seen[code]; dup {
			continue
		}
		exists, err := s.cardRepo.CodeExists(code)
		if err != nil {
			return "", ErrPurchaseFailed
		}
		if exists {
			continue
		}
		seen[code] = struct{}{}
		return code, nil
	}
	return "", ErrCodeGenerationFailed
}

// resolveCustomer 复用同店铺同邮箱的处理器客户，否则新建
func (s *PurchaseService) resolveCustomer(ctx context.Context, shopID uint, email string) (string, error) {
	existing, err := s.invoiceRepo.FindCustomerRef(shopID, email)
	if err != nil {
		return "", ErrPurchaseFailed
	}
	if existing != "" {
		return existing, nil
	}
	customerID, err := s.stripeClient.CreateCustomer(ctx, stripe.CustomerInput{Email: email})
	if err != nil {
		logger.Errorw("purchase_create_customer_failed", "shop_id", shopID, "error", err)
		return "", ErrPaymentInitFailed
	}
	return customerID, nil
}

func generateInvoiceNo(now time.Time) string {
	return fmt.Sprintf("%s-%s-%s", constants.InvoiceNoPrefix, now.Format("20060102"), randomUpperHex(4))
}

func randomUpperHex(n int) string {
	buf := make([]byte, n)
	if _, err := crand.Read(buf); err != nil {
		return strings.ToUpper(hex.EncodeToString([]byte(time.Now().Format("0405"))))[:n*2]
	}
	return strings.ToUpper(hex.EncodeToString(buf))
}
