package stripe

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/studiocard/internal/models"
	"github.com/studiocard/internal/money"

	stripesdk "github.com/stripe/stripe-go/v78"
	stripeclient "github.com/stripe/stripe-go/v78/client"
	"github.com/stripe/stripe-go/v78/webhook"
)

var (
	ErrConfigInvalid    = errors.New("stripe config invalid")
	ErrRequestFailed    = errors.New("stripe request failed")
	ErrSignatureInvalid = errors.New("stripe signature invalid")
)

const defaultTimeout = 12 * time.Second

// 平台只处理两位小数货币；日元等零小数货币不在发卡范围内。

// Config Stripe 渠道配置。
type Config struct {
	SecretKey      string
	WebhookSecret  string
	Currency       string
	RequestTimeout time.Duration
}

// Client 封装 Stripe SDK 调用，统一注入超时与幂等键。
type Client struct {
	api     *stripeclient.API
	cfg     Config
	timeout time.Duration
}

// CustomerInput 创建客户输入。
type CustomerInput struct {
	Email       string
	Description string
}

// PaymentIntentInput 创建支付意图输入。
//
// ConnectedAccountID 为空表示平台自营店铺收款，
// 此时不附加平台手续费。
type PaymentIntentInput struct {
	Amount             models.Money
	Currency           string
	CustomerID         string
	Description        string
	ReceiptEmail       string
	ApplicationFee     models.Money
	ConnectedAccountID string
	IdempotencyKey     string
	Metadata           map[string]string
}

// PaymentIntentResult 创建支付意图返回。
type PaymentIntentResult struct {
	PaymentIntentID string
	ClientSecret    string
	Status          string
}

// RefundInput 创建退款输入。
type RefundInput struct {
	PaymentIntentID string
	Amount          models.Money
	Currency        string
	IdempotencyKey  string
	Metadata        map[string]string
}

// RefundResult 创建退款返回。
type RefundResult struct {
	RefundID string
	Status   string
}

// NewClient 创建 Stripe 客户端。
func NewClient(cfg Config) (*Client, error) {
	cfg.SecretKey = strings.TrimSpace(cfg.SecretKey)
	cfg.WebhookSecret = strings.TrimSpace(cfg.WebhookSecret)
	cfg.Currency = strings.ToLower(strings.TrimSpace(cfg.Currency))
	if cfg.SecretKey == "" {
		return nil, fmt.Errorf("%w: secret_key is required", ErrConfigInvalid)
	}
	if cfg.Currency == "" {
		cfg.Currency = "eur"
	}
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	api := &stripeclient.API{}
	api.Init(cfg.SecretKey, nil)
	return &Client{api: api, cfg: cfg, timeout: timeout}, nil
}

// Currency 返回结算货币（小写 ISO 代码）。
func (c *Client) Currency() string {
	return c.cfg.Currency
}

// CreateCustomer 创建 Stripe 客户。
func (c *Client) CreateCustomer(ctx context.Context, input CustomerInput) (string, error) {
	email := strings.TrimSpace(strings.ToLower(input.Email))
	if email == "" {
		return "", fmt.Errorf("%w: customer email is required", ErrConfigInvalid)
	}
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	params := &stripesdk.CustomerParams{
		Email: stripesdk.String(email),
	}
	if desc := strings.TrimSpace(input.Description); desc != "" {
		params.Description = stripesdk.String(desc)
	}
	params.Context = ctx

	customer, err := c.api.Customers.New(params)
	if err != nil {
		return "", fmt.Errorf("%w: create customer: %v", ErrRequestFailed, err)
	}
	return customer.ID, nil
}

// CreatePaymentIntent 创建支付意图。
func (c *Client) CreatePaymentIntent(ctx context.Context, input PaymentIntentInput) (*PaymentIntentResult, error) {
	if !input.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be greater than zero", ErrConfigInvalid)
	}
	currency := strings.ToLower(strings.TrimSpace(input.Currency))
	if currency == "" {
		currency = c.cfg.Currency
	}
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	params := &stripesdk.PaymentIntentParams{
		Amount:   stripesdk.Int64(money.MinorUnits(input.Amount.Decimal)),
		Currency: stripesdk.String(currency),
		AutomaticPaymentMethods: &stripesdk.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripesdk.Bool(true),
		},
	}
	if input.CustomerID != "" {
		params.Customer = stripesdk.String(input.CustomerID)
	}
	if desc := strings.TrimSpace(input.Description); desc != "" {
		params.Description = stripesdk.String(desc)
	}
	if email := strings.TrimSpace(input.ReceiptEmail); email != "" {
		params.ReceiptEmail = stripesdk.String(email)
	}
	if acct := strings.TrimSpace(input.ConnectedAccountID); acct != "" {
		params.TransferData = &stripesdk.PaymentIntentTransferDataParams{
			Destination: stripesdk.String(acct),
		}
		if input.ApplicationFee.IsPositive() {
			params.ApplicationFeeAmount = stripesdk.Int64(money.MinorUnits(input.ApplicationFee.Decimal))
		}
	}
	for key, value := range input.Metadata {
		params.AddMetadata(key, value)
	}
	if key := strings.TrimSpace(input.IdempotencyKey); key != "" {
		params.SetIdempotencyKey(key)
	}
	params.Context = ctx

	intent, err := c.api.PaymentIntents.New(params)
	if err != nil {
		return nil, fmt.Errorf("%w: create payment intent: %v", ErrRequestFailed, err)
	}
	return &PaymentIntentResult{
		PaymentIntentID: intent.ID,
		ClientSecret:    intent.ClientSecret,
		Status:          string(intent.Status),
	}, nil
}

// RetrievePaymentIntent 查询支付意图状态。
func (c *Client) RetrievePaymentIntent(ctx context.Context, paymentIntentID string) (*PaymentIntentResult, error) {
	paymentIntentID = strings.TrimSpace(paymentIntentID)
	if paymentIntentID == "" {
		return nil, fmt.Errorf("%w: payment intent id is required", ErrConfigInvalid)
	}
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	params := &stripesdk.PaymentIntentParams{}
	params.Context = ctx
	intent, err := c.api.PaymentIntents.Get(paymentIntentID, params)
	if err != nil {
		return nil, fmt.Errorf("%w: retrieve payment intent: %v", ErrRequestFailed, err)
	}
	return &PaymentIntentResult{
		PaymentIntentID: intent.ID,
		ClientSecret:    intent.ClientSecret,
		Status:          string(intent.Status),
	}, nil
}

// CreateRefund 创建退款。
func (c *Client) CreateRefund(ctx context.Context, input RefundInput) (*RefundResult, error) {
	paymentIntentID := strings.TrimSpace(input.PaymentIntentID)
	if paymentIntentID == "" {
		return nil, fmt.Errorf("%w: payment intent id is required", ErrConfigInvalid)
	}
	if !input.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: refund amount must be greater than zero", ErrConfigInvalid)
	}
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	params := &stripesdk.RefundParams{
		PaymentIntent: stripesdk.String(paymentIntentID),
		Amount:        stripesdk.Int64(money.MinorUnits(input.Amount.Decimal)),
	}
	for key, value := range input.Metadata {
		params.AddMetadata(key, value)
	}
	if key := strings.TrimSpace(input.IdempotencyKey); key != "" {
		params.SetIdempotencyKey(key)
	}
	params.Context = ctx

	refund, err := c.api.Refunds.New(params)
	if err != nil {
		return nil, fmt.Errorf("%w: create refund: %v", ErrRequestFailed, err)
	}
	return &RefundResult{
		RefundID: refund.ID,
		Status:   string(refund.Status),
	}, nil
}

// VerifyWebhook 校验签名并解析 webhook 事件。
func (c *Client) VerifyWebhook(payload []byte, signatureHeader string) (*stripesdk.Event, error) {
	if c.cfg.WebhookSecret == "" {
		return nil, fmt.Errorf("%w: webhook_secret is required", ErrConfigInvalid)
	}
	if len(payload) == 0 {
		return nil, fmt.Errorf("%w: payload is empty", ErrSignatureInvalid)
	}
	event, err := webhook.ConstructEventWithOptions(payload, signatureHeader, c.cfg.WebhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSignatureInvalid, err)
	}
	return &event, nil
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, c.timeout)
}
