package service

import "errors"

// 礼品卡相关错误
var (
	ErrGiftCardNotFound       = errors.New("gift card not found")
	ErrGiftCardFetchFailed    = errors.New("failed to fetch gift card")
	ErrGiftCardUpdateFailed   = errors.New("failed to update gift card")
	ErrGiftCardInvalid        = errors.New("invalid gift card request")
	ErrGiftCardInactive       = errors.New("gift card is inactive")
	ErrGiftCardBlocked        = errors.New("gift card is blocked")
	ErrGiftCardPendingPayment = errors.New("gift card is awaiting payment")
	ErrGiftCardRefunded       = errors.New("gift card has been refunded")
	ErrGiftCardExpired        = errors.New("gift card has expired")
	ErrGiftCardTempBlocked    = errors.New("gift card is temporarily blocked")
	ErrCodeGenerationFailed   = errors.New("failed to generate unique gift card code")
)

// PIN 校验相关错误
var (
	ErrPinIncorrect    = errors.New("incorrect pin")
	ErrPinAlreadyTried = errors.New("pin already tried")
)

// 兑换相关错误
var (
	ErrRedeemInvalid            = errors.New("invalid redemption request")
	ErrRedeemModeMismatch       = errors.New("gift card mode does not match shop mode")
	ErrRedeemAtAdminShop        = errors.New("platform cards cannot be redeemed at the platform shop")
	ErrRedeemLiveCardAtDemoShop = errors.New("live platform card cannot be redeemed at a demo shop")
	ErrRedeemDemoCardAtLiveShop = errors.New("demo platform card cannot be redeemed at a live shop")
	ErrRedeemCrossShopForbidden = errors.New("gift card can only be redeemed at the issuing shop")
	ErrInsufficientBalance      = errors.New("redemption amount exceeds available balance")
	ErrRedeemFailed             = errors.New("redemption failed")
	ErrConcurrentRedemption     = errors.New("gift card was modified concurrently")
)

// 购买相关错误
var (
	ErrPurchaseInvalid   = errors.New("invalid purchase request")
	ErrCartEmpty         = errors.New("cart is empty")
	ErrCartLineInvalid   = errors.New("invalid cart line")
	ErrTemplateNotFound  = errors.New("gift card template not found")
	ErrTemplateInvalid   = errors.New("invalid gift card template request")
	ErrEmailDisposable   = errors.New("disposable email addresses are not accepted")
	ErrFeeExceedsCart    = errors.New("platform fee would exceed cart total")
	ErrPaymentInitFailed = errors.New("failed to initialize payment")
	ErrPurchaseFailed    = errors.New("purchase failed")
)

// 店铺与用户相关错误
var (
	ErrShopNotFound    = errors.New("shop not found")
	ErrShopInvalid     = errors.New("invalid shop request")
	ErrUserNotFound    = errors.New("user not found")
	ErrTaxTypeNotFound = errors.New("tax type not found")
	ErrLoginFailed     = errors.New("invalid email or password")
	ErrTokenInvalid    = errors.New("invalid or expired token")
	ErrForbidden       = errors.New("operation not allowed")
)

// 发票与退款相关错误
var (
	ErrInvoiceNotFound       = errors.New("invoice not found")
	ErrInvoiceFetchFailed    = errors.New("failed to fetch invoice")
	ErrRefundInvalid         = errors.New("invalid refund request")
	ErrRefundCardMismatch    = errors.New("gift card does not belong to the invoice")
	ErrRefundCardIneligible  = errors.New("gift card is not eligible for refund")
	ErrRefundProcessorFailed = errors.New("payment processor refund failed")
	ErrRefundConflict        = errors.New("gift card balance changed during refund")
	ErrRefundFailed          = errors.New("refund failed")
)

// 结算相关错误
var (
	ErrSettlementInvalid       = errors.New("invalid settlement request")
	ErrSettlementAlreadyExists = errors.New("settlement invoice already exists for period")
	ErrSettlementNoInvoices    = errors.New("no unsettled invoices in period")
)

// 邮件相关错误
var (
	ErrEmailServiceDisabled      = errors.New("email service disabled")
	ErrEmailServiceNotConfigured = errors.New("email service not configured")
	ErrInvalidEmail              = errors.New("invalid email address")
	ErrEmailRecipientRejected    = errors.New("email recipient rejected")
)

// Webhook 与支付核对相关错误
var (
	ErrWebhookSignature       = errors.New("webhook signature verification failed")
	ErrWebhookPayload         = errors.New("webhook payload invalid")
	ErrProcessorUnavailable   = errors.New("payment processor not configured")
	ErrProcessorQueryFailed   = errors.New("payment processor query failed")
	ErrInvoiceNoPaymentIntent = errors.New("invoice has no payment intent")
)
