package constants

// 礼品卡状态常量
const (
	GiftCardStatusPendingPayment = "pending_payment"
	GiftCardStatusActive         = "active"
	GiftCardStatusInactive       = "inactive"
	GiftCardStatusBlocked        = "blocked"
	GiftCardStatusExpired        = "expired"
	GiftCardStatusRefunded       = "refunded"
)

// 店铺运行模式常量
const (
	StudioModeLive = "live"
	StudioModeDemo = "demo"
)

// 用户角色常量
const (
	UserRoleAdmin = "admin"
	UserRoleShop  = "shop"
)

// 用户账号状态常量
const (
	UserStatusActive   = "active"
	UserStatusDisabled = "disabled"
)

// 发票支付状态常量（支付处理器侧）
const (
	TransactionStatusPending        = "pending"
	TransactionStatusPartialPayment = "partial_payment"
	TransactionStatusInProgress     = "in_progress"
	TransactionStatusCompleted      = "completed"
	TransactionStatusFailed         = "failed"
	TransactionStatusCancelled      = "cancelled"
)

// 发票履约状态常量（履约侧）
const (
	OrderStatusPending       = "pending"
	OrderStatusInProgress    = "in_progress"
	OrderStatusCompleted     = "completed"
	OrderStatusFailed        = "failed"
	OrderStatusCancelled     = "cancelled"
	OrderStatusPartialRefund = "partial_refund"
	OrderStatusRefunded      = "refunded"
)

// 结算发票状态常量
const (
	PaymentInvoiceStatusDraft  = "draft"
	PaymentInvoiceStatusIssued = "issued"
	PaymentInvoiceStatusPaid   = "paid"
)

// 异步任务名称常量
const (
	TaskInvoiceFulfill     = "invoice:fulfill"
	TaskRedeemNotification = "redeem:notification"
	TaskInvoiceEmail       = "invoice:email"
)

// 队列名称常量
const (
	QueueDefault  = "default"
	QueueCritical = "critical"
)

// 卡号与 PIN 格式常量
const (
	GiftCardCodeLength = 16
	GiftCardPinLength  = 6
)

// 发票编号前缀常量
const (
	InvoiceNoPrefix       = "INV"
	RefundInvoiceNoPrefix = "RINV"
	PaymentInvoiceNoPrefix = "PINV"
)
