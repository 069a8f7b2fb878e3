package public

import (
	"errors"

	"github.com/studiocard/internal/http/response"
	"github.com/studiocard/internal/service"

	"github.com/gin-gonic/gin"
)

// mappedHandlerError 定义业务错误到接口错误响应的映射关系。
//
// passthrough 为真时取业务错误自带的文案，用于携带动态内容
// 的错误，如 PIN 错误附带的剩余尝试次数。
type mappedHandlerError struct {
	target      error
	code        int
	msg         string
	passthrough bool
}

func respondWithMappedError(c *gin.Context, err error, rules []mappedHandlerError, fallbackCode int, fallbackMsg string) {
	for _, rule := range rules {
		if errors.Is(err, rule.target) {
			msg := rule.msg
			if rule.passthrough {
				msg = err.Error()
			}
			respondError(c, rule.code, msg, nil)
			return
		}
	}
	respondError(c, fallbackCode, fallbackMsg, err)
}

var giftCardStateErrorRules = []mappedHandlerError{
	{target: service.ErrGiftCardNotFound, code: response.CodeNotFound, msg: "gift card not found"},
	{target: service.ErrGiftCardInactive, code: response.CodeBadRequest, msg: "gift card is inactive"},
	{target: service.ErrGiftCardBlocked, code: response.CodeBadRequest, msg: "gift card is blocked"},
	{target: service.ErrGiftCardPendingPayment, code: response.CodeBadRequest, msg: "gift card is awaiting payment"},
	{target: service.ErrGiftCardRefunded, code: response.CodeBadRequest, msg: "gift card has been refunded"},
	{target: service.ErrGiftCardExpired, code: response.CodeBadRequest, msg: "gift card has expired"},
	{target: service.ErrGiftCardTempBlocked, code: response.CodeTooManyRequests, msg: "gift card is temporarily blocked, try again later"},
	{target: service.ErrPinIncorrect, code: response.CodeBadRequest, msg: "incorrect pin", passthrough: true},
	{target: service.ErrPinAlreadyTried, code: response.CodeBadRequest, msg: "this pin was already tried"},
}

var balanceErrorRules = concatMappedHandlerErrors(
	[]mappedHandlerError{
		{target: service.ErrGiftCardInvalid, code: response.CodeBadRequest, msg: "invalid balance request"},
	},
	giftCardStateErrorRules,
)

var redeemErrorRules = concatMappedHandlerErrors(
	[]mappedHandlerError{
		{target: service.ErrRedeemInvalid, code: response.CodeBadRequest, msg: "invalid redemption request"},
		{target: service.ErrShopNotFound, code: response.CodeNotFound, msg: "shop not found"},
		{target: service.ErrRedeemModeMismatch, code: response.CodeBadRequest, msg: "gift card mode does not match shop mode"},
		{target: service.ErrRedeemAtAdminShop, code: response.CodeBadRequest, msg: "this gift card cannot be redeemed at the issuing platform shop"},
		{target: service.ErrRedeemLiveCardAtDemoShop, code: response.CodeBadRequest, msg: "live gift card cannot be redeemed at a demo shop"},
		{target: service.ErrRedeemDemoCardAtLiveShop, code: response.CodeBadRequest, msg: "demo gift card cannot be redeemed at a live shop"},
		{target: service.ErrRedeemCrossShopForbidden, code: response.CodeBadRequest, msg: "gift card can only be redeemed at the issuing shop"},
		{target: service.ErrInsufficientBalance, code: response.CodeBadRequest, msg: "redemption amount exceeds available balance"},
		{target: service.ErrConcurrentRedemption, code: response.CodeBadRequest, msg: "gift card was modified concurrently, retry"},
	},
	giftCardStateErrorRules,
)

var purchaseErrorRules = []mappedHandlerError{
	{target: service.ErrPurchaseInvalid, code: response.CodeBadRequest, msg: "invalid purchase request"},
	{target: service.ErrShopNotFound, code: response.CodeNotFound, msg: "shop not found"},
	{target: service.ErrCartEmpty, code: response.CodeBadRequest, msg: "cart is empty"},
	{target: service.ErrCartLineInvalid, code: response.CodeBadRequest, msg: "invalid cart line"},
	{target: service.ErrTemplateNotFound, code: response.CodeBadRequest, msg: "gift card template not found"},
	{target: service.ErrInvalidEmail, code: response.CodeBadRequest, msg: "invalid email address"},
	{target: service.ErrEmailDisposable, code: response.CodeBadRequest, msg: "disposable email addresses are not accepted"},
	{target: service.ErrFeeExceedsCart, code: response.CodeBadRequest, msg: "platform fee would exceed cart total"},
	{target: service.ErrPaymentInitFailed, code: response.CodeInternal, msg: "failed to initialize payment"},
}

func concatMappedHandlerErrors(groups ...[]mappedHandlerError) []mappedHandlerError {
	total := 0
	for _, group := range groups {
		total += len(group)
	}
	result := make([]mappedHandlerError, 0, total)
	for _, group := range groups {
		result = append(result, group...)
	}
	return result
}

func respondBalanceError(c *gin.Context, err error) {
	respondWithMappedError(c, err, balanceErrorRules, response.CodeInternal, "balance check failed")
}

func respondRedeemError(c *gin.Context, err error) {
	respondWithMappedError(c, err, redeemErrorRules, response.CodeInternal, "redemption failed")
}

func respondPurchaseError(c *gin.Context, err error) {
	respondWithMappedError(c, err, purchaseErrorRules, response.CodeInternal, "purchase failed")
}
