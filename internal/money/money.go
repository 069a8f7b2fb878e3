// Package money 提供礼品卡业务的金额与手续费纯函数。
//
// 统一采用截断（朝零方向）而非四舍五入；decimal 的整数运算保证
// 两位小数的货币计算不会出现浮点漂移。
package money

import (
	"errors"

	"github.com/shopspring/decimal"
)

// ErrFeeExceedsTotal 平台手续费大于等于购物车总额
var ErrFeeExceedsTotal = errors.New("application fee exceeds cart total")

var hundred = decimal.NewFromInt(100)

// Truncate 将金额截断到指定小数位（不四舍五入）
func Truncate(v decimal.Decimal, places int32) decimal.Decimal {
	return v.Truncate(places)
}

// SplitInclusiveTax 按含税税率拆分毛额
//
// net = gross / (1 + taxPercent/100)，tax = gross - net，均截断到 2 位。
// 因截断，net + tax 不必精确等于 gross，这是既定行为而非缺陷。
func SplitInclusiveTax(gross decimal.Decimal, taxPercent decimal.Decimal) (net, tax decimal.Decimal) {
	if taxPercent.LessThanOrEqual(decimal.Zero) {
		return Truncate(gross, 2), decimal.Zero
	}
	divisor := decimal.NewFromInt(1).Add(taxPercent.Div(hundred))
	net = Truncate(gross.DivRound(divisor, 8), 2)
	tax = Truncate(gross.Sub(net), 2)
	return net, tax
}

// PurchaseFees 计算购买侧平台手续费
//
// platformFee = truncate(cartTotal * platformPercent / 100, 2)
// applicationFee = truncate(platformFee + fixedFee, 2)
// applicationFee >= cartTotal 时返回 ErrFeeExceedsTotal。
func PurchaseFees(cartTotal, platformPercent, fixedFee decimal.Decimal) (platformFee, applicationFee decimal.Decimal, err error) {
	platformFee = Truncate(cartTotal.Mul(platformPercent).Div(hundred), 2)
	applicationFee = Truncate(platformFee.Add(fixedFee), 2)
	if applicationFee.GreaterThanOrEqual(cartTotal) {
		return decimal.Zero, decimal.Zero, ErrFeeExceedsTotal
	}
	return platformFee, applicationFee, nil
}

// RedeemFee 计算兑换侧手续费（仅平台发卡跨店兑换时计费）
//
// fee = truncate(amount * redeemPercent/100 + fixedRedeemFee, 2)；
// fee >= amount 时钳制为 0，绝不收取大于等于兑换金额的手续费。
func RedeemFee(amount, redeemPercent, fixedRedeemFee decimal.Decimal) decimal.Decimal {
	raw := amount.Mul(redeemPercent).Div(hundred).Add(fixedRedeemFee)
	fee := Truncate(raw, 2)
	if fee.GreaterThanOrEqual(amount) {
		return decimal.Zero
	}
	if fee.IsNegative() {
		return decimal.Zero
	}
	return fee
}

// MinorUnits 转换为最小货币单位（分），用于支付处理器调用
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(hundred).Truncate(0).IntPart()
}
