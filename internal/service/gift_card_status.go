package service

import (
	crand "crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/studiocard/internal/constants"
	"github.com/studiocard/internal/models"
	"github.com/studiocard/internal/repository"
)

// EffectiveStatus 按当前时间推导礼品卡的有效状态。
//
// 过期与冷却解锁都是惰性转移：不依赖后台定时任务，
// 访问时推导，状态变化时由调用方落库。
func EffectiveStatus(card *models.GiftCard, now time.Time) string {
	if card == nil {
		return ""
	}
	switch card.Status {
	case constants.GiftCardStatusActive:
		if !card.ValidTillDate.IsZero() && card.ValidTillDate.Before(now) {
			return constants.GiftCardStatusExpired
		}
	case constants.GiftCardStatusBlocked:
		// blocked_until 为空表示管理员手工封禁，不自动解锁
		if card.BlockedUntil != nil && !card.BlockedUntil.After(now) {
			return constants.GiftCardStatusActive
		}
	}
	return card.Status
}

// statusTransitionPatch 推导状态与存储状态不一致时生成落库补丁。
func statusTransitionPatch(card *models.GiftCard, effective string) *repository.GiftCardPatch {
	if card == nil || effective == card.Status {
		return nil
	}
	patch := &repository.GiftCardPatch{Status: &effective}
	if card.Status == constants.GiftCardStatusBlocked && effective == constants.GiftCardStatusActive {
		zero := 0
		patch.IncorrectPinCount = &zero
		patch.ClearBlockedUntil = true
	}
	return patch
}

// IsTemporarilyBlocked 判断冷却期是否仍在生效。
func IsTemporarilyBlocked(card *models.GiftCard, now time.Time) bool {
	return card != nil && card.BlockedUntil != nil && card.BlockedUntil.After(now)
}

// verifyPin 校验 PIN 并产出锁定状态补丁。
//
// 约定：重复提交同一个错误 PIN 不累加计数；达到上限后
// 清零计数并设置 blocked_until，状态保持 active，冷却到期即恢复可用。
// 返回的补丁必须与兑换校验在同一事务内落库。
func verifyPin(card *models.GiftCard, submitted string, maxAttempts int, blockDuration time.Duration, now time.Time) (*repository.GiftCardPatch, error) {
	if card == nil {
		return nil, ErrGiftCardNotFound
	}
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	if blockDuration <= 0 {
		blockDuration = time.Hour
	}

	if submitted == card.Pin {
		if card.IncorrectPinCount == 0 && card.LastIncorrectPin == "" {
			return nil, nil
		}
		zero := 0
		empty := ""
		return &repository.GiftCardPatch{IncorrectPinCount: &zero, LastIncorrectPin: &empty}, nil
	}

	if card.IncorrectPinCount > 0 && submitted == card.LastIncorrectPin {
		return nil, ErrPinAlreadyTried
	}

	count := card.IncorrectPinCount + 1
	attemptsLeft := maxAttempts - count
	if attemptsLeft <= 0 {
		zero := 0
		blockedUntil := now.Add(blockDuration)
		patch := &repository.GiftCardPatch{
			IncorrectPinCount: &zero,
			LastIncorrectPin:  &submitted,
			BlockedUntil:      &blockedUntil,
		}
		return patch, ErrGiftCardTempBlocked
	}
	patch := &repository.GiftCardPatch{
		IncorrectPinCount: &count,
		LastIncorrectPin:  &submitted,
	}
	return patch, fmt.Errorf("%w: %d attempts left", ErrPinIncorrect, attemptsLeft)
}

// rejectByStatus 按存储状态短路兑换请求。
func rejectByStatus(status string) error {
	switch status {
	case constants.GiftCardStatusActive:
		return nil
	case constants.GiftCardStatusInactive:
		return ErrGiftCardInactive
	case constants.GiftCardStatusBlocked:
		return ErrGiftCardBlocked
	case constants.GiftCardStatusPendingPayment:
		return ErrGiftCardPendingPayment
	case constants.GiftCardStatusRefunded:
		return ErrGiftCardRefunded
	case constants.GiftCardStatusExpired:
		return ErrGiftCardExpired
	default:
		return ErrGiftCardInvalid
	}
}

// computeValidTill 计算有效期：购买日 + N 年，固定到目标年 12 月 31 日。
func computeValidTill(purchaseDate time.Time, years int) time.Time {
	if years <= 0 {
		years = 3
	}
	target := purchaseDate.AddDate(years, 0, 0)
	return time.Date(target.Year(), time.December, 31, 23, 59, 59, 0, purchaseDate.Location())
}

// generateCardCode 生成 16 位数字卡号，首位非零。
func generateCardCode() (string, error) {
	return randomDigits(constants.GiftCardCodeLength, true)
}

// generatePin 生成 6 位数字 PIN。
func generatePin() (string, error) {
	return randomDigits(constants.GiftCardPinLength, false)
}

func randomDigits(length int, leadingNonZero bool) (string, error) {
	if length <= 0 {
		return "", ErrCodeGenerationFailed
	}
	buf := make([]byte, length)
	for i := range buf {
		bound := int64(10)
		offset := int64(0)
		if i == 0 && leadingNonZero {
			bound = 9
			offset = 1
		}
		n, err := crand.Int(crand.Reader, big.NewInt(bound))
		if err != nil {
			return "", ErrCodeGenerationFailed
		}
		buf[i] = byte('0' + offset + n.Int64())
	}
	return string(buf), nil
}
