package service

import (
	"strings"
	"time"

	"github.com/studiocard/internal/config"
	"github.com/studiocard/internal/constants"
	"github.com/studiocard/internal/logger"
	"github.com/studiocard/internal/models"
	"github.com/studiocard/internal/money"
	"github.com/studiocard/internal/queue"
	"github.com/studiocard/internal/repository"

	"errors"

	"gorm.io/gorm"
)

// RedeemService 兑换服务
type RedeemService struct {
	cardRepo   repository.GiftCardRepository
	shopRepo   repository.ShopRepository
	redeemRepo repository.RedeemGiftCardRepository
	queue      *queue.Client
	cfg        *config.GiftCardConfig
}

// NewRedeemService 创建兑换服务
func NewRedeemService(
	cardRepo repository.GiftCardRepository,
	shopRepo repository.ShopRepository,
	redeemRepo repository.RedeemGiftCardRepository,
	queueClient *queue.Client,
	cfg *config.GiftCardConfig,
) *RedeemService {
	return &RedeemService{
		cardRepo:   cardRepo,
		shopRepo:   shopRepo,
		redeemRepo: redeemRepo,
		queue:      queueClient,
		cfg:        cfg,
	}
}

// RedeemInput 兑换输入
type RedeemInput struct {
	Code         string
	Pin          string
	Amount       models.Money
	RedeemShopID uint
}

// RedeemResult 兑换结果
type RedeemResult struct {
	GiftCard *models.GiftCard       `json:"gift_card"`
	Record   *models.RedeemGiftCard `json:"record"`
	Fees     models.Money           `json:"fees"`
}

// Redeem 兑换礼品卡。
//
// 校验按固定顺序短路：卡存在 → 店铺存在 → 模式匹配 → 跨店规则 →
// 状态 → 冷却期 → PIN → 余额。锁定计数的写入与校验共用同一事务快照，
// 扣减走乐观锁版本号，并发兑换冲突返回 ErrConcurrentRedemption。
func (s *RedeemService) Redeem(input RedeemInput) (*RedeemResult, error) {
	if s == nil || s.cardRepo == nil || s.shopRepo == nil || s.redeemRepo == nil {
		return nil, ErrRedeemFailed
	}
	code := strings.TrimSpace(input.Code)
	pin := strings.TrimSpace(input.Pin)
	if len(code) != constants.GiftCardCodeLength || len(pin) != constants.GiftCardPinLength {
		return nil, ErrRedeemInvalid
	}
	if input.RedeemShopID == 0 || !input.Amount.IsPositive() {
		return nil, ErrRedeemInvalid
	}
	amount := models.NewMoneyFromDecimal(money.Truncate(input.Amount.Decimal, 2))

	var (
		result       *RedeemResult
		domainErr    error
		notifyIssuer *models.Shop
	)
	now := time.Now()
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		cardRepo := s.cardRepo.WithTx(tx)
		shopRepo := s.shopRepo.WithTx(tx)
		redeemRepo := s.redeemRepo.WithTx(tx)

		card, err := cardRepo.GetByCodeForUpdate(code)
		if err != nil {
			return ErrGiftCardFetchFailed
		}
		if card == nil {
			domainErr = ErrGiftCardNotFound
			return nil
		}

		issuerShop, err := shopRepo.GetByID(card.ShopID)
		if err != nil {
			return ErrGiftCardFetchFailed
		}
		redeemShop, err := shopRepo.GetByID(input.RedeemShopID)
		if err != nil {
			return ErrGiftCardFetchFailed
		}
		if issuerShop == nil || redeemShop == nil {
			domainErr = ErrShopNotFound
			return nil
		}

		if verr := checkRedeemEligibility(card, issuerShop, redeemShop); verr != nil {
			domainErr = verr
			return nil
		}

		effective := EffectiveStatus(card, now)
		if patch := statusTransitionPatch(card, effective); patch != nil {
			if err := cardRepo.Patch(card.ID, *patch); err != nil {
				return ErrGiftCardUpdateFailed
			}
			card.Status = effective
			if patch.ClearBlockedUntil {
				card.BlockedUntil = nil
				card.IncorrectPinCount = 0
			}
		}
		if verr := rejectByStatus(card.Status); verr != nil {
			domainErr = verr
			return nil
		}
		if IsTemporarilyBlocked(card, now) {
			domainErr = ErrGiftCardTempBlocked
			return nil
		}

		// PIN 计数补丁随事务提交，domain 错误不触发回滚
		pinPatch, verr := verifyPin(card, pin, s.maxPinAttempts(), s.blockDuration(), now)
		if pinPatch != nil {
			if err := cardRepo.Patch(card.ID, *pinPatch); err != nil {
				return ErrGiftCardUpdateFailed
			}
		}
		if verr != nil {
			domainErr = verr
			return nil
		}

		if amount.GreaterThan(card.AvailableAmount.Decimal) {
			domainErr = ErrInsufficientBalance
			return nil
		}

		fees := models.MoneyZero()
		if issuerShop.IsAdminOwned() {
			fees = models.NewMoneyFromDecimal(money.RedeemFee(
				amount.Decimal,
				redeemShop.PlatformRedeemFee.Decimal,
				redeemShop.FixedPaymentRedeemFee.Decimal,
			))
		}

		remaining := models.NewMoneyFromDecimal(card.AvailableAmount.Decimal.Sub(amount.Decimal))
		debit := repository.GiftCardPatch{AvailableAmount: &remaining}
		if err := cardRepo.PatchWithVersion(card.ID, card.LockVersion, debit); err != nil {
			if errors.Is(err, repository.ErrStaleGiftCard) {
				domainErr = ErrConcurrentRedemption
				return nil
			}
			return ErrGiftCardUpdateFailed
		}
		card.AvailableAmount = remaining
		card.LockVersion++

		record := &models.RedeemGiftCard{
			GiftCardID:     card.ID,
			Amount:         amount,
			Fees:           fees,
			RedeemedShopID: redeemShop.ID,
			IssuerShopID:   issuerShop.ID,
			RedeemedDate:   now,
		}
		if err := redeemRepo.Create(record); err != nil {
			return ErrRedeemFailed
		}

		result = &RedeemResult{GiftCard: card, Record: record, Fees: fees}
		if issuerShop.NotifyOnRedeem {
			notifyIssuer = issuerShop
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if domainErr != nil {
		return nil, domainErr
	}

	logger.Infow("gift_card_redeemed",
		"gift_card_id", result.GiftCard.ID,
		"amount", result.Record.Amount.String(),
		"fees", result.Fees.String(),
		"redeemed_shop_id", result.Record.RedeemedShopID,
		"issuer_shop_id", result.Record.IssuerShopID,
	)
	if notifyIssuer != nil {
		if err := s.queue.EnqueueRedeemNotification(queue.RedeemNotificationPayload{RedeemID: result.Record.ID}); err != nil {
			logger.Warnw("redeem_notification_enqueue_failed", "redeem_id", result.Record.ID, "error", err)
		}
	}
	return result, nil
}

// checkRedeemEligibility 模式与跨店规则校验。
//
// 平台自营卡不得在平台店铺兑换；普通店铺卡只能回到发卡店铺兑换。
func checkRedeemEligibility(card *models.GiftCard, issuerShop, redeemShop *models.Shop) error {
	if card.Mode != redeemShop.StudioMode {
		return ErrRedeemModeMismatch
	}
	if issuerShop.IsAdminOwned() {
		if redeemShop.IsAdminOwned() {
			return ErrRedeemAtAdminShop
		}
		if issuerShop.IsLive() && !redeemShop.IsLive() {
			return ErrRedeemLiveCardAtDemoShop
		}
		if !issuerShop.IsLive() && redeemShop.IsLive() {
			return ErrRedeemDemoCardAtLiveShop
		}
		return nil
	}
	if issuerShop.ID != redeemShop.ID {
		return ErrRedeemCrossShopForbidden
	}
	return nil
}

// ListRedemptions 查询兑换记录
func (s *RedeemService) ListRedemptions(filter repository.RedeemListFilter) ([]models.RedeemGiftCard, int64, error) {
	if s == nil || s.redeemRepo == nil {
		return nil, 0, ErrRedeemFailed
	}
	records, total, err := s.redeemRepo.List(filter)
	if err != nil {
		return nil, 0, ErrRedeemFailed
	}
	return records, total, nil
}

func (s *RedeemService) maxPinAttempts() int {
	if s != nil && s.cfg != nil && s.cfg.MaxPinAttempts > 0 {
		return s.cfg.MaxPinAttempts
	}
	return 5
}

func (s *RedeemService) blockDuration() time.Duration {
	if s != nil && s.cfg != nil && s.cfg.BlockMinutes > 0 {
		return time.Duration(s.cfg.BlockMinutes) * time.Minute
	}
	return time.Hour
}
