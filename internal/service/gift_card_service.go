package service

import (
	"strings"
	"time"

	"github.com/studiocard/internal/config"
	"github.com/studiocard/internal/constants"
	"github.com/studiocard/internal/logger"
	"github.com/studiocard/internal/models"
	"github.com/studiocard/internal/repository"

	"gorm.io/gorm"
)

// GiftCardService 礼品卡服务：管理端操作与余额查询
type GiftCardService struct {
	repo repository.GiftCardRepository
	cfg  *config.GiftCardConfig
}

// NewGiftCardService 创建礼品卡服务
func NewGiftCardService(repo repository.GiftCardRepository, cfg *config.GiftCardConfig) *GiftCardService {
	return &GiftCardService{repo: repo, cfg: cfg}
}

// GiftCardListInput 礼品卡列表输入
type GiftCardListInput struct {
	Page        int
	PageSize    int
	ShopID      uint
	InvoiceID   uint
	Code        string
	Status      string
	Mode        string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// BalanceResult 余额查询返回
type BalanceResult struct {
	Code            string       `json:"code"`
	Status          string       `json:"status"`
	Amount          models.Money `json:"amount"`
	AvailableAmount models.Money `json:"available_amount"`
	ValidTillDate   time.Time    `json:"valid_till_date"`
}

// ListGiftCards 获取礼品卡列表
func (s *GiftCardService) ListGiftCards(input GiftCardListInput) ([]models.GiftCard, int64, error) {
	if s == nil || s.repo == nil {
		return nil, 0, ErrGiftCardFetchFailed
	}
	filter := repository.GiftCardListFilter{
		Page:        input.Page,
		PageSize:    input.PageSize,
		ShopID:      input.ShopID,
		InvoiceID:   input.InvoiceID,
		Code:        strings.TrimSpace(input.Code),
		Status:      strings.TrimSpace(strings.ToLower(input.Status)),
		Mode:        strings.TrimSpace(strings.ToLower(input.Mode)),
		CreatedFrom: input.CreatedFrom,
		CreatedTo:   input.CreatedTo,
	}
	cards, total, err := s.repo.List(filter)
	if err != nil {
		return nil, 0, ErrGiftCardFetchFailed
	}
	return cards, total, nil
}

// GetGiftCard 获取礼品卡详情，并在推导状态变化时落库
func (s *GiftCardService) GetGiftCard(id uint) (*models.GiftCard, error) {
	if s == nil || s.repo == nil || id == 0 {
		return nil, ErrGiftCardInvalid
	}
	card, err := s.repo.GetByID(id)
	if err != nil {
		return nil, ErrGiftCardFetchFailed
	}
	if card == nil {
		return nil, ErrGiftCardNotFound
	}
	s.persistEffectiveStatus(card, time.Now())
	return card, nil
}

// BlockGiftCard 管理员手工封禁礼品卡（不设置冷却时间，不自动解锁）
func (s *GiftCardService) BlockGiftCard(id uint, comment string) (*models.GiftCard, error) {
	if s == nil || s.repo == nil || id == 0 {
		return nil, ErrGiftCardInvalid
	}
	card, err := s.repo.GetByID(id)
	if err != nil {
		return nil, ErrGiftCardFetchFailed
	}
	if card == nil {
		return nil, ErrGiftCardNotFound
	}
	if card.Status != constants.GiftCardStatusActive {
		return nil, ErrGiftCardInvalid
	}
	blocked := constants.GiftCardStatusBlocked
	patch := repository.GiftCardPatch{Status: &blocked, ClearBlockedUntil: true}
	if trimmed := strings.TrimSpace(comment); trimmed != "" {
		patch.Comment = &trimmed
	}
	if err := s.repo.Patch(id, patch); err != nil {
		return nil, ErrGiftCardUpdateFailed
	}
	card.Status = blocked
	card.BlockedUntil = nil
	logger.Infow("gift_card_blocked", "gift_card_id", id)
	return card, nil
}

// UnblockGiftCard 解除封禁并清零 PIN 计数
func (s *GiftCardService) UnblockGiftCard(id uint) (*models.GiftCard, error) {
	if s == nil || s.repo == nil || id == 0 {
		return nil, ErrGiftCardInvalid
	}
	card, err := s.repo.GetByID(id)
	if err != nil {
		return nil, ErrGiftCardFetchFailed
	}
	if card == nil {
		return nil, ErrGiftCardNotFound
	}
	if card.Status != constants.GiftCardStatusBlocked && card.BlockedUntil == nil {
		return nil, ErrGiftCardInvalid
	}
	active := constants.GiftCardStatusActive
	zero := 0
	empty := ""
	patch := repository.GiftCardPatch{
		Status:            &active,
		IncorrectPinCount: &zero,
		LastIncorrectPin:  &empty,
		ClearBlockedUntil: true,
	}
	if err := s.repo.Patch(id, patch); err != nil {
		return nil, ErrGiftCardUpdateFailed
	}
	card.Status = active
	card.IncorrectPinCount = 0
	card.BlockedUntil = nil
	logger.Infow("gift_card_unblocked", "gift_card_id", id)
	return card, nil
}

// UpdateComment 更新礼品卡备注
func (s *GiftCardService) UpdateComment(id uint, comment string) error {
	if s == nil || s.repo == nil || id == 0 {
		return ErrGiftCardInvalid
	}
	card, err := s.repo.GetByID(id)
	if err != nil {
		return ErrGiftCardFetchFailed
	}
	if card == nil {
		return ErrGiftCardNotFound
	}
	trimmed := strings.TrimSpace(comment)
	if err := s.repo.Patch(id, repository.GiftCardPatch{Comment: &trimmed}); err != nil {
		return ErrGiftCardUpdateFailed
	}
	return nil
}

// CheckBalance 查询余额；需要正确 PIN，错误 PIN 走同一套锁定计数
func (s *GiftCardService) CheckBalance(code, pin string) (*BalanceResult, error) {
	if s == nil || s.repo == nil {
		return nil, ErrGiftCardFetchFailed
	}
	code = strings.TrimSpace(code)
	pin = strings.TrimSpace(pin)
	if len(code) != constants.GiftCardCodeLength || len(pin) != constants.GiftCardPinLength {
		return nil, ErrGiftCardInvalid
	}

	var (
		result    *BalanceResult
		domainErr error
	)
	now := time.Now()
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		card, err := repo.GetByCodeForUpdate(code)
		if err != nil {
			return ErrGiftCardFetchFailed
		}
		if card == nil {
			domainErr = ErrGiftCardNotFound
			return nil
		}

		effective := EffectiveStatus(card, now)
		if patch := statusTransitionPatch(card, effective); patch != nil {
			if err := repo.Patch(card.ID, *patch); err != nil {
				return ErrGiftCardUpdateFailed
			}
			card.Status = effective
			if patch.ClearBlockedUntil {
				card.BlockedUntil = nil
				card.IncorrectPinCount = 0
			}
		}
		if err := rejectByStatus(card.Status); err != nil {
			domainErr = err
			return nil
		}
		if IsTemporarilyBlocked(card, now) {
			domainErr = ErrGiftCardTempBlocked
			return nil
		}

		// PIN 计数补丁随事务提交，domain 错误不触发回滚
		patch, verr := verifyPin(card, pin, s.maxPinAttempts(), s.blockDuration(), now)
		if patch != nil {
			if err := repo.Patch(card.ID, *patch); err != nil {
				return ErrGiftCardUpdateFailed
			}
		}
		if verr != nil {
			domainErr = verr
			return nil
		}

		result = &BalanceResult{
			Code:            card.Code,
			Status:          card.Status,
			Amount:          card.Amount,
			AvailableAmount: card.AvailableAmount,
			ValidTillDate:   card.ValidTillDate,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if domainErr != nil {
		return nil, domainErr
	}
	return result, nil
}

// persistEffectiveStatus 推导状态变化时落库；失败仅记录日志
func (s *GiftCardService) persistEffectiveStatus(card *models.GiftCard, now time.Time) {
	effective := EffectiveStatus(card, now)
	patch := statusTransitionPatch(card, effective)
	if patch == nil {
		return
	}
	if err := s.repo.Patch(card.ID, *patch); err != nil {
		logger.Warnw("gift_card_status_persist_failed", "gift_card_id", card.ID, "error", err)
		return
	}
	card.Status = effective
	if patch.ClearBlockedUntil {
		card.BlockedUntil = nil
		card.IncorrectPinCount = 0
	}
}

func (s *GiftCardService) maxPinAttempts() int {
	if s != nil && s.cfg != nil && s.cfg.MaxPinAttempts > 0 {
		return s.cfg.MaxPinAttempts
	}
	return 5
}

func (s *GiftCardService) blockDuration() time.Duration {
	if s != nil && s.cfg != nil && s.cfg.BlockMinutes > 0 {
		return time.Duration(s.cfg.BlockMinutes) * time.Minute
	}
	return time.Hour
}
