package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/studiocard/internal/constants"
	"github.com/studiocard/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrStaleGiftCard 礼品卡版本冲突（并发兑换）
var ErrStaleGiftCard = errors.New("gift card version conflict")

// GiftCardRepository 礼品卡数据访问接口
type GiftCardRepository interface {
	CreateBatch(cards []models.GiftCard) error
	GetByID(id uint) (*models.GiftCard, error)
	GetByCode(code string) (*models.GiftCard, error)
	GetByCodeForUpdate(code string) (*models.GiftCard, error)
	CodeExists(code string) (bool, error)
	List(filter GiftCardListFilter) ([]models.GiftCard, int64, error)
	ListByIDs(ids []uint) ([]models.GiftCard, error)
	ListByInvoice(invoiceID uint) ([]models.GiftCard, error)
	Patch(id uint, patch GiftCardPatch) error
	PatchWithVersion(id uint, version int64, patch GiftCardPatch) error
	ActivateByInvoice(invoiceID uint, now time.Time) (int64, error)
	DeactivateByInvoice(invoiceID uint, now time.Time) (int64, error)
	WithTx(tx *gorm.DB) *GormGiftCardRepository
}

// GormGiftCardRepository GORM 实现
type GormGiftCardRepository struct {
	db *gorm.DB
}

// NewGiftCardRepository 创建礼品卡仓库
func NewGiftCardRepository(db *gorm.DB) *GormGiftCardRepository {
	return &GormGiftCardRepository{db: db}
}

// WithTx 绑定事务
func (r *GormGiftCardRepository) WithTx(tx *gorm.DB) *GormGiftCardRepository {
	if tx == nil {
		return r
	}
	return &GormGiftCardRepository{db: tx}
}

// CreateBatch 批量创建礼品卡
func (r *GormGiftCardRepository) CreateBatch(cards []models.GiftCard) error {
	if len(cards) == 0 {
		return nil
	}
	return r.db.Create(&cards).Error
}

// GetByID 根据 ID 查询礼品卡
func (r *GormGiftCardRepository) GetByID(id uint) (*models.GiftCard, error) {
	if id == 0 {
		return nil, nil
	}
	var card models.GiftCard
	if err := r.db.Preload("Shop").Preload("Shop.Owner").First(&card, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &card, nil
}

// GetByCode 根据卡号查询礼品卡
func (r *GormGiftCardRepository) GetByCode(code string) (*models.GiftCard, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, nil
	}
	var card models.GiftCard
	if err := r.db.Preload("Shop").Preload("Shop.Owner").
		Where("code = ?", code).First(&card).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &card, nil
}

// GetByCodeForUpdate 根据卡号加锁查询礼品卡
//
// 兑换请求在同一事务内进行 PIN 计数读-改-写，须持有行锁。
func (r *GormGiftCardRepository) GetByCodeForUpdate(code string) (*models.GiftCard, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, nil
	}
	var card models.GiftCard
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("code = ?", code).
		First(&card).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &card, nil
}

// CodeExists 判断卡号是否已被占用。
//
// code 列带全局唯一索引，软删除的卡仍占用卡号，
// 查重须跳过软删除过滤，否则生成重试通过后插入仍会撞索引。
func (r *GormGiftCardRepository) CodeExists(code string) (bool, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return false, nil
	}
	var count int64
	if err := r.db.Unscoped().Model(&models.GiftCard{}).Where("code = ?", code).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// List 查询礼品卡列表
func (r *GormGiftCardRepository) List(filter GiftCardListFilter) ([]models.GiftCard, int64, error) {
	query := r.db.Model(&models.GiftCard{}).Preload("Shop")
	if filter.ShopID > 0 {
		query = query.Where("shop_id = ?", filter.ShopID)
	}
	if filter.InvoiceID > 0 {
		query = query.Where("invoice_id = ?", filter.InvoiceID)
	}
	if code := strings.TrimSpace(filter.Code); code != "" {
		query = query.Where("code LIKE ?", "%"+code+"%")
	}
	if status := strings.TrimSpace(filter.Status); status != "" {
		query = query.Where("status = ?", status)
	}
	if mode := strings.TrimSpace(filter.Mode); mode != "" {
		query = query.Where("mode = ?", mode)
	}
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("created_at <= ?", *filter.CreatedTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if filter.PageSize > 0 {
		page := filter.Page
		if page < 1 {
			page = 1
		}
		query = query.Limit(filter.PageSize).Offset((page - 1) * filter.PageSize)
	}
	var cards []models.GiftCard
	if err := query.Order("id desc").Find(&cards).Error; err != nil {
		return nil, 0, err
	}
	return cards, total, nil
}

// ListByIDs 按 ID 列表查询礼品卡
func (r *GormGiftCardRepository) ListByIDs(ids []uint) ([]models.GiftCard, error) {
	if len(ids) == 0 {
		return []models.GiftCard{}, nil
	}
	var cards []models.GiftCard
	if err := r.db.Where("id IN ?", ids).Order("id asc").Find(&cards).Error; err != nil {
		return nil, err
	}
	return cards, nil
}

// ListByInvoice 查询发票下的全部礼品卡
func (r *GormGiftCardRepository) ListByInvoice(invoiceID uint) ([]models.GiftCard, error) {
	if invoiceID == 0 {
		return []models.GiftCard{}, nil
	}
	var cards []models.GiftCard
	if err := r.db.Where("invoice_id = ?", invoiceID).Order("id asc").Find(&cards).Error; err != nil {
		return nil, err
	}
	return cards, nil
}

// Patch 部分更新礼品卡
func (r *GormGiftCardRepository) Patch(id uint, patch GiftCardPatch) error {
	if id == 0 {
		return errors.New("invalid gift card id")
	}
	return r.db.Model(&models.GiftCard{}).Where("id = ?", id).
		Updates(patch.ToUpdates(time.Now())).Error
}

// PatchWithVersion 带乐观锁的部分更新；版本不匹配返回 ErrStaleGiftCard
func (r *GormGiftCardRepository) PatchWithVersion(id uint, version int64, patch GiftCardPatch) error {
	if id == 0 {
		return errors.New("invalid gift card id")
	}
	updates := patch.ToUpdates(time.Now())
	updates["lock_version"] = gorm.Expr("lock_version + 1")
	result := r.db.Model(&models.GiftCard{}).
		Where("id = ? AND lock_version = ?", id, version).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrStaleGiftCard
	}
	return nil
}

// ActivateByInvoice 将发票下待支付的卡置为可用（幂等）
func (r *GormGiftCardRepository) ActivateByInvoice(invoiceID uint, now time.Time) (int64, error) {
	if invoiceID == 0 {
		return 0, nil
	}
	result := r.db.Model(&models.GiftCard{}).
		Where("invoice_id = ? AND status = ?", invoiceID, constants.GiftCardStatusPendingPayment).
		Updates(map[string]interface{}{
			"status":     constants.GiftCardStatusActive,
			"updated_at": now,
		})
	return result.RowsAffected, result.Error
}

// DeactivateByInvoice 将发票下待支付的卡置为失效（支付失败/取消，幂等）
func (r *GormGiftCardRepository) DeactivateByInvoice(invoiceID uint, now time.Time) (int64, error) {
	if invoiceID == 0 {
		return 0, nil
	}
	result := r.db.Model(&models.GiftCard{}).
		Where("invoice_id = ? AND status = ?", invoiceID, constants.GiftCardStatusPendingPayment).
		Updates(map[string]interface{}{
			"status":     constants.GiftCardStatusInactive,
			"updated_at": now,
		})
	return result.RowsAffected, result.Error
}
