package repository

import (
	"errors"

	"github.com/studiocard/internal/models"

	"gorm.io/gorm"
)

// RedeemGiftCardRepository 兑换记录数据访问接口；记录只追加不修改
type RedeemGiftCardRepository interface {
	Create(record *models.RedeemGiftCard) error
	GetByID(id uint) (*models.RedeemGiftCard, error)
	ListByGiftCard(giftCardID uint) ([]models.RedeemGiftCard, error)
	List(filter RedeemListFilter) ([]models.RedeemGiftCard, int64, error)
	SumAmountByGiftCard(giftCardID uint) (models.Money, error)
	SumFeesByIssuerShop(issuerShopID uint) (models.Money, error)
	WithTx(tx *gorm.DB) *GormRedeemGiftCardRepository
}

// GormRedeemGiftCardRepository GORM 实现
type GormRedeemGiftCardRepository struct {
	db *gorm.DB
}

// NewRedeemGiftCardRepository 创建兑换记录仓库
func NewRedeemGiftCardRepository(db *gorm.DB) *GormRedeemGiftCardRepository {
	return &GormRedeemGiftCardRepository{db: db}
}

// WithTx 绑定事务
func (r *GormRedeemGiftCardRepository) WithTx(tx *gorm.DB) *GormRedeemGiftCardRepository {
	if tx == nil {
		return r
	}
	return &GormRedeemGiftCardRepository{db: tx}
}

// Create 写入兑换记录
func (r *GormRedeemGiftCardRepository) Create(record *models.RedeemGiftCard) error {
	if record == nil {
		return errors.New("invalid redeem record")
	}
	return r.db.Create(record).Error
}

// GetByID 根据 ID 查询兑换记录
func (r *GormRedeemGiftCardRepository) GetByID(id uint) (*models.RedeemGiftCard, error) {
	if id == 0 {
		return nil, nil
	}
	var record models.RedeemGiftCard
	if err := r.db.Preload("GiftCard").First(&record, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

// ListByGiftCard 查询单张卡的全部兑换记录
func (r *GormRedeemGiftCardRepository) ListByGiftCard(giftCardID uint) ([]models.RedeemGiftCard, error) {
	if giftCardID == 0 {
		return []models.RedeemGiftCard{}, nil
	}
	var records []models.RedeemGiftCard
	if err := r.db.Where("gift_card_id = ?", giftCardID).
		Order("redeemed_date asc, id asc").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// List 查询兑换记录列表
func (r *GormRedeemGiftCardRepository) List(filter RedeemListFilter) ([]models.RedeemGiftCard, int64, error) {
	query := r.db.Model(&models.RedeemGiftCard{}).Preload("GiftCard").Preload("RedeemedShop")
	if filter.GiftCardID > 0 {
		query = query.Where("gift_card_id = ?", filter.GiftCardID)
	}
	if filter.RedeemedShopID > 0 {
		query = query.Where("redeemed_shop_id = ?", filter.RedeemedShopID)
	}
	if filter.IssuerShopID > 0 {
		query = query.Where("issuer_shop_id = ?", filter.IssuerShopID)
	}
	if filter.RedeemedFrom != nil {
		query = query.Where("redeemed_date >= ?", *filter.RedeemedFrom)
	}
	if filter.RedeemedTo != nil {
		query = query.Where("redeemed_date <= ?", *filter.RedeemedTo)
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
	var records []models.RedeemGiftCard
	if err := query.Order("id desc").Find(&records).Error; err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

// SumAmountByGiftCard 汇总单张卡已兑换金额
func (r *GormRedeemGiftCardRepository) SumAmountByGiftCard(giftCardID uint) (models.Money, error) {
	if giftCardID == 0 {
		return models.MoneyZero(), nil
	}
	var row struct {
		Total models.Money
	}
	if err := r.db.Model(&models.RedeemGiftCard{}).
		Select("COALESCE(SUM(amount), 0) AS total").
		Where("gift_card_id = ?", giftCardID).
		Scan(&row).Error; err != nil {
		return models.MoneyZero(), err
	}
	return row.Total, nil
}

// SumFeesByIssuerShop 汇总发卡店铺承担的兑换手续费
func (r *GormRedeemGiftCardRepository) SumFeesByIssuerShop(issuerShopID uint) (models.Money, error) {
	if issuerShopID == 0 {
		return models.MoneyZero(), nil
	}
	var row struct {
		Total models.Money
	}
	if err := r.db.Model(&models.RedeemGiftCard{}).
		Select("COALESCE(SUM(fees), 0) AS total").
		Where("issuer_shop_id = ?", issuerShopID).
		Scan(&row).Error; err != nil {
		return models.MoneyZero(), err
	}
	return row.Total, nil
}
