package service

import (
	"errors"
	"strings"
	"time"

	"github.com/studiocard/internal/models"
	"github.com/studiocard/internal/repository"

	"gorm.io/gorm"
)

// InvoiceService 发票查询服务（管理端）
type InvoiceService struct {
	repo repository.InvoiceRepository
}

// NewInvoiceService 创建发票查询服务
func NewInvoiceService(repo repository.InvoiceRepository) *InvoiceService {
	return &InvoiceService{repo: repo}
}

// InvoiceListInput 发票列表输入
type InvoiceListInput struct {
	Page              int
	PageSize          int
	ShopID            uint
	InvoiceNo         string
	CustomerEmail     string
	TransactionStatus string
	OrderStatus       string
	Mode              string
	CreatedFrom       *time.Time
	CreatedTo         *time.Time
}

// ListInvoices 获取发票列表
func (s *InvoiceService) ListInvoices(input InvoiceListInput) ([]models.Invoice, int64, error) {
	if s == nil || s.repo == nil {
		return nil, 0, ErrInvoiceFetchFailed
	}
	filter := repository.InvoiceListFilter{
		Page:              input.Page,
		PageSize:          input.PageSize,
		ShopID:            input.ShopID,
		InvoiceNo:         strings.TrimSpace(input.InvoiceNo),
		CustomerEmail:     strings.ToLower(strings.TrimSpace(input.CustomerEmail)),
		TransactionStatus: strings.TrimSpace(strings.ToLower(input.TransactionStatus)),
		OrderStatus:       strings.TrimSpace(strings.ToLower(input.OrderStatus)),
		Mode:              strings.TrimSpace(strings.ToLower(input.Mode)),
		CreatedFrom:       input.CreatedFrom,
		CreatedTo:         input.CreatedTo,
	}
	return s.repo.List(filter)
}

// GetInvoice 获取发票详情，含卡片与店铺
func (s *InvoiceService) GetInvoice(id uint) (*models.Invoice, error) {
	if s == nil || s.repo == nil {
		return nil, ErrInvoiceFetchFailed
	}
	if id == 0 {
		return nil, ErrInvoiceNotFound
	}
	invoice, err := s.repo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvoiceNotFound
		}
		return nil, ErrInvoiceFetchFailed
	}
	return invoice, nil
}
