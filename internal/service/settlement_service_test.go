package service

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/studiocard/internal/constants"
	"github.com/studiocard/internal/models"
	"github.com/studiocard/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupSettlementTest(t *testing.T) (*SettlementService, *gorm.DB) {
	t.Helper()
	db := openServiceTestDB(t, "settlement_service_test")
	svc := NewSettlementService(
		repository.NewInvoiceRepository(db),
		repository.NewPaymentInvoiceRepository(db),
		repository.NewShopRepository(db),
	)
	return svc, db
}

func seedCompletedInvoices(t *testing.T, db *gorm.DB, shopID uint, createdAt time.Time, fees ...int64) []uint {
	t.Helper()
	ids := make([]uint, 0, len(fees))
	for i, fee := range fees {
		invoice := &models.Invoice{
			InvoiceNo:         fmt.Sprintf("INV-%s-%04d", createdAt.Format("20060102"), i+1),
			ShopID:            shopID,
			CustomerEmail:     "buyer@example.test",
			TransactionStatus: constants.TransactionStatusCompleted,
			OrderStatus:       constants.OrderStatusCompleted,
			TotalAmount:       models.NewMoneyFromInt(fee * 10),
			Fees:              models.NewMoneyFromInt(fee),
			Mode:              constants.StudioModeLive,
		}
		if err := db.Create(invoice).Error; err != nil {
			t.Fatalf("create invoice failed: %v", err)
		}
		if err := db.Model(invoice).Update("created_at", createdAt).Error; err != nil {
			t.Fatalf("backdate invoice failed: %v", err)
		}
		ids = append(ids, invoice.ID)
	}
	return ids
}

func TestGeneratePaymentInvoiceAggregatesFees(t *testing.T) {
	svc, db := setupSettlementTest(t)
	owner := createTestUser(t, db, "owner@example.test", constants.UserRoleShop)
	shop := createTestShop(t, db, "studio", owner.ID, constants.StudioModeLive)

	periodStart := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	periodEnd := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	ids := seedCompletedInvoices(t, db, shop.ID, periodStart.Add(72*time.Hour), 10, 12, 8)

	result, err := svc.GeneratePaymentInvoice(shop.ID, periodStart, periodEnd)
	if err != nil {
		t.Fatalf("GeneratePaymentInvoice failed: %v", err)
	}
	if !result.TotalFees.Equal(decimal.NewFromInt(30)) {
		t.Errorf("total fees = %s, want 30", result.TotalFees.String())
	}
	if result.Status != constants.PaymentInvoiceStatusDraft {
		t.Errorf("status = %s, want draft", result.Status)
	}
	if result.InvoiceNo == "" {
		t.Error("invoice no empty")
	}

	for _, id := range ids {
		var stored models.Invoice
		if err := db.First(&stored, id).Error; err != nil {
			t.Fatalf("reload invoice failed: %v", err)
		}
		if stored.PaymentInvoiceID == nil || *stored.PaymentInvoiceID != result.ID {
			t.Errorf("invoice %d not linked to settlement", id)
		}
	}
}

func TestGeneratePaymentInvoiceDuplicatePeriodRejected(t *testing.T) {
	svc, db := setupSettlementTest(t)
	owner := createTestUser(t, db, "owner@example.test", constants.UserRoleShop)
	shop := createTestShop(t, db, "studio", owner.ID, constants.StudioModeLive)

	periodStart := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	periodEnd := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	seedCompletedInvoices(t, db, shop.ID, periodStart.Add(time.Hour), 10)

	if _, err := svc.GeneratePaymentInvoice(shop.ID, periodStart, periodEnd); err != nil {
		t.Fatalf("first settlement failed: %v", err)
	}
	_, err := svc.GeneratePaymentInvoice(shop.ID, periodStart, periodEnd)
	if !errors.Is(err, ErrSettlementAlreadyExists) {
		t.Fatalf("err = %v, want ErrSettlementAlreadyExists", err)
	}
}

func TestGeneratePaymentInvoiceEmptyPeriodRejected(t *testing.T) {
	svc, db := setupSettlementTest(t)
	owner := createTestUser(t, db, "owner@example.test", constants.UserRoleShop)
	shop := createTestShop(t, db, "studio", owner.ID, constants.StudioModeLive)

	periodStart := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	periodEnd := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	_, err := svc.GeneratePaymentInvoice(shop.ID, periodStart, periodEnd)
	if !errors.Is(err, ErrSettlementNoInvoices) {
		t.Fatalf("err = %v, want ErrSettlementNoInvoices", err)
	}
}

func TestGeneratePaymentInvoiceSkipsSettledAndDemoInvoices(t *testing.T) {
	svc, db := setupSettlementTest(t)
	owner := createTestUser(t, db, "owner@example.test", constants.UserRoleShop)
	shop := createTestShop(t, db, "studio", owner.ID, constants.StudioModeLive)

	periodStart := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	periodEnd := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	seedCompletedInvoices(t, db, shop.ID, periodStart.Add(time.Hour), 10)

	demo := &models.Invoice{
		InvoiceNo:         "INV-20260702-DEMO",
		ShopID:            shop.ID,
		CustomerEmail:     "buyer@example.test",
		TransactionStatus: constants.TransactionStatusCompleted,
		OrderStatus:       constants.OrderStatusCompleted,
		Fees:              models.NewMoneyFromInt(99),
		Mode:              constants.StudioModeDemo,
	}
	if err := db.Create(demo).Error; err != nil {
		t.Fatalf("create demo invoice failed: %v", err)
	}
	if err := db.Model(demo).Update("created_at", periodStart.Add(time.Hour)).Error; err != nil {
		t.Fatalf("backdate demo invoice failed: %v", err)
	}

	result, err := svc.GeneratePaymentInvoice(shop.ID, periodStart, periodEnd)
	if err != nil {
		t.Fatalf("GeneratePaymentInvoice failed: %v", err)
	}
	if !result.TotalFees.Equal(decimal.NewFromInt(10)) {
		t.Errorf("total fees = %s, want 10 (demo invoices excluded)", result.TotalFees.String())
	}
}
