package service

import (
	"context"
	"errors"
	"testing"

	"github.com/studiocard/internal/constants"
	"github.com/studiocard/internal/models"
	"github.com/studiocard/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupPurchaseServiceTest(t *testing.T) (*PurchaseService, *gorm.DB) {
	t.Helper()
	db := openServiceTestDB(t, "purchase_service_test")
	svc := NewPurchaseService(
		repository.NewShopRepository(db),
		repository.NewGiftCardTemplateRepository(db),
		repository.NewGiftCardRepository(db),
		repository.NewInvoiceRepository(db),
		repository.NewTaxTypeRepository(db),
		nil,
		nil,
		nil,
	)
	return svc, db
}

func createTestTemplate(t *testing.T, db *gorm.DB, shopID uint) *models.GiftCardTemplate {
	t.Helper()
	template := &models.GiftCardTemplate{ShopID: shopID, Name: "Classic", IsActive: true}
	if err := db.Create(template).Error; err != nil {
		t.Fatalf("create template failed: %v", err)
	}
	return template
}

func TestPurchaseDemoShopActivatesCardsImmediately(t *testing.T) {
	svc, db := setupPurchaseServiceTest(t)
	owner := createTestUser(t, db, "owner@example.test", constants.UserRoleShop)
	shop := createTestShop(t, db, "studio", owner.ID, constants.StudioModeDemo)
	template := createTestTemplate(t, db, shop.ID)

	result, err := svc.Purchase(context.Background(), PurchaseInput{
		ShopID:        shop.ID,
		CustomerEmail: "buyer@example.test",
		Cart: []CartLine{
			{TemplateID: template.ID, Quantity: 2, Amount: models.NewMoneyFromInt(50)},
		},
	})
	if err != nil {
		t.Fatalf("Purchase failed: %v", err)
	}
	invoice := result.Invoice
	if invoice.TransactionStatus != constants.TransactionStatusCompleted {
		t.Errorf("transaction_status = %s, want completed", invoice.TransactionStatus)
	}
	if invoice.OrderStatus != constants.OrderStatusCompleted {
		t.Errorf("order_status = %s, want completed", invoice.OrderStatus)
	}
	if result.ClientSecret != "" {
		t.Error("demo purchase must not return a client secret")
	}

	var cards []models.GiftCard
	if err := db.Where("invoice_id = ?", invoice.ID).Find(&cards).Error; err != nil {
		t.Fatalf("load cards failed: %v", err)
	}
	if len(cards) != 2 {
		t.Fatalf("cards = %d, want 2", len(cards))
	}
	for _, card := range cards {
		if card.Status != constants.GiftCardStatusActive {
			t.Errorf("card %s status = %s, want active", card.Code, card.Status)
		}
		if !card.AvailableAmount.Equal(card.Amount.Decimal) {
			t.Errorf("card %s available = %s, want %s", card.Code, card.AvailableAmount.String(), card.Amount.String())
		}
		if card.Mode != constants.StudioModeDemo {
			t.Errorf("card %s mode = %s, want demo", card.Code, card.Mode)
		}
	}
}

func TestPurchaseComputesFeesAndTaxSplit(t *testing.T) {
	svc, db := setupPurchaseServiceTest(t)
	owner := createTestUser(t, db, "owner@example.test", constants.UserRoleShop)
	taxType := &models.TaxType{Name: "Standard", Percent: models.NewMoneyFromInt(19), Standard: true}
	if err := db.Create(taxType).Error; err != nil {
		t.Fatalf("create tax type failed: %v", err)
	}
	shop := createTestShop(t, db, "studio", owner.ID, constants.StudioModeDemo)
	shop.PlatformFee = models.NewMoneyFromInt(10)
	shop.FixedPaymentFee = models.NewMoneyFromInt(2)
	shop.TaxTypeID = taxType.ID
	if err := db.Save(shop).Error; err != nil {
		t.Fatalf("save shop failed: %v", err)
	}
	template := createTestTemplate(t, db, shop.ID)

	result, err := svc.Purchase(context.Background(), PurchaseInput{
		ShopID:        shop.ID,
		CustomerEmail: "buyer@example.test",
		Cart: []CartLine{
			{TemplateID: template.ID, Quantity: 2, Amount: models.NewMoneyFromInt(50)},
		},
	})
	if err != nil {
		t.Fatalf("Purchase failed: %v", err)
	}
	invoice := result.Invoice
	if !invoice.TotalAmount.Equal(decimal.NewFromInt(100)) {
		t.Errorf("total = %s, want 100", invoice.TotalAmount.String())
	}
	// 100 * 10% + 2 = 12
	if !invoice.Fees.Equal(decimal.NewFromInt(12)) {
		t.Errorf("fees = %s, want 12", invoice.Fees.String())
	}
	// 含税 100，税率 19%：净额 84.03，税额 15.97
	if invoice.NetAmount.String() != "84.03" {
		t.Errorf("net = %s, want 84.03", invoice.NetAmount.String())
	}
	if invoice.TaxAmount.String() != "15.97" {
		t.Errorf("tax = %s, want 15.97", invoice.TaxAmount.String())
	}
}

func TestPurchaseRejectsFeeExceedingCartTotal(t *testing.T) {
	svc, db := setupPurchaseServiceTest(t)
	owner := createTestUser(t, db, "owner@example.test", constants.UserRoleShop)
	shop := createTestShop(t, db, "studio", owner.ID, constants.StudioModeDemo)
	shop.PlatformFee = models.NewMoneyFromInt(100)
	shop.FixedPaymentFee = models.NewMoneyFromInt(5)
	if err := db.Save(shop).Error; err != nil {
		t.Fatalf("save shop failed: %v", err)
	}
	template := createTestTemplate(t, db, shop.ID)

	_, err := svc.Purchase(context.Background(), PurchaseInput{
		ShopID:        shop.ID,
		CustomerEmail: "buyer@example.test",
		Cart: []CartLine{
			{TemplateID: template.ID, Quantity: 1, Amount: models.NewMoneyFromInt(10)},
		},
	})
	if !errors.Is(err, ErrFeeExceedsCart) {
		t.Fatalf("err = %v, want ErrFeeExceedsCart", err)
	}
	var count int64
	db.Model(&models.Invoice{}).Count(&count)
	if count != 0 {
		t.Errorf("invoices persisted = %d, want 0", count)
	}
}

func TestPurchaseRejectsDisposableEmail(t *testing.T) {
	svc, db := setupPurchaseServiceTest(t)
	owner := createTestUser(t, db, "owner@example.test", constants.UserRoleShop)
	shop := createTestShop(t, db, "studio", owner.ID, constants.StudioModeDemo)
	template := createTestTemplate(t, db, shop.ID)

	_, err := svc.Purchase(context.Background(), PurchaseInput{
		ShopID:        shop.ID,
		CustomerEmail: "throwaway@mailinator.com",
		Cart: []CartLine{
			{TemplateID: template.ID, Quantity: 1, Amount: models.NewMoneyFromInt(50)},
		},
	})
	if !errors.Is(err, ErrEmailDisposable) {
		t.Fatalf("err = %v, want ErrEmailDisposable", err)
	}
}

func TestPurchaseRejectsInvalidCartLines(t *testing.T) {
	svc, db := setupPurchaseServiceTest(t)
	owner := createTestUser(t, db, "owner@example.test", constants.UserRoleShop)
	shop := createTestShop(t, db, "studio", owner.ID, constants.StudioModeDemo)
	template := createTestTemplate(t, db, shop.ID)
	foreignShop := createTestShop(t, db, "foreign", owner.ID, constants.StudioModeDemo)
	foreignTemplate := createTestTemplate(t, db, foreignShop.ID)

	tests := []struct {
		name    string
		cart    []CartLine
		wantErr error
	}{
		{"empty_cart", nil, ErrCartEmpty},
		{"zero_quantity", []CartLine{{TemplateID: template.ID, Quantity: 0, Amount: models.NewMoneyFromInt(50)}}, ErrCartLineInvalid},
		{"excess_quantity", []CartLine{{TemplateID: template.ID, Quantity: 11, Amount: models.NewMoneyFromInt(50)}}, ErrCartLineInvalid},
		{"amount_below_minimum", []CartLine{{TemplateID: template.ID, Quantity: 1, Amount: models.NewMoneyFromInt(5)}}, ErrCartLineInvalid},
		{"amount_above_maximum", []CartLine{{TemplateID: template.ID, Quantity: 1, Amount: models.NewMoneyFromInt(300)}}, ErrCartLineInvalid},
		{"foreign_template", []CartLine{{TemplateID: foreignTemplate.ID, Quantity: 1, Amount: models.NewMoneyFromInt(50)}}, ErrTemplateNotFound},
		{"unknown_template", []CartLine{{TemplateID: 9999, Quantity: 1, Amount: models.NewMoneyFromInt(50)}}, ErrTemplateNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Purchase(context.Background(), PurchaseInput{
				ShopID:        shop.ID,
				CustomerEmail: "buyer@example.test",
				Cart:          tt.cart,
			})
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestPurchaseGeneratesUniqueCodes(t *testing.T) {
	svc, db := setupPurchaseServiceTest(t)
	owner := createTestUser(t, db, "owner@example.test", constants.UserRoleShop)
	shop := createTestShop(t, db, "studio", owner.ID, constants.StudioModeDemo)
	template := createTestTemplate(t, db, shop.ID)

	for i := 0; i < 5; i++ {
		if _, err := svc.Purchase(context.Background(), PurchaseInput{
			ShopID:        shop.ID,
			CustomerEmail: "buyer@example.test",
			Cart: []CartLine{
				{TemplateID: template.ID, Quantity: 10, Amount: models.NewMoneyFromInt(25)},
			},
		}); err != nil {
			t.Fatalf("purchase %d failed: %v", i, err)
		}
	}

	var cards []models.GiftCard
	if err := db.Find(&cards).Error; err != nil {
		t.Fatalf("load cards failed: %v", err)
	}
	if len(cards) != 50 {
		t.Fatalf("cards = %d, want 50", len(cards))
	}
	seen := make(map[string]struct{}, len(cards))
	for _, card := range cards {
		if _, dup := seen[card.Code]; dup {
			t.Fatalf("duplicate code %s", card.Code)
		}
		seen[card.Code] = struct{}{}
	}
}

func TestPurchaseLiveShopWithoutProcessorFails(t *testing.T) {
	svc, db := setupPurchaseServiceTest(t)
	owner := createTestUser(t, db, "owner@example.test", constants.UserRoleShop)
	shop := createTestShop(t, db, "studio", owner.ID, constants.StudioModeLive)
	template := createTestTemplate(t, db, shop.ID)

	_, err := svc.Purchase(context.Background(), PurchaseInput{
		ShopID:        shop.ID,
		CustomerEmail: "buyer@example.test",
		Cart: []CartLine{
			{TemplateID: template.ID, Quantity: 1, Amount: models.NewMoneyFromInt(50)},
		},
	})
	if !errors.Is(err, ErrPaymentInitFailed) {
		t.Fatalf("err = %v, want ErrPaymentInitFailed", err)
	}
}
