package service

import (
	"errors"
	"testing"

	"github.com/studiocard/internal/constants"
	"github.com/studiocard/internal/models"
	"github.com/studiocard/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupRedeemServiceTest(t *testing.T) (*RedeemService, *gorm.DB) {
	t.Helper()
	db := openServiceTestDB(t, "redeem_service_test")
	svc := NewRedeemService(
		repository.NewGiftCardRepository(db),
		repository.NewShopRepository(db),
		repository.NewRedeemGiftCardRepository(db),
		nil,
		nil,
	)
	return svc, db
}

func TestRedeemDebitsBalanceAndRecordsRedemption(t *testing.T) {
	svc, db := setupRedeemServiceTest(t)
	owner := createTestUser(t, db, "owner@example.test", constants.UserRoleShop)
	shop := createTestShop(t, db, "studio", owner.ID, constants.StudioModeLive)
	card := createTestCard(t, db, shop.ID, "1234567890123456", "654321", constants.StudioModeLive, 50)

	result, err := svc.Redeem(RedeemInput{
		Code:         card.Code,
		Pin:          "654321",
		Amount:       models.NewMoneyFromInt(20),
		RedeemShopID: shop.ID,
	})
	if err != nil {
		t.Fatalf("Redeem failed: %v", err)
	}
	if !result.GiftCard.AvailableAmount.Equal(decimal.NewFromInt(30)) {
		t.Errorf("available = %s, want 30", result.GiftCard.AvailableAmount.String())
	}
	if !result.Fees.IsZero() {
		t.Errorf("fees = %s, want 0 for own-shop card", result.Fees.String())
	}

	stored := reloadCard(t, db, card.ID)
	if !stored.AvailableAmount.Equal(decimal.NewFromInt(30)) {
		t.Errorf("stored available = %s, want 30", stored.AvailableAmount.String())
	}
	if stored.LockVersion != card.LockVersion+1 {
		t.Errorf("lock_version = %d, want %d", stored.LockVersion, card.LockVersion+1)
	}

	var records []models.RedeemGiftCard
	if err := db.Where("gift_card_id = ?", card.ID).Find(&records).Error; err != nil {
		t.Fatalf("load redemptions failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("redemption records = %d, want 1", len(records))
	}
	if records[0].IssuerShopID != shop.ID || records[0].RedeemedShopID != shop.ID {
		t.Errorf("record shops = %d/%d, want %d", records[0].IssuerShopID, records[0].RedeemedShopID, shop.ID)
	}

	// 余额不变式：available == amount - 兑换合计 - refunded
	redeemed := decimal.Zero
	for _, r := range records {
		redeemed = redeemed.Add(r.Amount.Decimal)
	}
	want := stored.Amount.Sub(redeemed).Sub(stored.RefundedAmount.Decimal)
	if !stored.AvailableAmount.Equal(want) {
		t.Errorf("balance invariant broken: available=%s want=%s", stored.AvailableAmount.String(), want.String())
	}
}

func TestRedeemInsufficientBalance(t *testing.T) {
	svc, db := setupRedeemServiceTest(t)
	owner := createTestUser(t, db, "owner@example.test", constants.UserRoleShop)
	shop := createTestShop(t, db, "studio", owner.ID, constants.StudioModeLive)
	card := createTestCard(t, db, shop.ID, "1234567890123456", "654321", constants.StudioModeLive, 50)

	_, err := svc.Redeem(RedeemInput{
		Code:         card.Code,
		Pin:          "654321",
		Amount:       models.NewMoneyFromInt(51),
		RedeemShopID: shop.ID,
	})
	if !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("err = %v, want ErrInsufficientBalance", err)
	}
	stored := reloadCard(t, db, card.ID)
	if !stored.AvailableAmount.Equal(decimal.NewFromInt(50)) {
		t.Errorf("available changed to %s on rejected redemption", stored.AvailableAmount.String())
	}
}

func TestRedeemEligibilityMatrix(t *testing.T) {
	svc, db := setupRedeemServiceTest(t)
	admin := createTestUser(t, db, "admin@example.test", constants.UserRoleAdmin)
	merchant := createTestUser(t, db, "merchant@example.test", constants.UserRoleShop)
	other := createTestUser(t, db, "other@example.test", constants.UserRoleShop)

	adminLive := createTestShop(t, db, "platform-live", admin.ID, constants.StudioModeLive)
	adminDemo := createTestShop(t, db, "platform-demo", admin.ID, constants.StudioModeDemo)
	merchantLive := createTestShop(t, db, "merchant-live", merchant.ID, constants.StudioModeLive)
	merchantDemo := createTestShop(t, db, "merchant-demo", merchant.ID, constants.StudioModeDemo)
	otherLive := createTestShop(t, db, "other-live", other.ID, constants.StudioModeLive)

	tests := []struct {
		name       string
		code       string
		issuer     *models.Shop
		cardMode   string
		redeemShop *models.Shop
		wantErr    error
	}{
		{"platform_card_at_merchant", "1111111111111111", adminLive, constants.StudioModeLive, merchantLive, nil},
		{"platform_card_at_platform", "2222222222222222", adminLive, constants.StudioModeLive, adminLive, ErrRedeemAtAdminShop},
		{"platform_live_card_at_demo_shop", "3333333333333333", adminLive, constants.StudioModeDemo, merchantDemo, ErrRedeemLiveCardAtDemoShop},
		{"platform_demo_card_at_live_shop", "4444444444444444", adminDemo, constants.StudioModeLive, merchantLive, ErrRedeemDemoCardAtLiveShop},
		{"merchant_card_at_issuer", "5555555555555555", merchantLive, constants.StudioModeLive, merchantLive, nil},
		{"merchant_card_cross_shop", "6666666666666666", merchantLive, constants.StudioModeLive, otherLive, ErrRedeemCrossShopForbidden},
		{"mode_mismatch", "7777777777777777", merchantLive, constants.StudioModeDemo, merchantLive, ErrRedeemModeMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			card := createTestCard(t, db, tt.issuer.ID, tt.code, "654321", tt.cardMode, 50)
			_, err := svc.Redeem(RedeemInput{
				Code:         card.Code,
				Pin:          "654321",
				Amount:       models.NewMoneyFromInt(10),
				RedeemShopID: tt.redeemShop.ID,
			})
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("Redeem failed: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestRedeemPlatformCardChargesFeeAtRedeemShopRates(t *testing.T) {
	svc, db := setupRedeemServiceTest(t)
	admin := createTestUser(t, db, "admin@example.test", constants.UserRoleAdmin)
	merchant := createTestUser(t, db, "merchant@example.test", constants.UserRoleShop)
	adminShop := createTestShop(t, db, "platform", admin.ID, constants.StudioModeLive)
	redeemShop := createTestShop(t, db, "merchant", merchant.ID, constants.StudioModeLive)
	redeemShop.PlatformRedeemFee = models.NewMoneyFromInt(10)
	redeemShop.FixedPaymentRedeemFee = models.NewMoneyFromInt(2)
	if err := db.Save(redeemShop).Error; err != nil {
		t.Fatalf("save shop failed: %v", err)
	}
	card := createTestCard(t, db, adminShop.ID, "1234567890123456", "654321", constants.StudioModeLive, 100)

	result, err := svc.Redeem(RedeemInput{
		Code:         card.Code,
		Pin:          "654321",
		Amount:       models.NewMoneyFromInt(40),
		RedeemShopID: redeemShop.ID,
	})
	if err != nil {
		t.Fatalf("Redeem failed: %v", err)
	}
	// 40 * 10% + 2 = 6
	if !result.Fees.Equal(decimal.NewFromInt(6)) {
		t.Errorf("fees = %s, want 6", result.Fees.String())
	}
}

func TestRedeemFeeClampsToZeroWhenExceedingAmount(t *testing.T) {
	svc, db := setupRedeemServiceTest(t)
	admin := createTestUser(t, db, "admin@example.test", constants.UserRoleAdmin)
	merchant := createTestUser(t, db, "merchant@example.test", constants.UserRoleShop)
	adminShop := createTestShop(t, db, "platform", admin.ID, constants.StudioModeLive)
	redeemShop := createTestShop(t, db, "merchant", merchant.ID, constants.StudioModeLive)
	redeemShop.PlatformRedeemFee = models.NewMoneyFromInt(100)
	redeemShop.FixedPaymentRedeemFee = models.NewMoneyFromInt(5)
	if err := db.Save(redeemShop).Error; err != nil {
		t.Fatalf("save shop failed: %v", err)
	}
	card := createTestCard(t, db, adminShop.ID, "1234567890123456", "654321", constants.StudioModeLive, 100)

	// 3 * 100% + 5 = 8 >= 3，手续费钳制为 0
	result, err := svc.Redeem(RedeemInput{
		Code:         card.Code,
		Pin:          "654321",
		Amount:       models.NewMoneyFromInt(3),
		RedeemShopID: redeemShop.ID,
	})
	if err != nil {
		t.Fatalf("Redeem failed: %v", err)
	}
	if !result.Fees.IsZero() {
		t.Errorf("fees = %s, want 0 after clamp", result.Fees.String())
	}
}

func TestRedeemConcurrentVersionConflict(t *testing.T) {
	svc, db := setupRedeemServiceTest(t)
	owner := createTestUser(t, db, "owner@example.test", constants.UserRoleShop)
	shop := createTestShop(t, db, "studio", owner.ID, constants.StudioModeLive)
	card := createTestCard(t, db, shop.ID, "1234567890123456", "654321", constants.StudioModeLive, 50)

	repo := repository.NewGiftCardRepository(db)
	stale := card.LockVersion
	remaining := models.NewMoneyFromInt(40)
	if err := repo.PatchWithVersion(card.ID, stale, repository.GiftCardPatch{AvailableAmount: &remaining}); err != nil {
		t.Fatalf("first debit failed: %v", err)
	}
	err := repo.PatchWithVersion(card.ID, stale, repository.GiftCardPatch{AvailableAmount: &remaining})
	if !errors.Is(err, repository.ErrStaleGiftCard) {
		t.Fatalf("stale debit err = %v, want ErrStaleGiftCard", err)
	}

	// 服务层在版本冲突时返回并发兑换错误：走完整兑换路径仍应成功（读到新版本）
	if _, err := svc.Redeem(RedeemInput{
		Code:         card.Code,
		Pin:          "654321",
		Amount:       models.NewMoneyFromInt(10),
		RedeemShopID: shop.ID,
	}); err != nil {
		t.Fatalf("redeem after external debit failed: %v", err)
	}
}
