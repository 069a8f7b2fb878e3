package service

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/studiocard/internal/constants"
	"github.com/studiocard/internal/models"
	"github.com/studiocard/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func openServiceTestDB(t *testing.T, name string) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.TaxType{},
		&models.Shop{},
		&models.GiftCardTemplate{},
		&models.Invoice{},
		&models.GiftCard{},
		&models.RedeemGiftCard{},
		&models.RefundInvoice{},
		&models.PaymentInvoice{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db
	return db
}

func createTestUser(t *testing.T, db *gorm.DB, email, role string) *models.User {
	t.Helper()
	user := &models.User{
		Email:        email,
		PasswordHash: "x",
		Role:         role,
		Status:       "active",
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user failed: %v", err)
	}
	return user
}

func createTestShop(t *testing.T, db *gorm.DB, name string, ownerID uint, mode string) *models.Shop {
	t.Helper()
	shop := &models.Shop{
		Name:        name,
		Email:       name + "@example.test",
		OwnerUserID: ownerID,
		StudioMode:  mode,
	}
	if err := db.Create(shop).Error; err != nil {
		t.Fatalf("create shop failed: %v", err)
	}
	return shop
}

func createTestCard(t *testing.T, db *gorm.DB, shopID uint, code, pin, mode string, amount int64) *models.GiftCard {
	t.Helper()
	card := &models.GiftCard{
		Code:            code,
		Pin:             pin,
		Amount:          models.NewMoneyFromInt(amount),
		AvailableAmount: models.NewMoneyFromInt(amount),
		RefundedAmount:  models.MoneyZero(),
		Status:          constants.GiftCardStatusActive,
		Mode:            mode,
		PurchaseDate:    time.Now(),
		ValidTillDate:   time.Now().AddDate(3, 0, 0),
		ShopID:          shopID,
		TemplateID:      1,
		InvoiceID:       1,
	}
	if err := db.Create(card).Error; err != nil {
		t.Fatalf("create gift card failed: %v", err)
	}
	return card
}

func reloadCard(t *testing.T, db *gorm.DB, id uint) *models.GiftCard {
	t.Helper()
	var card models.GiftCard
	if err := db.First(&card, id).Error; err != nil {
		t.Fatalf("reload gift card failed: %v", err)
	}
	return &card
}

func setupGiftCardServiceTest(t *testing.T) (*GiftCardService, *gorm.DB) {
	t.Helper()
	db := openServiceTestDB(t, "gift_card_service_test")
	svc := NewGiftCardService(repository.NewGiftCardRepository(db), nil)
	return svc, db
}

func TestCheckBalanceReturnsAmounts(t *testing.T) {
	svc, db := setupGiftCardServiceTest(t)
	owner := createTestUser(t, db, "owner@example.test", constants.UserRoleShop)
	shop := createTestShop(t, db, "studio", owner.ID, constants.StudioModeLive)
	card := createTestCard(t, db, shop.ID, "1234567890123456", "654321", constants.StudioModeLive, 50)

	result, err := svc.CheckBalance(card.Code, "654321")
	if err != nil {
		t.Fatalf("CheckBalance failed: %v", err)
	}
	if !result.AvailableAmount.Equal(decimal.NewFromInt(50)) {
		t.Errorf("available = %s, want 50", result.AvailableAmount.String())
	}
	if result.Status != constants.GiftCardStatusActive {
		t.Errorf("status = %s, want active", result.Status)
	}
}

func TestCheckBalanceWrongPinPersistsCounter(t *testing.T) {
	svc, db := setupGiftCardServiceTest(t)
	owner := createTestUser(t, db, "owner@example.test", constants.UserRoleShop)
	shop := createTestShop(t, db, "studio", owner.ID, constants.StudioModeLive)
	card := createTestCard(t, db, shop.ID, "1234567890123456", "654321", constants.StudioModeLive, 50)

	if _, err := svc.CheckBalance(card.Code, "000000"); !errors.Is(err, ErrPinIncorrect) {
		t.Fatalf("err = %v, want ErrPinIncorrect", err)
	}
	stored := reloadCard(t, db, card.ID)
	if stored.IncorrectPinCount != 1 {
		t.Errorf("incorrect_pin_count = %d, want 1", stored.IncorrectPinCount)
	}
	if stored.LastIncorrectPin != "000000" {
		t.Errorf("last_incorrect_pin = %q, want 000000", stored.LastIncorrectPin)
	}
}

func TestCheckBalanceRepeatedSameWrongPinDoesNotIncrement(t *testing.T) {
	svc, db := setupGiftCardServiceTest(t)
	owner := createTestUser(t, db, "owner@example.test", constants.UserRoleShop)
	shop := createTestShop(t, db, "studio", owner.ID, constants.StudioModeLive)
	card := createTestCard(t, db, shop.ID, "1234567890123456", "654321", constants.StudioModeLive, 50)

	if _, err := svc.CheckBalance(card.Code, "000000"); !errors.Is(err, ErrPinIncorrect) {
		t.Fatalf("first attempt err = %v, want ErrPinIncorrect", err)
	}
	if _, err := svc.CheckBalance(card.Code, "000000"); !errors.Is(err, ErrPinAlreadyTried) {
		t.Fatalf("second attempt err = %v, want ErrPinAlreadyTried", err)
	}
	stored := reloadCard(t, db, card.ID)
	if stored.IncorrectPinCount != 1 {
		t.Errorf("incorrect_pin_count = %d, want 1", stored.IncorrectPinCount)
	}
}

func TestCheckBalanceFifthDistinctWrongPinBlocksCard(t *testing.T) {
	svc, db := setupGiftCardServiceTest(t)
	owner := createTestUser(t, db, "owner@example.test", constants.UserRoleShop)
	shop := createTestShop(t, db, "studio", owner.ID, constants.StudioModeLive)
	card := createTestCard(t, db, shop.ID, "1234567890123456", "654321", constants.StudioModeLive, 50)

	wrongPins := []string{"000001", "000002", "000003", "000004"}
	for _, pin := range wrongPins {
		if _, err := svc.CheckBalance(card.Code, pin); !errors.Is(err, ErrPinIncorrect) {
			t.Fatalf("pin %s err = %v, want ErrPinIncorrect", pin, err)
		}
	}
	if _, err := svc.CheckBalance(card.Code, "000005"); !errors.Is(err, ErrGiftCardTempBlocked) {
		t.Fatalf("fifth attempt err = %v, want ErrGiftCardTempBlocked", err)
	}

	stored := reloadCard(t, db, card.ID)
	if stored.IncorrectPinCount != 0 {
		t.Errorf("incorrect_pin_count = %d, want 0 after block", stored.IncorrectPinCount)
	}
	if stored.BlockedUntil == nil {
		t.Fatal("blocked_until not set")
	}
	remaining := time.Until(*stored.BlockedUntil)
	if remaining < 55*time.Minute || remaining > 65*time.Minute {
		t.Errorf("blocked_until in %s, want about 1h", remaining)
	}
	if stored.Status != constants.GiftCardStatusActive {
		t.Errorf("status = %s, want active while cooling down", stored.Status)
	}

	// 冷却期内即便 PIN 正确也拒绝
	if _, err := svc.CheckBalance(card.Code, "654321"); !errors.Is(err, ErrGiftCardTempBlocked) {
		t.Errorf("correct pin during cooldown err = %v, want ErrGiftCardTempBlocked", err)
	}
}

func TestCheckBalanceExpiredCardPersistsStatus(t *testing.T) {
	svc, db := setupGiftCardServiceTest(t)
	owner := createTestUser(t, db, "owner@example.test", constants.UserRoleShop)
	shop := createTestShop(t, db, "studio", owner.ID, constants.StudioModeLive)
	card := createTestCard(t, db, shop.ID, "1234567890123456", "654321", constants.StudioModeLive, 50)
	if err := db.Model(card).Update("valid_till_date", time.Now().Add(-time.Hour)).Error; err != nil {
		t.Fatalf("backdate failed: %v", err)
	}

	if _, err := svc.CheckBalance(card.Code, "654321"); !errors.Is(err, ErrGiftCardExpired) {
		t.Fatalf("err = %v, want ErrGiftCardExpired", err)
	}
	stored := reloadCard(t, db, card.ID)
	if stored.Status != constants.GiftCardStatusExpired {
		t.Errorf("status = %s, want expired persisted", stored.Status)
	}
}

func TestCheckBalanceCooldownElapsedUnblocks(t *testing.T) {
	svc, db := setupGiftCardServiceTest(t)
	owner := createTestUser(t, db, "owner@example.test", constants.UserRoleShop)
	shop := createTestShop(t, db, "studio", owner.ID, constants.StudioModeLive)
	card := createTestCard(t, db, shop.ID, "1234567890123456", "654321", constants.StudioModeLive, 50)
	past := time.Now().Add(-time.Minute)
	if err := db.Model(card).Update("blocked_until", past).Error; err != nil {
		t.Fatalf("set blocked_until failed: %v", err)
	}

	result, err := svc.CheckBalance(card.Code, "654321")
	if err != nil {
		t.Fatalf("CheckBalance after cooldown failed: %v", err)
	}
	if result.Status != constants.GiftCardStatusActive {
		t.Errorf("status = %s, want active", result.Status)
	}
}

func TestBlockGiftCardManualBlockDoesNotAutoUnblock(t *testing.T) {
	svc, db := setupGiftCardServiceTest(t)
	owner := createTestUser(t, db, "owner@example.test", constants.UserRoleShop)
	shop := createTestShop(t, db, "studio", owner.ID, constants.StudioModeLive)
	card := createTestCard(t, db, shop.ID, "1234567890123456", "654321", constants.StudioModeLive, 50)

	if _, err := svc.BlockGiftCard(card.ID, "suspected fraud"); err != nil {
		t.Fatalf("BlockGiftCard failed: %v", err)
	}
	stored := reloadCard(t, db, card.ID)
	if stored.Status != constants.GiftCardStatusBlocked {
		t.Fatalf("status = %s, want blocked", stored.Status)
	}
	if stored.BlockedUntil != nil {
		t.Error("manual block must not set blocked_until")
	}
	// 手工封禁不随时间自动恢复
	if got := EffectiveStatus(stored, time.Now().Add(48*time.Hour)); got != constants.GiftCardStatusBlocked {
		t.Errorf("EffectiveStatus after 48h = %s, want blocked", got)
	}

	if _, err := svc.CheckBalance(card.Code, "654321"); !errors.Is(err, ErrGiftCardBlocked) {
		t.Errorf("balance on blocked card err = %v, want ErrGiftCardBlocked", err)
	}
}

func TestUnblockGiftCardResetsLockoutState(t *testing.T) {
	svc, db := setupGiftCardServiceTest(t)
	owner := createTestUser(t, db, "owner@example.test", constants.UserRoleShop)
	shop := createTestShop(t, db, "studio", owner.ID, constants.StudioModeLive)
	card := createTestCard(t, db, shop.ID, "1234567890123456", "654321", constants.StudioModeLive, 50)
	until := time.Now().Add(time.Hour)
	if err := db.Model(card).Updates(map[string]interface{}{
		"status":              constants.GiftCardStatusBlocked,
		"incorrect_pin_count": 3,
		"blocked_until":       until,
	}).Error; err != nil {
		t.Fatalf("seed blocked state failed: %v", err)
	}

	if _, err := svc.UnblockGiftCard(card.ID); err != nil {
		t.Fatalf("UnblockGiftCard failed: %v", err)
	}
	stored := reloadCard(t, db, card.ID)
	if stored.Status != constants.GiftCardStatusActive {
		t.Errorf("status = %s, want active", stored.Status)
	}
	if stored.IncorrectPinCount != 0 || stored.BlockedUntil != nil {
		t.Errorf("lockout state not reset: count=%d blocked_until=%v", stored.IncorrectPinCount, stored.BlockedUntil)
	}
}

func TestCheckBalanceRejectsMalformedInput(t *testing.T) {
	svc, _ := setupGiftCardServiceTest(t)
	if _, err := svc.CheckBalance("123", "654321"); !errors.Is(err, ErrGiftCardInvalid) {
		t.Errorf("short code err = %v, want ErrGiftCardInvalid", err)
	}
	if _, err := svc.CheckBalance("1234567890123456", "12"); !errors.Is(err, ErrGiftCardInvalid) {
		t.Errorf("short pin err = %v, want ErrGiftCardInvalid", err)
	}
	if _, err := svc.CheckBalance("9999999999999999", "123456"); !errors.Is(err, ErrGiftCardNotFound) {
		t.Errorf("unknown code err = %v, want ErrGiftCardNotFound", err)
	}
}
