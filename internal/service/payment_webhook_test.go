package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/studiocard/internal/constants"
	"github.com/studiocard/internal/models"
	"github.com/studiocard/internal/payment/stripe"
	"github.com/studiocard/internal/repository"

	"gorm.io/gorm"
)

func setupWebhookTest(t *testing.T) (*PaymentWebhookService, *gorm.DB) {
	t.Helper()
	db := openServiceTestDB(t, "payment_webhook_test")
	invoiceRepo := repository.NewInvoiceRepository(db)
	fulfillment := NewFulfillmentService(
		invoiceRepo,
		repository.NewGiftCardRepository(db),
		repository.NewShopRepository(db),
		repository.NewRedeemGiftCardRepository(db),
		repository.NewRefundInvoiceRepository(db),
		nil,
		nil,
		nil,
	)
	svc := NewPaymentWebhookService(nil, nil, invoiceRepo, fulfillment, nil)
	return svc, db
}

func seedPendingInvoice(t *testing.T, db *gorm.DB, paymentIntentID string, cardCount int) *models.Invoice {
	t.Helper()
	owner := createTestUser(t, db, "owner@example.test", constants.UserRoleShop)
	shop := createTestShop(t, db, "studio", owner.ID, constants.StudioModeLive)
	invoice := &models.Invoice{
		InvoiceNo:             "INV-20260831-CD34",
		ShopID:                shop.ID,
		CustomerEmail:         "buyer@example.test",
		TransactionStatus:     constants.TransactionStatusPending,
		OrderStatus:           constants.OrderStatusPending,
		TotalAmount:           models.NewMoneyFromInt(int64(cardCount) * 50),
		Mode:                  constants.StudioModeLive,
		StripePaymentIntentID: paymentIntentID,
	}
	if err := db.Create(invoice).Error; err != nil {
		t.Fatalf("create invoice failed: %v", err)
	}
	for i := 0; i < cardCount; i++ {
		card := models.GiftCard{
			Code:            fmt.Sprintf("%016d", 1000000000000000+i),
			Pin:             "654321",
			Amount:          models.NewMoneyFromInt(50),
			AvailableAmount: models.NewMoneyFromInt(50),
			RefundedAmount:  models.MoneyZero(),
			Status:          constants.GiftCardStatusPendingPayment,
			Mode:            constants.StudioModeLive,
			PurchaseDate:    time.Now(),
			ValidTillDate:   time.Now().AddDate(3, 0, 0),
			ShopID:          shop.ID,
			TemplateID:      1,
			InvoiceID:       invoice.ID,
		}
		if err := db.Create(&card).Error; err != nil {
			t.Fatalf("create card failed: %v", err)
		}
	}
	return invoice
}

func paymentIntentPayload(id string) json.RawMessage {
	return json.RawMessage(fmt.Sprintf(`{"id":%q,"object":"payment_intent","status":"succeeded"}`, id))
}

func TestWebhookSucceededActivatesCards(t *testing.T) {
	svc, db := setupWebhookTest(t)
	invoice := seedPendingInvoice(t, db, "pi_hook_1", 2)

	err := svc.HandleEvent(context.Background(), "evt_1", "payment_intent.succeeded", paymentIntentPayload("pi_hook_1"))
	if err != nil {
		t.Fatalf("HandleEvent failed: %v", err)
	}

	var stored models.Invoice
	if err := db.First(&stored, invoice.ID).Error; err != nil {
		t.Fatalf("reload invoice failed: %v", err)
	}
	if stored.TransactionStatus != constants.TransactionStatusCompleted {
		t.Errorf("transaction_status = %s, want completed", stored.TransactionStatus)
	}
	if stored.OrderStatus != constants.OrderStatusCompleted {
		t.Errorf("order_status = %s, want completed", stored.OrderStatus)
	}

	var cards []models.GiftCard
	if err := db.Where("invoice_id = ?", invoice.ID).Find(&cards).Error; err != nil {
		t.Fatalf("load cards failed: %v", err)
	}
	for _, card := range cards {
		if card.Status != constants.GiftCardStatusActive {
			t.Errorf("card %s status = %s, want active", card.Code, card.Status)
		}
	}
}

func TestWebhookRedeliveryIsIdempotent(t *testing.T) {
	svc, db := setupWebhookTest(t)
	invoice := seedPendingInvoice(t, db, "pi_hook_2", 2)

	for i := 0; i < 2; i++ {
		eventID := fmt.Sprintf("evt_redelivered_%d", i)
		if err := svc.HandleEvent(context.Background(), eventID, "payment_intent.succeeded", paymentIntentPayload("pi_hook_2")); err != nil {
			t.Fatalf("delivery %d failed: %v", i, err)
		}
	}

	var cards []models.GiftCard
	if err := db.Where("invoice_id = ?", invoice.ID).Find(&cards).Error; err != nil {
		t.Fatalf("load cards failed: %v", err)
	}
	for _, card := range cards {
		if card.Status != constants.GiftCardStatusActive {
			t.Errorf("card %s status = %s after redelivery, want active", card.Code, card.Status)
		}
	}
	var stored models.Invoice
	if err := db.First(&stored, invoice.ID).Error; err != nil {
		t.Fatalf("reload invoice failed: %v", err)
	}
	if stored.TransactionStatus != constants.TransactionStatusCompleted {
		t.Errorf("transaction_status = %s, want completed", stored.TransactionStatus)
	}
}

func TestWebhookPaymentFailedDeactivatesCards(t *testing.T) {
	svc, db := setupWebhookTest(t)
	invoice := seedPendingInvoice(t, db, "pi_hook_3", 1)

	err := svc.HandleEvent(context.Background(), "evt_3", "payment_intent.payment_failed", paymentIntentPayload("pi_hook_3"))
	if err != nil {
		t.Fatalf("HandleEvent failed: %v", err)
	}

	var stored models.Invoice
	if err := db.First(&stored, invoice.ID).Error; err != nil {
		t.Fatalf("reload invoice failed: %v", err)
	}
	if stored.TransactionStatus != constants.TransactionStatusFailed {
		t.Errorf("transaction_status = %s, want failed", stored.TransactionStatus)
	}
	if stored.OrderStatus != constants.OrderStatusFailed {
		t.Errorf("order_status = %s, want failed", stored.OrderStatus)
	}
	var cards []models.GiftCard
	if err := db.Where("invoice_id = ?", invoice.ID).Find(&cards).Error; err != nil {
		t.Fatalf("load cards failed: %v", err)
	}
	for _, card := range cards {
		if card.Status != constants.GiftCardStatusInactive {
			t.Errorf("card %s status = %s, want inactive", card.Code, card.Status)
		}
	}
}

func TestWebhookCanceledMarksInvoiceCancelled(t *testing.T) {
	svc, db := setupWebhookTest(t)
	invoice := seedPendingInvoice(t, db, "pi_hook_4", 1)

	err := svc.HandleEvent(context.Background(), "evt_4", "payment_intent.canceled", paymentIntentPayload("pi_hook_4"))
	if err != nil {
		t.Fatalf("HandleEvent failed: %v", err)
	}
	var stored models.Invoice
	if err := db.First(&stored, invoice.ID).Error; err != nil {
		t.Fatalf("reload invoice failed: %v", err)
	}
	if stored.TransactionStatus != constants.TransactionStatusCancelled {
		t.Errorf("transaction_status = %s, want cancelled", stored.TransactionStatus)
	}
	if stored.OrderStatus != constants.OrderStatusCancelled {
		t.Errorf("order_status = %s, want cancelled", stored.OrderStatus)
	}
}

func TestWebhookProcessingMarksInProgress(t *testing.T) {
	svc, db := setupWebhookTest(t)
	invoice := seedPendingInvoice(t, db, "pi_hook_5", 1)

	err := svc.HandleEvent(context.Background(), "evt_5", "payment_intent.processing", paymentIntentPayload("pi_hook_5"))
	if err != nil {
		t.Fatalf("HandleEvent failed: %v", err)
	}
	var stored models.Invoice
	if err := db.First(&stored, invoice.ID).Error; err != nil {
		t.Fatalf("reload invoice failed: %v", err)
	}
	if stored.TransactionStatus != constants.TransactionStatusInProgress {
		t.Errorf("transaction_status = %s, want in_progress", stored.TransactionStatus)
	}
}

func TestWebhookUnknownEventIsIgnored(t *testing.T) {
	svc, _ := setupWebhookTest(t)
	err := svc.HandleEvent(context.Background(), "evt_6", "customer.created", json.RawMessage(`{"id":"cus_1","object":"customer"}`))
	if err != nil {
		t.Fatalf("unknown event must be accepted, got %v", err)
	}
}

func TestWebhookUnknownPaymentIntentIsIgnored(t *testing.T) {
	svc, _ := setupWebhookTest(t)
	err := svc.HandleEvent(context.Background(), "evt_7", "payment_intent.succeeded", paymentIntentPayload("pi_missing"))
	if err != nil {
		t.Fatalf("unmatched payment intent must be accepted, got %v", err)
	}
}

func TestWebhookCheckoutSessionResolvesPaymentIntent(t *testing.T) {
	svc, db := setupWebhookTest(t)
	invoice := seedPendingInvoice(t, db, "pi_hook_8", 1)

	payload := json.RawMessage(`{"id":"cs_1","object":"checkout.session","payment_intent":"pi_hook_8"}`)
	if err := svc.HandleEvent(context.Background(), "evt_8", "checkout.session.async_payment_succeeded", payload); err != nil {
		t.Fatalf("HandleEvent failed: %v", err)
	}
	var stored models.Invoice
	if err := db.First(&stored, invoice.ID).Error; err != nil {
		t.Fatalf("reload invoice failed: %v", err)
	}
	if stored.TransactionStatus != constants.TransactionStatusCompleted {
		t.Errorf("transaction_status = %s, want completed", stored.TransactionStatus)
	}
}

type fakeIntentRetriever struct {
	status string
	err    error
	lastID string
}

func (f *fakeIntentRetriever) RetrievePaymentIntent(_ context.Context, id string) (*stripe.PaymentIntentResult, error) {
	f.lastID = id
	if f.err != nil {
		return nil, f.err
	}
	return &stripe.PaymentIntentResult{PaymentIntentID: id, Status: f.status}, nil
}

func TestReconcileInvoiceFulfillsOnSucceeded(t *testing.T) {
	svc, db := setupWebhookTest(t)
	invoice := seedPendingInvoice(t, db, "pi_reconcile_1", 2)
	retriever := &fakeIntentRetriever{status: "succeeded"}
	svc.intents = retriever

	status, err := svc.ReconcileInvoice(context.Background(), invoice.ID)
	if err != nil {
		t.Fatalf("ReconcileInvoice failed: %v", err)
	}
	if status != "succeeded" {
		t.Errorf("status = %s, want succeeded", status)
	}
	if retriever.lastID != "pi_reconcile_1" {
		t.Errorf("queried intent = %s, want pi_reconcile_1", retriever.lastID)
	}

	var stored models.Invoice
	if err := db.First(&stored, invoice.ID).Error; err != nil {
		t.Fatalf("reload invoice failed: %v", err)
	}
	if stored.TransactionStatus != constants.TransactionStatusCompleted {
		t.Errorf("transaction_status = %s, want completed", stored.TransactionStatus)
	}
	var cards []models.GiftCard
	if err := db.Where("invoice_id = ?", invoice.ID).Find(&cards).Error; err != nil {
		t.Fatalf("load cards failed: %v", err)
	}
	for _, card := range cards {
		if card.Status != constants.GiftCardStatusActive {
			t.Errorf("card %s status = %s, want active", card.Code, card.Status)
		}
	}
}

func TestReconcileInvoiceCanceledFailsInvoice(t *testing.T) {
	svc, db := setupWebhookTest(t)
	invoice := seedPendingInvoice(t, db, "pi_reconcile_2", 1)
	svc.intents = &fakeIntentRetriever{status: "canceled"}

	if _, err := svc.ReconcileInvoice(context.Background(), invoice.ID); err != nil {
		t.Fatalf("ReconcileInvoice failed: %v", err)
	}
	var stored models.Invoice
	if err := db.First(&stored, invoice.ID).Error; err != nil {
		t.Fatalf("reload invoice failed: %v", err)
	}
	if stored.TransactionStatus != constants.TransactionStatusCancelled {
		t.Errorf("transaction_status = %s, want cancelled", stored.TransactionStatus)
	}
}

func TestReconcileInvoiceWithoutProcessor(t *testing.T) {
	svc, db := setupWebhookTest(t)
	invoice := seedPendingInvoice(t, db, "pi_reconcile_3", 1)

	if _, err := svc.ReconcileInvoice(context.Background(), invoice.ID); !errors.Is(err, ErrProcessorUnavailable) {
		t.Fatalf("err = %v, want ErrProcessorUnavailable", err)
	}
}

func TestReconcileInvoiceWithoutPaymentIntent(t *testing.T) {
	svc, db := setupWebhookTest(t)
	invoice := seedPendingInvoice(t, db, "", 1)
	svc.intents = &fakeIntentRetriever{status: "succeeded"}

	if _, err := svc.ReconcileInvoice(context.Background(), invoice.ID); !errors.Is(err, ErrInvoiceNoPaymentIntent) {
		t.Fatalf("err = %v, want ErrInvoiceNoPaymentIntent", err)
	}
}
