package pdf

import (
	"bytes"
	"testing"
	"time"

	"github.com/studiocard/internal/models"
)

func TestRenderGiftCard(t *testing.T) {
	card := &models.GiftCard{
		Code:          "1234567890123456",
		Amount:        models.NewMoneyFromInt(50),
		ValidTillDate: time.Date(2029, 12, 31, 0, 0, 0, 0, time.UTC),
		Message:       "Alles Gute zum Geburtstag",
	}
	data, err := RenderGiftCard(card, "Yoga Studio Mitte", "123456")
	if err != nil {
		t.Fatalf("render gift card failed: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Fatal("output is not a pdf document")
	}
}

func TestRenderInvoice(t *testing.T) {
	now := time.Now()
	invoice := &models.Invoice{
		InvoiceNo:     "INV-20260101-0001",
		CustomerEmail: "kunde@example.com",
		NetAmount:     models.NewMoneyFromInt(84),
		TaxAmount:     models.NewMoneyFromInt(16),
		TotalAmount:   models.NewMoneyFromInt(100),
		GiftCards: []models.GiftCard{
			{Code: "1234567890123456", Amount: models.NewMoneyFromInt(100), ValidTillDate: now.AddDate(3, 0, 0)},
		},
	}
	shop := &models.Shop{Name: "Yoga Studio Mitte"}
	data, err := RenderInvoice(invoice, shop, models.NewMoneyFromInt(19))
	if err != nil {
		t.Fatalf("render invoice failed: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Fatal("output is not a pdf document")
	}
}

func TestRenderNilInputs(t *testing.T) {
	if _, err := RenderGiftCard(nil, "x", ""); err == nil {
		t.Fatal("expected error for nil gift card")
	}
	if _, err := RenderInvoice(nil, nil, models.MoneyZero()); err == nil {
		t.Fatal("expected error for nil invoice")
	}
}

func TestFormatCardCode(t *testing.T) {
	got := formatCardCode("1234567890123456")
	if got != "1234 5678 9012 3456" {
		t.Fatalf("unexpected formatting: %q", got)
	}
}
