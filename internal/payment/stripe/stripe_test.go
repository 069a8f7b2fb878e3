package stripe

import (
	"context"
	"testing"

	"github.com/studiocard/internal/models"
)

func TestNewClientValidatesConfig(t *testing.T) {
	if _, err := NewClient(Config{}); err == nil {
		t.Fatal("expected error for empty secret key")
	}
	client, err := NewClient(Config{SecretKey: " sk_test_123 "})
	if err != nil {
		t.Fatalf("new client failed: %v", err)
	}
	if client.Currency() != "eur" {
		t.Fatalf("unexpected default currency: %s", client.Currency())
	}
	if client.timeout != defaultTimeout {
		t.Fatalf("unexpected default timeout: %v", client.timeout)
	}
}

func TestCreatePaymentIntentRejectsInvalidInput(t *testing.T) {
	client, err := NewClient(Config{SecretKey: "sk_test_123", Currency: "EUR"})
	if err != nil {
		t.Fatalf("new client failed: %v", err)
	}
	if _, err := client.CreatePaymentIntent(context.Background(), PaymentIntentInput{}); err == nil {
		t.Fatal("expected error for zero amount")
	}
	if _, err := client.CreateRefund(context.Background(), RefundInput{
		Amount: models.NewMoneyFromInt(10),
	}); err == nil {
		t.Fatal("expected error for missing payment intent id")
	}
}

func TestVerifyWebhookRequiresSecret(t *testing.T) {
	client, err := NewClient(Config{SecretKey: "sk_test_123"})
	if err != nil {
		t.Fatalf("new client failed: %v", err)
	}
	if _, err := client.VerifyWebhook([]byte(`{}`), "t=1,v1=abc"); err == nil {
		t.Fatal("expected error without webhook secret")
	}
	client2, err := NewClient(Config{SecretKey: "sk_test_123", WebhookSecret: "whsec_test"})
	if err != nil {
		t.Fatalf("new client failed: %v", err)
	}
	if _, err := client2.VerifyWebhook([]byte(`{"id":"evt_1"}`), "t=1,v1=deadbeef"); err == nil {
		t.Fatal("expected signature error for forged header")
	}
}
