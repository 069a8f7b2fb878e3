package service

import (
	"errors"
	"strings"
	"testing"

	"github.com/studiocard/internal/config"
)

func TestSendTextRequiresEnabledService(t *testing.T) {
	svc := NewEmailService(&config.EmailConfig{Enabled: false})
	if err := svc.SendText("buyer@example.test", "hi", "body"); !errors.Is(err, ErrEmailServiceDisabled) {
		t.Errorf("err = %v, want ErrEmailServiceDisabled", err)
	}

	svc = NewEmailService(&config.EmailConfig{Enabled: true})
	if err := svc.SendText("buyer@example.test", "hi", "body"); !errors.Is(err, ErrEmailServiceNotConfigured) {
		t.Errorf("err = %v, want ErrEmailServiceNotConfigured", err)
	}
}

func TestSendTextRejectsInvalidRecipient(t *testing.T) {
	svc := NewEmailService(&config.EmailConfig{
		Enabled: true,
		Host:    "smtp.example.test",
		Port:    587,
		From:    "noreply@example.test",
	})
	if err := svc.SendText("not-an-address", "hi", "body"); !errors.Is(err, ErrInvalidEmail) {
		t.Errorf("err = %v, want ErrInvalidEmail", err)
	}
}

func TestBuildEmailMessagePlainText(t *testing.T) {
	msg := string(buildEmailMessage("noreply@example.test", "buyer@example.test", "Your gift cards", "hello", nil))
	for _, want := range []string{
		"From: noreply@example.test",
		"To: buyer@example.test",
		"Subject: Your gift cards",
		"Content-Type: text/plain; charset=UTF-8",
		"hello",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q", want)
		}
	}
	if strings.Contains(msg, "multipart/mixed") {
		t.Error("plain message must not be multipart")
	}
}

func TestBuildEmailMessageWithAttachments(t *testing.T) {
	attachments := []Attachment{
		{Filename: "gift-card-1234.pdf", ContentType: "application/pdf", Data: []byte("%PDF-1.4 fake")},
		{Filename: "data.bin", Data: []byte{0x01, 0x02}},
	}
	msg := string(buildEmailMessage("noreply@example.test", "buyer@example.test", "Invoice", "see attached", attachments))

	for _, want := range []string{
		"Content-Type: multipart/mixed",
		emailMimeBoundary,
		`Content-Disposition: attachment; filename="gift-card-1234.pdf"`,
		"Content-Type: application/pdf",
		"Content-Transfer-Encoding: base64",
		"Content-Type: application/octet-stream",
		"see attached",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q", want)
		}
	}
}

func TestBuildFromAddressEncodesDisplayName(t *testing.T) {
	if got := buildFromAddress("noreply@example.test", ""); got != "noreply@example.test" {
		t.Errorf("bare from = %q", got)
	}
	got := buildFromAddress("noreply@example.test", "Studio Cards")
	if !strings.Contains(got, "noreply@example.test") || !strings.Contains(got, "Studio Cards") {
		t.Errorf("named from = %q", got)
	}
}

func TestValidateCustomerEmail(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr error
	}{
		{"Buyer@Example.Test", "buyer@example.test", nil},
		{"  buyer@example.test  ", "buyer@example.test", nil},
		{"nope", "", ErrInvalidEmail},
		{"", "", ErrInvalidEmail},
		{"x@mailinator.com", "", ErrEmailDisposable},
		{"x@YOPMAIL.com", "", ErrEmailDisposable},
		{"x@trashmail.de", "", ErrEmailDisposable},
	}
	for _, tt := range tests {
		got, err := validateCustomerEmail(tt.in)
		if tt.wantErr != nil {
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("validateCustomerEmail(%q) err = %v, want %v", tt.in, err, tt.wantErr)
			}
			continue
		}
		if err != nil {
			t.Errorf("validateCustomerEmail(%q) failed: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("validateCustomerEmail(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
