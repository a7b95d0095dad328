package service

import (
	"bytes"
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"

	"github.com/kedai-next/internal/constants"
)

func TestNormalizeWhatsAppPhone(t *testing.T) {
	cases := map[string]string{
		"0812-3456-789":  "628123456789",
		"+62 812 3456":   "628123456",
		"62812":          "62812",
		"":               "",
		"(021) 555 0101": "62215550101",
	}
	for input, want := range cases {
		if got := normalizeWhatsAppPhone(input); got != want {
			t.Fatalf("%q: expected %q, got %q", input, want, got)
		}
	}
}

func TestAssistedInstructionsAndQRCode(t *testing.T) {
	f := setupServiceFixture(t)
	ctx := context.Background()
	f.fillCart(t, "session-assist-qr")
	result, err := f.checkout.Checkout(ctx, deliveryCheckoutInput("session-assist-qr", constants.PaymentMethodAssisted, offsetNorth(1)))
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}

	instructions, err := f.assisted.Instructions(ctx, result.Order, "en-US")
	if err != nil {
		t.Fatalf("instructions failed: %v", err)
	}
	if !strings.Contains(instructions.Message, result.Order.OrderNo) || !strings.Contains(instructions.Message, "43000 IDR") {
		t.Fatalf("unexpected message: %s", instructions.Message)
	}
	parsed, err := url.Parse(instructions.ContactURL)
	if err != nil {
		t.Fatalf("parse contact url failed: %v", err)
	}
	if parsed.Host != "wa.me" || parsed.Path != "/628123456789" || parsed.Query().Get("text") != instructions.Message {
		t.Fatalf("unexpected contact url: %s", instructions.ContactURL)
	}

	png, err := f.assisted.QRCode(ctx, result.Order.OrderNo, "en-US", 128)
	if err != nil {
		t.Fatalf("qr code failed: %v", err)
	}
	if !bytes.HasPrefix(png, []byte("\x89PNG")) {
		t.Fatalf("expected png bytes")
	}
}

func TestAssistedQRCodeRejectsGatewayOrder(t *testing.T) {
	f := setupServiceFixture(t)
	order := createGatewayOrder(t, f, "session-assist-gateway")
	if _, err := f.assisted.QRCode(context.Background(), order.OrderNo, "id-ID", 0); !errors.Is(err, ErrPaymentMethodInvalid) {
		t.Fatalf("expected payment method error, got %v", err)
	}
}
