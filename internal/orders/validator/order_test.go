package validator

import (
	"errors"
	"testing"

	"eatme/pkg/logger"
	"eatme/pkg/model"
)

func TestValidatePaymentOutcome(t *testing.T) {
	v := NewOrderValidator(logger.Discard())

	tests := []struct {
		name      string
		outcome   model.PaymentOutcome
		wantField string
	}{
		{"success with reference", model.PaymentOutcome{Status: model.PaymentSuccess, Reference: "ref", CheckoutToken: "tok"}, ""},
		{"success without reference", model.PaymentOutcome{Status: model.PaymentSuccess, CheckoutToken: "tok"}, "reference"},
		{"cancelled without reference", model.PaymentOutcome{Status: model.PaymentCancelled}, ""},
		{"closed", model.PaymentOutcome{Status: model.PaymentClosed}, ""},
		{"unknown status", model.PaymentOutcome{Status: "pending"}, "status"},
		{"bad email", model.PaymentOutcome{Status: model.PaymentClosed, Email: "nope"}, "email"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(&tt.outcome)
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			var verrs ValidationErrors
			if !errors.As(err, &verrs) {
				t.Fatalf("expected ValidationErrors, got %v", err)
			}
			if verrs[0].Field != tt.wantField {
				t.Errorf("field = %q, want %q", verrs[0].Field, tt.wantField)
			}
		})
	}
}

func TestValidateQuantityUpdate(t *testing.T) {
	v := NewOrderValidator(logger.Discard())
	zero, over := 0, 100

	if err := v.Validate(&model.QuantityUpdate{Quantity: &zero}); err != nil {
		t.Errorf("zero quantity is a removal and should be valid: %v", err)
	}
	if err := v.Validate(&model.QuantityUpdate{Quantity: &over}); err == nil {
		t.Error("quantity above 99 should be rejected")
	}
	if err := v.Validate(&model.QuantityUpdate{}); err == nil {
		t.Error("missing quantity should be rejected")
	}
}
