package model

import "time"

type CartItem struct {
	ID        string  `json:"id" bson:"id"`
	Name      string  `json:"name" bson:"name"`
	UnitPrice float64 `json:"unit_price" bson:"unit_price"`
	Quantity  int     `json:"quantity" bson:"quantity"`
	ImageURL  string  `json:"image_url,omitempty" bson:"image_url,omitempty"`
	ImageHint string  `json:"image_hint,omitempty" bson:"image_hint,omitempty"`
	Extras    string  `json:"extras,omitempty" bson:"extras,omitempty"`
}

type OrderStatus string

const (
	OrderPaid OrderStatus = "Paid"
)

type Order struct {
	ID               string      `json:"id,omitempty" bson:"_id,omitempty"`
	UID              string      `json:"uid" bson:"uid"`
	Email            string      `json:"email" bson:"email"`
	Items            []CartItem  `json:"items" bson:"items"`
	Subtotal         float64     `json:"subtotal" bson:"subtotal"`
	LoyaltyDiscount  float64     `json:"loyalty_discount" bson:"loyalty_discount"`
	Total            float64     `json:"total" bson:"total"`
	AmountMinor      int64       `json:"amount_minor" bson:"amount_minor"`
	Currency         string      `json:"currency" bson:"currency"`
	PaymentReference string      `json:"payment_reference" bson:"payment_reference"`
	Status           OrderStatus `json:"status" bson:"status"`
	CreatedAt        time.Time   `json:"created_at" bson:"created_at"`
}

type PaymentOutcomeStatus string

const (
	PaymentSuccess   PaymentOutcomeStatus = "success"
	PaymentClosed    PaymentOutcomeStatus = "closed"
	PaymentCancelled PaymentOutcomeStatus = "cancelled"
)

// PaymentOutcome is what the gateway callback reports back to us.
type PaymentOutcome struct {
	Status        PaymentOutcomeStatus `json:"status" validate:"required,oneof=success closed cancelled"`
	Reference     string               `json:"reference" validate:"required_if=Status success,max=128"`
	CheckoutToken string               `json:"checkout_token" validate:"required_if=Status success"`
	Email         string               `json:"email" validate:"omitempty,email"`
}

type CheckoutRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// CheckoutIntent is handed to the payment gateway by the client.
type CheckoutIntent struct {
	Email         string  `json:"email"`
	AmountMinor   int64   `json:"amount_minor"`
	Currency      string  `json:"currency"`
	Total         float64 `json:"total"`
	CheckoutToken string  `json:"checkout_token"`
}

type AddCartItemRequest struct {
	MenuItemID string `json:"menu_item_id" validate:"required,max=64"`
	Extras     string `json:"extras,omitempty" validate:"omitempty,max=200"`
}

type QuantityUpdate struct {
	Quantity *int `json:"quantity" validate:"required,min=0,max=99"`
}
