// Package events describes the domain events the services publish after a state change.
package events

import (
	"context"
	"time"

	"eatme/pkg/model"
)

const (
	TypeReservationSubmitted     = "reservation.submitted"
	TypeReservationStatusChanged = "reservation.status_changed"
	TypeReservationBonusAwarded  = "reservation.bonus_awarded"
	TypeOrderPlaced              = "order.placed"

	SchemaVersion = "1"
)

// Stream groups event types onto one topic.
type Stream int

const (
	StreamReservations Stream = iota
	StreamOrders
)

type Event struct {
	Type    string
	Stream  Stream
	Key     string
	Payload any
}

// Publisher delivers events. Callers log failures and carry on; the state change
// that produced the event has already been committed.
type Publisher interface {
	Publish(ctx context.Context, evt Event) error
}

type ReservationPayload struct {
	ReservationID string                  `json:"reservation_id"`
	UID           string                  `json:"uid"`
	Name          string                  `json:"name"`
	Phone         string                  `json:"phone"`
	Date          string                  `json:"date"`
	Time          string                  `json:"time"`
	Guests        model.GuestBand         `json:"guests"`
	Occasion      string                  `json:"occasion"`
	Total         float64                 `json:"total"`
	Status        model.ReservationStatus `json:"status"`
	BonusPoints   int                     `json:"bonus_points,omitempty"`
	OccurredAt    time.Time               `json:"occurred_at"`
}

type OrderPayload struct {
	OrderID          string    `json:"order_id"`
	UID              string    `json:"uid"`
	Email            string    `json:"email"`
	ItemCount        int       `json:"item_count"`
	Total            float64   `json:"total"`
	AmountMinor      int64     `json:"amount_minor"`
	Currency         string    `json:"currency"`
	PaymentReference string    `json:"payment_reference"`
	OccurredAt       time.Time `json:"occurred_at"`
}

func NewReservationEvent(eventType string, r *model.Reservation, bonusPoints int) Event {
	return Event{
		Type:   eventType,
		Stream: StreamReservations,
		Key:    r.ID,
		Payload: ReservationPayload{
			ReservationID: r.ID,
			UID:           r.UID,
			Name:          r.Name,
			Phone:         r.Phone,
			Date:          r.Date,
			Time:          r.Time,
			Guests:        r.Guests,
			Occasion:      r.Occasion,
			Total:         r.Total,
			Status:        r.Status,
			BonusPoints:   bonusPoints,
			OccurredAt:    time.Now().UTC(),
		},
	}
}

func NewOrderPlaced(o *model.Order) Event {
	count := 0
	for _, item := range o.Items {
		count += item.Quantity
	}
	return Event{
		Type:   TypeOrderPlaced,
		Stream: StreamOrders,
		Key:    o.UID,
		Payload: OrderPayload{
			OrderID:          o.ID,
			UID:              o.UID,
			Email:            o.Email,
			ItemCount:        count,
			Total:            o.Total,
			AmountMinor:      o.AmountMinor,
			Currency:         o.Currency,
			PaymentReference: o.PaymentReference,
			OccurredAt:       time.Now().UTC(),
		},
	}
}

// NopPublisher drops every event. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
