// Package notifier turns reservation events into SMS alerts for the restaurant admin.
package notifier

import (
	"context"
	"fmt"

	"eatme/pkg/events"
	"eatme/pkg/kafka"
	"eatme/pkg/logger"
	"eatme/pkg/sms"
)

type Notifier struct {
	sender     sms.Sender
	adminPhone string
	log        *logger.Logger
}

func New(sender sms.Sender, adminPhone string, log *logger.Logger) *Notifier {
	return &Notifier{
		sender:     sender,
		adminPhone: adminPhone,
		log:        log,
	}
}

// Handle is a kafka.MessageHandler. Gateway failures are logged and the message is
// committed; only undecodable payloads are returned as errors.
func (n *Notifier) Handle(ctx context.Context, msg kafka.Message) error {
	eventType := msg.GetEventType()

	var payload events.ReservationPayload
	switch eventType {
	case events.TypeReservationSubmitted, events.TypeReservationBonusAwarded:
		if err := msg.DecodeValue(&payload); err != nil {
			return err
		}
	default:
		return nil
	}

	text := Message(eventType, &payload)
	result, err := n.sender.Send(ctx, n.adminPhone, text)
	if err != nil {
		n.log.Warn("Admin SMS not sent",
			"event_type", eventType,
			"event_id", msg.GetEventID(),
			"correlation_id", msg.GetCorrelationID(),
			"reservation_id", payload.ReservationID,
			"code", result.Code,
			"error", err,
		)
		return nil
	}

	n.log.Info("Admin SMS sent",
		"event_type", eventType,
		"correlation_id", msg.GetCorrelationID(),
		"reservation_id", payload.ReservationID,
		"code", result.Code,
	)
	return nil
}

// Message renders the SMS text for a reservation event.
func Message(eventType string, p *events.ReservationPayload) string {
	switch eventType {
	case events.TypeReservationBonusAwarded:
		return fmt.Sprintf("EatMe: %s earned %d birthday points for reservation %s on %s.",
			p.Name, p.BonusPoints, p.ReservationID, p.Date)
	default:
		return fmt.Sprintf("EatMe: new reservation from %s (%s), %s at %s, %s, %s. Total %.2f.",
			p.Name, p.Phone, p.Date, p.Time, p.Guests, p.Occasion, p.Total)
	}
}
