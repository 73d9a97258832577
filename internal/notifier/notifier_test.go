package notifier

import (
	"context"
	"errors"
	"strings"
	"testing"

	"eatme/pkg/events"
	"eatme/pkg/kafka"
	"eatme/pkg/logger"
	"eatme/pkg/model"
	"eatme/pkg/sms"
)

type mockSender struct {
	sendFunc func(ctx context.Context, phone, message string) (sms.Result, error)
	phones   []string
	messages []string
}

func (m *mockSender) Send(ctx context.Context, phone, message string) (sms.Result, error) {
	m.phones = append(m.phones, phone)
	m.messages = append(m.messages, message)
	if m.sendFunc != nil {
		return m.sendFunc(ctx, phone, message)
	}
	return sms.Result{Code: "ok"}, nil
}

func reservationMessage(t *testing.T, eventType string, bonus int) kafka.Message {
	t.Helper()
	evt := events.NewReservationEvent(eventType, &model.Reservation{
		ID:       "r1",
		Name:     "Ama Mensah",
		Phone:    "+233241234567",
		Date:     "12/10/2026",
		Time:     "7:00 PM",
		Guests:   model.GuestBand("5-8 guests"),
		Occasion: "Birthday",
		Total:    650,
	}, bonus)

	msg, err := kafka.NewMessage().
		WithKey(evt.Key).
		WithEventType(evt.Type).
		WithValue(evt.Payload).
		Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	return msg
}

func TestHandle(t *testing.T) {
	tests := []struct {
		name      string
		eventType string
		bonus     int
		wantSMS   bool
		contains  string
	}{
		{"submitted", events.TypeReservationSubmitted, 0, true, "new reservation from Ama Mensah"},
		{"bonus awarded", events.TypeReservationBonusAwarded, 50, true, "earned 50 birthday points"},
		{"status change is ignored", events.TypeReservationStatusChanged, 0, false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sender := &mockSender{}
			n := New(sender, "+233200000000", logger.Discard())

			if err := n.Handle(context.Background(), reservationMessage(t, tt.eventType, tt.bonus)); err != nil {
				t.Fatalf("handle: %v", err)
			}
			if got := len(sender.messages) == 1; got != tt.wantSMS {
				t.Fatalf("sent %d messages", len(sender.messages))
			}
			if !tt.wantSMS {
				return
			}
			if sender.phones[0] != "+233200000000" {
				t.Errorf("phone = %q", sender.phones[0])
			}
			if !strings.Contains(sender.messages[0], tt.contains) {
				t.Errorf("message %q missing %q", sender.messages[0], tt.contains)
			}
		})
	}
}

func TestHandle_GatewayFailureIsNotRetried(t *testing.T) {
	sender := &mockSender{sendFunc: func(ctx context.Context, phone, message string) (sms.Result, error) {
		return sms.Result{Code: "1004"}, errors.New("invalid api key")
	}}
	n := New(sender, "+233200000000", logger.Discard())

	if err := n.Handle(context.Background(), reservationMessage(t, events.TypeReservationSubmitted, 0)); err != nil {
		t.Errorf("gateway failure should be swallowed, got %v", err)
	}
	if len(sender.messages) != 1 {
		t.Errorf("expected exactly one attempt, got %d", len(sender.messages))
	}
}

func TestHandle_BadPayloadIsPermanent(t *testing.T) {
	n := New(&mockSender{}, "+233200000000", logger.Discard())
	msg := kafka.Message{
		Value:   []byte("not json"),
		Headers: map[string]string{kafka.HeaderEventType: events.TypeReservationSubmitted},
	}

	err := n.Handle(context.Background(), msg)
	if kafka.ClassifyError(err) != kafka.ErrorTypePermanent {
		t.Errorf("expected permanent error, got %v", err)
	}
}
