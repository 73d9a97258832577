package model

import (
	"testing"
	"time"
)

func TestReservationDraft_IsDetailsFilled(t *testing.T) {
	tests := []struct {
		name  string
		draft ReservationDraft
		want  bool
	}{
		{"empty name", ReservationDraft{Name: "", Phone: "+233"}, false},
		{"minimal values", ReservationDraft{Name: "A", Phone: "1"}, true},
		{"whitespace name", ReservationDraft{Name: "   ", Phone: "0241234567"}, false},
		{"whitespace phone", ReservationDraft{Name: "Ama", Phone: "\t"}, false},
		{"both empty", ReservationDraft{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.draft.IsDetailsFilled(); got != tt.want {
				t.Errorf("IsDetailsFilled() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewReservationDraft_Defaults(t *testing.T) {
	now := time.Date(2026, time.March, 9, 12, 0, 0, 0, time.UTC)
	d := NewReservationDraft(now)

	if d.Day != "9" || d.Month != "March" || d.Year != "2026" {
		t.Errorf("unexpected date %s", d.DateLabel())
	}
	if d.TimeLabel() != "7:00 PM" {
		t.Errorf("unexpected time %s", d.TimeLabel())
	}
	if d.GuestBand != GuestBandSmall || d.Duration != "2hrs" {
		t.Errorf("unexpected defaults %+v", d)
	}
	if d.IsDetailsFilled() {
		t.Error("fresh draft should not have details filled")
	}
}

func TestDraftUpdate_ApplyTo(t *testing.T) {
	d := NewReservationDraft(time.Now())
	name := "Kofi"
	band := GuestBandLarge

	DraftUpdate{Name: &name, GuestBand: &band}.ApplyTo(&d)

	if d.Name != "Kofi" || d.GuestBand != GuestBandLarge {
		t.Errorf("fields not applied: %+v", d)
	}
	if d.Duration != "2hrs" {
		t.Errorf("unset field changed: duration=%s", d.Duration)
	}

	empty := ""
	DraftUpdate{Name: &empty}.ApplyTo(&d)
	if d.Name != "" {
		t.Errorf("explicit empty value should overwrite, got %q", d.Name)
	}
}

func TestGuestBand_Valid(t *testing.T) {
	for _, b := range GuestBands() {
		if !b.Valid() {
			t.Errorf("%q should be valid", b)
		}
	}
	if GuestBand("VIP Hall").Valid() {
		t.Error("unknown band reported valid")
	}
}

func TestReservation_QualifiesForBirthdayBonus(t *testing.T) {
	tests := []struct {
		name   string
		res    Reservation
		status ReservationStatus
		want   bool
	}{
		{"birthday confirmed", Reservation{Occasion: OccasionBirthday}, StatusConfirmed, true},
		{"birthday already awarded", Reservation{Occasion: OccasionBirthday, BonusAwarded: true}, StatusConfirmed, false},
		{"birthday cancelled", Reservation{Occasion: OccasionBirthday}, StatusCancelled, false},
		{"dinner confirmed", Reservation{Occasion: OccasionDinner}, StatusConfirmed, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.res.QualifiesForBirthdayBonus(tt.status); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}
