package model

import (
	"fmt"
	"strings"
	"time"
)

type GuestBand string

const (
	GuestBandSmall  GuestBand = "2-4 guests"
	GuestBandMedium GuestBand = "5-8 guests"
	GuestBandLarge  GuestBand = "9-15 guests"
	GuestBandAllDay GuestBand = "All Day"
)

func GuestBands() []GuestBand {
	return []GuestBand{GuestBandSmall, GuestBandMedium, GuestBandLarge, GuestBandAllDay}
}

func (b GuestBand) Valid() bool {
	for _, known := range GuestBands() {
		if b == known {
			return true
		}
	}
	return false
}

type ReservationStatus string

const (
	StatusPending   ReservationStatus = "Pending"
	StatusConfirmed ReservationStatus = "Confirmed"
	StatusCancelled ReservationStatus = "Cancelled"
)

func (s ReservationStatus) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled:
		return true
	}
	return false
}

const (
	OccasionBirthday = "Birthday"
	OccasionDinner   = "Dinner"
)

type ReservationDraft struct {
	Day                 string    `json:"day"`
	Month               string    `json:"month"`
	Year                string    `json:"year"`
	Hour                string    `json:"hour"`
	Minute              string    `json:"minute"`
	Period              string    `json:"period"`
	Duration            string    `json:"duration"`
	GuestBand           GuestBand `json:"guest_band"`
	Occasion            string    `json:"occasion"`
	SpecialInstructions string    `json:"special_instructions"`
	Name                string    `json:"name"`
	Phone               string    `json:"phone"`
}

// NewReservationDraft returns the draft a user starts from, dated on now.
func NewReservationDraft(now time.Time) ReservationDraft {
	return ReservationDraft{
		Day:       fmt.Sprintf("%d", now.Day()),
		Month:     now.Month().String(),
		Year:      fmt.Sprintf("%d", now.Year()),
		Hour:      "7",
		Minute:    "00",
		Period:    "PM",
		Duration:  "2hrs",
		GuestBand: GuestBandSmall,
		Occasion:  OccasionDinner,
	}
}

func (d ReservationDraft) IsDetailsFilled() bool {
	return strings.TrimSpace(d.Name) != "" && strings.TrimSpace(d.Phone) != ""
}

func (d ReservationDraft) DateLabel() string {
	return fmt.Sprintf("%s %s %s", d.Day, d.Month, d.Year)
}

func (d ReservationDraft) TimeLabel() string {
	return fmt.Sprintf("%s:%s %s", d.Hour, d.Minute, d.Period)
}

// DraftUpdate carries the fields a single form step changes. Nil fields are left alone.
type DraftUpdate struct {
	Day                 *string    `json:"day,omitempty" validate:"omitempty,max=2"`
	Month               *string    `json:"month,omitempty" validate:"omitempty,max=20"`
	Year                *string    `json:"year,omitempty" validate:"omitempty,len=4,numeric"`
	Hour                *string    `json:"hour,omitempty" validate:"omitempty,max=2"`
	Minute              *string    `json:"minute,omitempty" validate:"omitempty,len=2,numeric"`
	Period              *string    `json:"period,omitempty" validate:"omitempty,meridiem"`
	Duration            *string    `json:"duration,omitempty" validate:"omitempty,max=16"`
	GuestBand           *GuestBand `json:"guest_band,omitempty" validate:"omitempty,guest_band"`
	Occasion            *string    `json:"occasion,omitempty" validate:"omitempty,max=50"`
	SpecialInstructions *string    `json:"special_instructions,omitempty" validate:"omitempty,max=500"`
	Name                *string    `json:"name,omitempty" validate:"omitempty,max=100"`
	Phone               *string    `json:"phone,omitempty" validate:"omitempty,max=20"`
}

// ApplyTo shallow-merges the set fields into d.
func (u DraftUpdate) ApplyTo(d *ReservationDraft) {
	if u.Day != nil {
		d.Day = *u.Day
	}
	if u.Month != nil {
		d.Month = *u.Month
	}
	if u.Year != nil {
		d.Year = *u.Year
	}
	if u.Hour != nil {
		d.Hour = *u.Hour
	}
	if u.Minute != nil {
		d.Minute = *u.Minute
	}
	if u.Period != nil {
		d.Period = *u.Period
	}
	if u.Duration != nil {
		d.Duration = *u.Duration
	}
	if u.GuestBand != nil {
		d.GuestBand = *u.GuestBand
	}
	if u.Occasion != nil {
		d.Occasion = *u.Occasion
	}
	if u.SpecialInstructions != nil {
		d.SpecialInstructions = *u.SpecialInstructions
	}
	if u.Name != nil {
		d.Name = *u.Name
	}
	if u.Phone != nil {
		d.Phone = *u.Phone
	}
}

type Reservation struct {
	ID                  string            `json:"id,omitempty" bson:"_id,omitempty"`
	UID                 string            `json:"uid" bson:"uid"`
	Name                string            `json:"name" bson:"name"`
	Phone               string            `json:"phone" bson:"phone"`
	Date                string            `json:"date" bson:"date"`
	Time                string            `json:"time" bson:"time"`
	Duration            string            `json:"duration" bson:"duration"`
	Guests              GuestBand         `json:"guests" bson:"guests"`
	Occasion            string            `json:"occasion" bson:"occasion"`
	SpecialInstructions string            `json:"special_instructions,omitempty" bson:"special_instructions,omitempty"`
	Total               float64           `json:"total" bson:"total"`
	Status              ReservationStatus `json:"status" bson:"status"`
	BonusAwarded        bool              `json:"bonus_awarded" bson:"bonus_awarded"`
	CreatedAt           time.Time         `json:"created_at" bson:"created_at"`
	UpdatedAt           time.Time         `json:"updated_at" bson:"updated_at"`
}

// QualifiesForBirthdayBonus reports whether moving to status earns the one-time bonus.
func (r *Reservation) QualifiesForBirthdayBonus(status ReservationStatus) bool {
	return status == StatusConfirmed && r.Occasion == OccasionBirthday && !r.BonusAwarded
}

type StatusUpdate struct {
	Status ReservationStatus `json:"status" validate:"required,oneof=Pending Confirmed Cancelled"`
}
