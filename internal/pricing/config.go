package pricing

import (
	"strconv"
	"strings"

	"eatme/pkg/model"
)

const (
	DocumentID = "reservation"

	DefaultRatePerHour = 50.0
	DefaultGuestRate   = 500.0
)

type Config struct {
	RatePerHour float64                     `json:"rate_per_hour"`
	GuestRates  map[model.GuestBand]float64 `json:"guest_rates"`
}

// Quote is the derived price of a reservation draft.
type Quote struct {
	DurationCost float64 `json:"duration_cost"`
	GuestsCost   float64 `json:"guests_cost"`
	Total        float64 `json:"total"`
}

func Defaults() Config {
	rates := make(map[model.GuestBand]float64, len(model.GuestBands()))
	for _, band := range model.GuestBands() {
		rates[band] = DefaultGuestRate
	}
	return Config{
		RatePerHour: DefaultRatePerHour,
		GuestRates:  rates,
	}
}

// GuestRate returns the flat rate for band, or DefaultGuestRate when the band has no entry.
func (c Config) GuestRate(band model.GuestBand) float64 {
	if rate, ok := c.GuestRates[band]; ok {
		return rate
	}
	return DefaultGuestRate
}

func (c Config) clone() Config {
	rates := make(map[model.GuestBand]float64, len(c.GuestRates))
	for k, v := range c.GuestRates {
		rates[k] = v
	}
	return Config{RatePerHour: c.RatePerHour, GuestRates: rates}
}

// ParseDurationHours reads the hour count out of values like "3hrs", "1 hr", "2 hours"
// or "4". After one hour suffix is removed the rest must be a whole number; anything
// else, fractions and negative counts included, is zero hours.
func ParseDurationHours(duration string) int {
	s := strings.ToLower(strings.TrimSpace(duration))
	for _, suffix := range []string{"hours", "hour", "hrs", "hr"} {
		if trimmed, ok := strings.CutSuffix(s, suffix); ok {
			s = strings.TrimSpace(trimmed)
			break
		}
	}

	hours, err := strconv.Atoi(s)
	if err != nil || hours < 0 {
		return 0
	}
	return hours
}

func Compute(duration string, band model.GuestBand, cfg Config) Quote {
	durationCost := float64(ParseDurationHours(duration)) * cfg.RatePerHour
	guestsCost := cfg.GuestRate(band)
	return Quote{
		DurationCost: durationCost,
		GuestsCost:   guestsCost,
		Total:        durationCost + guestsCost,
	}
}
