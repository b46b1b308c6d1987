package models

import (
	"fmt"
	"math"
	"strconv"
	"time"
)

// Config keys understood by the pricing layer. The config table itself is
// a flat string key-value store; anything else stored there is passed
// through to clients untouched.
const (
	ConfigKeyBasePrice         = "basePrice"
	ConfigKeyPeakPrice         = "peakPrice"
	ConfigKeyPeakStartHour     = "peakStartHour"
	ConfigKeyWeekendMultiplier = "weekendMultiplier"
	ConfigKeyUpiID             = "upiId"
)

// PricingConfig is the typed view over the flat config table.
type PricingConfig struct {
	BasePrice         float64
	PeakPrice         float64
	PeakStartHour     int
	WeekendMultiplier float64
	UpiID             string
}

// DefaultPricing matches the values the original site shipped with.
func DefaultPricing() PricingConfig {
	return PricingConfig{
		BasePrice:         800,
		PeakPrice:         1200,
		PeakStartHour:     18,
		WeekendMultiplier: 1.2,
	}
}

// ParsePricing builds a validated PricingConfig from the raw config map.
// Absent keys fall back to defaults; present-but-invalid values are an
// error so a bad admin edit surfaces instead of silently mispricing.
func ParsePricing(raw map[string]string) (PricingConfig, error) {
	p := DefaultPricing()

	if v, ok := raw[ConfigKeyBasePrice]; ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f <= 0 {
			return p, fmt.Errorf("invalid basePrice %q", v)
		}
		p.BasePrice = f
	}
	if v, ok := raw[ConfigKeyPeakPrice]; ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f <= 0 {
			return p, fmt.Errorf("invalid peakPrice %q", v)
		}
		p.PeakPrice = f
	}
	if v, ok := raw[ConfigKeyPeakStartHour]; ok {
		h, err := strconv.Atoi(v)
		if err != nil || h < 0 || h > 23 {
			return p, fmt.Errorf("invalid peakStartHour %q", v)
		}
		p.PeakStartHour = h
	}
	if v, ok := raw[ConfigKeyWeekendMultiplier]; ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f < 1 {
			return p, fmt.Errorf("invalid weekendMultiplier %q", v)
		}
		p.WeekendMultiplier = f
	}
	if v, ok := raw[ConfigKeyUpiID]; ok {
		p.UpiID = v
	}

	return p, nil
}

// PriceFor returns the rate for an hour slot on a date: peak price from
// the peak start hour onward, weekend multiplier applied on top, rounded
// to whole currency units.
func (p PricingConfig) PriceFor(date time.Time, hour int) float64 {
	price := p.BasePrice
	if hour >= p.PeakStartHour {
		price = p.PeakPrice
	}
	if wd := date.Weekday(); wd == time.Saturday || wd == time.Sunday {
		price = math.Round(price * p.WeekendMultiplier)
	}
	return price
}
