package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParsePricingDefaults(t *testing.T) {
	p, err := ParsePricing(map[string]string{})
	assert.NoError(t, err)
	assert.Equal(t, DefaultPricing(), p)
}

func TestParsePricingOverrides(t *testing.T) {
	p, err := ParsePricing(map[string]string{
		ConfigKeyBasePrice:     "500",
		ConfigKeyPeakPrice:     "900",
		ConfigKeyPeakStartHour: "17",
	})
	assert.NoError(t, err)
	assert.Equal(t, 500.0, p.BasePrice)
	assert.Equal(t, 900.0, p.PeakPrice)
	assert.Equal(t, 17, p.PeakStartHour)
}

func TestParsePricingRejectsInvalid(t *testing.T) {
	_, err := ParsePricing(map[string]string{ConfigKeyBasePrice: "free"})
	assert.Error(t, err)

	_, err = ParsePricing(map[string]string{ConfigKeyBasePrice: "-10"})
	assert.Error(t, err)

	_, err = ParsePricing(map[string]string{ConfigKeyPeakStartHour: "25"})
	assert.Error(t, err)

	_, err = ParsePricing(map[string]string{ConfigKeyWeekendMultiplier: "0.5"})
	assert.Error(t, err)
}

func TestPriceFor(t *testing.T) {
	p := DefaultPricing()

	// 2026-03-11 is a Wednesday, 2026-03-14 a Saturday.
	weekday := time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC)
	saturday := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, 800.0, p.PriceFor(weekday, 10))
	assert.Equal(t, 1200.0, p.PriceFor(weekday, 18))
	assert.Equal(t, 1200.0, p.PriceFor(weekday, 23))

	// Weekend multiplier rounds to the nearest rupee.
	assert.Equal(t, 960.0, p.PriceFor(saturday, 10))
	assert.Equal(t, 1440.0, p.PriceFor(saturday, 20))
}
