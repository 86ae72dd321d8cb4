// Package pricing computes the chargeable price of a slot from four
// independent signals: recent search demand, time to start, historical
// venue popularity, and active discounts. The quote is computed once at
// lock time and frozen; later signal changes never touch an outstanding
// lock or a confirmed booking.
package pricing

import (
	"math"
	"time"

	"github.com/courtside/courtside-api/internal/domain/venue"
)

// Inputs are everything Quote needs. Quote itself has no side effects.
type Inputs struct {
	BasePriceCents int64
	SlotStart      time.Time
	Now            time.Time
	SearchCount    int64     // venue searches/lock attempts in the demand window
	Popularity     float64   // cached historical multiplier, 0 when unknown
	Discounts      []venue.Discount
}

// Quote applies the three multipliers to the base price, then the single
// largest active discount. Prices are int64 cents; rounding happens once,
// at the end.
func Quote(in Inputs) int64 {
	price := float64(in.BasePriceCents)
	price *= DemandMultiplier(in.SearchCount)
	price *= UrgencyMultiplier(in.SlotStart.Sub(in.Now))
	price *= normalizePopularity(in.Popularity)

	if off := maxPercentOff(in.Discounts); off > 0 {
		price *= 1 - off/100
	}

	return int64(math.Round(price))
}

// DemandMultiplier maps the sliding-window search count to a surcharge.
func DemandMultiplier(count int64) float64 {
	switch {
	case count > 5:
		return 1.5
	case count >= 2:
		return 1.2
	default:
		return 1.0
	}
}

// UrgencyMultiplier maps time remaining until slot start to a surcharge.
func UrgencyMultiplier(untilStart time.Duration) float64 {
	hours := untilStart.Hours()
	switch {
	case hours < 6:
		return 1.5
	case hours < 24:
		return 1.2
	default:
		return 1.0
	}
}

// PopularityMultiplier maps a venue's average rating to a surcharge. It is
// recomputed hourly by the Worker and cached with a longer TTL.
func PopularityMultiplier(avgRating float64) float64 {
	switch {
	case avgRating >= 4.0:
		return 1.5
	case avgRating >= 2.5:
		return 1.2
	default:
		return 1.0
	}
}

func normalizePopularity(m float64) float64 {
	if m < 1.0 {
		// Unset or stale cache entry; popularity never discounts.
		return 1.0
	}
	return m
}

// maxPercentOff picks the single largest applicable discount. Discounts do
// not stack.
func maxPercentOff(discounts []venue.Discount) float64 {
	var max float64
	for _, d := range discounts {
		if d.PercentOff > max {
			max = d.PercentOff
		}
	}
	return max
}
