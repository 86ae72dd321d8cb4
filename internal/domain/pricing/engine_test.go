package pricing_test

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/courtside/courtside-api/internal/domain/pricing"
	"github.com/courtside/courtside-api/internal/domain/venue"
)

func TestQuoteScenario(t *testing.T) {
	// base 100.00, demand count 3 (1.2), 18h to start (1.2), medium
	// popularity (1.2), no discount => 172.80
	now := time.Now()
	in := pricing.Inputs{
		BasePriceCents: 10000,
		SlotStart:      now.Add(18 * time.Hour),
		Now:            now,
		SearchCount:    3,
		Popularity:     1.2,
	}

	if got := pricing.Quote(in); got != 17280 {
		t.Fatalf("expected quote 17280 cents, got %d", got)
	}
}

func TestQuoteScenarioWithCourtDiscount(t *testing.T) {
	// Same as above plus a 20%-off court discount => 138.24
	now := time.Now()
	courtID := uuid.New()
	in := pricing.Inputs{
		BasePriceCents: 10000,
		SlotStart:      now.Add(18 * time.Hour),
		Now:            now,
		SearchCount:    3,
		Popularity:     1.2,
		Discounts: []venue.Discount{
			{Scope: venue.ScopeCourt, CourtID: &courtID, PercentOff: 20},
		},
	}

	if got := pricing.Quote(in); got != 13824 {
		t.Fatalf("expected quote 13824 cents, got %d", got)
	}
}

func TestQuoteMonotonicInDemand(t *testing.T) {
	now := time.Now()
	var prev int64
	for count := int64(0); count <= 7; count++ {
		got := pricing.Quote(pricing.Inputs{
			BasePriceCents: 10000,
			SlotStart:      now.Add(48 * time.Hour),
			Now:            now,
			SearchCount:    count,
			Popularity:     1.0,
		})
		if got < prev {
			t.Fatalf("quote decreased from %d to %d when demand rose to %d", prev, got, count)
		}
		prev = got
	}
}

func TestDemandMultiplier(t *testing.T) {
	cases := []struct {
		count int64
		want  float64
	}{
		{0, 1.0},
		{1, 1.0},
		{2, 1.2},
		{5, 1.2},
		{6, 1.5},
		{100, 1.5},
	}
	for _, tc := range cases {
		if got := pricing.DemandMultiplier(tc.count); got != tc.want {
			t.Errorf("DemandMultiplier(%d) = %v, want %v", tc.count, got, tc.want)
		}
	}
}

func TestUrgencyMultiplier(t *testing.T) {
	cases := []struct {
		until time.Duration
		want  float64
	}{
		{3 * time.Hour, 1.5},
		{5*time.Hour + 59*time.Minute, 1.5},
		{6 * time.Hour, 1.2},
		{18 * time.Hour, 1.2},
		{24 * time.Hour, 1.0},
		{72 * time.Hour, 1.0},
		{-time.Hour, 1.5}, // already started counts as urgent
	}
	for _, tc := range cases {
		if got := pricing.UrgencyMultiplier(tc.until); got != tc.want {
			t.Errorf("UrgencyMultiplier(%v) = %v, want %v", tc.until, got, tc.want)
		}
	}
}

func TestPopularityMultiplier(t *testing.T) {
	cases := []struct {
		avg  float64
		want float64
	}{
		{1.0, 1.0},
		{2.4, 1.0},
		{2.5, 1.2},
		{3.9, 1.2},
		{4.0, 1.5},
		{5.0, 1.5},
	}
	for _, tc := range cases {
		if got := pricing.PopularityMultiplier(tc.avg); got != tc.want {
			t.Errorf("PopularityMultiplier(%v) = %v, want %v", tc.avg, got, tc.want)
		}
	}
}

func TestQuoteDiscountsDoNotStack(t *testing.T) {
	now := time.Now()
	courtID := uuid.New()
	in := pricing.Inputs{
		BasePriceCents: 10000,
		SlotStart:      now.Add(48 * time.Hour),
		Now:            now,
		SearchCount:    0,
		Popularity:     1.0,
		Discounts: []venue.Discount{
			{Scope: venue.ScopeVenue, PercentOff: 10},
			{Scope: venue.ScopeCourt, CourtID: &courtID, PercentOff: 25},
		},
	}

	// Only the largest discount applies: 10000 * 0.75.
	if got := pricing.Quote(in); got != 7500 {
		t.Fatalf("expected quote 7500 cents, got %d", got)
	}
}
