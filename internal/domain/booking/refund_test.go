package booking_test

import (
	"testing"
	"time"

	"github.com/courtside/courtside-api/internal/domain/booking"
)

func TestRefundPercent(t *testing.T) {
	tests := []struct {
		name       string
		untilStart time.Duration
		want       int
	}{
		{"more than a day out", 25 * time.Hour, 100},
		{"exactly 24h", 24 * time.Hour, 100},
		{"half a day out", 12 * time.Hour, 50},
		{"exactly 6h", 6 * time.Hour, 50},
		{"three hours out", 3 * time.Hour, 0},
		{"already started", -time.Hour, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := booking.RefundPercent(tt.untilStart); got != tt.want {
				t.Errorf("RefundPercent(%v) = %d, want %d", tt.untilStart, got, tt.want)
			}
		})
	}
}
