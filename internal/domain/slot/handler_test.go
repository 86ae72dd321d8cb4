package slot

import (
	"testing"
	"time"
)

func TestDayBoundsLocalMidnight(t *testing.T) {
	loc := time.FixedZone("UTC+5", 5*60*60)
	now := time.Date(2026, 8, 31, 1, 30, 0, 0, loc)

	start, end, err := dayBounds(now, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantStart := time.Date(2026, 8, 31, 0, 0, 0, 0, loc)
	if !start.Equal(wantStart) {
		t.Errorf("expected start %v, got %v", wantStart, start)
	}
	if !end.Equal(wantStart.Add(24 * time.Hour)) {
		t.Errorf("expected end %v, got %v", wantStart.Add(24*time.Hour), end)
	}
	// 01:30 local is the previous day in UTC; the window must still be
	// the local calendar day.
	if !start.Before(now) || !end.After(now) {
		t.Errorf("expected window to contain now, got [%v, %v)", start, end)
	}
}

func TestDayBoundsExplicitDate(t *testing.T) {
	loc := time.FixedZone("UTC-3", -3*60*60)
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, loc)

	start, end, err := dayBounds(now, "2026-09-02")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wantStart := time.Date(2026, 9, 2, 0, 0, 0, 0, loc)
	if !start.Equal(wantStart) {
		t.Errorf("expected start %v, got %v", wantStart, start)
	}
	if !end.Equal(wantStart.Add(24 * time.Hour)) {
		t.Errorf("expected end %v, got %v", wantStart.Add(24*time.Hour), end)
	}

	if _, _, err := dayBounds(now, "02.09.2026"); err == nil {
		t.Error("expected error for malformed date")
	}
}
