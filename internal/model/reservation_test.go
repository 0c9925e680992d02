package model

import (
	"testing"
	"time"
)

func day(n int) time.Time {
	return time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(n) * 24 * time.Hour)
}

func TestOverlaps(t *testing.T) {
	r := Reservation{StartDate: day(10), EndDate: day(12)}
	cases := []struct {
		name       string
		start, end time.Time
		want       bool
	}{
		{"contained", day(10), day(11), true},
		{"straddles end", day(11), day(13), true},
		{"straddles start", day(9), day(10), true},
		{"covers entirely", day(9), day(13), true},
		{"after", day(13), day(15), false},
		{"before", day(7), day(9), false},
		// inclusive endpoints: sharing a single instant counts as overlap
		{"adjacent at end", day(12), day(14), true},
		{"adjacent at start", day(8), day(10), true},
	}
	for _, tc := range cases {
		if got := r.Overlaps(tc.start, tc.end); got != tc.want {
			t.Errorf("%s: Overlaps(%v, %v) = %v, want %v", tc.name, tc.start, tc.end, got, tc.want)
		}
	}
}

func TestEffectiveStatus(t *testing.T) {
	r := Reservation{StartDate: day(10), EndDate: day(12), Status: StatusConfirmed}
	if got := r.EffectiveStatus(day(9)); got != StatusConfirmed {
		t.Errorf("before interval: got %q, want confirmed", got)
	}
	if got := r.EffectiveStatus(day(11)); got != StatusActive {
		t.Errorf("within interval: got %q, want active", got)
	}
	if got := r.EffectiveStatus(day(10)); got != StatusActive {
		t.Errorf("at start instant: got %q, want active", got)
	}
	if got := r.EffectiveStatus(day(13)); got != StatusCompleted {
		t.Errorf("after interval: got %q, want completed", got)
	}

	cancelled := Reservation{StartDate: day(10), EndDate: day(12), Status: StatusCancelled}
	if got := cancelled.EffectiveStatus(day(11)); got != StatusCancelled {
		t.Errorf("cancelled passes through: got %q", got)
	}
}

func TestValidAssetType(t *testing.T) {
	for _, ok := range []string{"plane", "boat", "home", "vehicle"} {
		if !ValidAssetType(ok) {
			t.Errorf("ValidAssetType(%q) = false", ok)
		}
	}
	for _, bad := range []string{"", "yacht", "PLANE", "house"} {
		if ValidAssetType(bad) {
			t.Errorf("ValidAssetType(%q) = true", bad)
		}
	}
}
