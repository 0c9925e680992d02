package policy

import (
    "testing"
    "time"
)

func TestMaxDaysAhead(t *testing.T) {
    cases := []struct {
        tier uint8
        want int
    }{
        {1, 365},
        {2, 180},
        {3, 90},
        {4, 30},
        {0, 30},
        {5, 30},
        {255, 30},
    }
    for _, tc := range cases {
        if got := MaxDaysAhead(tc.tier); got != tc.want {
            t.Errorf("MaxDaysAhead(%d) = %d, want %d", tc.tier, got, tc.want)
        }
    }
}

func TestDaysAhead(t *testing.T) {
    now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
    cases := []struct {
        name  string
        start time.Time
        want  int
    }{
        {"same instant", now, 0},
        {"in the past", now.Add(-48 * time.Hour), -2},
        {"exactly one day", now.Add(24 * time.Hour), 1},
        {"partial day rounds up", now.Add(25 * time.Hour), 2},
        {"one minute ahead rounds up", now.Add(time.Minute), 1},
        {"exactly thirty days", now.Add(30 * 24 * time.Hour), 30},
        {"just past thirty days", now.Add(30*24*time.Hour + time.Second), 31},
    }
    for _, tc := range cases {
        if got := DaysAhead(tc.start, now); got != tc.want {
            t.Errorf("%s: DaysAhead = %d, want %d", tc.name, got, tc.want)
        }
    }
}

func TestCheckHorizon(t *testing.T) {
    now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

    // Tier 4 requesting 45 days out is rejected with limit 30.
    days, limit, ok := CheckHorizon(4, now.Add(45*24*time.Hour), now)
    if ok {
        t.Fatalf("tier 4 at 45 days should be outside horizon")
    }
    if days != 45 || limit != 30 {
        t.Fatalf("got days=%d limit=%d, want 45/30", days, limit)
    }

    // Same user 20 days out is admitted.
    if _, _, ok := CheckHorizon(4, now.Add(20*24*time.Hour), now); !ok {
        t.Fatalf("tier 4 at 20 days should be within horizon")
    }

    // Boundary: a start exactly at the limit passes.
    if _, _, ok := CheckHorizon(3, now.Add(90*24*time.Hour), now); !ok {
        t.Fatalf("tier 3 at exactly 90 days should be within horizon")
    }

    // Tier 1 reaches a full year.
    if _, _, ok := CheckHorizon(1, now.Add(365*24*time.Hour), now); !ok {
        t.Fatalf("tier 1 at 365 days should be within horizon")
    }

    // Unknown tier gets the default 30 day window.
    if _, limit, ok := CheckHorizon(9, now.Add(31*24*time.Hour), now); ok || limit != 30 {
        t.Fatalf("unknown tier should default to 30 day horizon, got limit=%d ok=%v", limit, ok)
    }
}
