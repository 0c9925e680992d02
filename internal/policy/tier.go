// Package policy holds the pure booking-horizon rules applied during
// reservation admission.  It has no dependencies on the datastore or
// the HTTP layer so the rules can be tested in isolation.
package policy

import "time"

// DefaultMaxDaysAhead is applied to any tier outside [1,4].
const DefaultMaxDaysAhead = 30

// MaxDaysAhead returns the maximum number of days in advance a user
// of the given tier may start a reservation.  Tier 1 is the highest
// privilege and carries the longest horizon.  Unknown tiers fall
// back to the tightest window.
func MaxDaysAhead(tier uint8) int {
    switch tier {
    case 1:
        return 365
    case 2:
        return 180
    case 3:
        return 90
    case 4:
        return 30
    }
    return DefaultMaxDaysAhead
}

// DaysAhead returns how many days ahead of now the given start time
// is, rounded up so that any partial day counts as a full one.  A
// start in the past or within the current instant yields zero or a
// negative value, which always passes the horizon check.
func DaysAhead(start, now time.Time) int {
    d := start.Sub(now)
    days := int(d / (24 * time.Hour))
    if d%(24*time.Hour) > 0 {
        days++
    }
    return days
}

// CheckHorizon validates the start time against the tier's booking
// horizon.  It returns the computed days-ahead value, the tier's
// limit and whether the request is within the allowed window.
func CheckHorizon(tier uint8, start, now time.Time) (daysAhead, limit int, ok bool) {
    daysAhead = DaysAhead(start, now)
    limit = MaxDaysAhead(tier)
    return daysAhead, limit, daysAhead <= limit
}
