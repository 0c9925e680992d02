package model

import "time"

// Reservation status values.  The admission flow only ever writes
// StatusConfirmed; StatusCancelled is reached through the cancel
// operation.  StatusActive and StatusCompleted are never stored:
// they are derived live from the interval when reading calendar
// views (see EffectiveStatus).  StatusPending exists for data seeded
// from older systems and is treated like confirmed for conflict
// purposes (only cancelled rows are ignored).
const (
    StatusPending   = "pending"
    StatusConfirmed = "confirmed"
    StatusActive    = "active"
    StatusCompleted = "completed"
    StatusCancelled = "cancelled"
)

// Reservation records a user's booking of a family asset for a
// closed time interval [StartDate, EndDate].  For a given asset no
// two non-cancelled reservations may have overlapping intervals,
// where two intervals overlap when start1 <= end2 AND start2 <= end1
// (inclusive endpoints: back-to-back bookings sharing an instant
// conflict).  This struct corresponds to a row in the `reservations`
// table.
//
// Fields:
//  ID        – primary key identifier.
//  AssetID   – asset being reserved.
//  UserID    – user who made the reservation.
//  StartDate – start of the interval (UTC).
//  EndDate   – end of the interval (UTC), strictly after StartDate.
//  Status    – stored state (pending, confirmed, cancelled).
//  Notes     – optional free-form note from the requester.
//  CreatedAt – creation timestamp.
//  UpdatedAt – last update timestamp.
type Reservation struct {
    ID        uint64    // reservations.id
    AssetID   uint64    // reservations.asset_id
    UserID    uint64    // reservations.user_id
    StartDate time.Time // reservations.start_date
    EndDate   time.Time // reservations.end_date
    Status    string    // reservations.status
    Notes     *string   // reservations.notes (nullable)
    CreatedAt time.Time // reservations.created_at
    UpdatedAt time.Time // reservations.updated_at
}

// Overlaps reports whether the reservation's interval shares at
// least one instant with [start, end] under inclusive-endpoint
// semantics.
func (r *Reservation) Overlaps(start, end time.Time) bool {
    return !r.StartDate.After(end) && !start.After(r.EndDate)
}

// EffectiveStatus derives the user-visible status at the given
// instant.  A confirmed reservation whose interval has begun reads
// as active, and as completed once the interval has passed.  Stored
// cancelled and pending values pass through unchanged.
func (r *Reservation) EffectiveStatus(now time.Time) string {
    if r.Status != StatusConfirmed {
        return r.Status
    }
    switch {
    case now.After(r.EndDate):
        return StatusCompleted
    case !now.Before(r.StartDate):
        return StatusActive
    }
    return StatusConfirmed
}
