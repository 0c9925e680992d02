// Package queue defines the message payloads exchanged over the
// broker plus the publisher and background consumer for them.
package queue

// ReservationConfirmedEvent is published when an admission succeeds.
// It carries enough context for downstream consumers to log or
// notify without querying the primary database.
type ReservationConfirmedEvent struct {
	ReservationID uint64  `json:"reservation_id"`
	AssetID       uint64  `json:"asset_id"`
	AssetName     string  `json:"asset_name"`
	AssetType     string  `json:"asset_type"`
	FamilyID      uint64  `json:"family_id"`
	UserID        uint64  `json:"user_id"`
	StartDate     string  `json:"start_date"`
	EndDate       string  `json:"end_date"`
	Notes         *string `json:"notes,omitempty"`
	ConfirmedAt   string  `json:"confirmed_at"`
}
