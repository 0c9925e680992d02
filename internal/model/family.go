package model

import "time"

// Family represents a household that jointly owns shareable assets.
// Users join exactly one family and every asset belongs to exactly
// one family.  This struct corresponds to a row in the `families`
// table.
//
// Fields:
//  ID        – primary key identifier.
//  Name      – display name of the family.
//  CreatedAt – timestamp when the family was created.
//  UpdatedAt – timestamp of last update.
type Family struct {
    ID        uint64    // families.id
    Name      string    // families.name
    CreatedAt time.Time // families.created_at
    UpdatedAt time.Time // families.updated_at
}
