package model

import "time"

// Asset type values accepted by the API.  An asset is always one of
// these four kinds; anything else is rejected at creation time.
const (
    AssetTypePlane   = "plane"
    AssetTypeBoat    = "boat"
    AssetTypeHome    = "home"
    AssetTypeVehicle = "vehicle"
)

// ValidAssetType reports whether t is one of the supported asset kinds.
func ValidAssetType(t string) bool {
    switch t {
    case AssetTypePlane, AssetTypeBoat, AssetTypeHome, AssetTypeVehicle:
        return true
    }
    return false
}

// Asset describes a shared family asset that can be reserved for a
// time range: an aircraft, a boat, a vacation home or a vehicle.
// Every asset belongs to exactly one family; reservations are
// authorized against that family, not against the individual user
// who registered the asset.  This struct corresponds to a row in
// the `assets` table.
//
// Fields:
//  ID        – primary key identifier.
//  FamilyID  – owning family (required).
//  Name      – display name, unique per family.
//  Type      – one of plane|boat|home|vehicle.
//  Metadata  – free-form key/value details (tail number, berth, address...),
//              stored as a JSON document in assets.metadata.
//  CreatedAt – creation timestamp.
//  UpdatedAt – last update timestamp.
type Asset struct {
    ID        uint64            // assets.id
    FamilyID  uint64            // assets.family_id
    Name      string            // assets.name
    Type      string            // assets.type
    Metadata  map[string]string // assets.metadata (JSON)
    CreatedAt time.Time         // assets.created_at
    UpdatedAt time.Time         // assets.updated_at
}
