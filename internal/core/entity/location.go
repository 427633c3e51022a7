package entity

import (
	"fmt"

	"stockroom/internal/core/apperror"
	"stockroom/internal/core/id"
)

// LocationKind names the storage unit a stock entry lives in.
type LocationKind string

const (
	LocationRoom    LocationKind = "room"
	LocationRack    LocationKind = "rack"
	LocationFreezer LocationKind = "freezer"
)

// Valid reports whether k is a known kind.
func (k LocationKind) Valid() bool {
	switch k {
	case LocationRoom, LocationRack, LocationFreezer:
		return true
	}
	return false
}

// Location is exactly one room, rack or freezer.
type Location struct {
	Kind LocationKind `db:"location_kind" json:"kind"`
	ID   id.ID        `db:"location_id" json:"id"`
}

// NewLocation validates and builds a Location.
func NewLocation(kind string, locationID id.ID) (Location, error) {
	loc := Location{Kind: LocationKind(kind), ID: locationID}
	return loc, loc.Validate()
}

// Validate checks that the variant is well formed.
func (l Location) Validate() error {
	if !l.Kind.Valid() {
		return apperror.NewValidation("location kind must be room, rack or freezer").
			WithDetail("kind", l.Kind)
	}
	if id.IsNil(l.ID) {
		return apperror.NewValidation("location id is required")
	}
	return nil
}

func (l Location) String() string {
	return fmt.Sprintf("%s:%s", l.Kind, l.ID)
}
