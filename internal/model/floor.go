package model

// UnitStatus is the availability of a quadrant. It is independent of the
// listing approval status.
type UnitStatus string

const (
	UnitAvailable   UnitStatus = "AVAILABLE"
	UnitUnavailable UnitStatus = "UNAVAILABLE"
	UnitReserved    UnitStatus = "RESERVED"
)

func (s UnitStatus) Valid() bool {
	switch s {
	case UnitAvailable, UnitUnavailable, UnitReserved:
		return true
	}
	return false
}

// Floor is an ordered level of a project.
type Floor struct {
	ID        string     `db:"id" json:"id"`
	ListingID string     `db:"listing_id" json:"listingId"`
	Position  int        `db:"position" json:"position"`
	Name      string     `db:"name" json:"name"`
	Quadrants []Quadrant `db:"-" json:"quadrants"`
}

// Quadrant is a sellable or rentable unit on a floor.
type Quadrant struct {
	ID       string     `db:"id" json:"id"`
	FloorID  string     `db:"floor_id" json:"floorId"`
	Position int        `db:"position" json:"position"`
	Label    string     `db:"label" json:"label"`
	Area     float64    `db:"area" json:"area"`
	Price    float64    `db:"price" json:"price"`
	Status   UnitStatus `db:"status" json:"status"`
}
