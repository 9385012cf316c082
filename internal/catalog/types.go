package catalog

import "time"

type PropertyType string

const (
	TypeCondo       PropertyType = "condo"
	TypeTownhouse   PropertyType = "townhouse"
	TypeSingleHouse PropertyType = "single_house"
	TypeLand        PropertyType = "land"

	// TypeAll is the filter sentinel meaning "no type restriction".
	TypeAll PropertyType = "all"
)

type PropertyStatus string

const (
	StatusPending          PropertyStatus = "pending"
	StatusAvailable        PropertyStatus = "available"
	StatusReserved         PropertyStatus = "reserved"
	StatusUnderContract    PropertyStatus = "under_contract"
	StatusSold             PropertyStatus = "sold"
	StatusRented           PropertyStatus = "rented"
	StatusUnderMaintenance PropertyStatus = "under_maintenance"
	StatusOffMarket        PropertyStatus = "off_market"
)

// Terminal reports whether the status marks a completed deal.
func (s PropertyStatus) Terminal() bool {
	return s == StatusSold || s == StatusRented
}

type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type Project struct {
	Code        string            `json:"code"`
	Names       map[string]string `json:"names,omitempty"` // locale -> name
	Coordinates *Coordinates      `json:"coordinates,omitempty"`
}

// Property is one record from the external catalog. The catalog owns these
// end to end; this service never writes them and they can change or disappear
// between calls without notice.
type Property struct {
	ID           string            `json:"id"`
	PropertyType PropertyType      `json:"property_type"`
	Titles       map[string]string `json:"titles,omitempty"`       // locale -> title
	Descriptions map[string]string `json:"descriptions,omitempty"` // locale -> description

	Bedrooms   int     `json:"bedrooms"`
	Bathrooms  int     `json:"bathrooms"`
	RoomSize   float64 `json:"room_size"`
	UsableArea float64 `json:"usable_area"`
	LandSize   float64 `json:"land_size"`

	// Nullable by contract: "no rental rate" is not a rate of zero. A property
	// with neither populated is valid (inquiry-only listing).
	RentalRate *float64 `json:"rental_rate"`
	SellPrice  *float64 `json:"sell_price"`

	Images      []string       `json:"images"`
	Coordinates *Coordinates   `json:"coordinates,omitempty"`
	Project     *Project       `json:"project,omitempty"`
	Status      PropertyStatus `json:"status"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

type Page struct {
	Items      []Property `json:"items"`
	Pagination Pagination `json:"pagination"`
}
