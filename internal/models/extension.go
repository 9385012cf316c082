package models

import "time"

type ClosedDealType string

const (
	ClosedDealSale ClosedDealType = "sale"
	ClosedDealRent ClosedDealType = "rent"
)

// PropertyExtension is the locally-owned editorial record attached to a
// property that lives in the external catalog. The catalog is the system of
// record for the property itself; we only key into it by value, there is no
// foreign key across the two systems. At most one row may exist per external
// property id (unique index, upsert enforces it).
type PropertyExtension struct {
	ID                 uint   `gorm:"primaryKey" json:"id"`
	ExternalPropertyID string `gorm:"size:100;uniqueIndex;not null" json:"external_property_id"`

	Priority          int    `gorm:"default:0" json:"priority"`
	InternalNotes     string `gorm:"size:2000" json:"internal_notes,omitempty"` // staff-only, stripped on public reads
	IsHidden          bool   `gorm:"default:false" json:"is_hidden"`
	IsFeaturedPopular bool   `gorm:"default:false" json:"is_featured_popular"`

	// Editorial duplication of a terminal catalog status, display-only.
	// The catalog status decides closed-deal membership, never these fields.
	ClosedDealDate  *time.Time      `json:"closed_deal_date,omitempty"`
	ClosedDealType  *ClosedDealType `gorm:"size:10" json:"closed_deal_type,omitempty"`
	ClosedDealPrice *float64        `json:"closed_deal_price,omitempty"`

	Promotions []Promotion   `gorm:"foreignKey:ExtensionID;constraint:OnDelete:CASCADE" json:"promotions"`
	Tags       []PropertyTag `gorm:"foreignKey:ExtensionID;constraint:OnDelete:CASCADE" json:"tags"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Promotion struct {
	ID          string     `gorm:"primaryKey;size:36" json:"id"`
	ExtensionID uint       `gorm:"index;not null" json:"extension_id"`
	Label       string     `gorm:"size:200;not null" json:"label"`
	Type        string     `gorm:"size:20;not null" json:"type"` // discount / free / special / limited
	StartDate   time.Time  `json:"start_date"`
	EndDate     *time.Time `json:"end_date"` // nil = open-ended
	IsActive    bool       `gorm:"default:true" json:"is_active"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// ActiveAt reports whether the promotion is live at the given instant.
func (p Promotion) ActiveAt(now time.Time) bool {
	if !p.IsActive {
		return false
	}
	return p.EndDate == nil || !p.EndDate.Before(now)
}

type PropertyTag struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	ExtensionID uint      `gorm:"index;not null" json:"extension_id"`
	Name        string    `gorm:"size:100;not null" json:"name"`
	Color       string    `gorm:"size:20" json:"color"`
	CreatedAt   time.Time `json:"created_at"`
}
