package models

import "time"

type ReviewStatus string

const (
	ReviewPending  ReviewStatus = "pending"
	ReviewApproved ReviewStatus = "approved"
	ReviewRejected ReviewStatus = "rejected"
)

// Review moderation lives in the CMS surface; the records are kept here so the
// admin dashboard can report status distributions.
type Review struct {
	ID                 uint         `gorm:"primaryKey" json:"id"`
	ExternalPropertyID string       `gorm:"size:100;index" json:"external_property_id"`
	AuthorName         string       `gorm:"size:100;not null" json:"author_name"`
	Rating             int          `gorm:"not null" json:"rating"` // 1..5
	Comment            string       `gorm:"size:2000" json:"comment"`
	Status             ReviewStatus `gorm:"size:20;index;default:pending" json:"status"`
	CreatedAt          time.Time    `json:"created_at"`
	UpdatedAt          time.Time    `json:"updated_at"`
}
