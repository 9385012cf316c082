package models

import "time"

type InquiryStatus string

const (
	InquiryNew        InquiryStatus = "new"
	InquiryInProgress InquiryStatus = "in_progress"
	InquiryClosed     InquiryStatus = "closed"
)

// Inquiry rows are written by the public contact forms (outside this service);
// the admin dashboard reads them for status distributions.
type Inquiry struct {
	ID                 uint          `gorm:"primaryKey" json:"id"`
	Name               string        `gorm:"size:100;not null" json:"name"`
	Email              string        `gorm:"size:100;not null" json:"email"`
	Phone              string        `gorm:"size:30" json:"phone"`
	Message            string        `gorm:"size:2000" json:"message"`
	ExternalPropertyID *string       `gorm:"size:100;index" json:"external_property_id,omitempty"`
	Status             InquiryStatus `gorm:"size:20;index;default:new" json:"status"`
	CreatedAt          time.Time     `json:"created_at"`
	UpdatedAt          time.Time     `json:"updated_at"`
}
