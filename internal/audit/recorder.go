// Package audit keeps a trail of every admin mutation on editorial data.
package audit

import (
	"encoding/json"
	"fmt"

	"estate-backend/internal/models"

	"gorm.io/gorm"
)

type Recorder struct {
	db *gorm.DB
}

func NewRecorder(db *gorm.DB) *Recorder {
	return &Recorder{db: db}
}

type Entry struct {
	UserID      uint
	UserName    string
	EntityType  string // "extension" / "promotion" / "tag"
	PropertyID  string
	Action      models.AuditAction
	Description string
	Before      any
	After       any
}

// Record writes one audit row. Postgres jsonb rejects the empty string, so
// absent snapshots are stored as JSON null.
func (r *Recorder) Record(e Entry) error {
	beforeStr := "null"
	afterStr := "null"

	if e.Before != nil {
		if b, err := json.Marshal(e.Before); err == nil {
			beforeStr = string(b)
		}
	}
	if e.After != nil {
		if b, err := json.Marshal(e.After); err == nil {
			afterStr = string(b)
		}
	}

	log := models.AuditLog{
		UserID:      e.UserID,
		UserName:    e.UserName,
		EntityType:  e.EntityType,
		PropertyID:  e.PropertyID,
		Action:      e.Action,
		Description: e.Description,
		BeforeData:  beforeStr,
		AfterData:   afterStr,
	}
	if err := r.db.Create(&log).Error; err != nil {
		return fmt.Errorf("audit log not written: %w", err)
	}
	return nil
}

// List returns the newest entries first, optionally filtered by entity type
// and property id.
func (r *Recorder) List(entityType, propertyID string, limit int) ([]models.AuditLog, error) {
	if limit < 1 || limit > 500 {
		limit = 100
	}

	q := r.db.Model(&models.AuditLog{}).Order("created_at DESC").Limit(limit)
	if entityType != "" {
		q = q.Where("entity_type = ?", entityType)
	}
	if propertyID != "" {
		q = q.Where("property_id = ?", propertyID)
	}

	var logs []models.AuditLog
	if err := q.Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}
