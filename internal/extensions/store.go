// Package extensions persists the locally-owned editorial metadata attached
// to external catalog properties, keyed by the catalog's property id.
package extensions

import (
	"errors"
	"fmt"
	"time"

	"estate-backend/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrStore wraps persistence failures. Readers degrade on it, writers
	// propagate it.
	ErrStore = errors.New("extension store failure")
	// ErrNotFound is returned for lookups of records that do not exist.
	ErrNotFound = errors.New("extension not found")
)

type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Patch carries a partial extension update. Nil fields are left unchanged,
// never reset to defaults.
type Patch struct {
	Priority          *int                   `json:"priority"`
	InternalNotes     *string                `json:"internal_notes"`
	IsHidden          *bool                  `json:"is_hidden"`
	IsFeaturedPopular *bool                  `json:"is_featured_popular"`
	ClosedDealDate    *time.Time             `json:"closed_deal_date"`
	ClosedDealType    *models.ClosedDealType `json:"closed_deal_type" validate:"omitempty,oneof=sale rent"`
	ClosedDealPrice   *float64               `json:"closed_deal_price" validate:"omitempty,gte=0"`
}

func (p Patch) assignments() map[string]interface{} {
	a := map[string]interface{}{}
	if p.Priority != nil {
		a["priority"] = *p.Priority
	}
	if p.InternalNotes != nil {
		a["internal_notes"] = *p.InternalNotes
	}
	if p.IsHidden != nil {
		a["is_hidden"] = *p.IsHidden
	}
	if p.IsFeaturedPopular != nil {
		a["is_featured_popular"] = *p.IsFeaturedPopular
	}
	if p.ClosedDealDate != nil {
		a["closed_deal_date"] = *p.ClosedDealDate
	}
	if p.ClosedDealType != nil {
		a["closed_deal_type"] = *p.ClosedDealType
	}
	if p.ClosedDealPrice != nil {
		a["closed_deal_price"] = *p.ClosedDealPrice
	}
	return a
}

func (p Patch) apply(ext *models.PropertyExtension) {
	if p.Priority != nil {
		ext.Priority = *p.Priority
	}
	if p.InternalNotes != nil {
		ext.InternalNotes = *p.InternalNotes
	}
	if p.IsHidden != nil {
		ext.IsHidden = *p.IsHidden
	}
	if p.IsFeaturedPopular != nil {
		ext.IsFeaturedPopular = *p.IsFeaturedPopular
	}
	if p.ClosedDealDate != nil {
		ext.ClosedDealDate = p.ClosedDealDate
	}
	if p.ClosedDealType != nil {
		ext.ClosedDealType = p.ClosedDealType
	}
	if p.ClosedDealPrice != nil {
		ext.ClosedDealPrice = p.ClosedDealPrice
	}
}

func (s *Store) GetByPropertyID(externalID string) (*models.PropertyExtension, error) {
	var ext models.PropertyExtension
	err := s.db.
		Preload("Promotions").
		Preload("Tags").
		Where("external_property_id = ?", externalID).
		First(&ext).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStore, err)
	}
	return &ext, nil
}

// ListAll returns every extension with promotions and tags preloaded. The
// extension set is small relative to the catalog, so the merge layer holds it
// fully in memory per request.
func (s *Store) ListAll() ([]models.PropertyExtension, error) {
	var exts []models.PropertyExtension
	err := s.db.
		Preload("Promotions").
		Preload("Tags").
		Order("external_property_id").
		Find(&exts).Error
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStore, err)
	}
	return exts, nil
}

// Upsert creates the extension row on first edit, otherwise applies only the
// supplied fields. The insert-or-update runs as a single ON CONFLICT
// statement on the unique external id, so two admin sessions editing the
// same property cannot race a second row into existence or lose an update.
func (s *Store) Upsert(externalID string, p Patch) (*models.PropertyExtension, error) {
	candidate := models.PropertyExtension{ExternalPropertyID: externalID}
	p.apply(&candidate)

	assignments := p.assignments()
	conflict := clause.OnConflict{
		Columns:   []clause.Column{{Name: "external_property_id"}},
		DoNothing: true,
	}
	if len(assignments) > 0 {
		assignments["updated_at"] = time.Now()
		conflict.DoNothing = false
		conflict.DoUpdates = clause.Assignments(assignments)
	}

	if err := s.db.Clauses(conflict).Create(&candidate).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStore, err)
	}
	return s.GetByPropertyID(externalID)
}

// Delete removes the extension and, via the FK constraints, its promotions
// and tags.
func (s *Store) Delete(externalID string) error {
	ext, err := s.GetByPropertyID(externalID)
	if err != nil {
		return err
	}
	// SQLite test databases need foreign_keys=on for the cascade; Postgres
	// enforces it from the schema.
	err = s.db.Select("Promotions", "Tags").Delete(ext).Error
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStore, err)
	}
	return nil
}

// PromotionInput is the write shape for a new promotion.
type PromotionInput struct {
	Label     string     `json:"label" validate:"required,max=200"`
	Type      string     `json:"type" validate:"required,oneof=discount free special limited"`
	StartDate time.Time  `json:"start_date"`
	EndDate   *time.Time `json:"end_date"`
	IsActive  *bool      `json:"is_active"`
}

// AddPromotion attaches a promotion to the property's extension, creating the
// extension row first if this is the property's first edit.
func (s *Store) AddPromotion(externalID string, in PromotionInput) (*models.Promotion, error) {
	ext, err := s.ensure(externalID)
	if err != nil {
		return nil, err
	}

	active := true
	if in.IsActive != nil {
		active = *in.IsActive
	}
	start := in.StartDate
	if start.IsZero() {
		start = time.Now()
	}

	promo := models.Promotion{
		ID:          uuid.NewString(),
		ExtensionID: ext.ID,
		Label:       in.Label,
		Type:        in.Type,
		StartDate:   start,
		EndDate:     in.EndDate,
		IsActive:    active,
	}
	if err := s.db.Create(&promo).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStore, err)
	}
	return &promo, nil
}

// PromotionPatch mirrors Patch semantics for promotion updates. EndDateSet
// distinguishes "leave end date alone" from "make it open-ended".
type PromotionPatch struct {
	Label      *string    `json:"label" validate:"omitempty,max=200"`
	Type       *string    `json:"type" validate:"omitempty,oneof=discount free special limited"`
	StartDate  *time.Time `json:"start_date"`
	EndDate    *time.Time `json:"end_date"`
	EndDateSet bool       `json:"-"`
	IsActive   *bool      `json:"is_active"`
}

func (s *Store) UpdatePromotion(promoID string, p PromotionPatch) (*models.Promotion, error) {
	var promo models.Promotion
	err := s.db.Where("id = ?", promoID).First(&promo).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStore, err)
	}

	if p.Label != nil {
		promo.Label = *p.Label
	}
	if p.Type != nil {
		promo.Type = *p.Type
	}
	if p.StartDate != nil {
		promo.StartDate = *p.StartDate
	}
	if p.EndDateSet {
		promo.EndDate = p.EndDate
	}
	if p.IsActive != nil {
		promo.IsActive = *p.IsActive
	}

	if err := s.db.Save(&promo).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStore, err)
	}
	return &promo, nil
}

func (s *Store) DeletePromotion(promoID string) error {
	res := s.db.Delete(&models.Promotion{}, "id = ?", promoID)
	if res.Error != nil {
		return fmt.Errorf("%w: %v", ErrStore, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// TagInput is the write shape for a new tag.
type TagInput struct {
	Name  string `json:"name" validate:"required,max=100"`
	Color string `json:"color" validate:"omitempty,max=20"`
}

func (s *Store) AddTag(externalID string, in TagInput) (*models.PropertyTag, error) {
	ext, err := s.ensure(externalID)
	if err != nil {
		return nil, err
	}

	tag := models.PropertyTag{
		ID:          uuid.NewString(),
		ExtensionID: ext.ID,
		Name:        in.Name,
		Color:       in.Color,
	}
	if err := s.db.Create(&tag).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStore, err)
	}
	return &tag, nil
}

func (s *Store) DeleteTag(tagID string) error {
	res := s.db.Delete(&models.PropertyTag{}, "id = ?", tagID)
	if res.Error != nil {
		return fmt.Errorf("%w: %v", ErrStore, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ensure returns the extension for the id, creating an empty row if needed
// (edit-before-exists semantics).
func (s *Store) ensure(externalID string) (*models.PropertyExtension, error) {
	ext, err := s.GetByPropertyID(externalID)
	if err == nil {
		return ext, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	return s.Upsert(externalID, Patch{})
}
