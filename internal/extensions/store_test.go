package extensions

import (
	"testing"
	"time"

	"estate-backend/internal/database"
	"estate-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return NewStore(db)
}

func intPtr(v int) *int         { return &v }
func boolPtr(v bool) *bool      { return &v }
func strPtr(v string) *string   { return &v }
func f64Ptr(v float64) *float64 { return &v }

func TestUpsertCreatesOnFirstEdit(t *testing.T) {
	store := newTestStore(t)

	ext, err := store.Upsert("ext-1", Patch{
		Priority:          intPtr(5),
		IsFeaturedPopular: boolPtr(true),
	})
	require.NoError(t, err)

	assert.Equal(t, "ext-1", ext.ExternalPropertyID)
	assert.Equal(t, 5, ext.Priority)
	assert.True(t, ext.IsFeaturedPopular)
	assert.False(t, ext.IsHidden)
}

func TestUpsertPartialPatchLeavesOtherFieldsAlone(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Upsert("ext-1", Patch{
		Priority:      intPtr(5),
		InternalNotes: strPtr("owner wants a quick sale"),
	})
	require.NoError(t, err)

	ext, err := store.Upsert("ext-1", Patch{IsHidden: boolPtr(true)})
	require.NoError(t, err)

	assert.True(t, ext.IsHidden)
	assert.Equal(t, 5, ext.Priority, "unsupplied fields are never reset")
	assert.Equal(t, "owner wants a quick sale", ext.InternalNotes)
}

func TestUpsertNeverCreatesASecondRow(t *testing.T) {
	store := newTestStore(t)

	first, err := store.Upsert("ext-1", Patch{Priority: intPtr(3)})
	require.NoError(t, err)
	second, err := store.Upsert("ext-1", Patch{Priority: intPtr(3)})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 3, second.Priority)

	all, err := store.ListAll()
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestUpsertClosedDealFields(t *testing.T) {
	store := newTestStore(t)

	date := time.Date(2026, 2, 14, 0, 0, 0, 0, time.UTC)
	dealType := models.ClosedDealSale
	ext, err := store.Upsert("ext-1", Patch{
		ClosedDealDate:  &date,
		ClosedDealType:  &dealType,
		ClosedDealPrice: f64Ptr(1_850_000),
	})
	require.NoError(t, err)

	require.NotNil(t, ext.ClosedDealDate)
	assert.True(t, ext.ClosedDealDate.Equal(date))
	assert.Equal(t, models.ClosedDealSale, *ext.ClosedDealType)
	assert.Equal(t, 1_850_000.0, *ext.ClosedDealPrice)
}

func TestGetByPropertyIDNotFound(t *testing.T) {
	store := newTestStore(t)
	_, err := store.GetByPropertyID("nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteCascadesToPromotionsAndTags(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Upsert("ext-1", Patch{Priority: intPtr(1)})
	require.NoError(t, err)
	promo, err := store.AddPromotion("ext-1", PromotionInput{Label: "March discount", Type: "discount"})
	require.NoError(t, err)
	tag, err := store.AddTag("ext-1", TagInput{Name: "sea view", Color: "#2266aa"})
	require.NoError(t, err)

	require.NoError(t, store.Delete("ext-1"))

	_, err = store.GetByPropertyID("ext-1")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, store.DeletePromotion(promo.ID), ErrNotFound, "no orphaned promotion rows remain")
	assert.ErrorIs(t, store.DeleteTag(tag.ID), ErrNotFound, "no orphaned tag rows remain")
}

func TestDeleteMissingExtension(t *testing.T) {
	store := newTestStore(t)
	assert.ErrorIs(t, store.Delete("nope"), ErrNotFound)
}

func TestAddPromotionCreatesExtensionOnFirstEdit(t *testing.T) {
	store := newTestStore(t)

	promo, err := store.AddPromotion("ext-9", PromotionInput{Label: "Free transfer", Type: "free"})
	require.NoError(t, err)
	assert.NotEmpty(t, promo.ID)
	assert.True(t, promo.IsActive, "promotions default to active")
	assert.Nil(t, promo.EndDate)

	ext, err := store.GetByPropertyID("ext-9")
	require.NoError(t, err)
	require.Len(t, ext.Promotions, 1)
	assert.Equal(t, promo.ID, ext.Promotions[0].ID)
}

func TestUpdatePromotion(t *testing.T) {
	store := newTestStore(t)

	promo, err := store.AddPromotion("ext-1", PromotionInput{Label: "Launch offer", Type: "special"})
	require.NoError(t, err)

	end := time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC)
	updated, err := store.UpdatePromotion(promo.ID, PromotionPatch{
		IsActive:   boolPtr(false),
		EndDate:    &end,
		EndDateSet: true,
	})
	require.NoError(t, err)

	assert.False(t, updated.IsActive)
	require.NotNil(t, updated.EndDate)
	assert.True(t, updated.EndDate.Equal(end))
	assert.Equal(t, "Launch offer", updated.Label, "unsupplied fields unchanged")

	// Clearing the end date back to open-ended.
	cleared, err := store.UpdatePromotion(promo.ID, PromotionPatch{EndDateSet: true})
	require.NoError(t, err)
	assert.Nil(t, cleared.EndDate)
}

func TestUpdatePromotionNotFound(t *testing.T) {
	store := newTestStore(t)
	_, err := store.UpdatePromotion("missing", PromotionPatch{IsActive: boolPtr(false)})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTagLifecycle(t *testing.T) {
	store := newTestStore(t)

	tag, err := store.AddTag("ext-1", TagInput{Name: "pet friendly", Color: "#00aa55"})
	require.NoError(t, err)

	ext, err := store.GetByPropertyID("ext-1")
	require.NoError(t, err)
	require.Len(t, ext.Tags, 1)
	assert.Equal(t, "pet friendly", ext.Tags[0].Name)

	require.NoError(t, store.DeleteTag(tag.ID))
	ext, err = store.GetByPropertyID("ext-1")
	require.NoError(t, err)
	assert.Empty(t, ext.Tags)
}
