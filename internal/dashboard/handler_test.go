package dashboard

import (
	"context"
	"testing"
	"time"

	"estate-backend/internal/catalog"
	"estate-backend/internal/database"
	"estate-backend/internal/extensions"
	"estate-backend/internal/models"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type fakeCatalog struct {
	total int64
	err   error
}

func (f *fakeCatalog) FetchPage(ctx context.Context, fl catalog.Filters) (*catalog.Page, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &catalog.Page{Items: []catalog.Property{}, Pagination: catalog.Pagination{Total: f.total}}, nil
}

func (f *fakeCatalog) FetchByID(ctx context.Context, id string) (*catalog.Property, error) {
	return nil, nil
}

func newTestAggregator(t *testing.T, cat catalog.Client) (*Aggregator, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return NewAggregator(cat, extensions.NewStore(db), db, log), db
}

func TestBuildCountsExtensionFlags(t *testing.T) {
	agg, db := newTestAggregator(t, &fakeCatalog{total: 120})
	store := extensions.NewStore(db)

	hidden := true
	popular := true
	deal := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	_, err := store.Upsert("ext-1", extensions.Patch{IsHidden: &hidden})
	require.NoError(t, err)
	_, err = store.Upsert("ext-2", extensions.Patch{IsFeaturedPopular: &popular, ClosedDealDate: &deal})
	require.NoError(t, err)
	_, err = store.AddPromotion("ext-2", extensions.PromotionInput{Label: "deal", Type: "discount"})
	require.NoError(t, err)

	res, err := agg.Build(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(120), res.Properties.CatalogTotal)
	assert.Equal(t, int64(2), res.Properties.Curated)
	assert.Equal(t, int64(1), res.Properties.Popular)
	assert.Equal(t, int64(1), res.Properties.Hidden)
	assert.Equal(t, int64(1), res.Properties.ActivePromotions)
	assert.Equal(t, int64(1), res.Properties.ClosedDealNotes)
}

func TestBuildSurvivesCatalogOutage(t *testing.T) {
	agg, _ := newTestAggregator(t, &fakeCatalog{err: catalog.ErrUnavailable})

	res, err := agg.Build(context.Background())
	require.NoError(t, err, "the admin overview stays usable without the catalog")
	assert.Equal(t, int64(0), res.Properties.CatalogTotal)
}

func TestStatusDistributionPercentages(t *testing.T) {
	agg, db := newTestAggregator(t, &fakeCatalog{})

	require.NoError(t, db.Create(&models.Review{AuthorName: "A", Rating: 5, Status: models.ReviewApproved}).Error)
	require.NoError(t, db.Create(&models.Review{AuthorName: "B", Rating: 4, Status: models.ReviewApproved}).Error)
	require.NoError(t, db.Create(&models.Review{AuthorName: "C", Rating: 1, Status: models.ReviewPending}).Error)
	require.NoError(t, db.Create(&models.Review{AuthorName: "D", Rating: 2, Status: models.ReviewRejected}).Error)

	dist, err := agg.statusDistribution(&models.Review{})
	require.NoError(t, err)

	assert.Equal(t, int64(2), dist["approved"].Count)
	assert.InDelta(t, 50.0, dist["approved"].Percent, 0.001)
	assert.InDelta(t, 25.0, dist["pending"].Percent, 0.001)
	assert.InDelta(t, 25.0, dist["rejected"].Percent, 0.001)
}

func TestStatusDistributionZeroTotal(t *testing.T) {
	agg, _ := newTestAggregator(t, &fakeCatalog{})

	dist, err := agg.statusDistribution(&models.Inquiry{})
	require.NoError(t, err)
	assert.Empty(t, dist, "no rows means no slices and no division by zero")

	for _, slice := range dist {
		assert.Equal(t, 0.0, slice.Percent)
	}
}
