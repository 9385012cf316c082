// Package dashboard aggregates catalog, extension, review and inquiry state
// into the counts the admin overview screen renders.
package dashboard

import (
	"context"
	"errors"
	"time"

	"estate-backend/internal/catalog"
	"estate-backend/internal/extensions"
	"estate-backend/internal/httpx"
	"estate-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type StatusSlice struct {
	Count   int64   `json:"count"`
	Percent float64 `json:"percent"`
}

type PropertyStats struct {
	CatalogTotal     int64 `json:"catalog_total"`
	Curated          int64 `json:"curated"` // properties with an extension row
	Popular          int64 `json:"popular"`
	Hidden           int64 `json:"hidden"`
	ActivePromotions int64 `json:"active_promotions"`
	ClosedDealNotes  int64 `json:"closed_deal_notes"`
}

type Response struct {
	Properties PropertyStats          `json:"properties"`
	Reviews    map[string]StatusSlice `json:"reviews"`
	Inquiries  map[string]StatusSlice `json:"inquiries"`
}

type Aggregator struct {
	catalog catalog.Client
	store   *extensions.Store
	db      *gorm.DB
	log     *logrus.Logger
}

func NewAggregator(cat catalog.Client, store *extensions.Store, db *gorm.DB, log *logrus.Logger) *Aggregator {
	return &Aggregator{catalog: cat, store: store, db: db, log: log}
}

func (a *Aggregator) Build(ctx context.Context) (*Response, error) {
	props, err := a.propertyStats(ctx)
	if err != nil {
		return nil, err
	}

	reviews, err := a.statusDistribution(&models.Review{})
	if err != nil {
		return nil, err
	}
	inquiries, err := a.statusDistribution(&models.Inquiry{})
	if err != nil {
		return nil, err
	}

	return &Response{Properties: *props, Reviews: reviews, Inquiries: inquiries}, nil
}

func (a *Aggregator) propertyStats(ctx context.Context) (*PropertyStats, error) {
	stats := PropertyStats{}

	// Catalog total is informational; the dashboard stays usable when the
	// catalog is down.
	if page, err := a.catalog.FetchPage(ctx, catalog.Filters{Page: 1, Limit: 1}); err == nil {
		stats.CatalogTotal = page.Pagination.Total
	} else {
		a.log.WithError(err).Warn("dashboard: catalog total unavailable")
	}

	exts, err := a.store.ListAll()
	if err != nil {
		if errors.Is(err, extensions.ErrStore) {
			return nil, fiber.NewError(fiber.StatusInternalServerError, "extension store failure")
		}
		return nil, err
	}

	now := time.Now()
	stats.Curated = int64(len(exts))
	for _, ext := range exts {
		if ext.IsFeaturedPopular {
			stats.Popular++
		}
		if ext.IsHidden {
			stats.Hidden++
		}
		if ext.ClosedDealDate != nil {
			stats.ClosedDealNotes++
		}
		for _, promo := range ext.Promotions {
			if promo.ActiveAt(now) {
				stats.ActivePromotions++
				break
			}
		}
	}
	return &stats, nil
}

// statusDistribution groups rows of the model by status. With a zero total
// every percentage reports 0, never a division error.
func (a *Aggregator) statusDistribution(model interface{}) (map[string]StatusSlice, error) {
	type row struct {
		Status string `gorm:"column:status"`
		Count  int64  `gorm:"column:count"`
	}

	var rows []row
	err := a.db.Model(model).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, fiber.NewError(fiber.StatusInternalServerError, "could not aggregate statuses")
	}

	var total int64
	for _, r := range rows {
		total += r.Count
	}

	out := make(map[string]StatusSlice, len(rows))
	for _, r := range rows {
		percent := 0.0
		if total > 0 {
			percent = float64(r.Count) / float64(total) * 100
		}
		out[r.Status] = StatusSlice{Count: r.Count, Percent: percent}
	}
	return out, nil
}

// GET /api/admin/dashboard
func OverviewHandler(agg *Aggregator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		res, err := agg.Build(c.UserContext())
		if err != nil {
			return err
		}
		return httpx.OK(c, res)
	}
}
