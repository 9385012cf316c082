// Package listings joins the external property catalog with the locally-owned
// editorial extensions and derives the curated public views.
package listings

import (
	"context"
	"errors"
	"sort"
	"time"

	"estate-backend/internal/catalog"
	"estate-backend/internal/extensions"
	"estate-backend/internal/models"

	"github.com/sirupsen/logrus"
)

// ErrNotFound covers both a missing catalog property and a hidden one read by
// a public caller. The two are indistinguishable on purpose.
var ErrNotFound = errors.New("property not found")

// ExtensionReader is the slice of the extension store the merge engine needs.
type ExtensionReader interface {
	ListAll() ([]models.PropertyExtension, error)
	GetByPropertyID(externalID string) (*models.PropertyExtension, error)
}

// Viewer carries the caller's authorization. Admin is set by the session
// middleware after token verification; IncludeHidden is only honored when
// Admin is true, never straight from the query string.
type Viewer struct {
	Admin         bool
	IncludeHidden bool
}

// EnhancedProperty is the runtime join of one catalog property with its
// extension, or a nil extension when no editor has touched it yet.
type EnhancedProperty struct {
	catalog.Property
	Extension *models.PropertyExtension `json:"extension"`
}

type Result struct {
	Items      []EnhancedProperty
	Pagination catalog.Pagination
}

type Service struct {
	catalog catalog.Client
	store   ExtensionReader
	log     *logrus.Logger
	now     func() time.Time
}

func NewService(cat catalog.Client, store ExtensionReader, log *logrus.Logger) *Service {
	return &Service{catalog: cat, store: store, log: log, now: time.Now}
}

// List returns one catalog page enriched with extensions, with hidden
// properties dropped for public viewers. A catalog failure propagates; a
// store failure degrades to catalog data with nil extensions.
func (s *Service) List(ctx context.Context, f catalog.Filters, viewer Viewer) (*Result, error) {
	page, err := s.catalog.FetchPage(ctx, f)
	if err != nil {
		return nil, err
	}

	items := s.enhance(page.Items, viewer)
	return &Result{Items: items, Pagination: page.Pagination}, nil
}

// GetByID resolves a single property. Hidden properties read without
// IncludeHidden return ErrNotFound even though the record exists.
func (s *Service) GetByID(ctx context.Context, id string, viewer Viewer) (*EnhancedProperty, error) {
	prop, err := s.catalog.FetchByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if prop == nil {
		return nil, ErrNotFound
	}

	ext, err := s.store.GetByPropertyID(id)
	switch {
	case err == nil:
	case errors.Is(err, extensions.ErrNotFound):
		ext = nil
	default:
		s.log.WithError(err).Warn("extension lookup failed, serving bare catalog record")
		ext = nil
	}

	if ext != nil && ext.IsHidden && !viewer.IncludeHidden {
		return nil, ErrNotFound
	}
	return &EnhancedProperty{Property: *prop, Extension: ext}, nil
}

// Popular returns featured properties ordered by priority, highest first.
// Closed deals are excluded: a popular badge on a finished sale misleads.
func (s *Service) Popular(ctx context.Context, limit int, viewer Viewer) ([]EnhancedProperty, error) {
	items, err := s.fetchCandidates(ctx, viewer)
	if err != nil {
		return nil, err
	}

	popular := make([]EnhancedProperty, 0, len(items))
	for _, it := range items {
		if it.Extension == nil || !it.Extension.IsFeaturedPopular {
			continue
		}
		if it.Status.Terminal() {
			continue
		}
		popular = append(popular, it)
	}
	sortByPriority(popular)
	return capTo(popular, limit), nil
}

// WithPromotions returns properties carrying at least one live promotion.
func (s *Service) WithPromotions(ctx context.Context, limit int, viewer Viewer) ([]EnhancedProperty, error) {
	items, err := s.fetchCandidates(ctx, viewer)
	if err != nil {
		return nil, err
	}

	now := s.now()
	promoted := make([]EnhancedProperty, 0, len(items))
	for _, it := range items {
		if it.Extension == nil {
			continue
		}
		for _, promo := range it.Extension.Promotions {
			if promo.ActiveAt(now) {
				promoted = append(promoted, it)
				break
			}
		}
	}
	sortByPriority(promoted)
	return capTo(promoted, limit), nil
}

// ClosedDeals returns recently completed sales and rentals. Membership comes
// from the catalog status alone; the extension's closed-deal fields only
// refine the recency ordering.
func (s *Service) ClosedDeals(ctx context.Context, limit int, viewer Viewer) ([]EnhancedProperty, error) {
	items, err := s.fetchCandidates(ctx, viewer)
	if err != nil {
		return nil, err
	}

	closed := make([]EnhancedProperty, 0, len(items))
	for _, it := range items {
		if it.Status.Terminal() {
			closed = append(closed, it)
		}
	}
	sort.SliceStable(closed, func(i, j int) bool {
		return closedAt(closed[i]).After(closedAt(closed[j]))
	})
	return capTo(closed, limit), nil
}

func closedAt(p EnhancedProperty) time.Time {
	if p.Extension != nil && p.Extension.ClosedDealDate != nil {
		return *p.Extension.ClosedDealDate
	}
	return p.UpdatedAt
}

// fetchCandidates pulls the widest catalog page the upstream allows as the
// working set for the derived views.
func (s *Service) fetchCandidates(ctx context.Context, viewer Viewer) ([]EnhancedProperty, error) {
	page, err := s.catalog.FetchPage(ctx, catalog.Filters{Page: 1, Limit: catalog.MaxLimit})
	if err != nil {
		return nil, err
	}
	return s.enhance(page.Items, viewer), nil
}

// enhance attaches extensions by id and applies the visibility filter. The
// extension set is the smaller side of the join, so it is loaded whole and
// indexed by external id.
func (s *Service) enhance(props []catalog.Property, viewer Viewer) []EnhancedProperty {
	extMap := s.extensionMap()

	out := make([]EnhancedProperty, 0, len(props))
	for _, p := range props {
		ext := extMap[p.ID]
		if ext != nil && ext.IsHidden && !viewer.IncludeHidden {
			continue
		}
		out = append(out, EnhancedProperty{Property: p, Extension: ext})
	}
	return out
}

func (s *Service) extensionMap() map[string]*models.PropertyExtension {
	exts, err := s.store.ListAll()
	if err != nil {
		// Editorial metadata is enrichment, not a hard dependency: listings
		// stay available with nil extensions.
		s.log.WithError(err).Warn("extension store unavailable, listings degrade to catalog data")
		return nil
	}

	m := make(map[string]*models.PropertyExtension, len(exts))
	for i := range exts {
		m[exts[i].ExternalPropertyID] = &exts[i]
	}
	return m
}

// sortByPriority orders by extension priority descending. The sort is stable
// so equal priorities keep their catalog order across identical requests.
func sortByPriority(items []EnhancedProperty) {
	sort.SliceStable(items, func(i, j int) bool {
		return priorityOf(items[i]) > priorityOf(items[j])
	})
}

func priorityOf(p EnhancedProperty) int {
	if p.Extension == nil {
		return 0
	}
	return p.Extension.Priority
}

func capTo(items []EnhancedProperty, limit int) []EnhancedProperty {
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}
