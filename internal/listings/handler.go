package listings

import (
	"context"
	"errors"
	"strconv"

	"estate-backend/internal/auth"
	"estate-backend/internal/catalog"
	"estate-backend/internal/httpx"

	"github.com/gofiber/fiber/v2"
)

// viewerFrom derives the caller's authorization from what the session
// middleware left in the request context. includeHidden from the query string
// is honored only for authenticated staff; for everyone else it is silently
// false.
func viewerFrom(c *fiber.Ctx) Viewer {
	admin := auth.IsAuthenticated(c)
	return Viewer{
		Admin:         admin,
		IncludeHidden: admin && c.QueryBool("include_hidden"),
	}
}

func parseFilters(c *fiber.Ctx) (catalog.Filters, error) {
	f := catalog.Filters{
		Query: c.Query("q"),
		Page:  1,
		Limit: catalog.DefaultLimit,
	}

	switch pt := catalog.PropertyType(c.Query("property_type")); pt {
	case "", catalog.TypeAll:
		f.PropertyType = catalog.TypeAll
	case catalog.TypeCondo, catalog.TypeTownhouse, catalog.TypeSingleHouse, catalog.TypeLand:
		f.PropertyType = pt
	default:
		return f, fiber.NewError(fiber.StatusBadRequest, "invalid property_type")
	}

	switch lt := catalog.ListingType(c.Query("listing_type")); lt {
	case catalog.ListingAny, catalog.ListingRent, catalog.ListingSale:
		f.ListingType = lt
	default:
		return f, fiber.NewError(fiber.StatusBadRequest, "invalid listing_type")
	}

	switch b := c.Query("bedrooms"); b {
	case "", "1", "2", "3", catalog.Bedrooms4Plus:
		f.Bedrooms = b
	default:
		return f, fiber.NewError(fiber.StatusBadRequest, "invalid bedrooms, expected 1-3 or 4+")
	}

	var err error
	if f.MinPrice, err = parsePrice(c.Query("min_price")); err != nil {
		return f, fiber.NewError(fiber.StatusBadRequest, "invalid min_price")
	}
	if f.MaxPrice, err = parsePrice(c.Query("max_price")); err != nil {
		return f, fiber.NewError(fiber.StatusBadRequest, "invalid max_price")
	}
	if f.MinPrice != nil && f.MaxPrice != nil && *f.MinPrice > *f.MaxPrice {
		return f, fiber.NewError(fiber.StatusBadRequest, "min_price exceeds max_price")
	}

	if f.Page, err = parsePositive(c.Query("page"), 1); err != nil {
		return f, fiber.NewError(fiber.StatusBadRequest, "invalid page")
	}
	if f.Limit, err = parsePositive(c.Query("limit"), catalog.DefaultLimit); err != nil {
		return f, fiber.NewError(fiber.StatusBadRequest, "invalid limit")
	}
	if f.Limit > catalog.MaxLimit {
		f.Limit = catalog.MaxLimit
	}
	return f, nil
}

func parsePrice(raw string) (*float64, error) {
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 {
		return nil, errors.New("invalid price")
	}
	return &v, nil
}

func parsePositive(raw string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 {
		return 0, errors.New("invalid number")
	}
	return v, nil
}

func parseLimit(c *fiber.Ctx, def int) (int, error) {
	limit, err := parsePositive(c.Query("limit"), def)
	if err != nil {
		return 0, fiber.NewError(fiber.StatusBadRequest, "invalid limit")
	}
	if limit > catalog.MaxLimit {
		limit = catalog.MaxLimit
	}
	return limit, nil
}

func mapServiceErr(err error) error {
	switch {
	case errors.Is(err, catalog.ErrUnavailable):
		return fiber.NewError(fiber.StatusServiceUnavailable, "property catalog unavailable, try again shortly")
	case errors.Is(err, ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, "property not found")
	default:
		return err
	}
}

// sanitize strips staff-only fields before a public response. Extensions are
// copied, never mutated in place, because the merge layer shares them across
// items within a request.
func sanitize(items []EnhancedProperty, viewer Viewer) []EnhancedProperty {
	if viewer.Admin {
		return items
	}
	out := make([]EnhancedProperty, len(items))
	for i, it := range items {
		out[i] = sanitizeOne(it, viewer)
	}
	return out
}

func sanitizeOne(it EnhancedProperty, viewer Viewer) EnhancedProperty {
	if viewer.Admin || it.Extension == nil || it.Extension.InternalNotes == "" {
		return it
	}
	ext := *it.Extension
	ext.InternalNotes = ""
	it.Extension = &ext
	return it
}

// GET /api/properties
func ListPropertiesHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		filters, err := parseFilters(c)
		if err != nil {
			return err
		}

		viewer := viewerFrom(c)
		res, err := svc.List(c.UserContext(), filters, viewer)
		if err != nil {
			return mapServiceErr(err)
		}

		return httpx.OKList(c, sanitize(res.Items, viewer), httpx.Pagination{
			Page:       res.Pagination.Page,
			Limit:      res.Pagination.Limit,
			Total:      res.Pagination.Total,
			TotalPages: res.Pagination.TotalPages,
		})
	}
}

// GET /api/properties/:id
func GetPropertyHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		viewer := viewerFrom(c)
		prop, err := svc.GetByID(c.UserContext(), c.Params("id"), viewer)
		if err != nil {
			return mapServiceErr(err)
		}
		return httpx.OK(c, sanitizeOne(*prop, viewer))
	}
}

// GET /api/properties/popular
func PopularHandler(svc *Service) fiber.Handler {
	return derivedViewHandler(svc.Popular, 10)
}

// GET /api/properties/with-promotions
func WithPromotionsHandler(svc *Service) fiber.Handler {
	return derivedViewHandler(svc.WithPromotions, 10)
}

// GET /api/properties/closed-deals
func ClosedDealsHandler(svc *Service) fiber.Handler {
	return derivedViewHandler(svc.ClosedDeals, 10)
}

func derivedViewHandler(fetch func(ctx context.Context, limit int, viewer Viewer) ([]EnhancedProperty, error), defaultLimit int) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit, err := parseLimit(c, defaultLimit)
		if err != nil {
			return err
		}

		viewer := viewerFrom(c)
		items, err := fetch(c.UserContext(), limit, viewer)
		if err != nil {
			return mapServiceErr(err)
		}
		return httpx.OK(c, sanitize(items, viewer))
	}
}

// GET /api/properties/map
func MapHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		filters, err := parseFilters(c)
		if err != nil {
			return err
		}
		filters.Limit = catalog.MaxLimit

		viewer := viewerFrom(c)
		res, err := svc.List(c.UserContext(), filters, viewer)
		if err != nil {
			return mapServiceErr(err)
		}
		return httpx.OK(c, Clusters(sanitize(res.Items, viewer)))
	}
}
