package catalog

import (
	"net/url"
	"strconv"
)

type ListingType string

const (
	ListingRent ListingType = "rent"
	ListingSale ListingType = "sale"
	ListingAny  ListingType = "" // unspecified
)

// Bedrooms4Plus is the "4 or more" aggregation bucket the search UI exposes.
const Bedrooms4Plus = "4+"

// Filters is the typed query for a catalog page. Zero values mean "no
// restriction"; validation happens once at the HTTP boundary, so by the time
// a Filters reaches the client it is well-formed.
type Filters struct {
	Query        string
	PropertyType PropertyType // TypeAll or empty = every type
	ListingType  ListingType
	Bedrooms     string // "1".."3" exact, Bedrooms4Plus, or empty
	MinPrice     *float64
	MaxPrice     *float64
	Page         int
	Limit        int
}

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

func (f Filters) normalized() Filters {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = DefaultLimit
	}
	if f.Limit > MaxLimit {
		f.Limit = MaxLimit
	}
	return f
}

// encode maps the filter set onto the upstream query parameters in one place.
func (f Filters) encode() url.Values {
	f = f.normalized()

	q := url.Values{}
	q.Set("page", strconv.Itoa(f.Page))
	q.Set("limit", strconv.Itoa(f.Limit))

	if f.Query != "" {
		q.Set("search", f.Query)
	}
	if f.PropertyType != "" && f.PropertyType != TypeAll {
		q.Set("property_type", string(f.PropertyType))
	}
	if f.ListingType != ListingAny {
		q.Set("listing_type", string(f.ListingType))
	}
	switch f.Bedrooms {
	case "":
	case Bedrooms4Plus:
		q.Set("bedrooms_min", "4")
	default:
		q.Set("bedrooms", f.Bedrooms)
	}
	if f.MinPrice != nil {
		q.Set("min_price", strconv.FormatFloat(*f.MinPrice, 'f', -1, 64))
	}
	if f.MaxPrice != nil {
		q.Set("max_price", strconv.FormatFloat(*f.MaxPrice, 'f', -1, 64))
	}
	return q
}
