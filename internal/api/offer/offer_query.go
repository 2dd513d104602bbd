package offer

import (
	"net/url"
	"strconv"

	"github.com/FACorreiaa/go-secondhand-market/internal/types"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// BuildOfferFilter translates the /offers query string into a normalized
// search filter. Unparseable numeric parameters are treated as absent.
//
//	title    → case-insensitive substring match on product name
//	priceMin → inclusive lower bound, priceMax → inclusive upper bound
//	sort     → "price-asc" ascending, anything else descending
//	page     → 1-based, values below 1 clamp to 1
//	limit    → page size, defaulted and capped server-side
func BuildOfferFilter(values url.Values) types.OfferFilter {
	filter := types.OfferFilter{
		Title: values.Get("title"),
		Sort:  types.SortPriceDesc,
		Page:  1,
		Limit: defaultPageSize,
	}

	if v, err := strconv.ParseFloat(values.Get("priceMin"), 64); err == nil {
		filter.PriceMin = &v
	}
	if v, err := strconv.ParseFloat(values.Get("priceMax"), 64); err == nil {
		filter.PriceMax = &v
	}

	if values.Get("sort") == string(types.SortPriceAsc) {
		filter.Sort = types.SortPriceAsc
	}

	if page, err := strconv.Atoi(values.Get("page")); err == nil && page > 1 {
		filter.Page = page
	}

	if limit, err := strconv.Atoi(values.Get("limit")); err == nil && limit > 0 {
		if limit > maxPageSize {
			limit = maxPageSize
		}
		filter.Limit = limit
	}

	return filter
}
