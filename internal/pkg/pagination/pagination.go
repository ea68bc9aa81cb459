// Package pagination parses page/limit query parameters and builds page metadata.
package pagination

import (
	"math"
	"net/url"
	"strconv"
	"strings"
)

// Defaults applied when a query omits or garbles page/limit.
const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// Params holds clamped pagination values.
type Params struct {
	Page  int
	Limit int
}

// New clamps page and limit: non-positive values fall back to the defaults and
// limit is capped at MaxLimit.
func New(page, limit int) Params {
	if page < 1 {
		page = DefaultPage
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return Params{Page: page, Limit: limit}
}

// Parse reads "page" and "limit" from query. Unparsable values use the defaults.
func Parse(query url.Values) Params {
	page, _ := strconv.Atoi(strings.TrimSpace(query.Get("page")))
	limit, _ := strconv.Atoi(strings.TrimSpace(query.Get("limit")))
	return New(page, limit)
}

// Offset returns the number of items preceding the page. It saturates at
// math.MaxInt rather than overflowing, so an absurd page is simply past the end.
func (p Params) Offset() int {
	if p.Page <= 1 || p.Limit <= 0 {
		return 0
	}
	if p.Page-1 > math.MaxInt/p.Limit {
		return math.MaxInt
	}
	return (p.Page - 1) * p.Limit
}

// Meta is the pagination block returned alongside a page of items.
type Meta struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int   `json:"pages"`
}

// NewMeta builds page metadata. Pages is ceil(total/limit), so zero items
// yields zero pages.
func NewMeta(p Params, total int64) Meta {
	return Meta{
		Page:  p.Page,
		Limit: p.Limit,
		Total: total,
		Pages: TotalPages(total, p.Limit),
	}
}

// TotalPages returns ceil(total/limit).
func TotalPages(total int64, limit int) int {
	if limit < 1 || total <= 0 {
		return 0
	}
	return int((total + int64(limit) - 1) / int64(limit))
}
