package model

import (
	"math"
	"strconv"
	"strings"
)

// Pagination defaults.
const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// ProductFilter narrows a product listing. Zero values mean "no filter".
type ProductFilter struct {
	Category string
	InStock  *bool
}

// ParseInStock interprets the inStock query value: "true" selects in-stock
// products, any other non-empty value selects out-of-stock ones, and an
// empty value applies no filter.
func ParseInStock(raw string) *bool {
	if raw == "" {
		return nil
	}
	v := raw == "true"
	return &v
}

// Matches reports whether p satisfies the filter.
func (f ProductFilter) Matches(p Product) bool {
	if f.Category != "" && p.Category != f.Category {
		return false
	}
	if f.InStock != nil && p.InStock != *f.InStock {
		return false
	}
	return true
}

// Page is a 1-indexed page request.
type Page struct {
	Number int
	Limit  int
}

// NewPage parses page and limit query values. Missing, non-numeric or
// non-positive values fall back to the defaults; limit is capped at MaxLimit
// and page at MaxPage(limit).
func NewPage(page, limit string) Page {
	p := Page{
		Number: positiveIntOr(page, DefaultPage),
		Limit:  positiveIntOr(limit, DefaultLimit),
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	if maxPage := MaxPage(p.Limit); int64(p.Number) > maxPage {
		p.Number = int(maxPage)
	}
	return p
}

// MaxPage returns the highest page number whose skip count fits in an int64
// for the given limit.
func MaxPage(limit int) int64 {
	if limit < 1 {
		limit = 1
	}
	return min(math.MaxInt64/int64(limit), int64(math.MaxInt)-1) + 1
}

// Skip returns the number of documents preceding the page. It is never
// negative and saturates at math.MaxInt64.
func (p Page) Skip() int64 {
	if p.Number <= 1 || p.Limit <= 0 {
		return 0
	}
	pages, limit := int64(p.Number-1), int64(p.Limit)
	if pages > math.MaxInt64/limit {
		return math.MaxInt64
	}
	return pages * limit
}

// TotalPages returns how many pages of p.Limit cover total documents.
func (p Page) TotalPages(total int64) int {
	if total <= 0 || p.Limit <= 0 {
		return 0
	}
	limit := int64(p.Limit)
	return int((total + limit - 1) / limit)
}

func positiveIntOr(raw string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return fallback
	}
	return n
}
