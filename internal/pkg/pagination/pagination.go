// Package pagination parses page/limit query parameters and builds paginated
// responses.
package pagination

import (
	"net/http"
	"strconv"

	"github.com/blogcore/blogcore/internal/pkg/apperr"
)

// Limits.
const (
	DefaultPage  = 1
	DefaultLimit = 10
	MinLimit     = 1
	MaxLimit     = 100
)

// Params is a validated page request. Page is 1-indexed.
type Params struct {
	Page  int
	Limit int
}

// Default returns the first page with the default limit.
func Default() Params {
	return Params{Page: DefaultPage, Limit: DefaultLimit}
}

// New validates page and limit. Zero values take the defaults.
func New(page, limit int) (Params, error) {
	if page == 0 {
		page = DefaultPage
	}
	if limit == 0 {
		limit = DefaultLimit
	}
	p := Params{Page: page, Limit: limit}
	if err := p.Validate(); err != nil {
		return Params{}, err
	}
	return p, nil
}

// Parse reads ?page= and ?limit= from the request query.
func Parse(r *http.Request) (Params, error) {
	q := r.URL.Query()
	page, err := queryInt(q.Get("page"), "page")
	if err != nil {
		return Params{}, err
	}
	limit, err := queryInt(q.Get("limit"), "limit")
	if err != nil {
		return Params{}, err
	}
	return New(page, limit)
}

// Validate checks the page and limit bounds.
func (p Params) Validate() error {
	if p.Page < 1 {
		return apperr.Validation("Page must be greater than 0")
	}
	if p.Limit < MinLimit {
		return apperr.Validation("Limit must be at least %d", MinLimit)
	}
	if p.Limit > MaxLimit {
		return apperr.Validation("Limit cannot exceed %d", MaxLimit)
	}
	return nil
}

// Offset returns the number of rows to skip.
func (p Params) Offset() int {
	return (p.Page - 1) * p.Limit
}

// TotalPages returns the page count for total items.
func (p Params) TotalPages(total int) int {
	if total <= 0 {
		return 0
	}
	return (total + p.Limit - 1) / p.Limit
}

// Page is a paginated list response.
type Page[T any] struct {
	Data       []T `json:"data"`
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"total_pages"`
}

// NewPage builds a response page. A nil slice is encoded as an empty array.
func NewPage[T any](items []T, total int, p Params) Page[T] {
	if items == nil {
		items = []T{}
	}
	return Page[T]{
		Data:       items,
		Total:      total,
		Page:       p.Page,
		Limit:      p.Limit,
		TotalPages: p.TotalPages(total),
	}
}

func queryInt(raw, name string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperr.Validation("%s must be an integer", name)
	}
	return n, nil
}
