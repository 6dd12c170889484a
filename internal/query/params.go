package query

import (
	"net/url"
	"strconv"
	"strings"

	"malladmin/internal/model"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// ListParams carries the list controls shared by every collection endpoint.
type ListParams struct {
	Search   string
	Status   string
	Filters  map[string]string
	Page     int
	PageSize int
	Sort     string
	Desc     bool
}

// FromValues parses q, status, page, page_size, sort and order plus the
// given entity filter keys. Keys ending in "_id" must be positive integers.
func FromValues(v url.Values, filterKeys ...string) (ListParams, error) {
	p := ListParams{
		Search:   strings.TrimSpace(v.Get("q")),
		Status:   strings.TrimSpace(v.Get("status")),
		Filters:  map[string]string{},
		Page:     atoiDefault(v.Get("page"), 1),
		PageSize: atoiDefault(v.Get("page_size"), DefaultPageSize),
		Sort:     strings.TrimSpace(v.Get("sort")),
		Desc:     strings.EqualFold(v.Get("order"), "desc"),
	}
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		p.PageSize = MaxPageSize
	}

	for _, key := range filterKeys {
		val := strings.TrimSpace(v.Get(key))
		if val == "" {
			continue
		}
		if strings.HasSuffix(key, "_id") {
			if id, err := strconv.ParseInt(val, 10, 64); err != nil || id <= 0 {
				return ListParams{}, &model.ValidationError{Field: key, Message: "must be a positive integer"}
			}
		}
		p.Filters[key] = val
	}
	return p, nil
}

// Filter returns an entity filter value, or "" when absent.
func (p ListParams) Filter(key string) string {
	return p.Filters[key]
}

// FilterID returns an "_id" filter already checked by FromValues.
func (p ListParams) FilterID(key string) (int64, bool) {
	val, ok := p.Filters[key]
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

func (p ListParams) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// OrderBy resolves the requested sort key against a whitelist of
// key -> column. Unknown or empty keys fall back to def, which carries its
// own direction.
func (p ListParams) OrderBy(allowed map[string]string, def string) string {
	col, ok := allowed[p.Sort]
	if !ok {
		return "ORDER BY " + def
	}
	if p.Desc {
		return "ORDER BY " + col + " DESC"
	}
	return "ORDER BY " + col + " ASC"
}

func atoiDefault(s string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return def
	}
	return n
}
