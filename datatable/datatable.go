// Package datatable is a reusable kit for tabular listings: free-text search,
// per-column multi-select filters, sorting, and pagination. The same State can
// drive an in-memory slice (client-paginated tables) or a bun query
// (server-paginated tables).
package datatable

import (
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// SortOrder is the direction of a sort.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// ParseSortOrder folds arbitrary input onto a valid order, ascending wins on
// garbage input.
func ParseSortOrder(s string) SortOrder {
	if strings.EqualFold(s, string(SortDesc)) {
		return SortDesc
	}
	return SortAsc
}

// Sort identifies a column and direction.
type Sort struct {
	By    string    `json:"sortBy"`
	Order SortOrder `json:"sortOrder"`
}

// Filters maps a column to the set of accepted values (multi-select).
type Filters map[string][]string

// Match reports whether a value passes the filter for a column. An absent or
// empty filter accepts everything.
func (f Filters) Match(column, value string) bool {
	selected, ok := f[column]
	if !ok || len(selected) == 0 {
		return true
	}
	for _, s := range selected {
		if s == value {
			return true
		}
	}
	return false
}

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// State is the full view state of a data table.
type State struct {
	Query   string
	Sort    Sort
	Filters Filters
	Page    int
	Limit   int
}

// Normalize clamps pagination to sane bounds: page >= 1, 1 <= limit <= 100.
func (s State) Normalize() State {
	if s.Page < 1 {
		s.Page = DefaultPage
	}
	if s.Limit < 1 {
		s.Limit = DefaultLimit
	}
	if s.Limit > MaxLimit {
		s.Limit = MaxLimit
	}
	if s.Sort.Order == "" {
		s.Sort.Order = SortAsc
	}
	return s
}

// Offset is the row offset of the current page.
func (s State) Offset() int {
	return (s.Page - 1) * s.Limit
}

// ParseState extracts table state from URL query values. Only columns listed
// in filterable become filters; everything else in the query string is
// ignored.
func ParseState(values url.Values, filterable ...string) State {
	state := State{
		Query: strings.TrimSpace(values.Get("query")),
		Sort: Sort{
			By:    strings.TrimSpace(values.Get("sortBy")),
			Order: ParseSortOrder(values.Get("sortOrder")),
		},
		Filters: Filters{},
	}

	if page, err := strconv.Atoi(values.Get("page")); err == nil {
		state.Page = page
	}
	if limit, err := strconv.Atoi(values.Get("limit")); err == nil {
		state.Limit = limit
	}

	for _, column := range filterable {
		if selected, ok := values[column]; ok && len(selected) > 0 {
			filtered := selected[:0:0]
			for _, v := range selected {
				if v = strings.TrimSpace(v); v != "" {
					filtered = append(filtered, v)
				}
			}
			if len(filtered) > 0 {
				state.Filters[column] = filtered
			}
		}
	}

	return state.Normalize()
}

// Page is one page of a listing plus its pagination math.
type Page[T any] struct {
	Items       []T  `json:"items"`
	CurrentPage int  `json:"currentPage"`
	TotalPages  int  `json:"totalPages"`
	TotalItems  int  `json:"totalItems"`
	HasMore     bool `json:"hasMore"`
}

// NewPage computes pagination math for a slice of items already cut to one
// page.
func NewPage[T any](items []T, totalItems, page, limit int) Page[T] {
	if items == nil {
		items = []T{}
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if page < 1 {
		page = DefaultPage
	}

	totalPages := (totalItems + limit - 1) / limit

	return Page[T]{
		Items:       items,
		CurrentPage: page,
		TotalPages:  totalPages,
		TotalItems:  totalItems,
		HasMore:     page < totalPages,
	}
}

// Accessor extracts the string value of one column from a row.
type Accessor[T any] func(T) string

// Apply runs the full pipeline over an in-memory slice: filter, search, sort,
// paginate. cols maps column names to accessors; search scans every column.
func Apply[T any](rows []T, state State, cols map[string]Accessor[T]) Page[T] {
	state = state.Normalize()

	matched := make([]T, 0, len(rows))
	query := strings.ToLower(state.Query)

	for _, row := range rows {
		if !rowMatchesFilters(row, state.Filters, cols) {
			continue
		}
		if query != "" && !rowMatchesQuery(row, query, cols) {
			continue
		}
		matched = append(matched, row)
	}

	if accessor, ok := cols[state.Sort.By]; ok {
		sort.SliceStable(matched, func(i, j int) bool {
			a, b := accessor(matched[i]), accessor(matched[j])
			if state.Sort.Order == SortDesc {
				return a > b
			}
			return a < b
		})
	}

	total := len(matched)
	start := state.Offset()
	if start > total {
		start = total
	}
	end := start + state.Limit
	if end > total {
		end = total
	}

	return NewPage(matched[start:end], total, state.Page, state.Limit)
}

func rowMatchesFilters[T any](row T, filters Filters, cols map[string]Accessor[T]) bool {
	for column := range filters {
		accessor, ok := cols[column]
		if !ok {
			continue
		}
		if !filters.Match(column, accessor(row)) {
			return false
		}
	}
	return true
}

func rowMatchesQuery[T any](row T, loweredQuery string, cols map[string]Accessor[T]) bool {
	for _, accessor := range cols {
		if strings.Contains(strings.ToLower(accessor(row)), loweredQuery) {
			return true
		}
	}
	return false
}
