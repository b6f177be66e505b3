package datatable_test

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/userdesk/go-userdesk/datatable"
)

type row struct {
	Name  string
	Email string
	Group string
}

var testCols = map[string]datatable.Accessor[row]{
	"name":  func(r row) string { return r.Name },
	"email": func(r row) string { return r.Email },
	"group": func(r row) string { return r.Group },
}

func sampleRows() []row {
	return []row{
		{Name: "alice", Email: "alice@example.com", Group: "admins"},
		{Name: "bob", Email: "bob@example.com", Group: "users"},
		{Name: "carol", Email: "carol@example.com", Group: "users"},
		{Name: "dave", Email: "dave@example.com", Group: "admins"},
		{Name: "erin", Email: "erin@example.com", Group: "users"},
	}
}

func TestParseSortOrder(t *testing.T) {
	assert.Equal(t, datatable.SortAsc, datatable.ParseSortOrder("asc"))
	assert.Equal(t, datatable.SortDesc, datatable.ParseSortOrder("desc"))
	assert.Equal(t, datatable.SortDesc, datatable.ParseSortOrder("DESC"))
	assert.Equal(t, datatable.SortAsc, datatable.ParseSortOrder(""))
	assert.Equal(t, datatable.SortAsc, datatable.ParseSortOrder("sideways"))
}

func TestStateNormalizeClamps(t *testing.T) {
	tests := []struct {
		name      string
		in        datatable.State
		wantPage  int
		wantLimit int
	}{
		{
			name:      "Zero values",
			in:        datatable.State{},
			wantPage:  1,
			wantLimit: 10,
		},
		{
			name:      "Negative page",
			in:        datatable.State{Page: -3, Limit: 20},
			wantPage:  1,
			wantLimit: 20,
		},
		{
			name:      "Limit above max",
			in:        datatable.State{Page: 2, Limit: 1000},
			wantPage:  2,
			wantLimit: 100,
		},
		{
			name:      "Limit zero",
			in:        datatable.State{Page: 1, Limit: 0},
			wantPage:  1,
			wantLimit: 10,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.in.Normalize()
			assert.Equal(t, tt.wantPage, got.Page)
			assert.Equal(t, tt.wantLimit, got.Limit)
		})
	}
}

func TestParseState(t *testing.T) {
	values := url.Values{}
	values.Set("query", "  alice  ")
	values.Set("sortBy", "name")
	values.Set("sortOrder", "desc")
	values.Set("page", "3")
	values.Set("limit", "25")
	values.Add("group", "admins")
	values.Add("group", "users")
	values.Add("ignored", "whatever")

	state := datatable.ParseState(values, "group")

	assert.Equal(t, "alice", state.Query)
	assert.Equal(t, "name", state.Sort.By)
	assert.Equal(t, datatable.SortDesc, state.Sort.Order)
	assert.Equal(t, 3, state.Page)
	assert.Equal(t, 25, state.Limit)
	assert.Equal(t, []string{"admins", "users"}, state.Filters["group"])
	assert.NotContains(t, state.Filters, "ignored")
}

func TestParseStateBadNumbers(t *testing.T) {
	values := url.Values{}
	values.Set("page", "banana")
	values.Set("limit", "-5")

	state := datatable.ParseState(values)

	assert.Equal(t, datatable.DefaultPage, state.Page)
	assert.Equal(t, datatable.DefaultLimit, state.Limit)
}

func TestFiltersMatch(t *testing.T) {
	f := datatable.Filters{"group": {"admins"}}

	assert.True(t, f.Match("group", "admins"))
	assert.False(t, f.Match("group", "users"))
	assert.True(t, f.Match("other", "anything"), "absent filter accepts everything")
	assert.True(t, datatable.Filters{}.Match("group", "users"))
}

func TestApplyEmptyQueryMatchesAll(t *testing.T) {
	page := datatable.Apply(sampleRows(), datatable.State{}, testCols)

	assert.Equal(t, 5, page.TotalItems)
	assert.Len(t, page.Items, 5)
	assert.Equal(t, 1, page.CurrentPage)
	assert.Equal(t, 1, page.TotalPages)
	assert.False(t, page.HasMore)
}

func TestApplySearch(t *testing.T) {
	page := datatable.Apply(sampleRows(), datatable.State{Query: "ALICE"}, testCols)

	require.Len(t, page.Items, 1)
	assert.Equal(t, "alice", page.Items[0].Name)
}

func TestApplyFilters(t *testing.T) {
	state := datatable.State{
		Filters: datatable.Filters{"group": {"admins"}},
	}

	page := datatable.Apply(sampleRows(), state, testCols)

	assert.Equal(t, 2, page.TotalItems)
	for _, r := range page.Items {
		assert.Equal(t, "admins", r.Group)
	}
}

func TestApplySort(t *testing.T) {
	state := datatable.State{
		Sort: datatable.Sort{By: "name", Order: datatable.SortDesc},
	}

	page := datatable.Apply(sampleRows(), state, testCols)

	require.Len(t, page.Items, 5)
	assert.Equal(t, "erin", page.Items[0].Name)
	assert.Equal(t, "alice", page.Items[4].Name)
}

func TestApplyUnknownSortColumnKeepsInputOrder(t *testing.T) {
	state := datatable.State{
		Sort: datatable.Sort{By: "shoe_size", Order: datatable.SortDesc},
	}

	page := datatable.Apply(sampleRows(), state, testCols)

	require.Len(t, page.Items, 5)
	assert.Equal(t, "alice", page.Items[0].Name)
	assert.Equal(t, "erin", page.Items[4].Name)
}

func TestApplyPagination(t *testing.T) {
	state := datatable.State{Page: 2, Limit: 2}

	page := datatable.Apply(sampleRows(), state, testCols)

	require.Len(t, page.Items, 2)
	assert.Equal(t, "carol", page.Items[0].Name)
	assert.Equal(t, 2, page.CurrentPage)
	assert.Equal(t, 3, page.TotalPages)
	assert.Equal(t, 5, page.TotalItems)
	assert.True(t, page.HasMore)
}

func TestApplyPageBeyondEnd(t *testing.T) {
	state := datatable.State{Page: 99, Limit: 2}

	page := datatable.Apply(sampleRows(), state, testCols)

	assert.Empty(t, page.Items)
	assert.Equal(t, 99, page.CurrentPage)
	assert.Equal(t, 3, page.TotalPages)
	assert.Equal(t, 5, page.TotalItems)
	assert.False(t, page.HasMore)
}

func TestApplyCombined(t *testing.T) {
	state := datatable.State{
		Query:   "example.com",
		Filters: datatable.Filters{"group": {"users"}},
		Sort:    datatable.Sort{By: "name", Order: datatable.SortAsc},
		Page:    1,
		Limit:   2,
	}

	page := datatable.Apply(sampleRows(), state, testCols)

	require.Len(t, page.Items, 2)
	assert.Equal(t, "bob", page.Items[0].Name)
	assert.Equal(t, "carol", page.Items[1].Name)
	assert.Equal(t, 3, page.TotalItems)
	assert.True(t, page.HasMore)
}

func TestNewPageMath(t *testing.T) {
	tests := []struct {
		name       string
		totalItems int
		page       int
		limit      int
		wantPages  int
		wantMore   bool
	}{
		{"Exact fit", 20, 1, 10, 2, true},
		{"Remainder", 21, 3, 10, 3, false},
		{"Empty", 0, 1, 10, 0, false},
		{"Single page", 3, 1, 10, 1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := datatable.NewPage([]int{}, tt.totalItems, tt.page, tt.limit)
			assert.Equal(t, tt.wantPages, page.TotalPages)
			assert.Equal(t, tt.wantMore, page.HasMore)
			assert.Equal(t, tt.totalItems, page.TotalItems)
		})
	}
}
