package table

import (
	"math"
	"slices"
	"testing"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testRow struct {
	id      int
	name    string
	balance string
}

func (r testRow) Field(name string) Value {
	switch name {
	case "id":
		return Int(r.id)
	case "name":
		return Text(r.name)
	case "balance":
		return Number(decimal.RequireFromString(r.balance))
	default:
		return Text("")
	}
}

func ids(rows []testRow) []int {
	return lo.Map(rows, func(r testRow, _ int) int { return r.id })
}

var fixture = []testRow{
	{id: 1, name: "Charlie", balance: "10"},
	{id: 2, name: "alice", balance: "9.5"},
	{id: 3, name: "Bob", balance: "10"},
	{id: 4, name: "alicia", balance: "100"},
	{id: 5, name: "dave", balance: "9.5"},
}

func TestValue_Compare(t *testing.T) {
	assert.Equal(t, -1, Number(decimal.RequireFromString("9.5")).Compare(Number(decimal.NewFromInt(10))), "numeric, not lexical")
	assert.Equal(t, 1, Text("9.5").Compare(Text("10")), "text compares byte-wise")
	assert.Equal(t, 0, Text("a").Compare(Text("a")))
	assert.Equal(t, -1, Text("B").Compare(Text("a")), "locale agnostic")
}

func TestSort_Stable(t *testing.T) {
	asc := Sort(fixture, "balance", Asc)
	assert.Equal(t, []int{2, 5, 1, 3, 4}, ids(asc), "ties keep input order")

	desc := Sort(fixture, "balance", Desc)
	assert.Equal(t, []int{4, 1, 3, 2, 5}, ids(desc), "ties keep input order in descending order too")

	assert.Equal(t, []int{1, 2, 3, 4, 5}, ids(fixture), "input is untouched")
}

func TestSort_AscDescReversal(t *testing.T) {
	distinct := []testRow{
		{id: 1, balance: "3"},
		{id: 2, balance: "1"},
		{id: 3, balance: "2"},
	}
	asc := ids(Sort(distinct, "balance", Asc))
	desc := ids(Sort(distinct, "balance", Desc))
	slices.Reverse(desc)
	assert.Equal(t, asc, desc)
}

func TestSort_NoField(t *testing.T) {
	assert.Equal(t, ids(fixture), ids(Sort(fixture, "", Desc)))
}

func TestFilter(t *testing.T) {
	tests := []struct {
		name   string
		needle string
		want   []int
	}{
		{name: "empty needle is identity", needle: "", want: []int{1, 2, 3, 4, 5}},
		{name: "case insensitive", needle: "ALI", want: []int{2, 4}},
		{name: "substring", needle: "o", want: []int{3}},
		{name: "no match", needle: "zzz", want: []int{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Filter(fixture, "name", tt.needle)
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestFilter_Idempotent(t *testing.T) {
	for _, needle := range []string{"", "a", "li", "BOB", "x"} {
		once := Filter(fixture, "name", needle)
		twice := Filter(once, "name", needle)
		assert.Equal(t, ids(once), ids(twice), "needle %q", needle)
	}
}

func TestPaginate(t *testing.T) {
	assert.Equal(t, []int{1, 2}, ids(Paginate(fixture, 0, 2)))
	assert.Equal(t, []int{3, 4}, ids(Paginate(fixture, 1, 2)))
	assert.Equal(t, []int{5}, ids(Paginate(fixture, 2, 2)))
	assert.Empty(t, Paginate(fixture, 3, 2), "out of range pages are empty")
	assert.Empty(t, Paginate(fixture, -1, 2))
	assert.Empty(t, Paginate(fixture, 0, 0))
	assert.Empty(t, Paginate(fixture, math.MaxInt, 2))
	assert.Empty(t, Paginate(fixture, 1<<62, 4), "page*pageSize must not wrap around")
	assert.Empty(t, Paginate([]testRow{}, 0, 2))
}

func TestPaddingRowCount(t *testing.T) {
	tests := []struct {
		page, size, total, want int
	}{
		{page: 0, size: 5, total: 2, want: 0},
		{page: 1, size: 5, total: 7, want: 3},
		{page: 1, size: 5, total: 10, want: 0},
		{page: 2, size: 5, total: 15, want: 0},
		{page: 2, size: 5, total: 11, want: 4},
		{page: 4, size: 5, total: 7, want: 0},
		{page: 2, size: 5, total: 10, want: 0},
		{page: 7, size: 2, total: 3, want: 0},
		{page: math.MaxInt, size: 100, total: 3, want: 0},
		{page: 1, size: 0, total: 3, want: 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, PaddingRowCount(tt.page, tt.size, tt.total), "%+v", tt)
	}

	// padding stays below the page size for every page
	for size := 1; size <= 10; size++ {
		for total := 0; total <= 25; total++ {
			for page := 0; page <= 6; page++ {
				got := PaddingRowCount(page, size, total)
				assert.GreaterOrEqual(t, got, 0)
				assert.Less(t, got, size, "page %d size %d total %d", page, size, total)
			}
		}
	}

	// full pages are never padded
	for size := 1; size <= 10; size++ {
		for pages := 1; pages <= 5; pages++ {
			total := size * pages
			for page := 0; page < pages; page++ {
				assert.Zero(t, PaddingRowCount(page, size, total))
			}
		}
	}
}

func TestSelection(t *testing.T) {
	s := NewSelection(3, 1, 3)
	assert.Equal(t, []int{3, 1}, s.IDs())

	s.Toggle(2)
	s.Toggle(3)
	assert.Equal(t, []int{1, 2}, s.IDs())
	assert.True(t, s.Contains(2))
	assert.False(t, s.Contains(3))

	s.Remove(1)
	assert.Equal(t, []int{2}, s.IDs())

	s.SelectAll(true, []int{5, 6, 5})
	assert.Equal(t, []int{5, 6}, s.IDs())
	assert.Equal(t, 2, s.Len())

	s.SelectAll(false, []int{5, 6})
	assert.Empty(t, s.IDs())
}

func TestApply(t *testing.T) {
	res := Apply(fixture, Query{
		FilterField: "name",
		Filter:      "a",
		OrderBy:     "balance",
		Order:       Desc,
		Page:        1,
		PageSize:    3,
	})

	require.Equal(t, 5, res.Total)
	assert.Equal(t, 4, res.Filtered)
	// filtered: Charlie(10), alice(9.5), alicia(100), dave(9.5)
	// sorted desc: alicia, Charlie, alice, dave
	assert.Equal(t, []int{5}, ids(res.Rows))
	assert.Equal(t, 2, res.EmptyRows)
}

func TestParseOrder(t *testing.T) {
	assert.Equal(t, Desc, ParseOrder("DESC"))
	assert.Equal(t, Asc, ParseOrder("asc"))
	assert.Equal(t, Asc, ParseOrder(""))
}
