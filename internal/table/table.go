// Package table implements the sorting, filtering and paging used by the tabular views.
package table

import (
	"slices"
	"strings"

	"github.com/ccoveille/go-safecast"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// Order is a sort direction.
type Order string

const (
	Asc  Order = "asc"
	Desc Order = "desc"
)

// ParseOrder returns Desc for "desc" and Asc for everything else.
func ParseOrder(s string) Order {
	if strings.EqualFold(s, string(Desc)) {
		return Desc
	}
	return Asc
}

// Value is a single cell. Numeric cells compare numerically, all others byte-wise.
type Value struct {
	text    string
	number  decimal.Decimal
	numeric bool
}

// Text returns a string cell.
func Text(s string) Value {
	return Value{text: s}
}

// Number returns a numeric cell.
func Number(d decimal.Decimal) Value {
	return Value{text: d.String(), number: d, numeric: true}
}

// Int returns a numeric cell for an integer.
func Int(i int) Value {
	return Number(decimal.NewFromInt(int64(i)))
}

func (v Value) String() string {
	return v.text
}

// Compare orders two cells. Two numeric cells are compared by value,
// any other combination by their string form.
func (v Value) Compare(other Value) int {
	if v.numeric && other.numeric {
		return v.number.Cmp(other.number)
	}
	return strings.Compare(v.text, other.text)
}

// Row is anything that can be displayed in a table.
type Row interface {
	Field(name string) Value
}

// Sort returns a stably sorted copy of rows.
func Sort[R Row](rows []R, field string, order Order) []R {
	sorted := slices.Clone(rows)
	if field == "" {
		return sorted
	}
	slices.SortStableFunc(sorted, func(a, b R) int {
		c := a.Field(field).Compare(b.Field(field))
		if order == Desc {
			return -c
		}
		return c
	})
	return sorted
}

// Filter returns the rows whose field contains needle, ignoring case.
// An empty needle keeps every row.
func Filter[R Row](rows []R, field, needle string) []R {
	if needle == "" {
		return slices.Clone(rows)
	}
	needle = strings.ToLower(needle)
	return lo.Filter(rows, func(r R, _ int) bool {
		return strings.Contains(strings.ToLower(r.Field(field).String()), needle)
	})
}

// Paginate returns the rows of the given zero-based page. Pages past the end are empty.
func Paginate[R Row](rows []R, page, pageSize int) []R {
	if page < 0 || pageSize <= 0 || len(rows) == 0 || page > (len(rows)-1)/pageSize {
		return []R{}
	}
	length, err := safecast.Convert[uint](pageSize)
	if err != nil {
		return []R{}
	}
	return lo.Subset(rows, page*pageSize, length)
}

// PaddingRowCount returns the number of filler rows needed to keep a partial
// last page as tall as a full one. The first page and pages past the end are
// never padded, so the result is always below pageSize.
func PaddingRowCount(page, pageSize, total int) int {
	if page <= 0 || pageSize <= 0 || total <= 0 {
		return 0
	}
	if page != (total-1)/pageSize {
		return 0
	}
	if rest := total % pageSize; rest > 0 {
		return pageSize - rest
	}
	return 0
}
