package table

// Query describes one view of a table.
type Query struct {
	FilterField string `form:"filterField" json:"filterField"`
	Filter      string `form:"filter" json:"filter"`
	OrderBy     string `form:"orderBy" json:"orderBy"`
	Order       Order  `form:"order" json:"order"`
	Page        int    `form:"page" json:"page" binding:"gte=0"`
	PageSize    int    `form:"pageSize" json:"pageSize" binding:"gte=0"`
}

// Result is one page of a table.
type Result[R Row] struct {
	Rows      []R `json:"rows"`
	Total     int `json:"total"`
	Filtered  int `json:"filtered"`
	EmptyRows int `json:"emptyRows"`
	Page      int `json:"page"`
	PageSize  int `json:"pageSize"`
}

// Apply filters, sorts and pages rows according to q.
// Padding is computed against the filtered set, which is what the page shows.
func Apply[R Row](rows []R, q Query) Result[R] {
	filtered := Filter(rows, q.FilterField, q.Filter)
	sorted := Sort(filtered, q.OrderBy, q.Order)
	return Result[R]{
		Rows:      Paginate(sorted, q.Page, q.PageSize),
		Total:     len(rows),
		Filtered:  len(filtered),
		EmptyRows: PaddingRowCount(q.Page, q.PageSize, len(filtered)),
		Page:      q.Page,
		PageSize:  q.PageSize,
	}
}
