package table

import "slices"

// Selection is an ordered set of row ids.
type Selection struct {
	ids []int
}

// NewSelection returns a selection holding ids, without duplicates.
func NewSelection(ids ...int) *Selection {
	s := &Selection{}
	for _, id := range ids {
		if !s.Contains(id) {
			s.ids = append(s.ids, id)
		}
	}
	return s
}

// Toggle adds id if it is missing and removes it otherwise.
func (s *Selection) Toggle(id int) {
	if i := slices.Index(s.ids, id); i >= 0 {
		s.ids = slices.Delete(s.ids, i, i+1)
		return
	}
	s.ids = append(s.ids, id)
}

// Remove drops id from the selection.
func (s *Selection) Remove(id int) {
	s.ids = slices.DeleteFunc(s.ids, func(v int) bool { return v == id })
}

// SelectAll replaces the selection with ids when checked and clears it otherwise.
func (s *Selection) SelectAll(checked bool, ids []int) {
	if !checked {
		s.Clear()
		return
	}
	*s = *NewSelection(ids...)
}

// Clear empties the selection.
func (s *Selection) Clear() {
	s.ids = nil
}

// Contains reports whether id is selected.
func (s *Selection) Contains(id int) bool {
	return slices.Contains(s.ids, id)
}

// IDs returns the selected ids in selection order.
func (s *Selection) IDs() []int {
	if s == nil || len(s.ids) == 0 {
		return []int{}
	}
	return slices.Clone(s.ids)
}

// Len returns the number of selected ids.
func (s *Selection) Len() int {
	return len(s.ids)
}
