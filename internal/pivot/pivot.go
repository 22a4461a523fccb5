// Package pivot builds count cross-tabulations with "All" margins.
package pivot

import "sort"

// AllLabel names the margin row and column.
const AllLabel = "All"

// Table is a count cross-tab of row keys by column keys. Cells, row totals and column
// totals are indexed in the order of Rows and Cols.
type Table[R, C comparable] struct {
	Rows      []R
	Cols      []C
	Cells     [][]int
	RowTotals []int
	ColTotals []int
	Total     int
}

// Pair is one observation of a row and a column key.
type Pair[R, C comparable] struct {
	Row R
	Col C
}

// CrossTab counts pairs over fixed row and column axes. Pairs whose keys are not on an
// axis are ignored.
func CrossTab[R, C comparable](rows []R, cols []C, pairs []Pair[R, C]) *Table[R, C] {
	t := &Table[R, C]{
		Rows:      append([]R(nil), rows...),
		Cols:      append([]C(nil), cols...),
		Cells:     make([][]int, len(rows)),
		RowTotals: make([]int, len(rows)),
		ColTotals: make([]int, len(cols)),
	}
	for i := range t.Cells {
		t.Cells[i] = make([]int, len(cols))
	}

	ri := indexOf(rows)
	ci := indexOf(cols)
	for _, p := range pairs {
		r, ok := ri[p.Row]
		if !ok {
			continue
		}
		c, ok := ci[p.Col]
		if !ok {
			continue
		}
		t.Cells[r][c]++
		t.RowTotals[r]++
		t.ColTotals[c]++
		t.Total++
	}
	return t
}

// Cell returns the count at (row, col), or 0 if either key is off-axis.
func (t *Table[R, C]) Cell(row R, col C) int {
	for i, r := range t.Rows {
		if r != row {
			continue
		}
		for j, c := range t.Cols {
			if c == col {
				return t.Cells[i][j]
			}
		}
	}
	return 0
}

// RowTotal returns the margin for a row key.
func (t *Table[R, C]) RowTotal(row R) int {
	for i, r := range t.Rows {
		if r == row {
			return t.RowTotals[i]
		}
	}
	return 0
}

// ColTotal returns the margin for a column key.
func (t *Table[R, C]) ColTotal(col C) int {
	for j, c := range t.Cols {
		if c == col {
			return t.ColTotals[j]
		}
	}
	return 0
}

// Diagonal sums cells whose row and column keys are equal. It is meaningful for square
// tables over the same axis.
func (t *Table[R, C]) Diagonal() int {
	var n int
	for i, r := range t.Rows {
		for j, c := range t.Cols {
			if any(r) == any(c) {
				n += t.Cells[i][j]
			}
		}
	}
	return n
}

// Bucket is one entry of a one-dimensional count.
type Bucket[K comparable] struct {
	Key   K
	Count int
}

// Count tallies keys over a fixed axis, keeping zero buckets.
func Count[K comparable](axis []K, keys []K) []Bucket[K] {
	out := make([]Bucket[K], len(axis))
	idx := indexOf(axis)
	for i, k := range axis {
		out[i].Key = k
	}
	for _, k := range keys {
		if i, ok := idx[k]; ok {
			out[i].Count++
		}
	}
	return out
}

// CountSorted tallies arbitrary keys and returns buckets ordered by count descending,
// ties broken by less.
func CountSorted[K comparable](keys []K, less func(a, b K) bool) []Bucket[K] {
	counts := make(map[K]int)
	for _, k := range keys {
		counts[k]++
	}
	out := make([]Bucket[K], 0, len(counts))
	for k, n := range counts {
		out = append(out, Bucket[K]{Key: k, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return less(out[i].Key, out[j].Key)
	})
	return out
}

func indexOf[K comparable](axis []K) map[K]int {
	m := make(map[K]int, len(axis))
	for i, k := range axis {
		if _, dup := m[k]; !dup {
			m[k] = i
		}
	}
	return m
}
