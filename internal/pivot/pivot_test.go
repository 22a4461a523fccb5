package pivot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCrossTab(t *testing.T) {
	axis := []string{"a", "b", "c"}
	pairs := []Pair[string, string]{
		{"a", "a"}, {"a", "b"}, {"b", "b"}, {"b", "b"}, {"c", "a"},
		{"x", "a"}, // off-axis
	}

	tab := CrossTab(axis, axis, pairs)

	require.Len(t, tab.Cells, 3)
	assert.Equal(t, 1, tab.Cell("a", "a"))
	assert.Equal(t, 2, tab.Cell("b", "b"))
	assert.Equal(t, 0, tab.Cell("c", "c"))
	assert.Equal(t, 0, tab.Cell("x", "a"))

	assert.Equal(t, 2, tab.RowTotal("a"))
	assert.Equal(t, 2, tab.ColTotal("a"))
	assert.Equal(t, 3, tab.ColTotal("b"))
	assert.Equal(t, 5, tab.Total)
	assert.Equal(t, 3, tab.Diagonal())

	var rowSum, colSum int
	for i := range tab.Rows {
		rowSum += tab.RowTotals[i]
	}
	for j := range tab.Cols {
		colSum += tab.ColTotals[j]
	}
	assert.Equal(t, tab.Total, rowSum)
	assert.Equal(t, tab.Total, colSum)
}

func TestCrossTab_Empty(t *testing.T) {
	tab := CrossTab([]int{1, 2}, []int{1, 2}, nil)
	assert.Equal(t, 0, tab.Total)
	assert.Equal(t, [][]int{{0, 0}, {0, 0}}, tab.Cells)
}

func TestCount(t *testing.T) {
	got := Count([]string{"low", "mid", "high"}, []string{"mid", "high", "mid", "other"})
	assert.Equal(t, []Bucket[string]{{"low", 0}, {"mid", 2}, {"high", 1}}, got)
}

func TestCountSorted(t *testing.T) {
	got := CountSorted([]string{"b", "a", "c", "a", "b"}, func(x, y string) bool { return x < y })
	assert.Equal(t, []Bucket[string]{{"a", 2}, {"b", 2}, {"c", 1}}, got)
}
