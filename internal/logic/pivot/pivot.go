// Package pivot cross-tabulates flat rows into a dense matrix keyed by two
// categorical dimensions.
package pivot

import (
	"slices"
	"strings"
)

// Cell is the content of one matrix position.
type Cell[P any] struct {
	Present bool
	Payload P
}

// Spec tells Build how to read a row.
type Spec[R, P any] struct {
	RowKey  func(R) string
	ColKey  func(R) string
	Payload func(R) P
	// ColumnPriority lists column keys that come first, in this order.
	// Remaining keys follow in ascending order. Nil means pure ascending.
	ColumnPriority []string
}

type pair struct{ row, col string }

// Matrix is a row-major cross-tab. Every (row key, column key) combination
// is addressable.
type Matrix[P any] struct {
	RowKeys []string
	ColKeys []string
	cells   map[pair]P
}

// Build groups rows into a Matrix. Rows with a blank row or column key are
// ignored. When several rows share a position the last one wins. Inputs are
// not modified.
func Build[R, P any](rows []R, spec Spec[R, P]) Matrix[P] {
	rowSeen := make(map[string]struct{})
	colSeen := make(map[string]struct{})
	cells := make(map[pair]P)

	for _, r := range rows {
		rk := strings.TrimSpace(spec.RowKey(r))
		ck := strings.TrimSpace(spec.ColKey(r))
		if rk == "" || ck == "" {
			continue
		}
		rowSeen[rk] = struct{}{}
		colSeen[ck] = struct{}{}
		cells[pair{rk, ck}] = spec.Payload(r)
	}

	return Matrix[P]{
		RowKeys: sortedKeys(rowSeen),
		ColKeys: orderColumns(colSeen, spec.ColumnPriority),
		cells:   cells,
	}
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

func orderColumns(seen map[string]struct{}, priority []string) []string {
	if len(priority) == 0 {
		return sortedKeys(seen)
	}
	out := make([]string, 0, len(seen))
	placed := make(map[string]struct{}, len(priority))
	for _, k := range priority {
		if _, ok := seen[k]; !ok {
			continue
		}
		if _, dup := placed[k]; dup {
			continue
		}
		placed[k] = struct{}{}
		out = append(out, k)
	}
	rest := make([]string, 0, len(seen)-len(out))
	for k := range seen {
		if _, ok := placed[k]; !ok {
			rest = append(rest, k)
		}
	}
	slices.Sort(rest)
	return append(out, rest...)
}

// Cell looks up one position. Unknown keys and combinations without a row
// are reported as not present.
func (m Matrix[P]) Cell(rowKey, colKey string) Cell[P] {
	p, ok := m.cells[pair{rowKey, colKey}]
	return Cell[P]{Present: ok, Payload: p}
}

// Empty reports whether no row contributed to the matrix. This is "no data",
// as opposed to a matrix whose cells are all absent.
func (m Matrix[P]) Empty() bool {
	return len(m.RowKeys) == 0 && len(m.ColKeys) == 0
}

// Grid returns the dense matrix, one slice per row key, in column-key order.
func (m Matrix[P]) Grid() [][]Cell[P] {
	grid := make([][]Cell[P], len(m.RowKeys))
	for i, rk := range m.RowKeys {
		line := make([]Cell[P], len(m.ColKeys))
		for j, ck := range m.ColKeys {
			line[j] = m.Cell(rk, ck)
		}
		grid[i] = line
	}
	return grid
}
