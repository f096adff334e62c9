package table

import (
	"github.com/phil-mansfield/goamr/geom"
)

// Filter returns a new table containing the rows whose positions the
// selector accepts. Boundaries are inclusive: a row lying exactly on a
// selector surface is kept. The source table is not modified and shares
// no mutable state with the result, and an empty selection yields a
// zero-row table rather than an error.
func (t *Table) Filter(sel geom.Selector) *Table {
	rows := []int{}
	bounds := sel.Bounds()
	for i := 0; i < t.N; i++ {
		pos := t.Pos(i)
		if !bounds.Contains(&pos) {
			continue
		}
		if sel.Contains(&pos) {
			rows = append(rows, i)
		}
	}
	return t.Select(rows)
}

// Select returns a new table holding the given rows, in order. Every
// column is deep-copied so the result can outlive the source.
func (t *Table) Select(rows []int) *Table {
	out := New(t.Kind, t.Info, t.names)
	out.N = len(rows)

	if t.Level != nil {
		out.Level = selectInt32(t.Level, rows)
		out.Ix = selectInt32(t.Ix, rows)
		out.Iy = selectInt32(t.Iy, rows)
		if t.Iz != nil {
			out.Iz = selectInt32(t.Iz, rows)
		}
	}
	if t.ID != nil {
		out.ID = make([]int64, len(rows))
		for i, r := range rows {
			out.ID[i] = t.ID[r]
		}
	}
	for _, name := range t.names {
		col := t.cols[name]
		sel := make([]float64, len(rows))
		for i, r := range rows {
			sel[i] = col[r]
		}
		out.cols[name] = sel
	}
	return out
}

func selectInt32(col []int32, rows []int) []int32 {
	out := make([]int32, len(rows))
	for i, r := range rows {
		out[i] = col[r]
	}
	return out
}
