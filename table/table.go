/*package table holds the merged leaf-level data of an output as a
column table. Tables are immutable once built: the spatial filter and
every downstream consumer only ever read them, so concurrent use needs
no locking.
*/
package table

import (
	"github.com/phil-mansfield/goamr/geom"
	"github.com/phil-mansfield/goamr/sim"
)

// Kind is the entity kind a table holds rows of.
type Kind int

const (
	Hydro Kind = iota
	Gravity
	Particle
	Clump
	Sink
)

func (k Kind) String() string {
	switch k {
	case Hydro:
		return "hydro"
	case Gravity:
		return "gravity"
	case Particle:
		return "particle"
	case Clump:
		return "clump"
	case Sink:
		return "sink"
	}
	return "unknown"
}

// Table is an ordered set of columns over the rows of one data kind.
// Cell kinds (Hydro, Gravity) carry a refinement level and integer
// spatial indices per dimension; point kinds carry continuous positions
// in their x/y/z columns and, for particles and sinks, unique IDs. Row
// order is whatever the merge produced and carries no meaning.
type Table struct {
	Kind Kind
	Info *sim.Info
	N    int

	// Cell kinds only. Iz is nil for 2D outputs.
	Level, Ix, Iy, Iz []int32

	// Point kinds only.
	ID []int64

	names []string
	cols  map[string][]float64
}

// New returns an empty table with the given ordered column names. Cell
// index slices start nil and are attached by the reader or merger.
func New(kind Kind, info *sim.Info, names []string) *Table {
	t := &Table{
		Kind:  kind,
		Info:  info,
		names: append([]string{}, names...),
		cols:  map[string][]float64{},
	}
	for _, name := range names {
		t.cols[name] = nil
	}
	return t
}

// IsCellKind returns true for kinds whose rows are AMR cells.
func (k Kind) IsCellKind() bool { return k == Hydro || k == Gravity }

// Names returns the column names in their defined order.
func (t *Table) Names() []string { return append([]string{}, t.names...) }

// Col returns the named column, or nil if the table doesn't have it.
// Callers must not modify the returned slice.
func (t *Table) Col(name string) []float64 { return t.cols[name] }

// HasCol returns whether the table carries the named column.
func (t *Table) HasCol(name string) bool {
	_, ok := t.cols[name]
	return ok
}

// SetCol attaches a column while a table is being built. Once a table
// has been handed out it must not be called again.
func (t *Table) SetCol(name string, vals []float64) {
	if !t.HasCol(name) {
		t.names = append(t.names, name)
	}
	t.cols[name] = vals
	if len(vals) > t.N {
		t.N = len(vals)
	}
}

// CellSize returns the side length of the row-th cell in code units.
func (t *Table) CellSize(row int) float64 {
	return t.Info.Boxlen / float64(int64(1)<<uint(t.Level[row]))
}

// Pos returns the position of a row in code units. For cell kinds it is
// the cell center; for point kinds it comes from the x/y/z columns. For
// 2D outputs the third component is zero.
func (t *Table) Pos(row int) geom.Vec {
	if t.Kind.IsCellKind() {
		cs := t.CellSize(row)
		v := geom.Vec{
			(float64(t.Ix[row]) + 0.5) * cs,
			(float64(t.Iy[row]) + 0.5) * cs,
		}
		if t.Iz != nil {
			v[2] = (float64(t.Iz[row]) + 0.5) * cs
		}
		return v
	}
	v := geom.Vec{t.cols["x"][row], t.cols["y"][row]}
	if z, ok := t.cols["z"]; ok && z != nil {
		v[2] = z[row]
	}
	return v
}
