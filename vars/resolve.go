package vars

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/phil-mansfield/goamr"
	"github.com/phil-mansfield/goamr/table"
	"github.com/phil-mansfield/goamr/units"
)

// cacheSize is the number of resolved (name, unit) arrays a Resolver
// keeps around. Projections resolve the same handful of quantities
// repeatedly, so even a small cache removes most recomputation.
const cacheSize = 32

// UnknownVariableError reports a quantity that is either not registered
// at all or cannot be computed from the columns of this table kind.
type UnknownVariableError struct {
	Name string
	Kind table.Kind
}

func (e *UnknownVariableError) Error() string {
	return fmt.Sprintf("variable '%s' is not defined for %s tables",
		e.Name, e.Kind)
}

func (e *UnknownVariableError) Class() goamr.Class { return goamr.Query }

// MaskLengthError reports a row mask whose length doesn't match the
// table it is applied to.
type MaskLengthError struct {
	Mask, Rows int
}

func (e *MaskLengthError) Error() string {
	return fmt.Sprintf("mask has %d entries, but the table has %d rows",
		e.Mask, e.Rows)
}

func (e *MaskLengthError) Class() goamr.Class { return goamr.Query }

// Resolver computes named physical quantities from one table. It never
// modifies the table, so a single Resolver (and several of them) can be
// used concurrently against the same table.
type Resolver struct {
	t     *table.Table
	s     *units.Scales
	cache *lru.Cache[string, []float64]
}

// New returns a resolver bound to a table and its unit scales.
func New(t *table.Table, s *units.Scales) *Resolver {
	cache, _ := lru.New[string, []float64](cacheSize)
	return &Resolver{t: t, s: s, cache: cache}
}

// Resolve returns the named quantity converted into the requested unit.
// An empty unit (or "standard") means code units. The returned slice is
// freshly allocated and owned by the caller.
func (r *Resolver) Resolve(name, unit string) ([]float64, error) {
	key := name + "\x00" + unit
	if vals, ok := r.cache.Get(key); ok {
		out := make([]float64, len(vals))
		copy(out, vals)
		return out, nil
	}

	vals, err := r.resolve(name, unit, nil)
	if err != nil {
		return nil, err
	}

	kept := make([]float64, len(vals))
	copy(kept, vals)
	r.cache.Add(key, kept)
	return vals, nil
}

// ResolveMasked is Resolve restricted to the rows where mask is true.
// The returned slice has one entry per true mask element; masked-out
// rows are excluded, never zero-filled.
func (r *Resolver) ResolveMasked(
	name, unit string, mask []bool,
) ([]float64, error) {
	if mask == nil {
		return r.Resolve(name, unit)
	}
	if len(mask) != r.t.N {
		return nil, &MaskLengthError{len(mask), r.t.N}
	}
	rows := []int{}
	for i, keep := range mask {
		if keep {
			rows = append(rows, i)
		}
	}
	return r.resolve(name, unit, rows)
}

// ResolveMany resolves several quantities at once. units may either be
// one unit per name or a single unit shared by all of them.
func (r *Resolver) ResolveMany(
	names, unitNames []string,
) (map[string][]float64, error) {
	out := map[string][]float64{}
	for i, name := range names {
		unit := ""
		if len(unitNames) == 1 {
			unit = unitNames[0]
		} else if i < len(unitNames) {
			unit = unitNames[i]
		}
		vals, err := r.Resolve(name, unit)
		if err != nil {
			return nil, err
		}
		out[name] = vals
	}
	return out, nil
}

// resolve computes values over the given rows (nil means all rows) in
// code units, then applies the unit factor.
func (r *Resolver) resolve(
	name, unit string, rows []int,
) ([]float64, error) {
	d, registered := registry[name]

	// Stored columns win: mass and positions are stored for point
	// kinds and derived for cell kinds.
	if col := r.t.Col(name); col != nil {
		cat := units.Dimensionless
		if registered {
			cat = d.cat
		}
		factor, err := r.s.Check(unit, cat)
		if err != nil {
			return nil, err
		}
		out := make([]float64, r.nRows(rows))
		for i := range out {
			out[i] = col[r.row(rows, i)] * factor
		}
		return out, nil
	}

	if !registered || d.compute == nil {
		return nil, &UnknownVariableError{name, r.t.Kind}
	}
	if d.cells && !r.t.Kind.IsCellKind() {
		return nil, &UnknownVariableError{name, r.t.Kind}
	}
	for _, need := range d.needs {
		if !r.t.HasCol(need) {
			return nil, &UnknownVariableError{name, r.t.Kind}
		}
	}

	factor, err := r.s.Check(unit, d.cat)
	if err != nil {
		return nil, err
	}

	out := d.compute(r, rows)
	if factor != 1 {
		for i := range out {
			out[i] *= factor
		}
	}
	return out, nil
}

func (r *Resolver) nRows(rows []int) int {
	if rows == nil {
		return r.t.N
	}
	return len(rows)
}

func (r *Resolver) row(rows []int, i int) int {
	if rows == nil {
		return i
	}
	return rows[i]
}

// Table returns the table this resolver reads from.
func (r *Resolver) Table() *table.Table { return r.t }

// Scales returns the unit scales this resolver converts with.
func (r *Resolver) Scales() *units.Scales { return r.s }
