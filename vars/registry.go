/*package vars resolves named physical quantities against a loaded
table. A quantity is either stored, meaning it is a column read straight
off disk, or derived, meaning it is computed on demand from stored
columns and the unit system. The mapping from name to definition is a
static registry, so an unknown name fails loudly at resolve time rather
than falling through to reflection tricks.
*/
package vars

import (
	"math"

	"github.com/phil-mansfield/goamr/units"
)

// def describes one resolvable quantity. A nil compute function means
// the quantity is the stored column of the same name. cells marks
// quantities that only make sense for AMR cell tables.
type def struct {
	cat     units.Category
	needs   []string
	cells   bool
	compute func(r *Resolver, rows []int) []float64
}

// registry is populated in init rather than a composite literal because
// the mass and ekin definitions call back into other registry entries.
var registry map[string]def

func init() {
	registry = map[string]def{
		// Stored hydro variables.
		"rho": {cat: units.Density},
		"vx":  {cat: units.Velocity},
		"vy":  {cat: units.Velocity},
		"vz":  {cat: units.Velocity},
		"p":   {cat: units.Pressure},

		// Stored gravity variables.
		"epot": {cat: units.Energy},
		"ax":   {cat: units.Acceleration},
		"ay":   {cat: units.Acceleration},
		"az":   {cat: units.Acceleration},

		// Stored particle variables (x/y/z fall through to the position
		// definitions below when the table has no such column).
		"birth": {cat: units.Time},

		// Positions: stored for point kinds, computed from the cell index
		// and level for cell kinds.
		"x": {cat: units.Length, cells: true, compute: positionVar(0)},
		"y": {cat: units.Length, cells: true, compute: positionVar(1)},
		"z": {cat: units.Length, cells: true, compute: positionVar(2)},

		"level": {cat: units.Dimensionless, cells: true,
			compute: func(r *Resolver, rows []int) []float64 {
				out := make([]float64, r.nRows(rows))
				for i := range out {
					out[i] = float64(r.t.Level[r.row(rows, i)])
				}
				return out
			}},

		"cellsize": {cat: units.Length, cells: true,
			compute: func(r *Resolver, rows []int) []float64 {
				out := make([]float64, r.nRows(rows))
				for i := range out {
					out[i] = r.t.CellSize(r.row(rows, i))
				}
				return out
			}},

		"volume": {cat: units.Volume, cells: true, compute: volumeVar},

		// mass is stored for particles and rho*volume for hydro cells.
		"mass": {cat: units.Mass, needs: []string{"rho"}, cells: true,
			compute: func(r *Resolver, rows []int) []float64 {
				out := volumeVar(r, rows)
				rho := r.t.Col("rho")
				for i := range out {
					out[i] *= rho[r.row(rows, i)]
				}
				return out
			}},

		"v": {cat: units.Velocity, needs: []string{"vx", "vy"},
			compute: speedVar},

		"cs": {cat: units.Velocity, needs: []string{"rho", "p"},
			compute: func(r *Resolver, rows []int) []float64 {
				rho, p := r.t.Col("rho"), r.t.Col("p")
				gamma := r.t.Info.Gamma
				out := make([]float64, r.nRows(rows))
				for i := range out {
					row := r.row(rows, i)
					out[i] = math.Sqrt(gamma * p[row] / rho[row])
				}
				return out
			}},

		// temp in code units is mu*p/rho; the Kelvin scale factor carries
		// the m_H/k_B part.
		"temp": {cat: units.Temperature, needs: []string{"rho", "p"},
			compute: func(r *Resolver, rows []int) []float64 {
				rho, p := r.t.Col("rho"), r.t.Col("p")
				mu := r.t.Info.Mu
				out := make([]float64, r.nRows(rows))
				for i := range out {
					row := r.row(rows, i)
					out[i] = mu * p[row] / rho[row]
				}
				return out
			}},

		"ekin": {cat: units.Energy, needs: []string{"vx", "vy"},
			compute: func(r *Resolver, rows []int) []float64 {
				ms := r.massCode(rows)
				vs := speedVar(r, rows)
				for i := range vs {
					vs[i] = 0.5 * ms[i] * vs[i] * vs[i]
				}
				return vs
			}},

		"age": {cat: units.Time, needs: []string{"birth"},
			compute: func(r *Resolver, rows []int) []float64 {
				birth := r.t.Col("birth")
				now := r.t.Info.Time
				out := make([]float64, r.nRows(rows))
				for i := range out {
					out[i] = now - birth[r.row(rows, i)]
				}
				return out
			}},
	}
}

func positionVar(axis int) func(r *Resolver, rows []int) []float64 {
	return func(r *Resolver, rows []int) []float64 {
		out := make([]float64, r.nRows(rows))
		for i := range out {
			pos := r.t.Pos(r.row(rows, i))
			out[i] = pos[axis]
		}
		return out
	}
}

func volumeVar(r *Resolver, rows []int) []float64 {
	out := make([]float64, r.nRows(rows))
	for i := range out {
		cs := r.t.CellSize(r.row(rows, i))
		if r.t.Info.NDim == 2 {
			out[i] = cs * cs
		} else {
			out[i] = cs * cs * cs
		}
	}
	return out
}

func speedVar(r *Resolver, rows []int) []float64 {
	vx, vy := r.t.Col("vx"), r.t.Col("vy")
	vz := r.t.Col("vz")
	out := make([]float64, r.nRows(rows))
	for i := range out {
		row := r.row(rows, i)
		v2 := vx[row]*vx[row] + vy[row]*vy[row]
		if vz != nil {
			v2 += vz[row] * vz[row]
		}
		out[i] = math.Sqrt(v2)
	}
	return out
}

// massCode returns the per-row mass in code units regardless of table
// kind.
func (r *Resolver) massCode(rows []int) []float64 {
	if col := r.t.Col("mass"); col != nil {
		out := make([]float64, r.nRows(rows))
		for i := range out {
			out[i] = col[r.row(rows, i)]
		}
		return out
	}
	return registry["mass"].compute(r, rows)
}
