/*package project aggregates resolved quantities onto uniform 2D pixel
grids. Cells of different refinement levels are rasterized by exact
fractional overlap between the cell footprint and each pixel, so the Sum
mode conserves extensive totals to floating point precision no matter
what resolution is chosen.
*/
package project

import (
	"fmt"
	"math"
	"runtime"
	"sync"

	"github.com/phil-mansfield/goamr"
	"github.com/phil-mansfield/goamr/geom"
	"github.com/phil-mansfield/goamr/sim"
	"github.com/phil-mansfield/goamr/table"
	"github.com/phil-mansfield/goamr/units"
	"github.com/phil-mansfield/goamr/vars"
)

// Axis names the projection direction: the axis that is integrated
// away.
type Axis int

const (
	X Axis = iota
	Y
	Z
)

func (a Axis) String() string {
	switch a {
	case X:
		return "x"
	case Y:
		return "y"
	case Z:
		return "z"
	}
	return "unknown"
}

// ParseAxis converts an axis token into an Axis.
func ParseAxis(s string) (Axis, error) {
	switch s {
	case "x", "X":
		return X, nil
	case "y", "Y":
		return Y, nil
	case "z", "Z":
		return Z, nil
	}
	return 0, &DirectionError{s}
}

// Mode selects the aggregation semantics of the output maps.
type Mode int

const (
	// Sum accumulates area-weighted contributions so that the map total
	// equals the table total of the projected quantity.
	Sum Mode = iota
	// Mean accumulates value*weight and weight separately and divides
	// at the end, yielding an area-weighted average per pixel.
	Mean
)

// Options is the full set of knobs a projection accepts. The zero value
// projects the whole box along Z in Sum mode; only Resolution must be
// set explicitly.
type Options struct {
	Direction  Axis
	Resolution int
	Mode       Mode

	// Window restricts the projection to a sub-box. Cells whose
	// centers fall outside it are excluded before binning. Nil means
	// the whole simulation box.
	Window *geom.Box

	// Workers is the number of goroutines binning rows. Zero or
	// negative means one per logical core.
	Workers int

	// Progress receives one event per row chunk. Nil discards them.
	Progress sim.Progress
}

// ResolutionError reports a non-positive pixel resolution.
type ResolutionError struct {
	Resolution int
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("invalid projection resolution %d", e.Resolution)
}

func (e *ResolutionError) Class() goamr.Class { return goamr.Query }

// DirectionError reports an unrecognized projection axis token.
type DirectionError struct {
	Token string
}

func (e *DirectionError) Error() string {
	return fmt.Sprintf("invalid projection direction '%s'", e.Token)
}

func (e *DirectionError) Class() goamr.Class { return goamr.Query }

// Result holds the pixel maps of one projection call. Maps are flat
// row-major grids indexed [v*Resolution + u], where (u, v) are the two
// surviving axes in ascending axis order. Results are never modified
// after Project returns them.
type Result struct {
	Maps  map[string][]float64
	Units map[string]string

	// Weights is the overlap-area grid used in Mean mode, nil in Sum
	// mode.
	Weights []float64

	Resolution int
	Direction  Axis
	Mode       Mode

	// Extent is the covered window in code units: uMin, uMax, vMin,
	// vMax.
	Extent [4]float64

	// Pixel is the pixel side length along u and v in code units.
	Pixel [2]float64
}

// Map returns the named pixel map.
func (r *Result) Map(name string) []float64 { return r.Maps[name] }

// At returns the value of the named map at pixel (u, v).
func (r *Result) At(name string, u, v int) float64 {
	return r.Maps[name][v*r.Resolution+u]
}

// chunk is the number of rows a worker bins between progress events.
const chunk = 1 << 14

// Project aggregates the named quantities onto a pixel grid. One weight
// computation is shared by every requested variable. An empty table is
// not an error: the result holds zero-filled maps of the requested
// shape.
func Project(
	t *table.Table, scales *units.Scales,
	names, unitNames []string, opt Options,
) (*Result, error) {
	if opt.Resolution <= 0 {
		return nil, &ResolutionError{opt.Resolution}
	}
	if opt.Direction < X || opt.Direction > Z {
		return nil, &DirectionError{fmt.Sprintf("%d", int(opt.Direction))}
	}

	res := opt.Resolution
	uAxis, vAxis := surviving(opt.Direction)

	window := opt.Window
	if window == nil {
		b := geom.NewBox(
			0, t.Info.Boxlen, 0, t.Info.Boxlen, 0, t.Info.Boxlen,
		)
		window = &b
	}

	out := &Result{
		Maps:       map[string][]float64{},
		Units:      map[string]string{},
		Resolution: res,
		Direction:  opt.Direction,
		Mode:       opt.Mode,
		Extent: [4]float64{
			window.Min[uAxis], window.Max[uAxis],
			window.Min[vAxis], window.Max[vAxis],
		},
	}
	out.Pixel = [2]float64{
		(out.Extent[1] - out.Extent[0]) / float64(res),
		(out.Extent[3] - out.Extent[2]) / float64(res),
	}

	r := vars.New(t, scales)
	vals := make([][]float64, len(names))
	for i, name := range names {
		unit := ""
		if len(unitNames) == 1 {
			unit = unitNames[0]
		} else if i < len(unitNames) {
			unit = unitNames[i]
		}
		v, err := r.Resolve(name, unit)
		if err != nil {
			return nil, err
		}
		vals[i] = v
		out.Units[name] = unit
	}

	grids, weights := bin(t, vals, window, uAxis, vAxis, opt)

	for i, name := range names {
		out.Maps[name] = grids[i]
	}
	if opt.Mode == Mean {
		for _, grid := range grids {
			for p := range grid {
				if weights[p] > 0 {
					grid[p] /= weights[p]
				}
			}
		}
		out.Weights = weights
	}

	return out, nil
}

// surviving returns the two axes kept by a projection direction, in
// ascending order.
func surviving(dir Axis) (u, v int) {
	switch dir {
	case X:
		return 1, 2
	case Y:
		return 0, 2
	}
	return 0, 1
}

// bin partitions the row range over workers, each accumulating into
// private grids, then reduces the private grids single-threaded. The
// reduction order is fixed, so results depend on the worker count only
// through floating point rounding.
func bin(
	t *table.Table, vals [][]float64,
	window *geom.Box, uAxis, vAxis int, opt Options,
) (grids [][]float64, weights []float64) {
	res := opt.Resolution
	nPix := res * res

	workers := opt.Workers
	if workers < 1 {
		workers = runtime.NumCPU()
	}
	nChunks := (t.N + chunk - 1) / chunk
	if workers > nChunks {
		workers = nChunks
	}
	if workers < 1 {
		workers = 1
	}
	progress := opt.Progress
	if progress == nil {
		progress = sim.NullProgress()
	}

	type partial struct {
		grids   [][]float64
		weights []float64
	}
	parts := make([]partial, workers)
	for w := range parts {
		parts[w].grids = make([][]float64, len(vals))
		for i := range vals {
			parts[w].grids[i] = make([]float64, nPix)
		}
		parts[w].weights = make([]float64, nPix)
	}

	jobs := make(chan [2]int, nChunks)
	for lo := 0; lo < t.N; lo += chunk {
		hi := lo + chunk
		if hi > t.N {
			hi = t.N
		}
		jobs <- [2]int{lo, hi}
	}
	close(jobs)

	var done sync.WaitGroup
	var counted sync.Mutex
	finished := 0

	done.Add(workers)
	for w := 0; w < workers; w++ {
		go func(p *partial) {
			defer done.Done()
			for job := range jobs {
				binRange(t, vals, window, uAxis, vAxis, opt,
					job[0], job[1], p.grids, p.weights)

				counted.Lock()
				finished++
				progress.Step("project", finished, nChunks)
				counted.Unlock()
			}
		}(&parts[w])
	}
	done.Wait()

	grids = make([][]float64, len(vals))
	for i := range vals {
		grids[i] = make([]float64, nPix)
	}
	weights = make([]float64, nPix)
	for w := range parts {
		for i := range grids {
			for p, x := range parts[w].grids[i] {
				grids[i][p] += x
			}
		}
		for p, x := range parts[w].weights {
			weights[p] += x
		}
	}
	return grids, weights
}

// binRange rasterizes rows [lo, hi) into the given private grids.
func binRange(
	t *table.Table, vals [][]float64,
	window *geom.Box, uAxis, vAxis int, opt Options,
	lo, hi int, grids [][]float64, weights []float64,
) {
	res := opt.Resolution
	u0, u1 := window.Min[uAxis], window.Max[uAxis]
	v0, v1 := window.Min[vAxis], window.Max[vAxis]
	pu := (u1 - u0) / float64(res)
	pv := (v1 - v0) / float64(res)

	isCell := t.Kind.IsCellKind()

	for row := lo; row < hi; row++ {
		pos := t.Pos(row)
		if !window.Contains(&pos) {
			continue
		}

		if !isCell {
			// Point kinds contribute to exactly one pixel.
			iu := clampPix(int(math.Floor((pos[uAxis]-u0)/pu)), res)
			iv := clampPix(int(math.Floor((pos[vAxis]-v0)/pv)), res)
			// In Mean mode this is value*weight with weight 1.
			p := iv*res + iu
			for i := range vals {
				grids[i][p] += vals[i][row]
			}
			weights[p] += 1
			continue
		}

		cs := t.CellSize(row)
		half := cs / 2
		cellArea := cs * cs

		uLo, uHi := pos[uAxis]-half, pos[uAxis]+half
		vLo, vHi := pos[vAxis]-half, pos[vAxis]+half

		iu0 := clampPix(int(math.Floor((uLo-u0)/pu)), res)
		iu1 := clampPix(int(math.Ceil((uHi-u0)/pu))-1, res)
		iv0 := clampPix(int(math.Floor((vLo-v0)/pv)), res)
		iv1 := clampPix(int(math.Ceil((vHi-v0)/pv))-1, res)

		for iv := iv0; iv <= iv1; iv++ {
			pvLo := v0 + float64(iv)*pv
			dv := math.Min(vHi, pvLo+pv) - math.Max(vLo, pvLo)
			if dv <= 0 {
				continue
			}
			for iu := iu0; iu <= iu1; iu++ {
				puLo := u0 + float64(iu)*pu
				du := math.Min(uHi, puLo+pu) - math.Max(uLo, puLo)
				if du <= 0 {
					continue
				}

				overlap := du * dv
				p := iv*res + iu
				if opt.Mode == Sum {
					frac := overlap / cellArea
					for i := range vals {
						grids[i][p] += vals[i][row] * frac
					}
				} else {
					for i := range vals {
						grids[i][p] += vals[i][row] * overlap
					}
				}
				weights[p] += overlap
			}
		}
	}
}

func clampPix(i, res int) int {
	if i < 0 {
		return 0
	}
	if i >= res {
		return res - 1
	}
	return i
}
