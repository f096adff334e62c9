package snapio

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"os"

	"github.com/phil-mansfield/goamr/geom"
	"github.com/phil-mansfield/goamr/sim"
)

// ReadParticles decodes one process's particle file. Positions and IDs
// are always decoded regardless of opt.Vars: positions are mandatory
// table columns and are needed for region pre-filtering, and IDs ride
// along with them. Level restrictions don't apply to particles and are
// ignored.
func ReadParticles(
	lay sim.Layout, info *sim.Info, proc int, opt Options,
) (*Domain, error) {
	path := lay.DataPath(sim.Particle, proc)
	cf, err := openDomain(path)
	if err != nil {
		return nil, err
	}
	defer cf.close()

	hd := &PartHeader{}
	if err := cf.checkHeaderSize(hd); err != nil {
		return nil, err
	}
	if err := cf.read(hd); err != nil {
		return nil, err
	}
	if hd.Count < 0 {
		return nil, &CorruptFileError{path, fmt.Sprintf(
			"negative particle count %d", hd.Count,
		)}
	}

	all := PartVarNames(int(hd.NVar))
	n := int(hd.Count)

	want := func(name string) bool {
		switch name {
		case "x", "y", "z":
			return true
		}
		return opt.wantVar(name)
	}

	d := &Domain{Process: proc, Cols: map[string][]float64{}}
	for _, name := range all {
		if want(name) {
			d.Names = append(d.Names, name)
		}
	}

	raw := map[string][]float64{}
	for _, name := range all {
		if !want(name) {
			if err := cf.skip(int64(n) * 8); err != nil {
				return nil, err
			}
			continue
		}
		col := make([]float64, n)
		if err := cf.read(col); err != nil {
			return nil, err
		}
		raw[name] = col
	}

	ids := make([]int64, n)
	if err := cf.read(ids); err != nil {
		return nil, err
	}

	if cf.pos != cf.size {
		return nil, &TruncatedFileError{path, fmt.Errorf(
			"%d trailing bytes after last declared block", cf.size-cf.pos,
		)}
	}

	keep := partKeepMask(raw, n, opt.Region)
	for _, name := range d.Names {
		col := raw[name]
		sel := []float64{}
		for i, v := range col {
			if keep == nil || keep[i] {
				sel = append(sel, v)
			}
		}
		d.Cols[name] = sel
	}
	for i, id := range ids {
		if keep == nil || keep[i] {
			d.ID = append(d.ID, id)
		}
	}
	d.N = len(d.ID)

	return d, nil
}

func partKeepMask(raw map[string][]float64, n int, region *geom.Box) []bool {
	if region == nil {
		return nil
	}
	xs, ys, zs := raw["x"], raw["y"], raw["z"]
	keep := make([]bool, n)
	for i := range keep {
		v := geom.Vec{xs[i], ys[i]}
		if zs != nil {
			v[2] = zs[i]
		}
		keep[i] = region.Contains(&v)
	}
	return keep
}

// WriteParticles writes one process's particle file. The domain must
// carry every particle column plus IDs.
func WriteParticles(lay sim.Layout, info *sim.Info, d *Domain) error {
	path := lay.DataPath(sim.Particle, d.Process)
	nvar := 8
	names := PartVarNames(nvar)

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	w := bufio.NewWriter(f)

	order, _ := endianness(DefaultEndiannessFlag)
	hd := &PartHeader{
		Process: int32(d.Process),
		NVar:    int32(nvar),
		NDim:    int32(info.NDim),
		Count:   int64(d.N),
	}

	if err := binary.Write(w, order, DefaultEndiannessFlag); err != nil {
		return err
	}
	if err := binary.Write(w, order, int32(binary.Size(hd))); err != nil {
		return err
	}
	if err := binary.Write(w, order, hd); err != nil {
		return err
	}

	for _, name := range names {
		col := d.Cols[name]
		if col == nil {
			if d.N > 0 {
				return fmt.Errorf("domain %d is missing column '%s'",
					d.Process, name)
			}
			col = []float64{}
		}
		if err := binary.Write(w, order, col); err != nil {
			return err
		}
	}
	if err := binary.Write(w, order, d.ID); err != nil {
		return err
	}

	return w.Flush()
}
