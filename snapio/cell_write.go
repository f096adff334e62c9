package snapio

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"os"

	"github.com/phil-mansfield/goamr/sim"
)

// WriteHydro writes one process's hydro domain file. The domain must
// carry every hydro variable the info file declares, in any row order.
func WriteHydro(lay sim.Layout, info *sim.Info, d *Domain) error {
	return writeCellDomain(
		lay.DataPath(sim.Hydro, d.Process), info, d,
		info.NVarHydro, HydroVarNames,
	)
}

// WriteGravity writes one process's gravity domain file.
func WriteGravity(lay sim.Layout, info *sim.Info, d *Domain) error {
	return writeCellDomain(
		lay.DataPath(sim.Gravity, d.Process), info, d,
		info.NVarGrav, GravVarNames,
	)
}

func writeCellDomain(
	path string, info *sim.Info, d *Domain,
	nvar int, varNames func(int) []string,
) error {
	names := varNames(nvar)
	for _, name := range names {
		if d.Cols[name] == nil && d.N > 0 {
			return fmt.Errorf("domain %d is missing column '%s'",
				d.Process, name)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	w := bufio.NewWriter(f)

	order, _ := endianness(DefaultEndiannessFlag)
	hd := &CellHeader{
		Process:  int32(d.Process),
		NVar:     int32(nvar),
		NDim:     int32(info.NDim),
		LevelMin: int32(info.LevelMin),
		LevelMax: int32(info.LevelMax),
		Boxlen:   info.Boxlen,
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

	// Group rows by level. Insertion order within a level is preserved.
	byLevel := map[int32][]int{}
	for i := 0; i < d.N; i++ {
		byLevel[d.Level[i]] = append(byLevel[d.Level[i]], i)
	}

	for lev := hd.LevelMin; lev <= hd.LevelMax; lev++ {
		rows := byLevel[lev]
		if err := binary.Write(w, order, lev); err != nil {
			return err
		}
		if err := binary.Write(w, order, int32(len(rows))); err != nil {
			return err
		}
		if len(rows) == 0 {
			continue
		}

		idx := [][]int32{d.Ix, d.Iy, d.Iz}[:info.NDim]
		for _, axis := range idx {
			block := make([]int32, len(rows))
			for i, r := range rows {
				block[i] = axis[r]
			}
			if err := binary.Write(w, order, block); err != nil {
				return err
			}
		}

		block := make([]float64, len(rows))
		for _, name := range names {
			col := d.Cols[name]
			for i, r := range rows {
				block[i] = col[r]
			}
			if err := binary.Write(w, order, block); err != nil {
				return err
			}
		}
	}

	return w.Flush()
}
