package snapio

import (
	"bufio"
	"fmt"
	"os"

	ptable "github.com/phil-mansfield/table"

	"github.com/phil-mansfield/goamr/sim"
	"github.com/phil-mansfield/goamr/table"
)

// ClumpVarNames is the fixed column order of the clump-finder text
// catalogs.
var ClumpVarNames = []string{
	"index", "lev", "parent", "ncell",
	"peak_x", "peak_y", "peak_z",
	"rho_av", "rho_max", "mass_cl",
}

// LoadClumps reads the per-process clump catalogs and concatenates them
// into one table. Clump catalogs are small text tables, so there is no
// parallel fan-out here.
func LoadClumps(lay sim.Layout, info *sim.Info) (*table.Table, error) {
	names := clumpTableNames()
	t := table.New(table.Clump, info, names)

	cols := map[string][]float64{}
	colIdxs := make([]int, len(ClumpVarNames))
	for i := range colIdxs {
		colIdxs[i] = i
	}

	for proc := 1; proc <= info.NCpu; proc++ {
		path := lay.DataPath(sim.Clump, proc)
		if !fileExists(path) {
			return nil, &MissingFileError{path}
		}
		read, err := readClumpTable(path, colIdxs)
		if err != nil {
			return nil, &CorruptFileError{path, err.Error()}
		}
		if len(read) != len(ClumpVarNames) {
			return nil, &CorruptFileError{path, fmt.Sprintf(
				"expected %d columns, found %d",
				len(ClumpVarNames), len(read),
			)}
		}
		for i, name := range names {
			cols[name] = append(cols[name], read[i]...)
		}
	}

	for _, name := range names {
		t.SetCol(name, cols[name])
	}
	return t, nil
}

// readClumpTable reads the requested columns of a clump catalog,
// converting the table reader's panics into returned errors.
func readClumpTable(path string, colIdxs []int) (read [][]float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%v", r)
		}
	}()
	read = ptable.TextFile(path).ReadFloat64s(colIdxs)
	return read, nil
}

// clumpTableNames renames the position columns to x/y/z so clump tables
// support the same spatial selection as every other point kind.
func clumpTableNames() []string {
	names := make([]string, len(ClumpVarNames))
	for i, name := range ClumpVarNames {
		switch name {
		case "peak_x":
			name = "x"
		case "peak_y":
			name = "y"
		case "peak_z":
			name = "z"
		}
		names[i] = name
	}
	return names
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// WriteClumps writes one process's clump catalog in the clump-finder
// text format.
func WriteClumps(
	lay sim.Layout, proc int, cols map[string][]float64,
) error {
	f, err := os.Create(lay.DataPath(sim.Clump, proc))
	if err != nil {
		return err
	}
	defer f.Close()
	w := bufio.NewWriter(f)

	fmt.Fprint(w, "#")
	for _, name := range ClumpVarNames {
		fmt.Fprintf(w, " %s", name)
	}
	fmt.Fprintln(w)

	n := len(cols[ClumpVarNames[0]])
	for i := 0; i < n; i++ {
		for j, name := range ClumpVarNames {
			if j > 0 {
				fmt.Fprint(w, " ")
			}
			fmt.Fprintf(w, "%.10g", cols[name][i])
		}
		fmt.Fprintln(w)
	}
	return w.Flush()
}
