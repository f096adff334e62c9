package snapio

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/phil-mansfield/goamr/sim"
	"github.com/phil-mansfield/goamr/table"
)

// SinkVarNames is the column order of the sink catalog, minus the
// leading id column.
var SinkVarNames = []string{
	"mass", "x", "y", "z", "vx", "vy", "vz", "age",
}

// LoadSinks reads the sink particle catalog. Sinks are written by
// process one only, as a single small CSV file.
func LoadSinks(lay sim.Layout, info *sim.Info) (*table.Table, error) {
	path := lay.DataPath(sim.Sink, 1)
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, &MissingFileError{path}
	} else if err != nil {
		return nil, err
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, &CorruptFileError{path, err.Error()}
	}
	if len(records) == 0 {
		return nil, &CorruptFileError{path, "missing header row"}
	}
	if len(records[0]) != len(SinkVarNames)+1 {
		return nil, &CorruptFileError{path, fmt.Sprintf(
			"expected %d columns, found %d",
			len(SinkVarNames)+1, len(records[0]),
		)}
	}

	t := table.New(table.Sink, info, SinkVarNames)
	rows := records[1:]
	t.ID = make([]int64, len(rows))
	cols := map[string][]float64{}
	for _, name := range SinkVarNames {
		cols[name] = make([]float64, len(rows))
	}

	for i, rec := range rows {
		id, err := strconv.ParseInt(rec[0], 10, 64)
		if err != nil {
			return nil, &CorruptFileError{path, fmt.Sprintf(
				"row %d: bad id '%s'", i+1, rec[0],
			)}
		}
		t.ID[i] = id
		for j, name := range SinkVarNames {
			x, err := strconv.ParseFloat(rec[j+1], 64)
			if err != nil {
				return nil, &CorruptFileError{path, fmt.Sprintf(
					"row %d: bad %s '%s'", i+1, name, rec[j+1],
				)}
			}
			cols[name][i] = x
		}
	}

	for _, name := range SinkVarNames {
		t.SetCol(name, cols[name])
	}
	t.N = len(rows)
	return t, nil
}

// WriteSinks writes the sink catalog CSV.
func WriteSinks(
	lay sim.Layout, ids []int64, cols map[string][]float64,
) error {
	f, err := os.Create(lay.DataPath(sim.Sink, 1))
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := append([]string{"id"}, SinkVarNames...)
	if err := w.Write(header); err != nil {
		return err
	}

	rec := make([]string, len(header))
	for i, id := range ids {
		rec[0] = strconv.FormatInt(id, 10)
		for j, name := range SinkVarNames {
			rec[j+1] = strconv.FormatFloat(cols[name][i], 'g', -1, 64)
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
