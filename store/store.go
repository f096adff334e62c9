/*package store saves merged tables and projection results to disk so
expensive loads don't have to be repeated. Snapshots are gob streams
compressed with zstd; they are an analysis cache, not an interchange
format, and make no cross-version promises.
*/
package store

import (
	"encoding/gob"
	"os"

	"github.com/klauspost/compress/zstd"

	"github.com/phil-mansfield/goamr/project"
	"github.com/phil-mansfield/goamr/sim"
	"github.com/phil-mansfield/goamr/table"
)

// snapshot is the on-disk shape of a table. The table type keeps its
// columns unexported, so the store flattens them here.
type snapshot struct {
	Kind table.Kind
	Info *sim.Info
	N    int

	Level, Ix, Iy, Iz []int32
	ID                []int64

	Names []string
	Cols  map[string][]float64
}

// WriteTable saves a merged table and its simulation info.
func WriteTable(path string, t *table.Table) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	zw, err := zstd.NewWriter(f)
	if err != nil {
		return err
	}

	snap := &snapshot{
		Kind:  t.Kind,
		Info:  t.Info,
		N:     t.N,
		Level: t.Level, Ix: t.Ix, Iy: t.Iy, Iz: t.Iz,
		ID:    t.ID,
		Names: t.Names(),
		Cols:  map[string][]float64{},
	}
	for _, name := range snap.Names {
		snap.Cols[name] = t.Col(name)
	}

	if err := gob.NewEncoder(zw).Encode(snap); err != nil {
		zw.Close()
		return err
	}
	return zw.Close()
}

// ReadTable loads a table previously saved with WriteTable.
func ReadTable(path string) (*table.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	zr, err := zstd.NewReader(f)
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	snap := &snapshot{}
	if err := gob.NewDecoder(zr).Decode(snap); err != nil {
		return nil, err
	}

	t := table.New(snap.Kind, snap.Info, snap.Names)
	t.Level, t.Ix, t.Iy, t.Iz = snap.Level, snap.Ix, snap.Iy, snap.Iz
	t.ID = snap.ID
	for _, name := range snap.Names {
		t.SetCol(name, snap.Cols[name])
	}
	t.N = snap.N
	return t, nil
}

// WriteMaps saves a projection result.
func WriteMaps(path string, r *project.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	zw, err := zstd.NewWriter(f)
	if err != nil {
		return err
	}
	if err := gob.NewEncoder(zw).Encode(r); err != nil {
		zw.Close()
		return err
	}
	return zw.Close()
}

// ReadMaps loads a projection result previously saved with WriteMaps.
func ReadMaps(path string) (*project.Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	zr, err := zstd.NewReader(f)
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	r := &project.Result{}
	if err := gob.NewDecoder(zr).Decode(r); err != nil {
		return nil, err
	}
	return r, nil
}
