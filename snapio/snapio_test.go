package snapio

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/phil-mansfield/goamr"
	"github.com/phil-mansfield/goamr/geom"
	"github.com/phil-mansfield/goamr/sim"
	"github.com/phil-mansfield/goamr/table"
)

func testInfo(ncpu int) *sim.Info {
	return &sim.Info{
		Out:       1,
		NCpu:      ncpu,
		NDim:      3,
		LevelMin:  1,
		LevelMax:  2,
		Boxlen:    1.0,
		UnitL:     3.085677581282e21,
		UnitD:     6.77025430198932e-23,
		UnitT:     4.70430312423675e14,
		NVarHydro: 5,
		NVarGrav:  4,
		Gamma:     5.0 / 3.0,
		Mu:        0.6,
	}
}

// hydroFixture writes a two-process snapshot. Process one holds two
// level-1 cells at (0,0,0) and (1,1,1), process two holds two level-2
// cells at (0,0,0) and (3,3,3). rho runs 1..4 in that order.
func hydroFixture(t *testing.T) (sim.DirLayout, *sim.Info) {
	t.Helper()
	lay := sim.DirLayout{Base: t.TempDir(), Out: 1}
	info := testInfo(2)
	if err := sim.WriteInfo(lay, info); err != nil {
		t.Fatal(err)
	}

	names := HydroVarNames(info.NVarHydro)
	makeCols := func(rho []float64) map[string][]float64 {
		cols := map[string][]float64{}
		for _, name := range names {
			col := make([]float64, len(rho))
			copy(col, rho)
			cols[name] = col
		}
		cols["rho"] = rho
		return cols
	}

	d1 := &Domain{
		Process: 1,
		Level:   []int32{1, 1},
		Ix:      []int32{0, 1}, Iy: []int32{0, 1}, Iz: []int32{0, 1},
		Cols: makeCols([]float64{1, 2}),
		N:    2,
	}
	d2 := &Domain{
		Process: 2,
		Level:   []int32{2, 2},
		Ix:      []int32{0, 3}, Iy: []int32{0, 3}, Iz: []int32{0, 3},
		Cols: makeCols([]float64{3, 4}),
		N:    2,
	}

	if err := WriteHydro(lay, info, d1); err != nil {
		t.Fatal(err)
	}
	if err := WriteHydro(lay, info, d2); err != nil {
		t.Fatal(err)
	}
	return lay, info
}

func TestLoadHydroRoundTrip(t *testing.T) {
	lay, info := hydroFixture(t)

	tab, err := LoadHydro(lay, info, LoadOptions{})
	if err != nil {
		t.Fatal(err)
	}

	assert.Equal(t, 4, tab.N)
	assert.Equal(t, HydroVarNames(info.NVarHydro), tab.Names())
	assert.Equal(t, []float64{1, 2, 3, 4}, tab.Col("rho"))
	assert.Equal(t, []int32{1, 1, 2, 2}, tab.Level)
	assert.Equal(t, []int32{0, 1, 0, 3}, tab.Ix)
}

func TestLoadHydroVarSubset(t *testing.T) {
	lay, info := hydroFixture(t)

	tab, err := LoadHydro(lay, info, LoadOptions{
		Options: Options{Vars: []string{"rho", "p"}},
	})
	if err != nil {
		t.Fatal(err)
	}

	assert.Equal(t, []string{"rho", "p"}, tab.Names())
	assert.Equal(t, []float64{1, 2, 3, 4}, tab.Col("rho"))
	assert.False(t, tab.HasCol("vx"))
	assert.Equal(t, []int32{0, 1, 0, 3}, tab.Ix, "indices survive skipped blocks")
}

func TestLoadHydroLevelRange(t *testing.T) {
	lay, info := hydroFixture(t)

	tab, err := LoadHydro(lay, info, LoadOptions{
		Options: Options{MaxLevel: 1},
	})
	if err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, 2, tab.N)
	assert.Equal(t, []float64{1, 2}, tab.Col("rho"))

	tab, err = LoadHydro(lay, info, LoadOptions{
		Options: Options{MinLevel: 2},
	})
	if err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, 2, tab.N)
	assert.Equal(t, []float64{3, 4}, tab.Col("rho"))
}

func TestLoadHydroRegion(t *testing.T) {
	lay, info := hydroFixture(t)

	// Keeps the level-1 center at 0.25 and the level-2 center at 0.125,
	// drops the centers at 0.75 and 0.875.
	box := geom.NewBox(0, 0.3, 0, 0.3, 0, 0.3)
	tab, err := LoadHydro(lay, info, LoadOptions{
		Options: Options{Region: &box},
	})
	if err != nil {
		t.Fatal(err)
	}

	assert.Equal(t, 2, tab.N)
	assert.Equal(t, []float64{1, 3}, tab.Col("rho"))
}

func TestLoadHydroMissingFile(t *testing.T) {
	lay, info := hydroFixture(t)
	if err := os.Remove(lay.DataPath(sim.Hydro, 2)); err != nil {
		t.Fatal(err)
	}

	_, err := LoadHydro(lay, info, LoadOptions{})
	missing := &MissingFileError{}
	assert.ErrorAs(t, err, &missing)

	class, ok := goamr.ClassOf(err)
	assert.True(t, ok)
	assert.Equal(t, goamr.Config, class)
}

func TestLoadHydroTruncated(t *testing.T) {
	lay, info := hydroFixture(t)
	path := lay.DataPath(sim.Hydro, 1)
	fi, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Truncate(path, fi.Size()-12); err != nil {
		t.Fatal(err)
	}

	_, err = LoadHydro(lay, info, LoadOptions{})
	truncated := &TruncatedFileError{}
	if assert.ErrorAs(t, err, &truncated) {
		assert.Equal(t, path, truncated.Path)
	}

	class, ok := goamr.ClassOf(err)
	assert.True(t, ok)
	assert.Equal(t, goamr.Format, class)
}

func TestLoadHydroTruncatedUnderSkips(t *testing.T) {
	// Truncation must be caught even when the missing bytes fall inside
	// blocks the reader seeks past instead of decoding.
	lay, info := hydroFixture(t)
	path := lay.DataPath(sim.Hydro, 1)
	fi, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Truncate(path, fi.Size()-12); err != nil {
		t.Fatal(err)
	}

	_, err = LoadHydro(lay, info, LoadOptions{
		Options: Options{Vars: []string{"rho"}},
	})
	truncated := &TruncatedFileError{}
	assert.ErrorAs(t, err, &truncated)
}

func TestLoadHydroVariableCountMismatch(t *testing.T) {
	lay, info := hydroFixture(t)
	info.NVarHydro = 6

	_, err := LoadHydro(lay, info, LoadOptions{})
	mismatch := &VariableCountError{}
	if assert.ErrorAs(t, err, &mismatch) {
		assert.Equal(t, 5, mismatch.File)
		assert.Equal(t, 6, mismatch.Info)
	}

	class, ok := goamr.ClassOf(err)
	assert.True(t, ok)
	assert.Equal(t, goamr.Format, class)
}

func TestLoadHydroBadEndiannessFlag(t *testing.T) {
	lay, info := hydroFixture(t)
	path := lay.DataPath(sim.Hydro, 1)
	f, err := os.OpenFile(path, os.O_WRONLY, 0666)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.WriteAt([]byte{7, 7, 7, 7}, 0); err != nil {
		t.Fatal(err)
	}
	f.Close()

	_, err = LoadHydro(lay, info, LoadOptions{})
	corrupt := &CorruptFileError{}
	assert.ErrorAs(t, err, &corrupt)
}

func TestMergeSchemaMismatch(t *testing.T) {
	info := testInfo(2)
	a := &Domain{
		Process: 1, Names: []string{"rho", "p"},
		Cols: map[string][]float64{"rho": {1}, "p": {2}},
		Level: []int32{1}, Ix: []int32{0}, Iy: []int32{0}, Iz: []int32{0},
		N: 1,
	}
	b := &Domain{
		Process: 2, Names: []string{"rho"},
		Cols:  map[string][]float64{"rho": {3}},
		Level: []int32{1}, Ix: []int32{1}, Iy: []int32{1}, Iz: []int32{1},
		N:     1,
	}

	_, err := Merge([]*Domain{a, b}, table.Hydro, info)
	mismatch := &SchemaMismatchError{}
	if assert.ErrorAs(t, err, &mismatch) {
		assert.Equal(t, 1, mismatch.ProcA)
		assert.Equal(t, 2, mismatch.ProcB)
	}
}

func TestMergeSkipsEmptyDomains(t *testing.T) {
	info := testInfo(3)
	a := &Domain{
		Process: 1, Names: []string{"rho"},
		Cols:  map[string][]float64{"rho": {1, 2}},
		Level: []int32{1, 1}, Ix: []int32{0, 1},
		Iy:    []int32{0, 0}, Iz: []int32{0, 0},
		N:     2,
	}
	empty := &Domain{
		Process: 2, Names: []string{"rho"},
		Cols: map[string][]float64{},
	}

	tab, err := Merge([]*Domain{a, empty, nil}, table.Hydro, info)
	if err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, 2, tab.N)
	assert.Equal(t, []float64{1, 2}, tab.Col("rho"))
}

func TestMergeAllEmptyIsNotAnError(t *testing.T) {
	info := testInfo(2)
	tab, err := Merge([]*Domain{nil, nil}, table.Hydro, info)
	if err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, 0, tab.N)
}

func TestLoadGravityRoundTrip(t *testing.T) {
	lay := sim.DirLayout{Base: t.TempDir(), Out: 1}
	info := testInfo(1)
	if err := sim.WriteInfo(lay, info); err != nil {
		t.Fatal(err)
	}

	names := GravVarNames(info.NVarGrav)
	assert.Equal(t, []string{"epot", "ax", "ay", "az"}, names)

	cols := map[string][]float64{}
	for _, name := range names {
		cols[name] = []float64{-1, -2}
	}
	cols["epot"] = []float64{-5, -6}
	d := &Domain{
		Process: 1,
		Level:   []int32{1, 2},
		Ix:      []int32{0, 3}, Iy: []int32{1, 2}, Iz: []int32{0, 1},
		Cols: cols,
		N:    2,
	}
	if err := WriteGravity(lay, info, d); err != nil {
		t.Fatal(err)
	}

	tab, err := LoadGravity(lay, info, LoadOptions{})
	if err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, 2, tab.N)
	assert.Equal(t, table.Gravity, tab.Kind)
	assert.Equal(t, names, tab.Names())
	assert.Equal(t, []float64{-5, -6}, tab.Col("epot"))
	assert.Equal(t, []float64{-1, -2}, tab.Col("ax"))
	assert.Equal(t, []int32{1, 2}, tab.Level)
	assert.Equal(t, []int32{0, 3}, tab.Ix)
}

func TestLoadParticlesRoundTrip(t *testing.T) {
	lay := sim.DirLayout{Base: t.TempDir(), Out: 1}
	info := testInfo(2)
	if err := sim.WriteInfo(lay, info); err != nil {
		t.Fatal(err)
	}

	names := PartVarNames(8)
	makeDomain := func(proc int, ids []int64, x []float64) *Domain {
		cols := map[string][]float64{}
		for _, name := range names {
			col := make([]float64, len(x))
			copy(col, x)
			cols[name] = col
		}
		cols["x"] = x
		return &Domain{Process: proc, ID: ids, Cols: cols, N: len(ids)}
	}

	d1 := makeDomain(1, []int64{10, 11}, []float64{0.1, 0.9})
	d2 := makeDomain(2, []int64{12}, []float64{0.2})
	if err := WriteParticles(lay, info, d1); err != nil {
		t.Fatal(err)
	}
	if err := WriteParticles(lay, info, d2); err != nil {
		t.Fatal(err)
	}

	tab, err := LoadParticles(lay, info, LoadOptions{})
	if err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, 3, tab.N)
	assert.Equal(t, []int64{10, 11, 12}, tab.ID)
	assert.Equal(t, []float64{0.1, 0.9, 0.2}, tab.Col("x"))

	// Positions always come along, even when the subset omits them.
	tab, err = LoadParticles(lay, info, LoadOptions{
		Options: Options{Vars: []string{"mass"}},
	})
	if err != nil {
		t.Fatal(err)
	}
	assert.True(t, tab.HasCol("x"))
	assert.True(t, tab.HasCol("mass"))
	assert.False(t, tab.HasCol("vx"))

	// Region pre-filter keeps x in [0, 0.5] only.
	box := geom.NewBox(0, 0.5, 0, 1, 0, 1)
	tab, err = LoadParticles(lay, info, LoadOptions{
		Options: Options{Region: &box},
	})
	if err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, 2, tab.N)
	assert.Equal(t, []int64{10, 12}, tab.ID)
}

func TestLoadClumps(t *testing.T) {
	lay := sim.DirLayout{Base: t.TempDir(), Out: 1}
	info := testInfo(2)
	if err := sim.WriteInfo(lay, info); err != nil {
		t.Fatal(err)
	}

	makeCols := func(index, x []float64) map[string][]float64 {
		cols := map[string][]float64{}
		for _, name := range ClumpVarNames {
			col := make([]float64, len(index))
			copy(col, index)
			cols[name] = col
		}
		cols["index"] = index
		cols["peak_x"] = x
		return cols
	}

	err := WriteClumps(lay, 1, makeCols([]float64{1, 2}, []float64{0.1, 0.2}))
	if err != nil {
		t.Fatal(err)
	}
	err = WriteClumps(lay, 2, makeCols([]float64{3}, []float64{0.3}))
	if err != nil {
		t.Fatal(err)
	}

	tab, err := LoadClumps(lay, info)
	if err != nil {
		t.Fatal(err)
	}

	assert.Equal(t, 3, tab.N)
	assert.Equal(t, []float64{1, 2, 3}, tab.Col("index"))
	assert.True(t, tab.HasCol("x"), "peak positions renamed to x/y/z")
	assert.False(t, tab.HasCol("peak_x"))
	assert.Equal(t, []float64{0.1, 0.2, 0.3}, tab.Col("x"))
}

func TestLoadSinksRoundTrip(t *testing.T) {
	lay := sim.DirLayout{Base: t.TempDir(), Out: 1}
	info := testInfo(1)
	if err := sim.WriteInfo(lay, info); err != nil {
		t.Fatal(err)
	}

	ids := []int64{1, 2, 3}
	cols := map[string][]float64{}
	for _, name := range SinkVarNames {
		cols[name] = []float64{0.5, 1.5, 2.5}
	}
	cols["mass"] = []float64{10, 20, 30}
	if err := WriteSinks(lay, ids, cols); err != nil {
		t.Fatal(err)
	}

	tab, err := LoadSinks(lay, info)
	if err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, 3, tab.N)
	assert.Equal(t, ids, tab.ID)
	assert.Equal(t, []float64{10, 20, 30}, tab.Col("mass"))
	assert.Equal(t, []float64{0.5, 1.5, 2.5}, tab.Col("x"))
}

func TestLoadSinksMissing(t *testing.T) {
	lay := sim.DirLayout{Base: t.TempDir(), Out: 1}
	_, err := LoadSinks(lay, testInfo(1))
	missing := &MissingFileError{}
	assert.ErrorAs(t, err, &missing)
}
