package project

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/phil-mansfield/goamr"
	"github.com/phil-mansfield/goamr/geom"
	"github.com/phil-mansfield/goamr/sim"
	"github.com/phil-mansfield/goamr/table"
	"github.com/phil-mansfield/goamr/units"
)

func testInfo() *sim.Info {
	return &sim.Info{
		NCpu: 1, NDim: 3, LevelMin: 1, LevelMax: 7,
		Boxlen: 1.0,
		UnitL:  3.085677581282e21,
		UnitD:  6.77025430198932e-23,
		UnitT:  4.70430312423675e14,
		Gamma:  5.0 / 3.0,
		Mu:     0.6,
	}
}

func testScales() *units.Scales { return units.Derive(testInfo()) }

// uniformTable returns the full level-1 grid of a unit box with rho = 2
// everywhere. The total mass is 2.
func uniformTable() *table.Table {
	t := table.New(table.Hydro, testInfo(), []string{"rho"})
	for ix := int32(0); ix < 2; ix++ {
		for iy := int32(0); iy < 2; iy++ {
			for iz := int32(0); iz < 2; iz++ {
				t.Level = append(t.Level, 1)
				t.Ix = append(t.Ix, ix)
				t.Iy = append(t.Iy, iy)
				t.Iz = append(t.Iz, iz)
			}
		}
	}
	t.N = 8
	rho := make([]float64, t.N)
	for i := range rho {
		rho[i] = 2
	}
	t.SetCol("rho", rho)
	return t
}

// mixedTable returns a two-level table: seven level-1 cells plus the
// eight level-2 children of the eighth, with rho chosen so every cell
// holds mass 0.25 and the children 0.25/8 each.
func mixedTable() *table.Table {
	t := table.New(table.Hydro, testInfo(), []string{"rho"})
	var rho []float64

	for ix := int32(0); ix < 2; ix++ {
		for iy := int32(0); iy < 2; iy++ {
			for iz := int32(0); iz < 2; iz++ {
				if ix == 1 && iy == 1 && iz == 1 {
					continue
				}
				t.Level = append(t.Level, 1)
				t.Ix = append(t.Ix, ix)
				t.Iy = append(t.Iy, iy)
				t.Iz = append(t.Iz, iz)
				rho = append(rho, 2)
			}
		}
	}
	for ix := int32(2); ix < 4; ix++ {
		for iy := int32(2); iy < 4; iy++ {
			for iz := int32(2); iz < 4; iz++ {
				t.Level = append(t.Level, 2)
				t.Ix = append(t.Ix, ix)
				t.Iy = append(t.Iy, iy)
				t.Iz = append(t.Iz, iz)
				rho = append(rho, 2)
			}
		}
	}

	t.N = len(rho)
	t.SetCol("rho", rho)
	return t
}

func total(m []float64) float64 {
	s := 0.0
	for _, x := range m {
		s += x
	}
	return s
}

func TestSumConservesMass(t *testing.T) {
	tab := uniformTable()
	for _, res := range []int{1, 2, 7, 32} {
		r, err := Project(tab, testScales(), []string{"mass"}, nil,
			Options{Direction: Z, Resolution: res, Mode: Sum, Workers: 1})
		if err != nil {
			t.Fatal(err)
		}
		assert.InEpsilon(t, 2.0, total(r.Map("mass")), 1e-12,
			"total not conserved at resolution %d", res)
	}
}

func TestSumConservesMassMixedLevels(t *testing.T) {
	tab := mixedTable()
	for _, res := range []int{2, 5, 16} {
		r, err := Project(tab, testScales(), []string{"mass"}, nil,
			Options{Direction: Z, Resolution: res, Mode: Sum, Workers: 1})
		if err != nil {
			t.Fatal(err)
		}
		assert.InEpsilon(t, 2.0, total(r.Map("mass")), 1e-12,
			"total not conserved at resolution %d", res)
	}
}

func TestSumMapValues(t *testing.T) {
	tab := uniformTable()

	// At resolution 2 each pixel column holds two level-1 cells of mass
	// 0.25 each.
	r, err := Project(tab, testScales(), []string{"mass"}, nil,
		Options{Direction: Z, Resolution: 2, Mode: Sum, Workers: 1})
	if err != nil {
		t.Fatal(err)
	}
	for v := 0; v < 2; v++ {
		for u := 0; u < 2; u++ {
			assert.InEpsilon(t, 0.5, r.At("mass", u, v), 1e-12)
		}
	}

	assert.Nil(t, r.Weights)
	assert.Equal(t, [4]float64{0, 1, 0, 1}, r.Extent)
	assert.Equal(t, [2]float64{0.5, 0.5}, r.Pixel)
}

func TestMeanModeUniformField(t *testing.T) {
	tab := uniformTable()
	r, err := Project(tab, testScales(), []string{"rho"}, nil,
		Options{Direction: X, Resolution: 4, Mode: Mean, Workers: 1})
	if err != nil {
		t.Fatal(err)
	}

	for _, x := range r.Map("rho") {
		assert.InEpsilon(t, 2.0, x, 1e-12,
			"uniform field must average to itself")
	}
	assert.NotNil(t, r.Weights)
}

func TestProjectionWindow(t *testing.T) {
	tab := uniformTable()

	// Window covering the x <= 0.5 half: cell centers at x = 0.75 are
	// excluded and the kept cells lie fully inside, so exactly half the
	// mass survives.
	w := geom.NewBox(0, 0.5, 0, 1, 0, 1)
	r, err := Project(tab, testScales(), []string{"mass"}, nil,
		Options{
			Direction: Z, Resolution: 4, Mode: Sum,
			Window: &w, Workers: 1,
		})
	if err != nil {
		t.Fatal(err)
	}
	assert.InEpsilon(t, 1.0, total(r.Map("mass")), 1e-12)
}

func TestWorkerCountInvariance(t *testing.T) {
	tab := mixedTable()

	base, err := Project(tab, testScales(), []string{"mass"}, nil,
		Options{Direction: Z, Resolution: 8, Mode: Sum, Workers: 1})
	if err != nil {
		t.Fatal(err)
	}

	for _, workers := range []int{2, 4} {
		got, err := Project(tab, testScales(), []string{"mass"}, nil,
			Options{Direction: Z, Resolution: 8, Mode: Sum, Workers: workers})
		if err != nil {
			t.Fatal(err)
		}
		for p := range base.Maps["mass"] {
			assert.InDelta(t, base.Maps["mass"][p], got.Maps["mass"][p],
				1e-12, "pixel %d differs with %d workers", p, workers)
		}
	}
}

func TestMultipleVariablesShareWeights(t *testing.T) {
	tab := uniformTable()
	r, err := Project(tab, testScales(),
		[]string{"rho", "temp"}, []string{"", "K"},
		Options{Direction: Z, Resolution: 2, Mode: Mean, Workers: 1})

	// temp needs p, which this table doesn't carry.
	assert.Error(t, err)

	tab.SetCol("p", []float64{1, 1, 1, 1, 1, 1, 1, 1})
	r, err = Project(tab, testScales(),
		[]string{"rho", "p"}, nil,
		Options{Direction: Z, Resolution: 2, Mode: Mean, Workers: 1})
	if err != nil {
		t.Fatal(err)
	}

	assert.Len(t, r.Map("rho"), 4)
	assert.Len(t, r.Map("p"), 4)
	assert.Equal(t, "", r.Units["rho"])
}

func TestEmptyTableIsNotAnError(t *testing.T) {
	tab := uniformTable().Filter(geom.NewBox(2, 3, 2, 3, 2, 3))
	assert.Equal(t, 0, tab.N)

	r, err := Project(tab, testScales(), []string{"mass"}, nil,
		Options{Direction: Z, Resolution: 4, Mode: Sum})
	if err != nil {
		t.Fatal(err)
	}

	assert.Len(t, r.Map("mass"), 16)
	assert.Equal(t, 0.0, total(r.Map("mass")))
}

func TestParticlesBinAsPoints(t *testing.T) {
	tab := table.New(table.Particle, testInfo(),
		[]string{"x", "y", "z", "mass"})
	tab.ID = []int64{1, 2, 3}
	tab.SetCol("x", []float64{0.1, 0.1, 0.9})
	tab.SetCol("y", []float64{0.1, 0.2, 0.9})
	tab.SetCol("z", []float64{0.5, 0.5, 0.5})
	tab.SetCol("mass", []float64{1, 2, 4})
	tab.N = 3

	r, err := Project(tab, testScales(), []string{"mass"}, nil,
		Options{Direction: Z, Resolution: 2, Mode: Sum, Workers: 1})
	if err != nil {
		t.Fatal(err)
	}

	assert.Equal(t, 3.0, r.At("mass", 0, 0))
	assert.Equal(t, 4.0, r.At("mass", 1, 1))
	assert.Equal(t, 0.0, r.At("mass", 1, 0))
	assert.InEpsilon(t, 7.0, total(r.Map("mass")), 1e-12)
}

func TestDirectionSelectsAxes(t *testing.T) {
	tab := table.New(table.Particle, testInfo(), []string{"x", "y", "z", "mass"})
	tab.ID = []int64{1}
	tab.SetCol("x", []float64{0.1})
	tab.SetCol("y", []float64{0.9})
	tab.SetCol("z", []float64{0.1})
	tab.SetCol("mass", []float64{1})
	tab.N = 1

	// Projecting along y keeps (x, z): the particle lands at low x, low
	// z.
	r, err := Project(tab, testScales(), []string{"mass"}, nil,
		Options{Direction: Y, Resolution: 2, Mode: Sum, Workers: 1})
	if err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, 1.0, r.At("mass", 0, 0))

	// Projecting along x keeps (y, z): now it lands at high u.
	r, err = Project(tab, testScales(), []string{"mass"}, nil,
		Options{Direction: X, Resolution: 2, Mode: Sum, Workers: 1})
	if err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, 1.0, r.At("mass", 1, 0))
}

func TestBadOptions(t *testing.T) {
	tab := uniformTable()

	_, err := Project(tab, testScales(), []string{"mass"}, nil,
		Options{Direction: Z, Resolution: 0})
	badRes := &ResolutionError{}
	assert.ErrorAs(t, err, &badRes)
	class, ok := goamr.ClassOf(err)
	assert.True(t, ok)
	assert.Equal(t, goamr.Query, class)

	_, err = Project(tab, testScales(), []string{"mass"}, nil,
		Options{Direction: Axis(9), Resolution: 4})
	badDir := &DirectionError{}
	assert.ErrorAs(t, err, &badDir)

	_, err = ParseAxis("w")
	assert.ErrorAs(t, err, &badDir)
	ax, err := ParseAxis("Y")
	assert.NoError(t, err)
	assert.Equal(t, Y, ax)
}

func TestUnitConversionAppliesToMaps(t *testing.T) {
	tab := uniformTable()
	s := testScales()

	code, err := Project(tab, s, []string{"mass"}, nil,
		Options{Direction: Z, Resolution: 2, Mode: Sum, Workers: 1})
	if err != nil {
		t.Fatal(err)
	}
	msun, err := Project(tab, s, []string{"mass"}, []string{"Msun"},
		Options{Direction: Z, Resolution: 2, Mode: Sum, Workers: 1})
	if err != nil {
		t.Fatal(err)
	}

	ratio := total(msun.Map("mass")) / total(code.Map("mass"))
	assert.False(t, math.IsNaN(ratio))
	assert.InEpsilon(t, s.Msun, ratio, 1e-10)
	assert.Equal(t, "Msun", msun.Units["mass"])
}
