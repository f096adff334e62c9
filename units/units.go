/*package units derives the multiplicative factors which convert the
internal numerical units of a simulation into physical units. The
simulation defines three fundamental scales (length in cm, density in
g/cm^3, time in s) and everything else follows from those plus a handful
of physical constants.

A converted value is always physical = code * factor, so factors are
plain float64 multipliers and conversion never needs to know what it is
converting.
*/
package units

import (
	"fmt"

	"github.com/phil-mansfield/goamr"
	"github.com/phil-mansfield/goamr/sim"
)

// Physical constants in CGS.
var Constants = struct {
	G    float64 // gravitational constant, cm^3 g^-1 s^-2
	MH   float64 // proton mass, g
	KB   float64 // Boltzmann constant, erg/K
	Pc   float64 // parsec, cm
	Au   float64 // astronomical unit, cm
	Msun float64 // solar mass, g
	C    float64 // speed of light, cm/s
	Yr   float64 // Julian year, s
}{
	G:    6.67430e-8,
	MH:   1.6726219e-24,
	KB:   1.38064852e-16,
	Pc:   3.08567758128e18,
	Au:   1.495978707e13,
	Msun: 1.98892e33,
	C:    2.99792458e10,
	Yr:   3.15576e7,
}

// Category is the physical dimension of a variable or unit. A unit can
// only be applied to a variable of the same category.
type Category int

const (
	Dimensionless Category = iota
	Length
	Time
	Mass
	Density
	NumberDensity
	Velocity
	Acceleration
	Volume
	Pressure
	Energy
	Temperature
)

func (c Category) String() string {
	switch c {
	case Dimensionless:
		return "dimensionless"
	case Length:
		return "length"
	case Time:
		return "time"
	case Mass:
		return "mass"
	case Density:
		return "density"
	case NumberDensity:
		return "number density"
	case Velocity:
		return "velocity"
	case Acceleration:
		return "acceleration"
	case Volume:
		return "volume"
	case Pressure:
		return "pressure"
	case Energy:
		return "energy"
	case Temperature:
		return "temperature"
	}
	return "unknown"
}

// Scales holds the factor from code units to every supported physical
// unit. It is derived once per output and never modified.
type Scales struct {
	// Length.
	Cm, Km, Pc, Kpc, Mpc, Au float64
	// Time.
	S, Yr, Myr, Gyr float64
	// Mass.
	G, Msun float64
	// Density.
	GCm3, MsunPc3, NH float64
	// Velocity.
	CmS, KmS float64
	// Acceleration.
	CmS2 float64
	// Volume.
	Cm3, Pc3, Kpc3, Mpc3 float64
	// Pressure (Barye = g cm^-1 s^-2).
	Ba float64
	// Energy.
	Erg float64
	// Temperature: multiplying (p/rho * mu) in code units by K gives
	// Kelvin.
	K float64

	factors map[string]factor
}

type factor struct {
	f   float64
	cat Category
}

// UnknownUnitError reports a unit name that no category recognizes.
type UnknownUnitError struct {
	Unit string
}

func (e *UnknownUnitError) Error() string {
	return fmt.Sprintf("unknown unit '%s'", e.Unit)
}

func (e *UnknownUnitError) Class() goamr.Class { return goamr.Query }

// UnitCategoryError reports a unit that exists but belongs to a
// different physical dimension than the variable it was requested for.
type UnitCategoryError struct {
	Unit      string
	Want, Got Category
}

func (e *UnitCategoryError) Error() string {
	return fmt.Sprintf("unit '%s' is a %s unit, but a %s unit is needed",
		e.Unit, e.Got, e.Want)
}

func (e *UnitCategoryError) Class() goamr.Class { return goamr.Query }

// Derive computes the scale factors for an output from its fundamental
// unit triplet.
func Derive(info *sim.Info) *Scales {
	ul, ud, ut := info.UnitL, info.UnitD, info.UnitT
	um := ud * ul * ul * ul
	uv := ul / ut

	s := &Scales{
		Cm:  ul,
		Km:  ul / 1e5,
		Pc:  ul / Constants.Pc,
		Kpc: ul / (1e3 * Constants.Pc),
		Mpc: ul / (1e6 * Constants.Pc),
		Au:  ul / Constants.Au,

		S:   ut,
		Yr:  ut / Constants.Yr,
		Myr: ut / (1e6 * Constants.Yr),
		Gyr: ut / (1e9 * Constants.Yr),

		G:    um,
		Msun: um / Constants.Msun,

		GCm3:    ud,
		MsunPc3: ud / (Constants.Msun / (Constants.Pc * Constants.Pc * Constants.Pc)),
		NH:      ud / Constants.MH,

		CmS: uv,
		KmS: uv / 1e5,

		CmS2: uv / ut,

		Cm3:  ul * ul * ul,
		Pc3:  cube(ul / Constants.Pc),
		Kpc3: cube(ul / (1e3 * Constants.Pc)),
		Mpc3: cube(ul / (1e6 * Constants.Pc)),

		Ba:  ud * uv * uv,
		Erg: um * uv * uv,
		K:   uv * uv * Constants.MH / Constants.KB,
	}

	s.factors = map[string]factor{
		"cm":  {s.Cm, Length},
		"km":  {s.Km, Length},
		"pc":  {s.Pc, Length},
		"kpc": {s.Kpc, Length},
		"Mpc": {s.Mpc, Length},
		"au":  {s.Au, Length},

		"s":   {s.S, Time},
		"yr":  {s.Yr, Time},
		"Myr": {s.Myr, Time},
		"Gyr": {s.Gyr, Time},

		"g":    {s.G, Mass},
		"Msun": {s.Msun, Mass},

		"g_cm3":    {s.GCm3, Density},
		"Msun_pc3": {s.MsunPc3, Density},
		"nH":       {s.NH, NumberDensity},

		"cm_s": {s.CmS, Velocity},
		"km_s": {s.KmS, Velocity},

		"cm_s2": {s.CmS2, Acceleration},

		"cm3":  {s.Cm3, Volume},
		"pc3":  {s.Pc3, Volume},
		"kpc3": {s.Kpc3, Volume},
		"Mpc3": {s.Mpc3, Volume},

		"Ba":  {s.Ba, Pressure},
		"erg": {s.Erg, Energy},
		"K":   {s.K, Temperature},
	}

	return s
}

func cube(x float64) float64 { return x * x * x }

// Factor returns the conversion factor and category for a named unit.
// The empty string and "standard" mean code units: factor 1, valid for
// any category.
func (s *Scales) Factor(unit string) (float64, Category, error) {
	if unit == "" || unit == "standard" {
		return 1, Dimensionless, nil
	}
	fac, ok := s.factors[unit]
	if !ok {
		return 0, Dimensionless, &UnknownUnitError{unit}
	}
	return fac.f, fac.cat, nil
}

// Check resolves unit against a required category. Code units pass any
// category. nH is accepted for Density variables since converting a mass
// density to a hydrogen number density is the main reason it exists.
func (s *Scales) Check(unit string, want Category) (float64, error) {
	f, got, err := s.Factor(unit)
	if err != nil {
		return 0, err
	}
	if unit == "" || unit == "standard" {
		return 1, nil
	}
	if got == NumberDensity && want == Density {
		return f, nil
	}
	if got != want {
		return 0, &UnitCategoryError{unit, want, got}
	}
	return f, nil
}
