/*package sim reads the textual description file of a single simulation
output and locates the per-process data files belonging to it.
*/
package sim

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/phil-mansfield/goamr"
)

// Info describes one simulation output. It is filled in once by ReadInfo
// and never modified afterwards.
type Info struct {
	Out int

	NCpu, NDim         int
	LevelMin, LevelMax int

	Boxlen, Time, Aexp float64

	// Cosmological parameters.
	H0, OmegaM, OmegaL, OmegaK, OmegaB float64

	// Fundamental units in CGS: unit_l in cm, unit_d in g/cm^3, and
	// unit_t in s. Every other scale factor derives from these three.
	UnitL, UnitD, UnitT float64

	NVarHydro, NVarGrav int

	// Equation of state parameters used by derived quantities.
	Gamma, Mu float64

	// Which data kinds exist on disk for this output.
	HasHydro, HasGravity, HasParticles bool
	HasAMR, HasClumps, HasSinks        bool
}

// MissingInfoError reports that the description file for an output does
// not exist, usually because the output number or base directory is
// wrong.
type MissingInfoError struct {
	Path string
}

func (e *MissingInfoError) Error() string {
	return fmt.Sprintf("no simulation info file at %s", e.Path)
}

func (e *MissingInfoError) Class() goamr.Class { return goamr.Config }

// CorruptInfoError reports that a description file exists but a required
// key is missing or cannot be parsed as the expected type.
type CorruptInfoError struct {
	Path, Key, Reason string
}

func (e *CorruptInfoError) Error() string {
	return fmt.Sprintf("info file %s: key '%s': %s", e.Path, e.Key, e.Reason)
}

func (e *CorruptInfoError) Class() goamr.Class { return goamr.Format }

// ReadInfo parses the description file of the output located by lay and
// probes which data kinds exist for it. The read is pure: nothing on
// disk is touched beyond stat and read calls.
func ReadInfo(lay Layout) (*Info, error) {
	path := lay.InfoPath()
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, &MissingInfoError{path}
	} else if err != nil {
		return nil, err
	}
	defer f.Close()

	kv := map[string]string{}
	scan := bufio.NewScanner(f)
	for scan.Scan() {
		line := strings.TrimSpace(scan.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		eq := strings.Index(line, "=")
		if eq < 0 {
			continue
		}
		key := strings.TrimSpace(line[:eq])
		kv[key] = strings.TrimSpace(line[eq+1:])
	}
	if err := scan.Err(); err != nil {
		return nil, err
	}

	p := &infoParser{path: path, kv: kv}
	info := &Info{
		NCpu:      p.int("ncpu"),
		NDim:      p.int("ndim"),
		LevelMin:  p.int("levelmin"),
		LevelMax:  p.int("levelmax"),
		Boxlen:    p.float("boxlen"),
		Time:      p.float("time"),
		Aexp:      p.float("aexp"),
		H0:        p.float("h0"),
		OmegaM:    p.float("omega_m"),
		OmegaL:    p.float("omega_l"),
		OmegaK:    p.float("omega_k"),
		OmegaB:    p.float("omega_b"),
		UnitL:     p.float("unit_l"),
		UnitD:     p.float("unit_d"),
		UnitT:     p.float("unit_t"),
		NVarHydro: p.int("nvar_hydro"),
		NVarGrav:  p.int("nvar_grav"),
		Gamma:     p.float("gamma"),
		Mu:        p.float("mu"),
	}
	if p.err != nil {
		return nil, p.err
	}

	if info.NCpu < 1 {
		return nil, &CorruptInfoError{path, "ncpu", "must be positive"}
	} else if info.NDim != 2 && info.NDim != 3 {
		return nil, &CorruptInfoError{path, "ndim", "must be 2 or 3"}
	} else if info.LevelMin < 1 || info.LevelMax < info.LevelMin {
		return nil, &CorruptInfoError{
			path, "levelmin", "need 1 <= levelmin <= levelmax",
		}
	}

	info.HasHydro = exists(lay.DataPath(Hydro, 1))
	info.HasGravity = exists(lay.DataPath(Gravity, 1))
	info.HasParticles = exists(lay.DataPath(Particle, 1))
	info.HasAMR = exists(lay.DataPath(AMR, 1))
	info.HasClumps = exists(lay.DataPath(Clump, 1))
	info.HasSinks = exists(lay.DataPath(Sink, 1))

	if dl, ok := lay.(DirLayout); ok {
		info.Out = dl.Out
	}

	return info, nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// infoParser accumulates the first parse failure instead of forcing a
// check after every key.
type infoParser struct {
	path string
	kv   map[string]string
	err  error
}

func (p *infoParser) lookup(key string) (string, bool) {
	s, ok := p.kv[key]
	if !ok && p.err == nil {
		p.err = &CorruptInfoError{p.path, key, "missing required key"}
	}
	return s, ok
}

func (p *infoParser) int(key string) int {
	s, ok := p.lookup(key)
	if !ok {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil && p.err == nil {
		p.err = &CorruptInfoError{
			p.path, key, fmt.Sprintf("'%s' is not an integer", s),
		}
	}
	return n
}

func (p *infoParser) float(key string) float64 {
	s, ok := p.lookup(key)
	if !ok {
		return 0
	}
	x, err := strconv.ParseFloat(s, 64)
	if err != nil && p.err == nil {
		p.err = &CorruptInfoError{
			p.path, key, fmt.Sprintf("'%s' is not a float", s),
		}
	}
	return x
}

// WriteInfo writes a description file for info at the location given by
// lay, creating the output directory if needed. It is the inverse of
// ReadInfo and exists mostly so synthetic outputs can be generated for
// testing.
func WriteInfo(lay Layout, info *Info) error {
	path := lay.InfoPath()
	if err := os.MkdirAll(filepath.Dir(path), 0777); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	fmt.Fprintf(w, "ncpu        = %d\n", info.NCpu)
	fmt.Fprintf(w, "ndim        = %d\n", info.NDim)
	fmt.Fprintf(w, "levelmin    = %d\n", info.LevelMin)
	fmt.Fprintf(w, "levelmax    = %d\n", info.LevelMax)
	fmt.Fprintf(w, "nvar_hydro  = %d\n", info.NVarHydro)
	fmt.Fprintf(w, "nvar_grav   = %d\n", info.NVarGrav)
	fmt.Fprintf(w, "boxlen      = %.17g\n", info.Boxlen)
	fmt.Fprintf(w, "time        = %.17g\n", info.Time)
	fmt.Fprintf(w, "aexp        = %.17g\n", info.Aexp)
	fmt.Fprintf(w, "h0          = %.17g\n", info.H0)
	fmt.Fprintf(w, "omega_m     = %.17g\n", info.OmegaM)
	fmt.Fprintf(w, "omega_l     = %.17g\n", info.OmegaL)
	fmt.Fprintf(w, "omega_k     = %.17g\n", info.OmegaK)
	fmt.Fprintf(w, "omega_b     = %.17g\n", info.OmegaB)
	fmt.Fprintf(w, "unit_l      = %.17g\n", info.UnitL)
	fmt.Fprintf(w, "unit_d      = %.17g\n", info.UnitD)
	fmt.Fprintf(w, "unit_t      = %.17g\n", info.UnitT)
	fmt.Fprintf(w, "gamma       = %.17g\n", info.Gamma)
	fmt.Fprintf(w, "mu          = %.17g\n", info.Mu)
	return w.Flush()
}
