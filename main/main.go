package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand"
	"os"
	"runtime"
	"strings"

	"gopkg.in/gcfg.v1"

	"github.com/phil-mansfield/goamr/geom"
	"github.com/phil-mansfield/goamr/project"
	"github.com/phil-mansfield/goamr/sim"
	"github.com/phil-mansfield/goamr/snapio"
	"github.com/phil-mansfield/goamr/store"
	"github.com/phil-mansfield/goamr/units"
)

var numThreads int

func main() {
	// The main function manages input sanitization and calls the
	// secondary main functions for each mode.

	var infoStr, projectStr, makeTestStr, exampleConfig string
	modes := map[string]*string{
		"Info":          &infoStr,
		"Project":       &projectStr,
		"MakeTest":      &makeTestStr,
		"ExampleConfig": &exampleConfig,
	}

	flag.IntVar(
		&numThreads, "Threads", runtime.NumCPU(),
		"Number of threads used. Default is the number of logical cores.",
	)
	flag.StringVar(
		&infoStr, "Info", "",
		"Configuration file for [Info] mode.",
	)
	flag.StringVar(
		&projectStr, "Project", "",
		"Configuration file for [Project] mode.",
	)
	flag.StringVar(
		&makeTestStr, "MakeTest", "",
		"Configuration file for [MakeTest] mode.",
	)
	flag.StringVar(
		&exampleConfig, "ExampleConfig", "",
		"Prints an example configuration file of the specified type to "+
			"stdout. Accepted arguments are 'Info', 'Project', and "+
			"'MakeTest'.",
	)

	flag.Parse()

	modeName, err := getModeName(modes)
	if err != nil {
		log.Fatal(err.Error())
	}

	switch modeName {
	case "Info":
		wrap := DefaultInfoWrapper()
		if err := gcfg.ReadFileInto(wrap, infoStr); err != nil {
			log.Fatal(err.Error())
		}
		con := &wrap.Info

		if !con.ValidInput() {
			log.Fatal("Invalid/non-existent 'Input' value.")
		} else if !con.ValidOutput() {
			log.Fatal("Invalid/non-existent 'Output' value.")
		}

		setupLog(con.LogFile)
		infoMain(con)

	case "Project":
		wrap := DefaultProjectWrapper()
		if err := gcfg.ReadFileInto(wrap, projectStr); err != nil {
			log.Fatal(err.Error())
		}
		con := &wrap.Project

		if !con.ValidInput() {
			log.Fatal("Invalid/non-existent 'Input' value.")
		} else if !con.ValidOutput() {
			log.Fatal("Invalid/non-existent 'Output' value.")
		} else if !con.ValidFile() {
			log.Fatal("Invalid/non-existent 'File' value.")
		} else if !con.ValidVariables() {
			log.Fatal("Invalid/non-existent 'Variables' value.")
		} else if !con.ValidResolution() {
			log.Fatal("Invalid/non-existent 'Resolution' value.")
		} else if !con.ValidMode() {
			log.Fatal("Invalid 'Mode' value: must be 'sum' or 'mean'.")
		}

		setupLog(con.LogFile)
		projectMain(con)

	case "MakeTest":
		wrap := DefaultMakeTestWrapper()
		if err := gcfg.ReadFileInto(wrap, makeTestStr); err != nil {
			log.Fatal(err.Error())
		}
		con := &wrap.MakeTest

		if !con.ValidInput() {
			log.Fatal("Invalid/non-existent 'Input' value.")
		} else if !con.ValidOutput() {
			log.Fatal("Invalid/non-existent 'Output' value.")
		} else if !con.ValidNCpu() {
			log.Fatal("Invalid 'NCpu' value.")
		} else if !con.ValidLevel() {
			log.Fatal("Invalid 'Level' value.")
		}

		setupLog(con.LogFile)
		makeTestMain(con)

	case "ExampleConfig":
		switch exampleConfig {
		case "Info":
			fmt.Println(ExampleInfoFile)
		case "Project":
			fmt.Println(ExampleProjectFile)
		case "MakeTest":
			fmt.Println(ExampleMakeTestFile)
		default:
			log.Fatal(
				"Unrecognized 'ExampleConfig' argument. Only recognized " +
					"arguments are 'Info', 'Project', and 'MakeTest'.",
			)
		}
	default:
		panic("Impossible")
	}
}

// getModeName returns the name of the mode and fails with a descriptive
// error if the user provided less or more than one mode flag.
func getModeName(modes map[string]*string) (string, error) {
	setNames := []string{}
	for name, varPtr := range modes {
		if *varPtr != "" {
			setNames = append(setNames, name)
		}
	}

	if len(setNames) == 0 {
		return "", fmt.Errorf("No flags have been set.")
	}
	if len(setNames) > 1 {
		return "", fmt.Errorf(
			"The following flags were set: %s, but goamr only accepts "+
				"one flag at a time.",
			strings.Join(setNames, ", "),
		)
	}
	return setNames[0], nil
}

func setupLog(file string) {
	if file == "" {
		return
	}
	f, err := os.Create(file)
	if err != nil {
		log.Fatal(err.Error())
	}
	log.SetOutput(f)
}

// infoMain prints a summary of one output to stdout.
func infoMain(con *InfoConfig) {
	lay := sim.DirLayout{Base: con.Input, Out: con.Output}

	info, err := sim.ReadInfo(lay)
	if err != nil {
		log.Fatal(err.Error())
	}
	scales := units.Derive(info)

	fmt.Printf("Output %d in %s\n", con.Output, con.Input)
	fmt.Printf("  ncpu = %d, ndim = %d, levels = [%d, %d]\n",
		info.NCpu, info.NDim, info.LevelMin, info.LevelMax)
	fmt.Printf("  boxlen = %g, time = %g, aexp = %g\n",
		info.Boxlen, info.Time, info.Aexp)
	fmt.Printf("  h0 = %g, omega_m = %g, omega_l = %g, omega_b = %g\n",
		info.H0, info.OmegaM, info.OmegaL, info.OmegaB)
	fmt.Printf("  unit_l = %g cm, unit_d = %g g/cm^3, unit_t = %g s\n",
		info.UnitL, info.UnitD, info.UnitT)
	fmt.Printf("  1 code length = %g kpc, 1 code time = %g Myr, "+
		"1 code mass = %g Msun\n", scales.Kpc, scales.Myr, scales.Msun)

	kinds := []struct {
		name string
		has  bool
	}{
		{"hydro", info.HasHydro}, {"gravity", info.HasGravity},
		{"particles", info.HasParticles}, {"amr", info.HasAMR},
		{"clumps", info.HasClumps}, {"sinks", info.HasSinks},
	}
	present := []string{}
	for _, k := range kinds {
		if k.has {
			present = append(present, k.name)
		}
	}
	fmt.Printf("  contains: %s\n", strings.Join(present, ", "))
}

// projectMain loads one output, projects the requested quantities, and
// writes the maps.
func projectMain(con *ProjectConfig) {
	lay := sim.DirLayout{Base: con.Input, Out: con.Output}

	info, err := sim.ReadInfo(lay)
	if err != nil {
		log.Fatal(err.Error())
	}
	scales := units.Derive(info)

	opt := snapio.LoadOptions{
		Workers:  numThreads,
		Progress: sim.LogProgress{},
	}
	opt.MinLevel, opt.MaxLevel = con.MinLevel, con.MaxLevel
	if window := configWindow(con, info); window != nil {
		opt.Region = window
	}

	t, err := snapio.LoadHydro(lay, info, opt)
	if err != nil {
		log.Fatal(err.Error())
	}
	log.Printf("Loaded %d leaf cells from %d processes.", t.N, info.NCpu)

	dir, err := project.ParseAxis(con.Direction)
	if err != nil {
		log.Fatal(err.Error())
	}
	mode := project.Sum
	if con.Mode == "mean" {
		mode = project.Mean
	}

	names := splitList(con.Variables)
	unitNames := splitList(con.Units)

	result, err := project.Project(t, scales, names, unitNames,
		project.Options{
			Direction:  dir,
			Resolution: con.Resolution,
			Mode:       mode,
			Window:     configWindow(con, info),
			Workers:    numThreads,
			Progress:   sim.LogProgress{},
		},
	)
	if err != nil {
		log.Fatal(err.Error())
	}

	log.Printf("Writing maps to %s", con.File)
	if err := store.WriteMaps(con.File, result); err != nil {
		log.Fatal(err.Error())
	}
}

// configWindow converts the config bounds into a selection box, or nil
// if every bound was left at its default.
func configWindow(con *ProjectConfig, info *sim.Info) *geom.Box {
	zero := con.XMin == 0 && con.XMax == 0 &&
		con.YMin == 0 && con.YMax == 0 &&
		con.ZMin == 0 && con.ZMax == 0
	if zero {
		return nil
	}

	b := geom.NewBox(
		con.XMin, orDefault(con.XMax, info.Boxlen),
		con.YMin, orDefault(con.YMax, info.Boxlen),
		con.ZMin, orDefault(con.ZMax, info.Boxlen),
	)
	return &b
}

func orDefault(x, def float64) float64 {
	if x == 0 {
		return def
	}
	return x
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := []string{}
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// makeTestMain writes a synthetic output: a centered gaussian density
// blob on a uniform grid at one level, plus a random particle set.
func makeTestMain(con *MakeTestConfig) {
	info := &sim.Info{
		Out:       con.Output,
		NCpu:      con.NCpu,
		NDim:      3,
		LevelMin:  1,
		LevelMax:  con.Level,
		Boxlen:    1.0,
		Time:      0.1,
		Aexp:      1.0,
		H0:        67.7,
		OmegaM:    0.31,
		OmegaL:    0.69,
		UnitL:     3.085677581282e21,
		UnitD:     6.77e-23,
		UnitT:     4.7e14,
		NVarHydro: 5,
		NVarGrav:  4,
		Gamma:     5.0 / 3.0,
		Mu:        0.6,
	}

	lay := sim.DirLayout{Base: con.Input, Out: con.Output}
	if err := sim.WriteInfo(lay, info); err != nil {
		log.Fatal(err.Error())
	}

	side := 1 << uint(con.Level)
	cs := info.Boxlen / float64(side)

	domains := make([]*snapio.Domain, con.NCpu)
	for proc := 1; proc <= con.NCpu; proc++ {
		domains[proc-1] = &snapio.Domain{
			Process: proc,
			Cols:    map[string][]float64{},
		}
	}

	// Deal cells out round-robin so every process holds a slice of the
	// box.
	i := 0
	for ix := 0; ix < side; ix++ {
		for iy := 0; iy < side; iy++ {
			for iz := 0; iz < side; iz++ {
				d := domains[i%con.NCpu]
				i++

				x := (float64(ix) + 0.5) * cs
				y := (float64(iy) + 0.5) * cs
				z := (float64(iz) + 0.5) * cs
				dr2 := sq(x-0.5) + sq(y-0.5) + sq(z-0.5)
				rho := 1 + 100*math.Exp(-dr2/(2*sq(0.1)))

				d.Level = append(d.Level, int32(con.Level))
				d.Ix = append(d.Ix, int32(ix))
				d.Iy = append(d.Iy, int32(iy))
				d.Iz = append(d.Iz, int32(iz))
				d.Cols["rho"] = append(d.Cols["rho"], rho)
				d.Cols["vx"] = append(d.Cols["vx"], 0)
				d.Cols["vy"] = append(d.Cols["vy"], 0)
				d.Cols["vz"] = append(d.Cols["vz"], 0)
				d.Cols["p"] = append(d.Cols["p"], rho/10)
				d.N++
			}
		}
	}

	for _, d := range domains {
		if err := snapio.WriteHydro(lay, info, d); err != nil {
			log.Fatal(err.Error())
		}
	}

	// Particles: uniform random positions, equal masses.
	gen := rand.New(rand.NewSource(0))
	perProc := con.Particles / con.NCpu
	id := int64(1)
	for proc := 1; proc <= con.NCpu; proc++ {
		n := perProc
		if proc == con.NCpu {
			n = con.Particles - perProc*(con.NCpu-1)
		}
		d := &snapio.Domain{
			Process: proc,
			Cols:    map[string][]float64{},
			N:       n,
		}
		for _, name := range snapio.PartVarNames(8) {
			d.Cols[name] = make([]float64, n)
		}
		for i := 0; i < n; i++ {
			d.Cols["x"][i] = gen.Float64()
			d.Cols["y"][i] = gen.Float64()
			d.Cols["z"][i] = gen.Float64()
			d.Cols["mass"][i] = 1 / float64(con.Particles)
			d.ID = append(d.ID, id)
			id++
		}
		if err := snapio.WriteParticles(lay, info, d); err != nil {
			log.Fatal(err.Error())
		}
	}

	log.Printf("Wrote synthetic output %d to %s: %d cells at level %d, "+
		"%d particles across %d processes.",
		con.Output, con.Input, i, con.Level, con.Particles, con.NCpu)
}

func sq(x float64) float64 { return x * x }
