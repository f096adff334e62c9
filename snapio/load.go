package snapio

import (
	"runtime"
	"sync"

	"github.com/phil-mansfield/goamr/sim"
	"github.com/phil-mansfield/goamr/table"
)

// LoadOptions controls a full multi-process load.
type LoadOptions struct {
	Options

	// Workers is the number of files decoded concurrently. Zero or
	// negative means one worker per logical core.
	Workers int

	// Progress receives one event per decoded file. Nil discards them.
	Progress sim.Progress
}

// LoadHydro reads every process's hydro file in parallel and merges the
// results into one table. Any single read failure aborts the load and
// the first error (in process order) is returned.
func LoadHydro(
	lay sim.Layout, info *sim.Info, opt LoadOptions,
) (*table.Table, error) {
	domains, err := loadDomains(lay, info, opt, "hydro", ReadHydro)
	if err != nil {
		return nil, err
	}
	return Merge(domains, table.Hydro, info)
}

// LoadGravity reads every process's gravity file in parallel and merges
// the results into one table.
func LoadGravity(
	lay sim.Layout, info *sim.Info, opt LoadOptions,
) (*table.Table, error) {
	domains, err := loadDomains(lay, info, opt, "gravity", ReadGravity)
	if err != nil {
		return nil, err
	}
	return Merge(domains, table.Gravity, info)
}

// LoadParticles reads every process's particle file in parallel and
// merges the results into one table.
func LoadParticles(
	lay sim.Layout, info *sim.Info, opt LoadOptions,
) (*table.Table, error) {
	domains, err := loadDomains(lay, info, opt, "particles", ReadParticles)
	if err != nil {
		return nil, err
	}
	return Merge(domains, table.Particle, info)
}

type readFunc func(sim.Layout, *sim.Info, int, Options) (*Domain, error)

// loadDomains fans the per-process reads out over a worker pool. Reads
// share nothing, so the only synchronization is the join at the end.
func loadDomains(
	lay sim.Layout, info *sim.Info, opt LoadOptions,
	stage string, read readFunc,
) ([]*Domain, error) {
	workers := opt.Workers
	if workers < 1 {
		workers = runtime.NumCPU()
	}
	if workers > info.NCpu {
		workers = info.NCpu
	}
	progress := opt.Progress
	if progress == nil {
		progress = sim.NullProgress()
	}

	domains := make([]*Domain, info.NCpu)
	errs := make([]error, info.NCpu)

	jobs := make(chan int, info.NCpu)
	for proc := 1; proc <= info.NCpu; proc++ {
		jobs <- proc
	}
	close(jobs)

	var done sync.WaitGroup
	var counted sync.Mutex
	finished := 0

	done.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer done.Done()
			for proc := range jobs {
				domains[proc-1], errs[proc-1] = read(lay, info, proc, opt.Options)

				counted.Lock()
				finished++
				progress.Step(stage, finished, info.NCpu)
				counted.Unlock()
			}
		}()
	}
	done.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return domains, nil
}

// Merge concatenates per-process domains into one table. Processes
// contributing zero rows are skipped, but a process whose variable set
// disagrees with the others is an error, never silently dropped.
func Merge(domains []*Domain, kind table.Kind, info *sim.Info) (*table.Table, error) {
	var first *Domain
	for _, d := range domains {
		if d == nil {
			continue
		}
		if first == nil {
			first = d
			continue
		}
		if !sameNames(first.Names, d.Names) {
			return nil, &SchemaMismatchError{first.Process, d.Process}
		}
	}

	if first == nil {
		return table.New(kind, info, nil), nil
	}

	t := table.New(kind, info, first.Names)
	n := 0
	for _, d := range domains {
		if d != nil {
			n += d.N
		}
	}
	t.N = n

	if kind.IsCellKind() {
		t.Level = make([]int32, 0, n)
		t.Ix = make([]int32, 0, n)
		t.Iy = make([]int32, 0, n)
		if info.NDim == 3 {
			t.Iz = make([]int32, 0, n)
		}
	}

	cols := map[string][]float64{}
	for _, name := range first.Names {
		cols[name] = make([]float64, 0, n)
	}
	var ids []int64

	for _, d := range domains {
		if d == nil || d.N == 0 {
			continue
		}
		if kind.IsCellKind() {
			t.Level = append(t.Level, d.Level...)
			t.Ix = append(t.Ix, d.Ix...)
			t.Iy = append(t.Iy, d.Iy...)
			if info.NDim == 3 {
				t.Iz = append(t.Iz, d.Iz...)
			}
		}
		if d.ID != nil {
			ids = append(ids, d.ID...)
		}
		for _, name := range first.Names {
			cols[name] = append(cols[name], d.Cols[name]...)
		}
	}

	t.ID = ids
	for _, name := range first.Names {
		t.SetCol(name, cols[name])
	}
	t.N = n

	return t, nil
}

func sameNames(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
