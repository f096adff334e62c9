package sim

import (
	"fmt"
	"path/filepath"
)

// Kind enumerates the data kinds a single output can contain.
type Kind int

const (
	Hydro Kind = iota
	Gravity
	Particle
	AMR
	Clump
	Sink
)

func (k Kind) String() string {
	switch k {
	case Hydro:
		return "hydro"
	case Gravity:
		return "grav"
	case Particle:
		return "part"
	case AMR:
		return "amr"
	case Clump:
		return "clump"
	case Sink:
		return "sink"
	}
	return "unknown"
}

// Layout maps an output to the files it is made of. The simulation code
// writes one file per process per kind, so DataPath takes a one-based
// process number. Sink catalogs are the exception: they are written by
// process one only, and DataPath ignores proc for them.
type Layout interface {
	InfoPath() string
	DataPath(kind Kind, proc int) string
}

// DirLayout is the standard on-disk layout: output n lives in
// <Base>/output_%05d, and every file name embeds the same five digit
// output number.
type DirLayout struct {
	Base string
	Out  int
}

func (lay DirLayout) dir() string {
	return filepath.Join(lay.Base, fmt.Sprintf("output_%05d", lay.Out))
}

func (lay DirLayout) InfoPath() string {
	return filepath.Join(lay.dir(), fmt.Sprintf("info_%05d.txt", lay.Out))
}

func (lay DirLayout) DataPath(kind Kind, proc int) string {
	switch kind {
	case Clump:
		return filepath.Join(lay.dir(),
			fmt.Sprintf("clump_%05d.txt.%05d", lay.Out, proc))
	case Sink:
		return filepath.Join(lay.dir(), fmt.Sprintf("sink_%05d.csv", lay.Out))
	}
	return filepath.Join(lay.dir(),
		fmt.Sprintf("%s_%05d.out.%05d", kind, lay.Out, proc))
}
