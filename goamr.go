/*package goamr reads the output of adaptive mesh refinement simulations
into in-memory tables which can be filtered spatially, queried for derived
physical quantities, and projected onto 2D pixel grids.

The important packages are sim, which reads simulation metadata, snapio,
which decodes the per-process binary domain files, units, which converts
between code units and physical units, vars, which computes named physical
quantities, and project, which renders quantities onto pixel grids.
*/
package goamr

import (
	"errors"
)

// Class groups the failure modes of the toolkit into the categories that
// callers actually branch on. Config errors mean the requested output
// doesn't exist, Format errors mean a file on disk is corrupt or
// inconsistent, and Query errors mean a caller asked for something the
// loaded data can't answer. Empty results are never errors.
type Class int

const (
	Config Class = iota
	Format
	Query
)

func (c Class) String() string {
	switch c {
	case Config:
		return "config"
	case Format:
		return "format"
	case Query:
		return "query"
	}
	return "unknown"
}

type classed interface {
	Class() Class
}

// ClassOf returns the error class of err or of any error it wraps. The
// second return value is false if no error in the chain carries a class.
func ClassOf(err error) (Class, bool) {
	var c classed
	if errors.As(err, &c) {
		return c.Class(), true
	}
	return 0, false
}
