/*package snapio decodes the binary domain files written by the
simulation code, one file per process per data kind, and merges them
into a single table.

The binary format is shared by every cell-structured kind:

	|-- 1 --||-- 2 --||-- ... 3 ... --||-- ...... 4 ...... --|

	1 - (int32) Endianness flag. 0 indicates little endian byte
	    ordering and -1 indicates big endian byte ordering.
	2 - (int32) Size of the header struct. Checked for consistency.
	3 - (CellHeader) Meta-information about the domain.
	4 - One block per level from LevelMin through LevelMax. A block is
	    an int32 level tag, an int32 cell count, the per-axis integer
	    cell indices ([]int32, one slice per dimension), and one
	    []float64 slice per variable in the fixed variable order.

Particle files replace part 3 with a PartHeader and part 4 with flat
column blocks holding one record per particle, positions first, then an
[]int64 ID block. Files of any endianness can be read; writes default
to little endian.
*/
package snapio

import (
	"encoding/binary"
	"fmt"
	"io"
)

const (
	// Endianness used by default when writing domain files.
	DefaultEndiannessFlag int32 = 0
)

// CellHeader is the header of a hydro or gravity domain file.
type CellHeader struct {
	Process, NVar, NDim int32
	LevelMin, LevelMax  int32
	Boxlen              float64
}

// PartHeader is the header of a particle domain file.
type PartHeader struct {
	Process, NVar, NDim int32
	Count               int64
}

// HydroVarNames returns the fixed on-disk variable order of a hydro
// file with nvar variables: density, momentum components, pressure,
// then passive scalars.
func HydroVarNames(nvar int) []string {
	base := []string{"rho", "vx", "vy", "vz", "p"}
	if nvar <= len(base) {
		return base[:nvar]
	}
	names := append([]string{}, base...)
	for i := len(base); i < nvar; i++ {
		names = append(names, fmt.Sprintf("scalar_%02d", i-len(base)+1))
	}
	return names
}

// GravVarNames returns the fixed on-disk variable order of a gravity
// file: potential, then acceleration components.
func GravVarNames(nvar int) []string {
	base := []string{"epot", "ax", "ay", "az"}
	if nvar <= len(base) {
		return base[:nvar]
	}
	names := append([]string{}, base...)
	for i := len(base); i < nvar; i++ {
		names = append(names, fmt.Sprintf("gvar_%02d", i-len(base)+1))
	}
	return names
}

// PartVarNames returns the fixed on-disk column order of a particle
// file. The trailing ID block is not a named variable: it is always
// present and always read.
func PartVarNames(nvar int) []string {
	base := []string{"x", "y", "z", "vx", "vy", "vz", "mass", "birth"}
	if nvar <= len(base) {
		return base[:nvar]
	}
	names := append([]string{}, base...)
	for i := len(base); i < nvar; i++ {
		names = append(names, fmt.Sprintf("pvar_%02d", i-len(base)+1))
	}
	return names
}

// endianness converts an endianness flag into a byte order.
func endianness(flag int32) (binary.ByteOrder, bool) {
	switch flag {
	case 0:
		return binary.LittleEndian, true
	case -1:
		return binary.BigEndian, true
	}
	return nil, false
}

// readInt32 returns a single 32-bit integer from the given reader using
// the given endianness.
func readInt32(r io.Reader, order binary.ByteOrder) (int32, error) {
	var n int32
	err := binary.Read(r, order, &n)
	return n, err
}
