package snapio

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/phil-mansfield/goamr/geom"
	"github.com/phil-mansfield/goamr/sim"
)

// Domain holds the raw arrays decoded from one process's file before
// merging. Cell kinds fill Level and the index slices; particle kinds
// fill ID instead.
type Domain struct {
	Process int
	Names   []string

	Level, Ix, Iy, Iz []int32
	ID                []int64
	Cols              map[string][]float64

	N int
}

// Options controls what a domain read decodes. The level and region
// restrictions are pre-filters which bound memory during loading; exact
// selection is the spatial filter's job.
type Options struct {
	// Vars restricts the variables decoded; nil means all of them.
	// Blocks of unrequested variables are seeked past, not decoded.
	Vars []string

	// Inclusive level range. Zero values leave that side unbounded.
	MinLevel, MaxLevel int

	// Region drops cells whose centers fall outside the box. Nil keeps
	// everything.
	Region *geom.Box
}

func (opt *Options) wantLevel(level int) bool {
	if opt.MinLevel > 0 && level < opt.MinLevel {
		return false
	}
	if opt.MaxLevel > 0 && level > opt.MaxLevel {
		return false
	}
	return true
}

func (opt *Options) wantVar(name string) bool {
	if opt.Vars == nil {
		return true
	}
	for _, v := range opt.Vars {
		if v == name {
			return true
		}
	}
	return false
}

// ReadHydro decodes one process's hydro file.
func ReadHydro(
	lay sim.Layout, info *sim.Info, proc int, opt Options,
) (*Domain, error) {
	return readCellDomain(
		lay.DataPath(sim.Hydro, proc), proc, opt,
		info.NVarHydro, HydroVarNames,
	)
}

// ReadGravity decodes one process's gravity file.
func ReadGravity(
	lay sim.Layout, info *sim.Info, proc int, opt Options,
) (*Domain, error) {
	return readCellDomain(
		lay.DataPath(sim.Gravity, proc), proc, opt,
		info.NVarGrav, GravVarNames,
	)
}

// cellFile wraps the open file with the bookkeeping shared by every
// block read: byte order, current offset, and total size, so that seeks
// past unrequested blocks can still detect truncation.
type cellFile struct {
	f     *os.File
	path  string
	order binary.ByteOrder
	pos   int64
	size  int64
}

func openDomain(path string) (*cellFile, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, &MissingFileError{path}
	} else if err != nil {
		return nil, err
	}

	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}

	// The flag is symmetric, so the order of this read doesn't matter.
	flag, err := readInt32(f, binary.LittleEndian)
	if err != nil {
		f.Close()
		return nil, &TruncatedFileError{path, err}
	}
	order, ok := endianness(flag)
	if !ok {
		f.Close()
		return nil, &CorruptFileError{
			path, fmt.Sprintf("unrecognized endianness flag %d", flag),
		}
	}

	return &cellFile{f: f, path: path, order: order, pos: 4, size: fi.Size()}, nil
}

func (cf *cellFile) close() { cf.f.Close() }

func (cf *cellFile) read(data interface{}) error {
	if err := binary.Read(cf.f, cf.order, data); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return &TruncatedFileError{cf.path, err}
		}
		return err
	}
	cf.pos += int64(binary.Size(data))
	return nil
}

func (cf *cellFile) skip(n int64) error {
	if cf.pos+n > cf.size {
		return &TruncatedFileError{
			cf.path, fmt.Errorf("%d declared bytes past end of file",
				cf.pos+n-cf.size),
		}
	}
	if _, err := cf.f.Seek(n, io.SeekCurrent); err != nil {
		return err
	}
	cf.pos += n
	return nil
}

// checkHeaderSize reads the header-size field and compares it against
// the in-memory header struct.
func (cf *cellFile) checkHeaderSize(hd interface{}) error {
	declared, err := readInt32(cf.f, cf.order)
	if err != nil {
		return &TruncatedFileError{cf.path, err}
	}
	cf.pos += 4
	if int(declared) != binary.Size(hd) {
		return &CorruptFileError{cf.path, fmt.Sprintf(
			"expected header size of %d, found %d",
			binary.Size(hd), declared,
		)}
	}
	return nil
}

func readCellDomain(
	path string, proc int, opt Options,
	infoNVar int, varNames func(int) []string,
) (*Domain, error) {
	cf, err := openDomain(path)
	if err != nil {
		return nil, err
	}
	defer cf.close()

	hd := &CellHeader{}
	if err := cf.checkHeaderSize(hd); err != nil {
		return nil, err
	}
	if err := cf.read(hd); err != nil {
		return nil, err
	}
	if int(hd.NVar) != infoNVar {
		return nil, &VariableCountError{path, int(hd.NVar), infoNVar}
	}

	all := varNames(int(hd.NVar))
	d := &Domain{Process: proc, Cols: map[string][]float64{}}
	for _, name := range all {
		if opt.wantVar(name) {
			d.Names = append(d.Names, name)
		}
	}

	ndim := int(hd.NDim)
	for lev := hd.LevelMin; lev <= hd.LevelMax; lev++ {
		tag, err := readInt32(cf.f, cf.order)
		if err != nil {
			return nil, &TruncatedFileError{path, err}
		}
		cf.pos += 4
		if tag != lev {
			return nil, &CorruptFileError{path, fmt.Sprintf(
				"expected level block %d, found %d", lev, tag,
			)}
		}

		ncell32, err := readInt32(cf.f, cf.order)
		if err != nil {
			return nil, &TruncatedFileError{path, err}
		}
		cf.pos += 4
		ncell := int(ncell32)
		if ncell < 0 {
			return nil, &CorruptFileError{path, fmt.Sprintf(
				"negative cell count %d at level %d", ncell, lev,
			)}
		}
		if ncell == 0 {
			continue
		}

		blockBytes := int64(ncell) * int64(ndim*4+int(hd.NVar)*8)
		if !opt.wantLevel(int(lev)) {
			if err := cf.skip(blockBytes); err != nil {
				return nil, err
			}
			continue
		}

		idx := make([][]int32, ndim)
		for i := 0; i < ndim; i++ {
			idx[i] = make([]int32, ncell)
			if err := cf.read(idx[i]); err != nil {
				return nil, err
			}
		}

		keep := keepMask(idx, int(lev), hd.Boxlen, opt.Region)

		buf := make([]float64, ncell)
		for _, name := range all {
			if !opt.wantVar(name) {
				if err := cf.skip(int64(ncell) * 8); err != nil {
					return nil, err
				}
				continue
			}
			if err := cf.read(buf); err != nil {
				return nil, err
			}
			col := d.Cols[name]
			for i, v := range buf {
				if keep == nil || keep[i] {
					col = append(col, v)
				}
			}
			d.Cols[name] = col
		}

		for i := 0; i < ncell; i++ {
			if keep != nil && !keep[i] {
				continue
			}
			d.Level = append(d.Level, lev)
			d.Ix = append(d.Ix, idx[0][i])
			d.Iy = append(d.Iy, idx[1][i])
			if ndim == 3 {
				d.Iz = append(d.Iz, idx[2][i])
			}
			d.N++
		}
	}

	if cf.pos != cf.size {
		return nil, &TruncatedFileError{path, fmt.Errorf(
			"%d trailing bytes after last declared block", cf.size-cf.pos,
		)}
	}

	return d, nil
}

// keepMask marks the cells at one level whose centers fall inside the
// region. A nil mask means every cell is kept.
func keepMask(idx [][]int32, level int, boxlen float64, region *geom.Box) []bool {
	if region == nil {
		return nil
	}
	cs := boxlen / float64(int64(1)<<uint(level))
	keep := make([]bool, len(idx[0]))
	for i := range keep {
		v := geom.Vec{
			(float64(idx[0][i]) + 0.5) * cs,
			(float64(idx[1][i]) + 0.5) * cs,
		}
		if len(idx) == 3 {
			v[2] = (float64(idx[2][i]) + 0.5) * cs
		}
		keep[i] = region.Contains(&v)
	}
	return keep
}
