package snapio

import (
	"fmt"

	"github.com/phil-mansfield/goamr"
)

// MissingFileError reports a per-process data file that should exist for
// an output but doesn't.
type MissingFileError struct {
	Path string
}

func (e *MissingFileError) Error() string {
	return fmt.Sprintf("missing domain file %s", e.Path)
}

func (e *MissingFileError) Class() goamr.Class { return goamr.Config }

// CorruptFileError reports a domain file whose structure is internally
// inconsistent: a bad endianness flag, a header size mismatch, or level
// blocks out of order.
type CorruptFileError struct {
	Path, Reason string
}

func (e *CorruptFileError) Error() string {
	return fmt.Sprintf("corrupt domain file %s: %s", e.Path, e.Reason)
}

func (e *CorruptFileError) Class() goamr.Class { return goamr.Format }

// TruncatedFileError reports a domain file whose declared record counts
// don't match its actual length.
type TruncatedFileError struct {
	Path string
	Err  error
}

func (e *TruncatedFileError) Error() string {
	return fmt.Sprintf("truncated domain file %s: %v", e.Path, e.Err)
}

func (e *TruncatedFileError) Unwrap() error { return e.Err }

func (e *TruncatedFileError) Class() goamr.Class { return goamr.Format }

// VariableCountError reports a domain file whose variable layout
// disagrees with the output's metadata.
type VariableCountError struct {
	Path       string
	File, Info int
}

func (e *VariableCountError) Error() string {
	return fmt.Sprintf("domain file %s holds %d variables, but the info "+
		"file declares %d", e.Path, e.File, e.Info)
}

func (e *VariableCountError) Class() goamr.Class { return goamr.Format }

// SchemaMismatchError reports two processes of the same output that
// disagree about the variable set. A consistent output can never do
// this, so seeing it means the output is damaged.
type SchemaMismatchError struct {
	ProcA, ProcB int
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("processes %d and %d report different variable sets",
		e.ProcA, e.ProcB)
}

func (e *SchemaMismatchError) Class() goamr.Class { return goamr.Format }
