// Package errors defines all exported error sentinels for the lshsig library.
//
// This is the single source of truth for error values. Both the top-level
// lshsig package and internal packages import from here, ensuring errors.Is
// checks work across package boundaries. Call sites wrap these sentinels with
// the offending parameter and value.
package errors

import "errors"

// Parameter errors. These abort the whole call before any row is processed.
var (
	ErrInvalidParameter     = errors.New("lshsig: invalid parameter")
	ErrNonConstantParameter = errors.New("lshsig: parameter must be constant, not vary per row")
	ErrDimensionMismatch    = errors.New("lshsig: input vectors have inconsistent dimensions")
	ErrNonFiniteValue       = errors.New("lshsig: input vector contains NaN or Inf")
)

// Table errors
var (
	ErrInvalidMagic   = errors.New("lshsig: invalid magic number")
	ErrInvalidVersion = errors.New("lshsig: unsupported version")
	ErrChecksumFailed = errors.New("lshsig: table checksum verification failed")
	ErrTruncatedFile  = errors.New("lshsig: table file is truncated")
	ErrCorruptedTable = errors.New("lshsig: table data is corrupted")
	ErrWidthMismatch  = errors.New("lshsig: signature width does not match table")
	ErrRowOutOfRange  = errors.New("lshsig: row index out of range")
	ErrTableClosed    = errors.New("lshsig: table is closed")
	ErrWriterClosed   = errors.New("lshsig: table writer is closed")
)
