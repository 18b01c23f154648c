package lshsig

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"os"

	"github.com/cespare/xxhash/v2"

	lsherrors "github.com/tamirms/lshsig/errors"
)

// TableWriter streams signatures into a table file.
// File layout: [Header 64B][Rows N×BandCount×Bits/8][Validity bitmap ⌈N/8⌉B][Footer 16B]
//
// Rows are appended in order; the row count and header are written by
// Finish. A TableWriter is not safe for concurrent use.
type TableWriter struct {
	path string
	file *os.File
	buf  *bufio.Writer

	spec     TableSpec
	rowSize  int
	rows     uint64
	validity []byte // Bit i set when row i is non-NULL
	scratch  []byte

	// Streaming hash of the body, computed while rows are hot in cache
	bodyHasher *xxhash.Digest

	finished bool
	closed   bool
}

// CreateTable creates (or truncates) path and returns a writer for
// signatures described by spec.
func CreateTable(path string, spec TableSpec) (*TableWriter, error) {
	if err := spec.validate(); err != nil {
		return nil, err
	}

	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create table file: %w", err)
	}

	w := &TableWriter{
		path:       path,
		file:       file,
		buf:        bufio.NewWriterSize(file, 1<<16),
		spec:       spec,
		rowSize:    spec.rowSize(),
		scratch:    make([]byte, spec.rowSize()),
		bodyHasher: xxhash.New(),
	}

	// Reserve the header; Finish overwrites it once the row count is known.
	var placeholder [tableHeaderSize]byte
	if _, err := w.buf.Write(placeholder[:]); err != nil {
		return nil, errors.Join(fmt.Errorf("write table header: %w", err), w.abort())
	}
	return w, nil
}

// Append64 appends one 64-bit signature. A nil sig is stored as NULL.
func (w *TableWriter) Append64(sig []uint64) error {
	if err := w.checkAppend(64, sig == nil, len(sig)); err != nil {
		return err
	}
	if sig != nil {
		for i, v := range sig {
			binary.LittleEndian.PutUint64(w.scratch[i*8:], v)
		}
	}
	return w.appendRow(sig != nil)
}

// Append32 appends one 32-bit signature. A nil sig is stored as NULL.
func (w *TableWriter) Append32(sig []uint32) error {
	if err := w.checkAppend(32, sig == nil, len(sig)); err != nil {
		return err
	}
	if sig != nil {
		for i, v := range sig {
			binary.LittleEndian.PutUint32(w.scratch[i*4:], v)
		}
	}
	return w.appendRow(sig != nil)
}

// Rows returns the number of rows appended so far.
func (w *TableWriter) Rows() uint64 {
	return w.rows
}

func (w *TableWriter) checkAppend(bits int, null bool, bands int) error {
	if w.closed || w.finished {
		return lsherrors.ErrWriterClosed
	}
	if bits != w.spec.Bits {
		return fmt.Errorf("%w: appending %d-bit signature to %d-bit table", lsherrors.ErrWidthMismatch, bits, w.spec.Bits)
	}
	if !null && bands != w.spec.BandCount {
		return fmt.Errorf("%w: signature has %d bands, table has %d", lsherrors.ErrInvalidParameter, bands, w.spec.BandCount)
	}
	return nil
}

// appendRow writes w.scratch (or zeros for a NULL row) and records validity.
func (w *TableWriter) appendRow(valid bool) error {
	if !valid {
		clear(w.scratch)
	}
	if _, err := w.buf.Write(w.scratch); err != nil {
		return fmt.Errorf("write table row: %w", err)
	}
	if _, err := w.bodyHasher.Write(w.scratch); err != nil {
		panic("hash.Hash.Write returned unexpected error: " + err.Error())
	}

	if w.rows%8 == 0 {
		w.validity = append(w.validity, 0)
	}
	if valid {
		w.validity[w.rows/8] |= 1 << (w.rows % 8)
	}
	w.rows++
	return nil
}

// Finish writes the validity bitmap, footer and header, and closes the file.
// On error the partial file is removed.
func (w *TableWriter) Finish() error {
	if w.closed || w.finished {
		return lsherrors.ErrWriterClosed
	}
	w.finished = true

	if _, err := w.buf.Write(w.validity); err != nil {
		return errors.Join(fmt.Errorf("write validity bitmap: %w", err), w.abort())
	}
	if _, err := w.bodyHasher.Write(w.validity); err != nil {
		panic("hash.Hash.Write returned unexpected error: " + err.Error())
	}

	hdr := tableHeader{
		Magic:    tableMagic,
		Version:  tableVersion,
		Spec:     w.spec,
		RowCount: w.rows,
	}
	var hdrBuf [tableHeaderSize]byte
	hdr.encodeTo(hdrBuf[:])

	ftr := tableFooter{
		HeaderHash: xxhash.Sum64(hdrBuf[:]),
		BodyHash:   w.bodyHasher.Sum64(),
	}
	var ftrBuf [tableFooterSize]byte
	ftr.encodeTo(ftrBuf[:])

	if _, err := w.buf.Write(ftrBuf[:]); err != nil {
		return errors.Join(fmt.Errorf("write table footer: %w", err), w.abort())
	}
	if err := w.buf.Flush(); err != nil {
		return errors.Join(fmt.Errorf("flush table: %w", err), w.abort())
	}
	if _, err := w.file.WriteAt(hdrBuf[:], 0); err != nil {
		return errors.Join(fmt.Errorf("write table header: %w", err), w.abort())
	}
	if err := w.file.Sync(); err != nil {
		return errors.Join(fmt.Errorf("sync table: %w", err), w.abort())
	}

	w.closed = true
	closeErr := w.file.Close()
	w.file = nil
	return closeErr
}

// Close releases the writer. Closing before Finish discards the partial
// table. Close after Finish is a no-op.
// Idempotent: safe to call multiple times.
func (w *TableWriter) Close() error {
	if w.closed {
		return nil
	}
	return w.abort()
}

// abort closes and removes the partial file.
func (w *TableWriter) abort() error {
	w.closed = true
	var closeErr error
	if w.file != nil {
		closeErr = w.file.Close()
		w.file = nil
	}
	removeErr := os.Remove(w.path)
	if errors.Is(removeErr, os.ErrNotExist) {
		removeErr = nil
	}
	return errors.Join(closeErr, removeErr)
}
