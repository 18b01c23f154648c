package lshsig

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
	"github.com/edsrzf/mmap-go"

	lsherrors "github.com/tamirms/lshsig/errors"
)

// Table is a read-only signature table.
//
// Thread Safety:
// - Row64, Row32 and other read methods are safe for concurrent use
// - Close is NOT safe to call concurrently with reads
// - After Close returns, reads return ErrTableClosed
type Table struct {
	// Memory map (no file handle needed after mmap)
	mmap mmap.MMap
	data []byte

	header *tableHeader

	// Region offsets (computed from header)
	rowSize        int
	rowsOffset     uint64
	validityOffset uint64
	footerOffset   uint64

	closed atomic.Bool
}

// OpenTable opens a table file for reading.
// It opens the file, memory-maps it, and closes the file descriptor.
func OpenTable(path string) (*Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open table file: %w", err)
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat table file: %w", err)
	}
	if stat.Size() < tableHeaderSize+tableFooterSize {
		return nil, lsherrors.ErrTruncatedFile
	}

	mm, err := mmap.Map(file, mmap.RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("mmap table file: %w", err)
	}
	// Joins probe scattered rows; readahead only wastes page cache.
	adviseRandom(mm)

	t := &Table{
		mmap: mm,
		data: []byte(mm),
	}
	if err := t.initFromData(); err != nil {
		return nil, errors.Join(err, t.Close())
	}
	return t, nil
}

// OpenTableBytes reads a table from an in-memory byte slice.
// Close is a no-op. The caller must not modify data while the Table is in use.
func OpenTableBytes(data []byte) (*Table, error) {
	if len(data) < tableHeaderSize+tableFooterSize {
		return nil, lsherrors.ErrTruncatedFile
	}
	t := &Table{data: data}
	if err := t.initFromData(); err != nil {
		return nil, err
	}
	return t, nil
}

// initFromData parses the header and checks that the file size matches it.
// Checksums are only computed by Verify.
func (t *Table) initFromData() error {
	hdr, err := decodeTableHeader(t.data[:tableHeaderSize])
	if err != nil {
		return err
	}
	t.header = hdr
	t.rowSize = hdr.Spec.rowSize()

	rowBytes, bitmapBytes, total, ok := tableLayout(hdr.RowCount, t.rowSize)
	if !ok {
		return lsherrors.ErrCorruptedTable
	}
	size := uint64(len(t.data))
	if size < total {
		return lsherrors.ErrTruncatedFile
	}
	if size > total {
		return fmt.Errorf("%w: %d trailing bytes", lsherrors.ErrCorruptedTable, size-total)
	}

	t.rowsOffset = tableHeaderSize
	t.validityOffset = t.rowsOffset + rowBytes
	t.footerOffset = t.validityOffset + bitmapBytes
	return nil
}

// Close releases the mapping.
func (t *Table) Close() error {
	if t.closed.Swap(true) {
		return nil
	}
	if t.mmap != nil {
		return t.mmap.Unmap()
	}
	return nil
}

// Spec returns the parameters the stored signatures were computed with.
func (t *Table) Spec() TableSpec {
	return t.header.Spec
}

// Len returns the number of rows, NULL rows included.
func (t *Table) Len() int {
	return int(t.header.RowCount)
}

// Row64 returns row i of a 64-bit table. valid is false for a NULL row, in
// which case sig is nil.
func (t *Table) Row64(i int) (sig []uint64, valid bool, err error) {
	raw, valid, err := t.row(i, 64)
	if err != nil || !valid {
		return nil, valid, err
	}
	sig = make([]uint64, t.header.Spec.BandCount)
	for j := range sig {
		sig[j] = binary.LittleEndian.Uint64(raw[j*8:])
	}
	return sig, true, nil
}

// Row32 returns row i of a 32-bit table. valid is false for a NULL row, in
// which case sig is nil.
func (t *Table) Row32(i int) (sig []uint32, valid bool, err error) {
	raw, valid, err := t.row(i, 32)
	if err != nil || !valid {
		return nil, valid, err
	}
	sig = make([]uint32, t.header.Spec.BandCount)
	for j := range sig {
		sig[j] = binary.LittleEndian.Uint32(raw[j*4:])
	}
	return sig, true, nil
}

func (t *Table) row(i, bits int) ([]byte, bool, error) {
	if t.closed.Load() {
		return nil, false, lsherrors.ErrTableClosed
	}
	if bits != t.header.Spec.Bits {
		return nil, false, fmt.Errorf("%w: reading %d-bit row from %d-bit table", lsherrors.ErrWidthMismatch, bits, t.header.Spec.Bits)
	}
	if i < 0 || uint64(i) >= t.header.RowCount {
		return nil, false, fmt.Errorf("%w: row %d of %d", lsherrors.ErrRowOutOfRange, i, t.header.RowCount)
	}

	r := uint64(i)
	if t.data[t.validityOffset+r/8]&(1<<(r%8)) == 0 {
		return nil, false, nil
	}
	start := t.rowsOffset + r*uint64(t.rowSize)
	return t.data[start : start+uint64(t.rowSize)], true, nil
}

// Verify checks the header and body checksums recorded in the footer.
func (t *Table) Verify() error {
	if t.closed.Load() {
		return lsherrors.ErrTableClosed
	}

	ft, err := decodeTableFooter(t.data[t.footerOffset:])
	if err != nil {
		return err
	}
	if xxhash.Sum64(t.data[:tableHeaderSize]) != ft.HeaderHash {
		return fmt.Errorf("%w: header", lsherrors.ErrChecksumFailed)
	}
	if xxhash.Sum64(t.data[t.rowsOffset:t.footerOffset]) != ft.BodyHash {
		return fmt.Errorf("%w: body", lsherrors.ErrChecksumFailed)
	}

	// Padding bits past the last row must be zero.
	if rem := t.header.RowCount % 8; rem != 0 {
		last := t.data[t.footerOffset-1]
		if last>>rem != 0 {
			return fmt.Errorf("%w: validity padding bits set", lsherrors.ErrCorruptedTable)
		}
	}
	return nil
}
