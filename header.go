package lshsig

import (
	"encoding/binary"
	"fmt"
	"math"

	lsherrors "github.com/tamirms/lshsig/errors"
)

const (
	// tableMagic is "LSHS" in little-endian.
	tableMagic = uint32(0x5348534C)

	// tableVersion is the current table format version.
	tableVersion = uint16(0x0001)

	// tableHeaderSize is the exact size of the serialized header (64 bytes).
	tableHeaderSize = 64

	// tableFooterSize is the exact size of the serialized footer (16 bytes).
	tableFooterSize = 16

	// maxTableBands bounds BandCount so a row always fits comfortably in memory.
	maxTableBands = 1 << 20
)

// TableKind records which scheme produced the signatures in a table.
type TableKind uint8

const (
	TableMinHash   TableKind = 1
	TableEuclidean TableKind = 2
)

// String returns the scheme name.
func (k TableKind) String() string {
	switch k {
	case TableMinHash:
		return "minhash"
	case TableEuclidean:
		return "euclidean"
	default:
		return fmt.Sprintf("TableKind(%d)", uint8(k))
	}
}

// TableSpec describes the signatures stored in a table. Two tables can be
// equality-joined on band values only when their specs agree on everything
// but the row count.
type TableSpec struct {
	Kind        TableKind
	Bits        int     // 32 or 64
	NgramWidth  int     // MinHash over text; 0 for caller-supplied tokens
	Dims        int     // Euclidean only
	BucketWidth float64 // Euclidean only
	BandParams
}

// validate checks the fields that shape the file layout.
func (s TableSpec) validate() error {
	if s.Kind != TableMinHash && s.Kind != TableEuclidean {
		return fmt.Errorf("%w: unknown table kind %d", lsherrors.ErrInvalidParameter, s.Kind)
	}
	if s.Bits != 32 && s.Bits != 64 {
		return fmt.Errorf("%w: bit width must be 32 or 64, got %d", lsherrors.ErrInvalidParameter, s.Bits)
	}
	if s.BandCount <= 0 || s.BandCount > maxTableBands {
		return fmt.Errorf("%w: band_count must be in [1, %d], got %d", lsherrors.ErrInvalidParameter, maxTableBands, s.BandCount)
	}
	if s.BandSize <= 0 || s.NgramWidth < 0 || s.Dims < 0 {
		return fmt.Errorf("%w: band_size must be positive and ngram_width, dims non-negative", lsherrors.ErrInvalidParameter)
	}
	if uint64(s.NgramWidth) > math.MaxUint32 || uint64(s.Dims) > math.MaxUint32 || uint64(s.BandSize) > math.MaxUint32 {
		return fmt.Errorf("%w: table parameters exceed 32 bits", lsherrors.ErrInvalidParameter)
	}
	return nil
}

// rowSize returns the bytes used by one row.
func (s TableSpec) rowSize() int {
	return s.BandCount * s.Bits / 8
}

// tableHeader is the 64-byte file header.
//
// Layout:
//
//	Offset  Size  Field        Type
//	0       4     Magic        0x5348534C ("LSHS")
//	4       2     Version      0x0001
//	6       1     Kind         uint8 (1=MinHash, 2=Euclidean)
//	7       1     Bits         uint8 (32 or 64)
//	8       4     BandCount    uint32_le
//	12      4     BandSize     uint32_le
//	16      8     Seed         uint64_le
//	24      4     NgramWidth   uint32_le
//	28      4     Dims         uint32_le
//	32      8     BucketWidth  float64_le (IEEE 754 bits)
//	40      8     RowCount     uint64_le
//	48      16    Reserved     [16]byte (zero)
type tableHeader struct {
	Magic    uint32
	Version  uint16
	Spec     TableSpec
	RowCount uint64
}

// encodeTo serializes the header to an existing buffer.
func (h *tableHeader) encodeTo(buf []byte) {
	binary.LittleEndian.PutUint32(buf[0:4], h.Magic)
	binary.LittleEndian.PutUint16(buf[4:6], h.Version)
	buf[6] = uint8(h.Spec.Kind)
	buf[7] = uint8(h.Spec.Bits)
	binary.LittleEndian.PutUint32(buf[8:12], uint32(h.Spec.BandCount))
	binary.LittleEndian.PutUint32(buf[12:16], uint32(h.Spec.BandSize))
	binary.LittleEndian.PutUint64(buf[16:24], h.Spec.Seed)
	binary.LittleEndian.PutUint32(buf[24:28], uint32(h.Spec.NgramWidth))
	binary.LittleEndian.PutUint32(buf[28:32], uint32(h.Spec.Dims))
	binary.LittleEndian.PutUint64(buf[32:40], math.Float64bits(h.Spec.BucketWidth))
	binary.LittleEndian.PutUint64(buf[40:48], h.RowCount)
	clear(buf[48:64])
}

// decodeTableHeader parses a 64-byte header.
func decodeTableHeader(buf []byte) (*tableHeader, error) {
	if len(buf) < tableHeaderSize {
		return nil, lsherrors.ErrTruncatedFile
	}

	h := &tableHeader{
		Magic:   binary.LittleEndian.Uint32(buf[0:4]),
		Version: binary.LittleEndian.Uint16(buf[4:6]),
		Spec: TableSpec{
			Kind:        TableKind(buf[6]),
			Bits:        int(buf[7]),
			NgramWidth:  int(binary.LittleEndian.Uint32(buf[24:28])),
			Dims:        int(binary.LittleEndian.Uint32(buf[28:32])),
			BucketWidth: math.Float64frombits(binary.LittleEndian.Uint64(buf[32:40])),
			BandParams: BandParams{
				BandCount: int(binary.LittleEndian.Uint32(buf[8:12])),
				BandSize:  int(binary.LittleEndian.Uint32(buf[12:16])),
				Seed:      binary.LittleEndian.Uint64(buf[16:24]),
			},
		},
		RowCount: binary.LittleEndian.Uint64(buf[40:48]),
	}

	if h.Magic != tableMagic {
		return nil, lsherrors.ErrInvalidMagic
	}
	if h.Version != tableVersion {
		return nil, lsherrors.ErrInvalidVersion
	}
	if err := h.Spec.validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", lsherrors.ErrCorruptedTable, err)
	}
	return h, nil
}

// tableFooter is the 16-byte file footer.
//
// Layout:
//
//	Offset  Size  Field       Type
//	0       8     HeaderHash  uint64_le (xxHash64 of the 64-byte header)
//	8       8     BodyHash    uint64_le (xxHash64 of rows then validity bitmap)
type tableFooter struct {
	HeaderHash uint64
	BodyHash   uint64
}

// encodeTo serializes the footer into an existing buffer.
func (f *tableFooter) encodeTo(buf []byte) {
	binary.LittleEndian.PutUint64(buf[0:8], f.HeaderHash)
	binary.LittleEndian.PutUint64(buf[8:16], f.BodyHash)
}

// decodeTableFooter parses a 16-byte footer.
func decodeTableFooter(buf []byte) (*tableFooter, error) {
	if len(buf) < tableFooterSize {
		return nil, lsherrors.ErrTruncatedFile
	}
	return &tableFooter{
		HeaderHash: binary.LittleEndian.Uint64(buf[0:8]),
		BodyHash:   binary.LittleEndian.Uint64(buf[8:16]),
	}, nil
}

// tableLayout returns the byte sizes of the row region and validity bitmap,
// and the total file size, for rows rows of rowSize bytes. ok is false when
// the sizes overflow.
func tableLayout(rows uint64, rowSize int) (rowBytes, bitmapBytes, total uint64, ok bool) {
	if rowSize <= 0 || rows > (math.MaxInt64-tableHeaderSize-tableFooterSize)/uint64(rowSize+1) {
		return 0, 0, 0, false
	}
	rowBytes = rows * uint64(rowSize)
	bitmapBytes = (rows + 7) / 8
	total = tableHeaderSize + rowBytes + bitmapBytes + tableFooterSize
	return rowBytes, bitmapBytes, total, true
}
