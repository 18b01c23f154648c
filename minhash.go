package lshsig

import (
	"database/sql"

	"github.com/tamirms/lshsig/internal/engine"
	"github.com/tamirms/lshsig/internal/family"
	"github.com/tamirms/lshsig/internal/shingle"
	"github.com/tamirms/lshsig/internal/width"
)

// MinHash returns a 64-bit banded MinHash signature of each text's
// character n-grams. A NULL text yields a nil signature. An empty text, or
// one shorter than NgramWidth, has an empty shingle set and gets the fixed
// empty-set signature.
func (h *Hasher) MinHash(texts []sql.NullString, p MinHashParams) ([][]uint64, error) {
	return minHashTexts[uint64](h, opMinHash, width.W64{}, texts, p)
}

// MinHash32 is MinHash with 32-bit band values. The two widths use
// independent hash functions; a 32-bit signature is not a truncation of the
// 64-bit one.
func (h *Hasher) MinHash32(texts []sql.NullString, p MinHashParams) ([][]uint32, error) {
	return minHashTexts[uint32](h, opMinHash32, width.W32{}, texts, p)
}

// MinHashShingles returns a 64-bit banded MinHash signature of each row's
// tokens, used as the shingle set as-is. A nil row is NULL; an empty,
// non-nil row gets the empty-set signature.
func (h *Hasher) MinHashShingles(rows [][]string, p BandParams) ([][]uint64, error) {
	return minHashTokens[uint64](h, opMinHashShingles, width.W64{}, rows, p)
}

// MinHashShingles32 is MinHashShingles with 32-bit band values.
func (h *Hasher) MinHashShingles32(rows [][]string, p BandParams) ([][]uint32, error) {
	return minHashTokens[uint32](h, opMinHashShingles32, width.W32{}, rows, p)
}

func minHashTexts[T width.Word, P width.Policy[T]](h *Hasher, op operation, pol P, texts []sql.NullString, p MinHashParams) ([][]T, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	return minHashRows[T](h, op, pol, len(texts), p.BandParams, func(i int) (shingle.Set, bool, error) {
		if !texts[i].Valid {
			return nil, false, nil
		}
		set, err := shingle.HashText(texts[i].String, p.NgramWidth)
		return set, true, err
	})
}

func minHashTokens[T width.Word, P width.Policy[T]](h *Hasher, op operation, pol P, rows [][]string, p BandParams) ([][]T, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	return minHashRows[T](h, op, pol, len(rows), p, func(i int) (shingle.Set, bool, error) {
		if rows[i] == nil {
			return nil, false, nil
		}
		return shingle.HashTokens(rows[i]), true, nil
	})
}

// minHashRows hashes n rows whose shingle sets come from extract. extract
// reports false for NULL rows.
func minHashRows[T width.Word, P width.Policy[T]](
	h *Hasher, op operation, pol P, n int, p BandParams,
	extract func(i int) (shingle.Set, bool, error),
) ([][]T, error) {
	fam, err := h.families.MinHash(p.key(family.KindMinHash, pol.Bits(), 0))
	if err != nil {
		return nil, err
	}
	out := make([][]T, n)
	err = h.forEachRow(op, n, func(i int) error {
		set, ok, err := extract(i)
		if err != nil || !ok {
			return err
		}
		out[i] = engine.MinHash[T](pol, set, fam, p.BandCount, p.BandSize)
		return nil
	})
	if err != nil {
		return nil, err
	}
	countRows(h, op, out)
	return out, nil
}

// MinHash hashes texts with the default Hasher.
func MinHash(texts []sql.NullString, p MinHashParams) ([][]uint64, error) {
	return Default().MinHash(texts, p)
}

// MinHash32 hashes texts with the default Hasher.
func MinHash32(texts []sql.NullString, p MinHashParams) ([][]uint32, error) {
	return Default().MinHash32(texts, p)
}

// MinHashShingles hashes token rows with the default Hasher.
func MinHashShingles(rows [][]string, p BandParams) ([][]uint64, error) {
	return Default().MinHashShingles(rows, p)
}

// MinHashShingles32 hashes token rows with the default Hasher.
func MinHashShingles32(rows [][]string, p BandParams) ([][]uint32, error) {
	return Default().MinHashShingles32(rows, p)
}
