package lshsig

import (
	"database/sql"

	"github.com/tamirms/lshsig/internal/shingle"
)

// Jaccard returns the exact Jaccard similarity of the character n-gram sets
// of a[i] and b[i]. The result is NULL when either side is NULL or when both
// shingle sets are empty; it is 0 when exactly one set is empty.
// a and b must have the same length.
func (h *Hasher) Jaccard(a, b []sql.NullString, ngramWidth int) ([]sql.NullFloat64, error) {
	if err := validateNgramWidth(ngramWidth); err != nil {
		return nil, err
	}
	if err := checkColumns(len(a), len(b)); err != nil {
		return nil, err
	}
	return jaccardRows(h, opJaccard, len(a), func(i int) (sa, sb map[string]struct{}, ok bool, err error) {
		if !a[i].Valid || !b[i].Valid {
			return nil, nil, false, nil
		}
		if sa, err = shingle.Strings(a[i].String, ngramWidth); err != nil {
			return nil, nil, false, err
		}
		sb, err = shingle.Strings(b[i].String, ngramWidth)
		return sa, sb, err == nil, err
	})
}

// JaccardShingles returns the exact Jaccard similarity of caller-supplied
// token sets. A nil row on either side is NULL.
func (h *Hasher) JaccardShingles(a, b [][]string) ([]sql.NullFloat64, error) {
	if err := checkColumns(len(a), len(b)); err != nil {
		return nil, err
	}
	return jaccardRows(h, opJaccardShingles, len(a), func(i int) (sa, sb map[string]struct{}, ok bool, err error) {
		if a[i] == nil || b[i] == nil {
			return nil, nil, false, nil
		}
		return shingle.StringsOf(a[i]), shingle.StringsOf(b[i]), true, nil
	})
}

func jaccardRows(h *Hasher, op operation, n int, sets func(i int) (a, b map[string]struct{}, ok bool, err error)) ([]sql.NullFloat64, error) {
	out := make([]sql.NullFloat64, n)
	err := h.forEachRow(op, n, func(i int) error {
		sa, sb, ok, err := sets(i)
		if err != nil || !ok {
			return err
		}
		sim, defined := shingle.Jaccard(sa, sb)
		out[i] = sql.NullFloat64{Float64: sim, Valid: defined}
		return nil
	})
	if err != nil {
		return nil, err
	}
	var nulls int64
	for _, v := range out {
		if !v.Valid {
			nulls++
		}
	}
	h.rows[op].null.Add(nulls)
	h.rows[op].hashed.Add(int64(n) - nulls)
	return out, nil
}

// Jaccard computes similarities with the default Hasher.
func Jaccard(a, b []sql.NullString, ngramWidth int) ([]sql.NullFloat64, error) {
	return Default().Jaccard(a, b, ngramWidth)
}

// JaccardShingles computes token-set similarities with the default Hasher.
func JaccardShingles(a, b [][]string) ([]sql.NullFloat64, error) {
	return Default().JaccardShingles(a, b)
}
