package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/tamirms/lshsig"
)

// word is the set of signature value types.
type word interface {
	uint32 | uint64
}

type signatureRow[T word] struct {
	Signature []T `json:"signature"`
}

// signatureSink writes signatures as JSON lines, or to a table when --table
// is set. Euclidean tables record the vector dimensionality, which is only
// known once a non-NULL row arrives, so table creation is deferred until
// then and leading NULL rows are replayed.
type signatureSink[T word] struct {
	a    *app
	spec lshsig.TableSpec

	out   io.WriteCloser
	lines *jsonLines

	table   *lshsig.TableWriter
	pending int
}

func newSignatureSink[T word](a *app, spec lshsig.TableSpec) (*signatureSink[T], error) {
	s := &signatureSink[T]{a: a, spec: spec}
	if a.cfg.Table != "" {
		return s, nil
	}
	out, err := a.openOutput()
	if err != nil {
		return nil, err
	}
	s.out = out
	s.lines = newJSONLines(out)
	return s, nil
}

// write stores a batch. dims is the batch's vector length, or -1 when it
// has no non-NULL row or dims do not apply.
func (s *signatureSink[T]) write(sigs [][]T, dims int) error {
	if s.lines != nil {
		for _, sig := range sigs {
			if err := s.lines.write(signatureRow[T]{Signature: sig}); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
		}
		return nil
	}

	if s.table == nil {
		if s.spec.Kind == lshsig.TableEuclidean && dims < 0 {
			s.pending += len(sigs)
			return nil
		}
		if dims >= 0 {
			s.spec.Dims = dims
		}
		if err := s.openTable(); err != nil {
			return err
		}
	}
	for _, sig := range sigs {
		if err := appendRow(s.table, sig); err != nil {
			return err
		}
	}
	return nil
}

func (s *signatureSink[T]) openTable() error {
	w, err := lshsig.CreateTable(s.a.cfg.Table, s.spec)
	if err != nil {
		return err
	}
	s.table = w
	for range s.pending {
		if err := appendRow[T](w, nil); err != nil {
			return err
		}
	}
	s.pending = 0
	return nil
}

func appendRow[T word](w *lshsig.TableWriter, sig []T) error {
	switch sig := any(sig).(type) {
	case []uint64:
		return w.Append64(sig)
	case []uint32:
		return w.Append32(sig)
	default:
		panic("unreachable")
	}
}

// finish completes the output. On failure the caller must still call close.
func (s *signatureSink[T]) finish() error {
	if s.lines != nil {
		return s.lines.flush()
	}
	if s.table == nil {
		if err := s.openTable(); err != nil {
			return err
		}
	}
	rows := s.table.Rows()
	if err := s.table.Finish(); err != nil {
		return err
	}
	s.a.logger.Info("wrote signature table", "path", s.a.cfg.Table, "rows", rows)
	return nil
}

// close releases the output. An unfinished table is discarded.
func (s *signatureSink[T]) close() error {
	var errs []error
	if s.table != nil {
		errs = append(errs, s.table.Close())
	}
	if s.out != nil {
		errs = append(errs, s.out.Close())
	}
	return errors.Join(errs...)
}
