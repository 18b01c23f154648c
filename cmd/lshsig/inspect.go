package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tamirms/lshsig"
)

// tableInfo is the first line printed by inspect.
type tableInfo struct {
	Kind        string  `json:"kind"`
	Bits        int     `json:"bits"`
	BandCount   int     `json:"band_count"`
	BandSize    int     `json:"band_size"`
	Seed        uint64  `json:"seed"`
	NgramWidth  int     `json:"ngram_width,omitempty"`
	Dims        int     `json:"dims,omitempty"`
	BucketWidth float64 `json:"bucket_width,omitempty"`
	Rows        int     `json:"rows"`
}

type tableRow[T word] struct {
	Row       int `json:"row"`
	Signature []T `json:"signature"`
}

func newInspectCmd(load appLoader) *cobra.Command {
	var verify, headerOnly bool
	cmd := &cobra.Command{
		Use:   "inspect <table>",
		Short: "Print a signature table's header and rows as JSON lines",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApp(load, cmd, func(a *app) error {
				return runInspect(a, args[0], verify, headerOnly)
			})
		},
	}
	cmd.Flags().BoolVar(&verify, "verify", false, "check table checksums before printing")
	cmd.Flags().BoolVar(&headerOnly, "header-only", false, "print only the header line")
	return cmd
}

func runInspect(a *app, path string, verify, headerOnly bool) error {
	tbl, err := lshsig.OpenTable(path)
	if err != nil {
		return err
	}
	defer tbl.Close()

	if verify {
		if err := tbl.Verify(); err != nil {
			return fmt.Errorf("verify %s: %w", path, err)
		}
		a.logger.Info("table verified", "path", path)
	}

	out, err := a.openOutput()
	if err != nil {
		return err
	}
	defer out.Close()
	lines := newJSONLines(out)

	spec := tbl.Spec()
	info := tableInfo{
		Kind:        spec.Kind.String(),
		Bits:        spec.Bits,
		BandCount:   spec.BandCount,
		BandSize:    spec.BandSize,
		Seed:        spec.Seed,
		NgramWidth:  spec.NgramWidth,
		Dims:        spec.Dims,
		BucketWidth: spec.BucketWidth,
		Rows:        tbl.Len(),
	}
	if err := lines.write(info); err != nil {
		return err
	}

	if !headerOnly {
		if spec.Bits == 32 {
			err = dumpRows(lines, tbl.Len(), tbl.Row32)
		} else {
			err = dumpRows(lines, tbl.Len(), tbl.Row64)
		}
		if err != nil {
			return err
		}
	}
	return lines.flush()
}

func dumpRows[T word](lines *jsonLines, n int, row func(int) ([]T, bool, error)) error {
	for i := range n {
		sig, _, err := row(i)
		if err != nil {
			return err
		}
		if err := lines.write(tableRow[T]{Row: i, Signature: sig}); err != nil {
			return err
		}
	}
	return nil
}
