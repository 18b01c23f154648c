package main

import (
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"
)

// pairRow is one input line: {"a": "...", "b": "..."} or, with --tokens,
// {"a_tokens": [...], "b_tokens": [...]}.
type pairRow struct {
	A       *string  `json:"a"`
	B       *string  `json:"b"`
	ATokens []string `json:"a_tokens"`
	BTokens []string `json:"b_tokens"`
}

type similarityRow struct {
	Similarity *float64 `json:"similarity"`
}

func newJaccardCmd(load appLoader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jaccard",
		Short: "Exact Jaccard similarity of string pairs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runApp(load, cmd, runJaccard)
		},
	}
	cmd.Flags().Int("ngram-width", DefaultNgramWidth, "characters per shingle")
	cmd.Flags().Bool("tokens", false, "compare token arrays instead of text")
	return cmd
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func runJaccard(a *app) error {
	if !a.cfg.Tokens {
		// Validates ngram_width before any input is read.
		if _, err := a.hasher.Jaccard(nil, nil, a.cfg.NgramWidth); err != nil {
			return err
		}
	}

	out, err := a.openOutput()
	if err != nil {
		return err
	}
	defer out.Close()
	lines := newJSONLines(out)

	var colA, colB []sql.NullString
	var tokA, tokB [][]string
	err = runBatches(a, "jaccard", func(rows []pairRow, first int) error {
		var sims []sql.NullFloat64
		var err error
		if a.cfg.Tokens {
			tokA, tokB = tokA[:0], tokB[:0]
			for _, r := range rows {
				tokA = append(tokA, r.ATokens)
				tokB = append(tokB, r.BTokens)
			}
			sims, err = a.hasher.JaccardShingles(tokA, tokB)
		} else {
			colA, colB = colA[:0], colB[:0]
			for _, r := range rows {
				colA = append(colA, nullString(r.A))
				colB = append(colB, nullString(r.B))
			}
			sims, err = a.hasher.Jaccard(colA, colB, a.cfg.NgramWidth)
		}
		if err != nil {
			return fmt.Errorf("rows %d-%d: %w", first, first+len(rows)-1, err)
		}
		for _, s := range sims {
			var row similarityRow
			if s.Valid {
				row.Similarity = &s.Float64
			}
			if err := lines.write(row); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	return lines.flush()
}
