package main

import (
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tamirms/lshsig"
)

// minRow is one input line: {"text": "..."} or, with --tokens,
// {"tokens": ["...", ...]}. A null or missing field is a NULL row.
type minRow struct {
	Text   *string  `json:"text"`
	Tokens []string `json:"tokens"`
}

func newMinCmd(load appLoader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "min",
		Short: "MinHash signatures of text n-grams or token sets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runApp(load, cmd, runMin)
		},
	}
	addBandFlags(cmd)
	cmd.Flags().Int("ngram-width", DefaultNgramWidth, "characters per shingle")
	cmd.Flags().Bool("tokens", false, "read token arrays instead of text")
	return cmd
}

func runMin(a *app) error {
	if a.cfg.Bits == 32 {
		return runMinWidth(a, a.hasher.MinHash32, a.hasher.MinHashShingles32)
	}
	return runMinWidth(a, a.hasher.MinHash, a.hasher.MinHashShingles)
}

func runMinWidth[T word](
	a *app,
	hashTexts func([]sql.NullString, lshsig.MinHashParams) ([][]T, error),
	hashTokens func([][]string, lshsig.BandParams) ([][]T, error),
) error {
	p := lshsig.MinHashParams{NgramWidth: a.cfg.NgramWidth, BandParams: a.bandParams()}
	spec := lshsig.TableSpec{Kind: lshsig.TableMinHash, Bits: a.cfg.Bits, BandParams: p.BandParams}

	// Hashing an empty batch validates parameters before any input is read.
	var err error
	if a.cfg.Tokens {
		_, err = hashTokens(nil, p.BandParams)
	} else {
		spec.NgramWidth = p.NgramWidth
		_, err = hashTexts(nil, p)
	}
	if err != nil {
		return err
	}

	sink, err := newSignatureSink[T](a, spec)
	if err != nil {
		return err
	}
	defer sink.close()

	var texts []sql.NullString
	var tokens [][]string
	err = runBatches(a, "minhash", func(rows []minRow, first int) error {
		var sigs [][]T
		var err error
		if a.cfg.Tokens {
			tokens = tokens[:0]
			for _, r := range rows {
				tokens = append(tokens, r.Tokens)
			}
			sigs, err = hashTokens(tokens, p.BandParams)
		} else {
			texts = texts[:0]
			for _, r := range rows {
				var s sql.NullString
				if r.Text != nil {
					s = sql.NullString{String: *r.Text, Valid: true}
				}
				texts = append(texts, s)
			}
			sigs, err = hashTexts(texts, p)
		}
		if err != nil {
			return fmt.Errorf("rows %d-%d: %w", first, first+len(rows)-1, err)
		}
		return sink.write(sigs, -1)
	})
	if err != nil {
		return err
	}
	return sink.finish()
}
