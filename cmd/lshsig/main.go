// Command lshsig computes LSH signatures and Jaccard similarities over JSON
// lines, and inspects signature tables.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/spf13/cobra"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := newRootCmd(os.Stdin, os.Stdout, os.Stderr).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// appLoader resolves configuration for the running command and builds the
// shared app state.
type appLoader func(cmd *cobra.Command) (*app, error)

func newRootCmd(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "lshsig",
		Short: "Locality-sensitive hash signatures for record linkage",
		Long: `lshsig computes banded MinHash and Euclidean LSH signatures.

Input is JSON lines; output is JSON lines or a signature table.
Settings come from flags, LSHSIG_* environment variables and lshsig.yaml.

Commands:
  min        MinHash signatures of text n-grams or token sets
  euclidean  p-stable LSH signatures of numeric vectors
  jaccard    exact Jaccard similarity of string pairs
  inspect    dump or verify a signature table`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetIn(stdin)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "config file (default ./lshsig.yaml or $HOME/.config/lshsig/lshsig.yaml)")
	pf.StringP("input", "i", DefaultInput, "input JSON lines file, - for stdin")
	pf.StringP("output", "o", DefaultOutput, "output JSON lines file, - for stdout")
	pf.Int("workers", runtime.GOMAXPROCS(0), "goroutines hashing each batch")
	pf.Int("chunk-size", DefaultChunkSize, "rows per worker task")
	pf.Int("cache-size", DefaultCacheSize, "hash families kept in memory, 0 disables the cache")
	pf.Int("batch-size", DefaultBatchSize, "rows decoded before hashing")
	pf.Bool("progress", false, "show progress on stderr when it is a terminal")
	pf.String("log-level", DefaultLogLevel, "debug, info, warn or error")
	pf.String("log-format", DefaultLogFormat, "text or json")
	pf.String("metrics-file", "", "write prometheus metrics to this file on exit")

	load := func(cmd *cobra.Command) (*app, error) {
		cfg, err := LoadConfig(configPath, cmd.Flags())
		if err != nil {
			return nil, err
		}
		return newApp(cfg, cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr()), nil
	}

	rootCmd.AddCommand(
		newMinCmd(load),
		newEuclideanCmd(load),
		newJaccardCmd(load),
		newInspectCmd(load),
		versionCmd(),
	)
	return rootCmd
}

// addBandFlags registers the banding flags shared by the signature commands.
func addBandFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.Int("band-count", DefaultBandCount, "bands per signature")
	f.Int("band-size", DefaultBandSize, "hash functions per band")
	f.Uint64("seed", 0, "hash family seed")
	f.Int("bits", DefaultBits, "band value width, 32 or 64")
	f.String("table", "", "write a signature table to this path instead of JSON lines")
}

// runApp loads configuration, runs fn and writes metrics.
func runApp(load appLoader, cmd *cobra.Command, fn func(a *app) error) error {
	a, err := load(cmd)
	if err != nil {
		return err
	}
	return errors.Join(fn(a), a.writeMetrics())
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "lshsig %s (%s)\n", version, runtime.Version())
		},
	}
}
