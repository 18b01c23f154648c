package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"

	"github.com/tamirms/lshsig"
)

// app holds the resources shared by every subcommand for one invocation.
type app struct {
	cfg    *Config
	logger *slog.Logger
	hasher *lshsig.Hasher

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

func newApp(cfg *Config, stdin io.Reader, stdout, stderr io.Writer) *app {
	logger := newLogger(cfg, stderr)
	return &app{
		cfg:    cfg,
		logger: logger,
		hasher: lshsig.New(
			lshsig.WithWorkers(cfg.Workers),
			lshsig.WithChunkSize(cfg.ChunkSize),
			lshsig.WithFamilyCacheSize(cfg.CacheSize),
			lshsig.WithLogger(logger),
		),
		stdin:  stdin,
		stdout: stdout,
		stderr: stderr,
	}
}

// newLogger builds the slog handler selected by log_format at log_level.
func newLogger(cfg *Config, w io.Writer) *slog.Logger {
	lvl, _ := cfg.level() // validated by LoadConfig
	opts := &slog.HandlerOptions{Level: lvl}
	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// openInput returns the configured input; "-" is stdin.
func (a *app) openInput() (io.ReadCloser, error) {
	if a.cfg.Input == "" || a.cfg.Input == "-" {
		return io.NopCloser(a.stdin), nil
	}
	f, err := os.Open(a.cfg.Input)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	return f, nil
}

// openOutput returns the configured output; "-" is stdout.
func (a *app) openOutput() (io.WriteCloser, error) {
	if a.cfg.Output == "" || a.cfg.Output == "-" {
		return nopWriteCloser{a.stdout}, nil
	}
	f, err := os.Create(a.cfg.Output)
	if err != nil {
		return nil, fmt.Errorf("create output: %w", err)
	}
	return f, nil
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

// newProgress returns a row counter on stderr, or nil when progress is off
// or stderr is not a terminal.
func (a *app) newProgress(description string) *progressbar.ProgressBar {
	if !a.cfg.Progress {
		return nil
	}
	if f, ok := a.stderr.(*os.File); !ok || !term.IsTerminal(int(f.Fd())) {
		return nil
	}
	return progressbar.NewOptions(-1,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(a.stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("rows"),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(a.stderr)
		}),
	)
}

// writeMetrics dumps the hasher's metrics when metrics_file is set.
func (a *app) writeMetrics() error {
	if a.cfg.MetricsFile == "" {
		return nil
	}
	reg := prometheus.NewRegistry()
	if err := reg.Register(a.hasher.Collector()); err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}
	if err := prometheus.WriteToTextfile(a.cfg.MetricsFile, reg); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}

func (a *app) bandParams() lshsig.BandParams {
	return lshsig.BandParams{BandCount: a.cfg.BandCount, BandSize: a.cfg.BandSize, Seed: a.cfg.Seed}
}

// batchFunc processes one batch of decoded rows. first is the index of the
// batch's first row in the input.
type batchFunc[R any] func(rows []R, first int) error

// runBatches decodes JSON lines of type R from the configured input and
// hands them to fn in batches of batch_size rows.
func runBatches[R any](a *app, description string, fn batchFunc[R]) error {
	in, err := a.openInput()
	if err != nil {
		return err
	}
	defer in.Close()

	bar := a.newProgress(description)
	dec := json.NewDecoder(bufio.NewReaderSize(in, 1<<20))
	batch := make([]R, 0, a.cfg.BatchSize)
	total := 0

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := fn(batch, total); err != nil {
			return err
		}
		total += len(batch)
		if bar != nil {
			_ = bar.Add(len(batch))
		}
		a.logger.Debug("batch done", "rows", len(batch), "total", total)
		batch = batch[:0]
		return nil
	}

	for {
		var row R
		err := dec.Decode(&row)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("decode row %d: %w", total+len(batch), err)
		}
		batch = append(batch, row)
		if len(batch) == cap(batch) {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	if err := flush(); err != nil {
		return err
	}
	if bar != nil {
		_ = bar.Finish()
	}
	a.logger.Info(description+" complete", "rows", total)
	return nil
}

// jsonLines encodes one JSON value per line to a buffered writer.
type jsonLines struct {
	buf *bufio.Writer
	enc *json.Encoder
}

func newJSONLines(w io.Writer) *jsonLines {
	buf := bufio.NewWriter(w)
	return &jsonLines{buf: buf, enc: json.NewEncoder(buf)}
}

func (j *jsonLines) write(v any) error {
	return j.enc.Encode(v)
}

func (j *jsonLines) flush() error {
	return j.buf.Flush()
}
