// Package pipeline runs one seistrace pass over a record file.
//
// A run reads the input once, assembling the selected records into traces,
// decodes the segments the requested outputs need, prints the report,
// optionally rewrites and re-encodes the samples, and finally writes the
// metrics file. Configuration and allocation failures abort the run; decode,
// statistics and encode failures are logged, counted and isolated to their
// segment or channel.
package pipeline

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/arloliu/seistrace/errs"
	"github.com/arloliu/seistrace/internal/config"
	"github.com/arloliu/seistrace/internal/metrics"
	"github.com/arloliu/seistrace/record"
	"github.com/arloliu/seistrace/report"
	"github.com/arloliu/seistrace/selection"
	"github.com/arloliu/seistrace/stats"
	"github.com/arloliu/seistrace/trace"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// Process exit codes.
const (
	ExitOK        = 0 // ExitOK reports a run without errors, or with isolated errors when not strict.
	ExitFatal     = 1 // ExitFatal reports a configuration, allocation or I/O failure.
	ExitLocalized = 2 // ExitLocalized reports isolated errors in a strict run.
)

// Result summarizes a completed run.
type Result struct {
	Read      trace.ReadStats
	Channels  int
	Segments  int
	Decoded   int
	Rewritten int
	Written   int

	// Localized holds the isolated decode, statistics and encode errors.
	Localized []error
}

// ExitCode maps the outcome of Run to a process exit code.
func ExitCode(res Result, err error, strict bool) int {
	switch {
	case err != nil:
		return ExitFatal
	case strict && len(res.Localized) > 0:
		return ExitLocalized
	default:
		return ExitOK
	}
}

type runner struct {
	fs      afero.Fs
	cfg     *config.Config
	logger  *zap.Logger
	metrics *metrics.Metrics
	printer *report.Printer
	sel     *selection.Selection
	codec   *record.Codec
	list    *trace.List
	res     Result
}

// Run executes one pass described by cfg, writing the report to out.
//
// Parameters:
//   - ctx: Cancels parallel decoding
//   - fs: Filesystem holding the input, selection, output and metrics files
//   - cfg: Validated configuration
//   - out: Report destination
//   - logger: Diagnostics logger; nil disables logging
//
// Returns:
//   - Result: Counts and isolated errors of the run
//   - error: Fatal error; the run stopped early
func Run(ctx context.Context, fs afero.Fs, cfg *config.Config, out io.Writer, logger *zap.Logger) (Result, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	r := &runner{
		fs:      fs,
		cfg:     cfg,
		logger:  logger,
		metrics: metrics.New(),
		printer: report.New(out, report.Options{
			Verbosity: cfg.Verbosity,
			Data:      cfg.Data,
			TimeStyle: cfg.TimeStyle,
		}),
	}

	err := r.run(ctx)
	if err != nil {
		r.metrics.Error(err)
	}
	if merr := r.writeMetrics(); merr != nil && err == nil {
		err = merr
	}

	return r.res, err
}

func (r *runner) run(ctx context.Context) error {
	if err := r.setup(); err != nil {
		return err
	}
	defer r.list.Free()

	in, err := r.fs.Open(r.cfg.Input)
	if err != nil {
		return errs.Wrap(errs.KindConfiguration, "open input", err)
	}
	defer in.Close()

	if err := r.read(in); err != nil {
		return err
	}
	if r.cfg.NeedsDecode() {
		if err := r.decode(ctx); err != nil {
			return err
		}
	}

	r.report()
	if err := r.printer.Err(); err != nil {
		return err
	}

	if r.cfg.Mutates() {
		if err := r.rewrite(); err != nil {
			return err
		}
	}
	if r.cfg.Output != "" {
		if err := r.pack(); err != nil {
			return err
		}
	}

	if r.cfg.Summary {
		r.printer.Summary(r.res.Read.Selected, r.res.Read.Samples)
	}

	r.logger.Info("run complete",
		zap.Int64("records", r.res.Read.Records),
		zap.Int("channels", r.res.Channels),
		zap.Int("segments", r.res.Segments),
		zap.Int("written", r.res.Written),
		zap.Int("errors", len(r.res.Localized)))

	return r.printer.Err()
}

func (r *runner) setup() error {
	if r.cfg.SelectionFile != "" {
		sel, err := selection.Load(r.fs, r.cfg.SelectionFile)
		if err != nil {
			return err
		}
		r.sel = sel
		r.logger.Info("selection loaded", zap.String("file", r.cfg.SelectionFile), zap.Int("rules", sel.Len()))
	}

	codec, err := record.NewCodec(r.cfg.CodecOptions()...)
	if err != nil {
		return errs.Wrap(errs.KindConfiguration, "create codec", err)
	}
	r.codec = codec

	opts := append(r.cfg.ListOptions(), trace.WithLogger(r.logger))
	list, err := trace.NewList(opts...)
	if err != nil {
		return errs.Wrap(errs.KindConfiguration, "create trace list", err)
	}
	r.list = list

	return nil
}

// localized records an isolated error once.
func (r *runner) localized(err error) {
	for _, prev := range r.res.Localized {
		if errors.Is(prev, err) {
			return
		}
	}
	r.res.Localized = append(r.res.Localized, err)
	r.metrics.Error(err)
	r.logger.Warn("isolated failure", zap.Stringer("kind", errs.KindOf(err)), zap.Error(err))
}

// localizedAll records every error of a joined error separately.
func (r *runner) localizedAll(err error) {
	if err == nil {
		return
	}

	var multi interface{ Unwrap() []error }
	if errors.As(err, &multi) {
		for _, e := range multi.Unwrap() {
			r.localized(e)
		}

		return
	}
	r.localized(err)
}

// read assembles the selected records of in. A stream error ends the pass
// but keeps the records already assembled.
func (r *runner) read(in afero.File) error {
	src := r.list.AddSource(in, r.cfg.Input)
	rd, err := record.NewReader(bufio.NewReader(in), record.WithChecksumValidation(r.cfg.ValidateChecksums))
	if err != nil {
		return errs.Wrap(errs.KindConfiguration, "create reader", err)
	}

	read, err := r.list.ReadFrom(rd, src, r.sel)
	r.res.Read = read
	r.metrics.RecordsRead.Add(float64(read.Records))
	r.metrics.RecordsSelected.Add(float64(read.Selected))
	r.metrics.RecordsSkipped.Add(float64(read.Skipped))
	r.metrics.RecordsOverlap.Add(float64(read.Overlaps))
	r.metrics.SamplesSelected.Add(float64(read.Samples))

	if err != nil {
		if errs.KindOf(err).Fatal() {
			return err
		}
		r.localized(err)
	}

	r.res.Channels = r.list.Len()
	for _, ch := range r.list.Channels() {
		r.res.Segments += len(ch.Segments)
	}
	r.metrics.Channels.Set(float64(r.res.Channels))
	r.metrics.Segments.Set(float64(r.res.Segments))

	r.logger.Info("input assembled",
		zap.String("file", r.cfg.Input),
		zap.Int64("records", read.Records),
		zap.Int64("selected", read.Selected),
		zap.Int64("skipped", read.Skipped),
		zap.Int64("overlaps", read.Overlaps),
		zap.Int("channels", r.res.Channels))

	return nil
}

func (r *runner) decode(ctx context.Context) error {
	failed, err := r.list.DecodeAll(ctx, r.codec, r.cfg.Workers)
	if err != nil {
		return err
	}

	for _, ch := range r.list.Channels() {
		for _, seg := range ch.Segments {
			if seg.Decoded() {
				r.res.Decoded++
				continue
			}
			if segErr := seg.Err(); segErr != nil {
				r.localized(segErr)
			}
		}
	}
	r.metrics.SegmentsDecoded.Add(float64(r.res.Decoded))
	r.logger.Debug("segments decoded", zap.Int("decoded", r.res.Decoded), zap.Int("failed", failed))

	return nil
}

func (r *runner) report() {
	for _, ch := range r.list.Channels() {
		r.printer.Channel(ch)
		for _, seg := range ch.Segments {
			r.printer.Segment(seg)
			if r.cfg.Data != report.DataNone && seg.Decoded() {
				r.printer.Data(seg.Buffer())
			}
		}

		if r.cfg.Statistics {
			s, err := stats.SummarizeAll(ch.Buffers()...)
			if err != nil {
				r.localized(fmt.Errorf("%s (%d): %w", ch.SourceID, ch.PubVersion, err))
			}
			r.printer.Statistics(s)
		}
		r.printer.Blank()
	}
}

func (r *runner) rewrite() error {
	n, err := r.list.OverwriteAll(r.codec, r.cfg.Rule())
	r.res.Rewritten = n
	if err != nil && errs.KindOf(err).Fatal() {
		return err
	}
	r.localizedAll(err)
	r.logger.Info("samples rewritten", zap.Int("segments", n))

	return nil
}

func (r *runner) pack() error {
	f, err := r.fs.Create(r.cfg.Output)
	if err != nil {
		return errs.Wrap(errs.KindConfiguration, "create output", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	n, err := r.list.Pack(w, r.codec, trace.PackOptions{
		MaxRecordLength: r.cfg.RecordLength,
		Encoding:        r.cfg.Encoding,
	})
	r.res.Written = n
	r.metrics.RecordsWritten.Add(float64(n))
	if err != nil && errs.KindOf(err).Fatal() {
		return err
	}
	r.localizedAll(err)

	if err := w.Flush(); err != nil {
		return fmt.Errorf("write %s: %w", r.cfg.Output, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", r.cfg.Output, err)
	}
	r.logger.Info("records written", zap.String("file", r.cfg.Output), zap.Int("records", n))

	return nil
}

func (r *runner) writeMetrics() error {
	if r.cfg.MetricsFile == "" {
		return nil
	}

	f, err := r.fs.Create(r.cfg.MetricsFile)
	if err != nil {
		return errs.Wrap(errs.KindConfiguration, "create metrics file", err)
	}
	defer f.Close()

	if err := r.metrics.WriteText(f); err != nil {
		return err
	}

	return f.Close()
}
