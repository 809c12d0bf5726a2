// Package config builds the immutable run configuration of the seistrace CLI.
//
// Defaults come from SEISTRACE_* environment variables and are overridden by
// command-line flags. Parse validates everything before any input is opened,
// so every mistake on the command line is a ConfigurationError.
package config

import (
	"fmt"
	"time"

	"github.com/arloliu/seistrace/errs"
	"github.com/arloliu/seistrace/format"
	"github.com/arloliu/seistrace/mutate"
	"github.com/arloliu/seistrace/nstime"
	"github.com/arloliu/seistrace/record"
	"github.com/arloliu/seistrace/report"
	"github.com/arloliu/seistrace/samples"
	"github.com/arloliu/seistrace/trace"
)

// Config is the validated configuration of one run.
type Config struct {
	// Input is the record file to read.
	Input string
	// SelectionFile optionally restricts the records read.
	SelectionFile string

	Verbosity  int
	Data       report.DataMode
	Summary    bool
	Statistics bool
	TimeStyle  nstime.Style `env:"SEISTRACE_TIME_FORMAT" envDefault:"seed"`

	// Output is the record file written after mutation; empty disables packing.
	Output       string
	RecordLength int                    `env:"SEISTRACE_RECORD_LENGTH" envDefault:"1024"`
	Encoding     format.EncodingType    `env:"SEISTRACE_ENCODING"`
	Compression  format.CompressionType `env:"SEISTRACE_COMPRESSION" envDefault:"none"`

	// Fill overwrites every numeric sample with a constant when HasFill is set.
	Fill    float64
	HasFill bool
	// Transform is an expression rewriting every numeric sample.
	Transform string

	Workers           int           `env:"SEISTRACE_WORKERS" envDefault:"1"`
	Strict            bool          `env:"SEISTRACE_STRICT"`
	ValidateChecksums bool          `env:"SEISTRACE_VALIDATE_CHECKSUMS" envDefault:"true"`
	MaxSegmentSamples int64         `env:"SEISTRACE_MAX_SEGMENT_SAMPLES" envDefault:"268435456"`
	TimeTolerance     time.Duration `env:"SEISTRACE_TIME_TOLERANCE"`
	MetricsFile       string        `env:"SEISTRACE_METRICS_FILE"`

	rule samples.Rule
}

// Rule returns the sample rewrite rule, or nil when the run does not mutate.
func (c *Config) Rule() samples.Rule {
	return c.rule
}

// Mutates reports whether the run rewrites samples.
func (c *Config) Mutates() bool {
	return c.rule != nil
}

// NeedsDecode reports whether any stage of the run needs decoded samples.
func (c *Config) NeedsDecode() bool {
	return c.Data != report.DataNone || c.Statistics || c.Mutates() || c.Output != ""
}

// ListOptions returns the trace list options implied by the configuration.
func (c *Config) ListOptions() []trace.ListOption {
	opts := []trace.ListOption{trace.WithMaxSegmentSamples(c.MaxSegmentSamples)}
	if c.TimeTolerance > 0 {
		opts = append(opts, trace.WithTimeTolerance(c.TimeTolerance))
	}

	return opts
}

// CodecOptions returns the record codec options implied by the configuration.
func (c *Config) CodecOptions() []record.CodecOption {
	return []record.CodecOption{
		record.WithCompression(c.Compression),
		record.WithDecodeValidation(c.ValidateChecksums),
	}
}

// validate checks field ranges and compiles the rewrite rule.
func (c *Config) validate() error {
	if c.Input == "" {
		return configError(errs.ErrMissingInput)
	}
	if c.RecordLength < record.MinRecordLength || c.RecordLength > record.MaxRecordLength {
		return configError(fmt.Errorf("%w: %d not in %d..%d",
			errs.ErrInvalidRecordLen, c.RecordLength, record.MinRecordLength, record.MaxRecordLength))
	}
	if c.Encoding != 0 {
		if _, _, err := c.Encoding.SizeType(); err != nil {
			return configError(fmt.Errorf("%w: %w", errs.ErrInvalidOption, err))
		}
	}
	if c.Workers < 1 {
		return configError(fmt.Errorf("%w: workers must be at least 1, got %d", errs.ErrInvalidOption, c.Workers))
	}
	if c.MaxSegmentSamples < 1 {
		return configError(fmt.Errorf("%w: max segment samples %d", errs.ErrInvalidOption, c.MaxSegmentSamples))
	}
	if c.TimeTolerance < 0 {
		return configError(fmt.Errorf("%w: negative time tolerance %s", errs.ErrInvalidOption, c.TimeTolerance))
	}
	if c.HasFill && c.Transform != "" {
		return configError(fmt.Errorf("%w: -fill and -transform", errs.ErrConflictingOptions))
	}

	switch {
	case c.HasFill:
		c.rule = samples.Fill(c.Fill)
	case c.Transform != "":
		rule, err := mutate.Compile(c.Transform)
		if err != nil {
			return err
		}
		c.rule = rule
	}

	return nil
}

func configError(err error) error {
	return errs.Wrap(errs.KindConfiguration, "configuration", err)
}
