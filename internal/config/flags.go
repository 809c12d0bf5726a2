package config

// Command-line parsing. Repeated -v flags raise the verbosity; "-vv" is
// accepted as two -v flags.

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/arloliu/seistrace/errs"
	"github.com/arloliu/seistrace/format"
	"github.com/arloliu/seistrace/nstime"
	"github.com/arloliu/seistrace/report"
	"github.com/caarlos0/env/v11"
)

// ErrHelp is returned by Parse after printing the usage for -h.
var ErrHelp = flag.ErrHelp

// Parse builds a Config from environment defaults and command-line arguments.
//
// Parameters:
//   - args: Arguments without the program name
//   - environ: Environment variables, typically env.ToMap(os.Environ())
//   - usage: Destination of the usage text on -h or a parse error
//
// Returns:
//   - *Config: The validated configuration
//   - error: ErrHelp for -h, or a ConfigurationError
func Parse(args []string, environ map[string]string, usage io.Writer) (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, env.Options{Environment: environ}); err != nil {
		return nil, configError(fmt.Errorf("%w: environment: %w", errs.ErrInvalidOption, err))
	}

	fs := flag.NewFlagSet("seistrace", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	defineFlags(fs, cfg)

	positional, err := parseInterleaved(fs, expandVerbose(args))
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			printUsage(usage, fs)
			return nil, ErrHelp
		}
		printUsage(usage, fs)

		return nil, configError(classifyFlagError(err))
	}

	if err := parsePositionalArgs(positional, cfg); err != nil {
		printUsage(usage, fs)
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func defineFlags(fs *flag.FlagSet, cfg *Config) {
	fs.Var((*countValue)(&cfg.Verbosity), "v", "Increase verbosity; repeatable")
	fs.Var(&dataModeValue{p: &cfg.Data, mode: report.DataFirstLine}, "d", "Print the first line of samples of each segment")
	fs.Var(&dataModeValue{p: &cfg.Data, mode: report.DataAll}, "D", "Print all samples of each segment")
	fs.BoolVar(&cfg.Summary, "s", false, "Print a basic summary")
	fs.BoolVar(&cfg.Statistics, "S", false, "Print per-channel statistics")
	fs.Var(&styleValue{p: &cfg.TimeStyle}, "tf", "Time `format`: seed | iso")

	fs.StringVar(&cfg.Output, "o", "", "Write re-encoded records to `file`")
	fs.IntVar(&cfg.RecordLength, "r", cfg.RecordLength, "Maximum output record `length`")
	fs.Var(&encodingValue{p: &cfg.Encoding}, "e", "Output `encoding` (default: source encoding)")
	fs.Var(&compressionValue{p: &cfg.Compression}, "c", "Output `compression`: none | zstd | s2 | lz4")
	fs.Var(&fillValue{cfg: cfg}, "fill", "Overwrite samples with a constant `value`")
	fs.StringVar(&cfg.Transform, "transform", "", "Rewrite samples with an `expression` over x, i, n")

	fs.IntVar(&cfg.Workers, "j", cfg.Workers, "Parallel decode `workers`")
	fs.BoolVar(&cfg.Strict, "strict", cfg.Strict, "Exit with status 2 when any segment or channel failed")
	fs.StringVar(&cfg.MetricsFile, "metrics", cfg.MetricsFile, "Write Prometheus metrics to `file`")
}

// parseInterleaved parses flags appearing before, between and after the
// positional arguments. Everything after "--" is positional.
func parseInterleaved(fs *flag.FlagSet, args []string) ([]string, error) {
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		rest := fs.Args()
		if len(rest) == 0 {
			return positional, nil
		}
		if consumed := len(args) - len(rest); consumed > 0 && args[consumed-1] == "--" {
			return append(positional, rest...), nil
		}
		positional = append(positional, rest[0])
		args = rest[1:]
	}
}

func parsePositionalArgs(args []string, cfg *Config) error {
	switch len(args) {
	case 0:
		return configError(errs.ErrMissingInput)
	case 1:
		cfg.Input = args[0]
	case 2:
		cfg.Input, cfg.SelectionFile = args[0], args[1]
	default:
		return configError(fmt.Errorf("%w: unexpected argument %q", errs.ErrUnknownOption, args[2]))
	}

	return nil
}

// expandVerbose rewrites "-vv..." into repeated "-v" arguments.
func expandVerbose(args []string) []string {
	out := make([]string, 0, len(args))
	for i, arg := range args {
		if arg == "--" {
			return append(out, args[i:]...)
		}
		if len(arg) > 2 && arg[0] == '-' && strings.Trim(arg[1:], "v") == "" {
			for range len(arg) - 1 {
				out = append(out, "-v")
			}

			continue
		}
		out = append(out, arg)
	}

	return out
}

func classifyFlagError(err error) error {
	if strings.HasPrefix(err.Error(), "flag provided but not defined") {
		return fmt.Errorf("%w: %w", errs.ErrUnknownOption, err)
	}

	return fmt.Errorf("%w: %w", errs.ErrInvalidOption, err)
}

func printUsage(w io.Writer, fs *flag.FlagSet) {
	if w == nil {
		return
	}
	fmt.Fprintln(w, "Usage: seistrace [options] <input> [selection]")
	fmt.Fprintln(w)
	fs.SetOutput(w)
	fs.PrintDefaults()
	fs.SetOutput(io.Discard)
}

// flag.Value adapters.

type countValue int

func (c *countValue) String() string   { return strconv.Itoa(int(*c)) }
func (c *countValue) IsBoolFlag() bool { return true }
func (c *countValue) Set(s string) error {
	on, err := strconv.ParseBool(s)
	if err != nil {
		return err
	}
	if on {
		*c++
	}

	return nil
}

type dataModeValue struct {
	p    *report.DataMode
	mode report.DataMode
}

func (d *dataModeValue) String() string   { return "false" }
func (d *dataModeValue) IsBoolFlag() bool { return true }
func (d *dataModeValue) Set(s string) error {
	on, err := strconv.ParseBool(s)
	if err != nil {
		return err
	}
	if on && d.mode > *d.p {
		*d.p = d.mode
	}

	return nil
}

type encodingValue struct{ p *format.EncodingType }

func (e *encodingValue) String() string {
	if e.p == nil || *e.p == 0 {
		return ""
	}

	return e.p.String()
}

func (e *encodingValue) Set(s string) error {
	return e.p.UnmarshalText([]byte(s))
}

type compressionValue struct{ p *format.CompressionType }

func (c *compressionValue) String() string {
	if c.p == nil {
		return ""
	}

	return c.p.String()
}

func (c *compressionValue) Set(s string) error {
	return c.p.UnmarshalText([]byte(s))
}

type styleValue struct{ p *nstime.Style }

func (s *styleValue) String() string {
	if s.p == nil {
		return ""
	}

	return s.p.String()
}

func (s *styleValue) Set(v string) error {
	return s.p.UnmarshalText([]byte(v))
}

type fillValue struct{ cfg *Config }

func (f *fillValue) String() string {
	if f.cfg == nil || !f.cfg.HasFill {
		return ""
	}

	return strconv.FormatFloat(f.cfg.Fill, 'g', -1, 64)
}

func (f *fillValue) Set(s string) error {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return fmt.Errorf("invalid fill value %q", s)
	}
	f.cfg.Fill, f.cfg.HasFill = v, true

	return nil
}
