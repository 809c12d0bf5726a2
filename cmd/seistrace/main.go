// Command seistrace reads a record file, assembles its channels into
// continuous traces and reports them.
//
// Usage:
//
//	seistrace [options] <input> [selection]
//
// With -d or -D the decoded samples are printed, with -S per-channel
// statistics, and with -fill or -transform the samples are rewritten and,
// given -o, re-encoded into a new record file.
//
// Exit status is 0 on success, 1 on a configuration, allocation or I/O error,
// and 2 when -strict is set and any segment or channel failed.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/arloliu/seistrace/internal/config"
	"github.com/arloliu/seistrace/internal/logging"
	"github.com/arloliu/seistrace/pipeline"
	"github.com/caarlos0/env/v11"
	"github.com/spf13/afero"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Parse(os.Args[1:], env.ToMap(os.Environ()), os.Stderr)
	if errors.Is(err, config.ErrHelp) {
		return pipeline.ExitOK
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "seistrace: %v\n", err)
		return pipeline.ExitFatal
	}

	logger := logging.New(os.Stderr, cfg.Verbosity)
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := bufio.NewWriter(os.Stdout)
	res, err := pipeline.Run(ctx, afero.NewOsFs(), cfg, out, logger)
	if ferr := out.Flush(); ferr != nil && err == nil {
		err = ferr
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "seistrace: %v\n", err)
	}

	return pipeline.ExitCode(res, err, cfg.Strict)
}
