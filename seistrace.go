// Package seistrace reads, assembles, transforms and rewrites streams of
// fixed-maximum-length seismic data records.
//
// A record carries a source identifier, a start time, a nominal sample rate and
// an encoded payload. Records of the same source are assembled into channels of
// time-contiguous segments, decoded on demand, optionally overwritten by a
// sample rule and packed back into records.
//
// # Basic Usage
//
// Reading a record file and decoding every segment:
//
//	codec, _ := seistrace.NewDefaultCodec()
//	list, stats, err := seistrace.ReadFile(afero.NewOsFs(), "day.rec", nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println("records:", stats.Selected)
//
//	if _, err := list.DecodeAll(ctx, codec, 4); err != nil {
//	    log.Fatal(err)
//	}
//
// Writing the assembled segments back out, re-encoded:
//
//	n, err := seistrace.WriteFile(afero.NewOsFs(), "out.rec", list, codec,
//	    trace.PackOptions{MaxRecordLength: 4096, Encoding: format.EncodingGorilla},
//	)
//
// # Package Structure
//
// This package provides convenient top-level wrappers around the record and
// trace packages. For streaming input, selections and fine-grained control use
// those packages directly; the seistrace command in cmd/seistrace composes
// them into the full read, report, mutate and write pipeline.
package seistrace

import (
	"bufio"
	"bytes"

	"github.com/arloliu/seistrace/errs"
	"github.com/arloliu/seistrace/format"
	"github.com/arloliu/seistrace/record"
	"github.com/arloliu/seistrace/selection"
	"github.com/arloliu/seistrace/trace"
	"github.com/spf13/afero"
)

var defaultCodecOptions = []record.CodecOption{
	record.WithCompression(format.CompressionNone),
	record.WithBigEndian(false),
	record.WithDecodeValidation(true),
}

// NewCodec creates a record codec with custom options.
//
// Parameters:
//   - opts: Optional configuration functions (see record.CodecOption)
//
// Returns:
//   - *record.Codec: The created codec
//   - error: An error if the configuration is invalid
//
// Example:
//
//	codec, err := seistrace.NewCodec(
//	    record.WithCompression(format.CompressionZstd),
//	)
func NewCodec(opts ...record.CodecOption) (*record.Codec, error) {
	return record.NewCodec(opts...)
}

// NewDefaultCodec creates a codec with little-endian headers, uncompressed
// payloads and decoded sample count validation.
func NewDefaultCodec() (*record.Codec, error) {
	return record.NewCodec(defaultCodecOptions...)
}

// ReadBytes assembles the records in data into a new list.
//
// The list decodes segments from data on demand, so data must not be modified
// while the list is in use.
//
// Parameters:
//   - data: Concatenated records
//   - sel: Record filter; nil selects every record
//   - opts: List configuration (see trace.ListOption)
//
// Returns:
//   - *trace.List: The assembled list
//   - trace.ReadStats: Counts of the read pass
//   - error: ConfigurationError for invalid options, DecodeError for an unreadable stream
func ReadBytes(data []byte, sel *selection.Selection, opts ...trace.ListOption) (*trace.List, trace.ReadStats, error) {
	return readNamed(data, "", sel, opts...)
}

// ReadFile reads the named record file from fs and assembles it into a new list.
//
// The whole file is loaded into memory. Use ReadBytes for data already in
// memory, or trace.List.ReadFrom to stream from an open file.
//
// Returns:
//   - *trace.List: The assembled list; on a DecodeError it holds the records read before the failure
//   - trace.ReadStats: Counts of the read pass
//   - error: Open or read failure, or any error of ReadBytes
func ReadFile(fs afero.Fs, name string, sel *selection.Selection, opts ...trace.ListOption) (*trace.List, trace.ReadStats, error) {
	data, err := afero.ReadFile(fs, name)
	if err != nil {
		return nil, trace.ReadStats{}, errs.Wrap(errs.KindConfiguration, "read "+name, err)
	}

	return readNamed(data, name, sel, opts...)
}

func readNamed(data []byte, name string, sel *selection.Selection, opts ...trace.ListOption) (*trace.List, trace.ReadStats, error) {
	list, err := trace.NewList(opts...)
	if err != nil {
		return nil, trace.ReadStats{}, err
	}

	src := list.AddSource(bytes.NewReader(data), name)
	rd, err := record.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, trace.ReadStats{}, err
	}

	stats, err := list.ReadFrom(rd, src, sel)

	return list, stats, err
}

// WriteFile packs list into records written to the named file on fs.
//
// Parameters:
//   - fs: Destination filesystem
//   - name: Output file, created or truncated
//   - list: Assembled list to pack
//   - codec: Record codec for the output records
//   - opts: Record length, encoding and segment filter
//
// Returns:
//   - int: Number of records written
//   - error: Joined per-channel EncodeErrors, or a create, write or close failure
func WriteFile(fs afero.Fs, name string, list *trace.List, codec trace.Codec, opts trace.PackOptions) (int, error) {
	f, err := fs.Create(name)
	if err != nil {
		return 0, errs.Wrap(errs.KindConfiguration, "create "+name, err)
	}

	w := bufio.NewWriter(f)
	n, packErr := list.Pack(w, codec, opts)
	if err := w.Flush(); err != nil && packErr == nil {
		packErr = err
	}
	if err := f.Close(); err != nil && packErr == nil {
		packErr = err
	}

	return n, packErr
}
