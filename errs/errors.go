// Package errs defines the sentinel errors and error kinds shared by seistrace packages.
//
// Every failure surfaced by the pipeline belongs to one Kind. The kind decides the
// propagation policy: Configuration and Allocation errors abort the run, while
// Decode, Statistics and Encode errors are isolated to the segment or channel that
// produced them.
//
// Sentinels are wrapped with fmt.Errorf("...: %w") and classified with Wrap:
//
//	if n != want {
//	    return errs.Wrap(errs.KindDecode, "decode segment", errs.ErrCountMismatch)
//	}
//
//	if errs.KindOf(err) == errs.KindAllocation {
//	    return err // fatal
//	}
package errs

import (
	"errors"
)

// Kind classifies an error by its propagation policy.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindConfiguration
	KindDecode
	KindAllocation
	KindStatistics
	KindEncode
)

func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindDecode:
		return "decode"
	case KindAllocation:
		return "allocation"
	case KindStatistics:
		return "statistics"
	case KindEncode:
		return "encode"
	case KindUnknown:
		return "unknown"
	default:
		return "unknown"
	}
}

// Fatal reports whether errors of this kind abort the whole run.
func (k Kind) Fatal() bool {
	return k == KindConfiguration || k == KindAllocation || k == KindUnknown
}

// Configuration errors
var (
	ErrMissingInput       = errors.New("no input source specified")
	ErrUnknownOption      = errors.New("unknown option")
	ErrInvalidSelection   = errors.New("malformed selection")
	ErrEmptySelection     = errors.New("selection source contains no rules")
	ErrInvalidRecordLen   = errors.New("invalid maximum record length")
	ErrInvalidOption      = errors.New("invalid option value")
	ErrConflictingOptions = errors.New("conflicting options")
)

// Record format errors
var (
	ErrInvalidHeaderSize  = errors.New("invalid record header size")
	ErrInvalidMagicNumber = errors.New("invalid record magic number")
	ErrInvalidHeader      = errors.New("invalid record header")
	ErrTruncatedRecord    = errors.New("truncated record")
	ErrChecksumMismatch   = errors.New("record checksum mismatch")
	ErrIdentifierTooLong  = errors.New("source identifier too long")
)

// Decode errors
var (
	ErrUnsupportedEncoding = errors.New("unsupported encoding")
	ErrCountMismatch       = errors.New("decoded sample count does not match declared count")
	ErrSampleTypeMismatch  = errors.New("record sample type differs from segment sample type")
	ErrMalformedPayload    = errors.New("malformed record payload")
	ErrNoRecords           = errors.New("segment has no record references")
	ErrSourceUnavailable   = errors.New("record source unavailable")
)

// Allocation errors
var (
	ErrSegmentTooLarge = errors.New("segment sample count exceeds allocation limit")
)

// Statistics errors
var (
	ErrEmptyBuffer = errors.New("statistics requested on an empty buffer")
	ErrTextBuffer  = errors.New("statistics requested on a text buffer")
)

// Mutation and encode errors
var (
	ErrNotDecoded         = errors.New("segment has no decoded buffer")
	ErrValueOutOfRange    = errors.New("value out of range for sample type")
	ErrZeroLengthSegment  = errors.New("segment has zero samples")
	ErrNarrowingEncoding  = errors.New("encoding would narrow sample values")
	ErrRecordLenTooSmall  = errors.New("maximum record length too small for one sample")
	ErrTextRuleNotAllowed = errors.New("numeric rule applied to a text buffer")
)

// Error is a classified error carrying the operation that produced it.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return e.Kind.String() + " error: " + e.Err.Error()
	}

	return e.Kind.String() + " error: " + e.Op + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Wrap classifies err with kind. A nil err returns nil.
func Wrap(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}

	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf returns the kind of the first classified error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}

	return KindUnknown
}

// Is reports whether err is classified with kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
