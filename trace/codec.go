package trace

import (
	"github.com/arloliu/seistrace/format"
	"github.com/arloliu/seistrace/record"
	"github.com/arloliu/seistrace/samples"
)

// Codec decodes and encodes records for the assembler.
//
// record.Codec is the production implementation.
type Codec interface {
	// DecodeRecord decodes every sample of one complete record.
	DecodeRecord(raw []byte) (*samples.Buffer, error)

	// EncodeRecords packs buf into records of at most maxRecordLength bytes and
	// passes each to emit, returning the number emitted.
	EncodeRecords(tmpl record.Template, buf *samples.Buffer, maxRecordLength int,
		enc format.EncodingType, emit func(raw []byte) error) (int, error)

	// SizeType returns the decoded element size and sample type of enc.
	SizeType(enc format.EncodingType) (int, format.SampleType, error)
}

var _ Codec = (*record.Codec)(nil)
