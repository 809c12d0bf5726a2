package trace

import (
	"fmt"
	"sync"

	"github.com/arloliu/seistrace/errs"
	"github.com/arloliu/seistrace/format"
	"github.com/arloliu/seistrace/nstime"
	"github.com/arloliu/seistrace/record"
	"github.com/arloliu/seistrace/samples"
)

// fakeCodec maps opaque record bytes to synthetic sample buffers.
type fakeCodec struct {
	mu       sync.Mutex
	payloads map[string]*samples.Buffer
	failures map[string]error
	decodes  int
	seq      int
}

var _ Codec = (*fakeCodec)(nil)

func newFakeCodec() *fakeCodec {
	return &fakeCodec{
		payloads: make(map[string]*samples.Buffer),
		failures: make(map[string]error),
	}
}

// record returns a record whose decode yields buf.
func (f *fakeCodec) record(sid string, start nstime.Time, rate float64, enc format.EncodingType, buf *samples.Buffer) *record.Record {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.seq++
	raw := []byte(fmt.Sprintf("%s#%d", sid, f.seq))
	f.payloads[string(raw)] = buf

	return &record.Record{
		SourceID:    sid,
		StartTime:   start,
		SampleRate:  rate,
		SampleCount: int64(buf.Len()),
		Encoding:    enc,
		Payload:     raw,
		Raw:         raw,
	}
}

func (f *fakeCodec) fail(rec *record.Record, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[string(rec.Raw)] = err
}

func (f *fakeCodec) decodeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.decodes
}

func (f *fakeCodec) DecodeRecord(raw []byte) (*samples.Buffer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.decodes++
	if err := f.failures[string(raw)]; err != nil {
		return nil, err
	}
	buf, ok := f.payloads[string(raw)]
	if !ok {
		return nil, fmt.Errorf("%w: unknown record %q", errs.ErrMalformedPayload, raw)
	}

	return buf.Clone(), nil
}

// EncodeRecords emits one record per maxRecordLength/64 samples.
func (f *fakeCodec) EncodeRecords(
	tmpl record.Template, buf *samples.Buffer, maxRecordLength int, enc format.EncodingType, emit func([]byte) error,
) (int, error) {
	_, typ, err := f.SizeType(enc)
	if err != nil {
		return 0, err
	}
	if buf.Len() == 0 {
		return 0, errs.ErrZeroLengthSegment
	}
	if buf.Type() != typ {
		buf = samples.FromFloat64(buf.Float64s())
	}

	per := maxRecordLength / 64
	n := 0
	for start := 0; start < buf.Len(); start += per {
		end := min(start+per, buf.Len())
		raw := []byte(fmt.Sprintf("%s|%s|%d|%d", tmpl.SourceID, enc, start, end))

		f.mu.Lock()
		f.payloads[string(raw)] = buf.Slice(start, end).Clone()
		f.mu.Unlock()

		if err := emit(raw); err != nil {
			return n, err
		}
		n++
	}

	return n, nil
}

func (f *fakeCodec) SizeType(enc format.EncodingType) (int, format.SampleType, error) {
	size, typ, err := enc.SizeType()
	if err != nil {
		return 0, format.SampleUnknown, fmt.Errorf("%w: %w", errs.ErrUnsupportedEncoding, err)
	}

	return size, typ, nil
}
