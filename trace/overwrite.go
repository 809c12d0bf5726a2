package trace

import (
	"errors"
	"fmt"

	"github.com/arloliu/seistrace/errs"
	"github.com/arloliu/seistrace/samples"
)

// Overwrite replaces every decoded sample with the rule's value and marks the
// segment modified.
//
// Returns:
//   - error: EncodeError wrapping ErrNotDecoded when the segment has no buffer,
//     ErrTextRuleNotAllowed for text, or ErrValueOutOfRange when a value does
//     not fit the sample type; the buffer is unchanged on error
func (s *Segment) Overwrite(rule samples.Rule) error {
	if s.buf == nil {
		return errs.Wrap(errs.KindEncode, "overwrite", errs.ErrNotDecoded)
	}
	if err := s.buf.Apply(rule); err != nil {
		return errs.Wrap(errs.KindEncode, "overwrite", err)
	}
	s.modified = true

	return nil
}

// OverwriteAll decodes every segment on demand and applies rule to it.
//
// Text segments are left untouched. Decode and rule errors are collected per
// segment and joined; an AllocationError stops the pass.
//
// Returns:
//   - int: Number of segments overwritten
//   - error: Joined localized errors, or the fatal error
func (l *List) OverwriteAll(codec Codec, rule samples.Rule) (int, error) {
	var errList []error
	done := 0

	for ci := range l.channels {
		ch := &l.channels[ci]
		for _, seg := range ch.Segments {
			buf, err := l.decodeSegment(ch, seg, codec)
			if err != nil {
				if errs.KindOf(err).Fatal() {
					return done, err
				}
				errList = append(errList, err)

				continue
			}
			if !buf.Type().Numeric() {
				continue
			}
			if err := seg.Overwrite(rule); err != nil {
				errList = append(errList, fmt.Errorf("%s segment %s: %w", ch.SourceID, seg.Start, err))
				continue
			}
			done++
		}
	}

	return done, errors.Join(errList...)
}
