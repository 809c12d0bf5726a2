package samples

import (
	"fmt"
	"math"

	"github.com/arloliu/seistrace/errs"
	"github.com/arloliu/seistrace/format"
	"github.com/arloliu/seistrace/internal/pool"
)

// Rule computes the replacement for sample i of n given its current value x.
type Rule interface {
	Value(x float64, i, n int) (float64, error)
}

// RuleFunc adapts a function into a Rule.
type RuleFunc func(x float64, i, n int) (float64, error)

func (f RuleFunc) Value(x float64, i, n int) (float64, error) {
	return f(x, i, n)
}

// Fill replaces every sample with v.
func Fill(v float64) Rule {
	return RuleFunc(func(float64, int, int) (float64, error) { return v, nil })
}

// Map replaces every sample x with fn(x).
func Map(fn func(x float64) float64) Rule {
	return RuleFunc(func(x float64, _, _ int) (float64, error) { return fn(x), nil })
}

// Apply replaces every sample with the rule's value.
//
// Values are computed in float64 and narrowed back to the buffer type:
// int32 samples are rounded to the nearest integer, float32 samples are
// rounded to single precision. Apply either replaces every sample or, on
// error, leaves the buffer unchanged.
//
// Returns:
//   - error: ErrTextRuleNotAllowed for text buffers, ErrValueOutOfRange when a
//     value does not fit the sample type, or the rule's own error
func (b *Buffer) Apply(rule Rule) error {
	n := b.Len()

	switch b.typ {
	case format.SampleInt32:
		scratch, release := pool.GetInt32Slice(n)
		defer release()
		for i, x := range b.i32 {
			v, err := rule.Value(float64(x), i, n)
			if err != nil {
				return fmt.Errorf("sample %d: %w", i, err)
			}
			r := math.Round(v)
			if math.IsNaN(r) || r < math.MinInt32 || r > math.MaxInt32 {
				return fmt.Errorf("%w: sample %d value %g for %s", errs.ErrValueOutOfRange, i, v, b.typ)
			}
			scratch[i] = int32(r)
		}
		copy(b.i32, scratch)
	case format.SampleFloat32, format.SampleFloat64:
		scratch, release := pool.GetFloat64Slice(n)
		defer release()
		for i := range n {
			v, err := rule.Value(b.Float64At(i), i, n)
			if err != nil {
				return fmt.Errorf("sample %d: %w", i, err)
			}
			if b.typ == format.SampleFloat32 && !math.IsInf(v, 0) && !math.IsNaN(v) && math.Abs(v) > math.MaxFloat32 {
				return fmt.Errorf("%w: sample %d value %g for %s", errs.ErrValueOutOfRange, i, v, b.typ)
			}
			scratch[i] = v
		}
		if b.typ == format.SampleFloat32 {
			for i, v := range scratch {
				b.f32[i] = float32(v)
			}
		} else {
			copy(b.f64, scratch)
		}
	case format.SampleText:
		return errs.ErrTextRuleNotAllowed
	case format.SampleUnknown:
		return fmt.Errorf("%w: sample type %s", errs.ErrUnsupportedEncoding, b.typ)
	}

	return nil
}
