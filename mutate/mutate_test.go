package mutate

import (
	"testing"

	"github.com/arloliu/seistrace/errs"
	"github.com/arloliu/seistrace/samples"
	"github.com/stretchr/testify/require"
)

func TestCompile_Apply(t *testing.T) {
	tests := []struct {
		expr string
		in   []int32
		want []int32
	}{
		{"0", []int32{5, -3, 9}, []int32{0, 0, 0}},
		{"x * 2", []int32{5, -3, 9}, []int32{10, -6, 18}},
		{"i % 2 == 0 ? x : -x", []int32{1, 2, 3, 4}, []int32{1, -2, 3, -4}},
		{"n - i", []int32{7, 7, 7}, []int32{3, 2, 1}},
		{"x / 2", []int32{3, -3}, []int32{2, -2}},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			rule, err := Compile(tt.expr)
			require.NoError(t, err)
			require.Equal(t, tt.expr, rule.String())

			buf := samples.FromInt32(append([]int32(nil), tt.in...))
			require.NoError(t, buf.Apply(rule))
			require.Equal(t, tt.want, buf.Int32s())
		})
	}
}

func TestCompile_Float(t *testing.T) {
	rule, err := Compile("x + 0.25")
	require.NoError(t, err)

	buf := samples.FromFloat64([]float64{1, 2})
	require.NoError(t, buf.Apply(rule))
	require.Equal(t, []float64{1.25, 2.25}, buf.Float64Values())
}

func TestCompile_Errors(t *testing.T) {
	for _, src := range []string{"", "x +", "y * 2", `"text"`, "x > 1"} {
		_, err := Compile(src)
		require.Error(t, err, src)
		require.ErrorIs(t, err, errs.ErrInvalidOption, src)
		require.Equal(t, errs.KindConfiguration, errs.KindOf(err), src)
	}
}

func TestRule_OutOfRangeLeavesBuffer(t *testing.T) {
	rule, err := Compile("x * 1e10")
	require.NoError(t, err)

	buf := samples.FromInt32([]int32{1, 2})
	require.ErrorIs(t, buf.Apply(rule), errs.ErrValueOutOfRange)
	require.Equal(t, []int32{1, 2}, buf.Int32s())
}
