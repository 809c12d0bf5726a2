package pool

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetFloat64Slice(t *testing.T) {
	s, release := GetFloat64Slice(100)
	require.Len(t, s, 100)
	s[99] = 1.5
	release()

	s2, release2 := GetFloat64Slice(10)
	defer release2()
	require.Len(t, s2, 10)
}

func TestGetInt32Slice(t *testing.T) {
	s, release := GetInt32Slice(0)
	require.Empty(t, s)
	release()

	s, release = GetInt32Slice(64)
	defer release()
	require.Len(t, s, 64)
}
