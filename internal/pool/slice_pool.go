package pool

import "sync"

// Scratch slices used when a sample buffer must be widened before encoding.
var (
	int32SlicePool = sync.Pool{
		New: func() any { return &[]int32{} },
	}
	float64SlicePool = sync.Pool{
		New: func() any { return &[]float64{} },
	}
)

// GetInt32Slice returns an int32 slice of length size and its release function.
//
//	vals, release := pool.GetInt32Slice(n)
//	defer release()
func GetInt32Slice(size int) ([]int32, func()) {
	ptr, _ := int32SlicePool.Get().(*[]int32)
	if cap(*ptr) < size {
		*ptr = make([]int32, size)
	}
	*ptr = (*ptr)[:size]

	return *ptr, func() { int32SlicePool.Put(ptr) }
}

// GetFloat64Slice returns a float64 slice of length size and its release function.
func GetFloat64Slice(size int) ([]float64, func()) {
	ptr, _ := float64SlicePool.Get().(*[]float64)
	if cap(*ptr) < size {
		*ptr = make([]float64, size)
	}
	*ptr = (*ptr)[:size]

	return *ptr, func() { float64SlicePool.Put(ptr) }
}
