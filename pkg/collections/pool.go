package collections

import "sync"

// SlicePool recycles slices of a single element type. Get returns a slice
// with zero length and at least the configured capacity; Put truncates
// before returning it to the pool.
type SlicePool[T any] struct {
	pool sync.Pool
}

// NewSlicePool creates a pool whose fresh slices have the given capacity.
func NewSlicePool[T any](capacity int) *SlicePool[T] {
	if capacity <= 0 {
		capacity = 256
	}
	return &SlicePool[T]{
		pool: sync.Pool{
			New: func() any {
				s := make([]T, 0, capacity)
				return &s
			},
		},
	}
}

// Get takes a slice from the pool.
func (p *SlicePool[T]) Get() *[]T {
	return p.pool.Get().(*[]T)
}

// Put returns a slice to the pool, truncated to zero length.
func (p *SlicePool[T]) Put(s *[]T) {
	*s = (*s)[:0]
	p.pool.Put(s)
}

// ByteSlicePool recycles byte buffers for encode and decode scratch space.
var ByteSlicePool = NewSlicePool[byte](4096)

// GetByteSlice takes a byte buffer from the shared pool.
func GetByteSlice() *[]byte {
	return ByteSlicePool.Get()
}

// PutByteSlice returns a byte buffer to the shared pool.
func PutByteSlice(s *[]byte) {
	ByteSlicePool.Put(s)
}

// MapPool recycles maps between aggregation rounds.
type MapPool[K comparable, V any] struct {
	pool sync.Pool
}

// NewMapPool creates a pool whose fresh maps have the given capacity hint.
func NewMapPool[K comparable, V any](capacity int) *MapPool[K, V] {
	if capacity <= 0 {
		capacity = 64
	}
	return &MapPool[K, V]{
		pool: sync.Pool{
			New: func() any {
				return make(map[K]V, capacity)
			},
		},
	}
}

// Get takes a map from the pool.
func (p *MapPool[K, V]) Get() map[K]V {
	return p.pool.Get().(map[K]V)
}

// Put clears the map and returns it to the pool.
func (p *MapPool[K, V]) Put(m map[K]V) {
	clear(m)
	p.pool.Put(m)
}
