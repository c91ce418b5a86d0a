package collections

// Stack is a generic LIFO container.
type Stack[T any] struct {
	data []T
}

// NewStack creates a stack with the given capacity.
func NewStack[T any](capacity int) *Stack[T] {
	return &Stack[T]{data: make([]T, 0, capacity)}
}

// Push places v on top of the stack.
func (s *Stack[T]) Push(v T) {
	s.data = append(s.data, v)
}

// Pop removes and returns the top value. The second return is false when
// the stack is empty.
func (s *Stack[T]) Pop() (T, bool) {
	if len(s.data) == 0 {
		var zero T
		return zero, false
	}
	v := s.data[len(s.data)-1]
	s.data = s.data[:len(s.data)-1]
	return v, true
}

// Peek returns the top value without removing it.
func (s *Stack[T]) Peek() (T, bool) {
	if len(s.data) == 0 {
		var zero T
		return zero, false
	}
	return s.data[len(s.data)-1], true
}

// Len returns the number of stacked values.
func (s *Stack[T]) Len() int {
	return len(s.data)
}

// Clear empties the stack, keeping the allocation.
func (s *Stack[T]) Clear() {
	s.data = s.data[:0]
}

// RingBuffer is a fixed-capacity FIFO that overwrites the oldest entry
// when pushed while full. It keeps the most recent Cap values.
type RingBuffer[T any] struct {
	data  []T
	head  int
	count int
}

// NewRingBuffer creates a ring buffer holding up to capacity values.
func NewRingBuffer[T any](capacity int) *RingBuffer[T] {
	if capacity <= 0 {
		capacity = 1
	}
	return &RingBuffer[T]{data: make([]T, capacity)}
}

// Push appends v, evicting the oldest value if the buffer is full.
func (r *RingBuffer[T]) Push(v T) {
	tail := (r.head + r.count) % len(r.data)
	r.data[tail] = v
	if r.count == len(r.data) {
		r.head = (r.head + 1) % len(r.data)
	} else {
		r.count++
	}
}

// Pop removes and returns the oldest value.
func (r *RingBuffer[T]) Pop() (T, bool) {
	if r.count == 0 {
		var zero T
		return zero, false
	}
	v := r.data[r.head]
	r.head = (r.head + 1) % len(r.data)
	r.count--
	return v, true
}

// Snapshot returns the buffered values from oldest to newest.
func (r *RingBuffer[T]) Snapshot() []T {
	out := make([]T, 0, r.count)
	for i := 0; i < r.count; i++ {
		out = append(out, r.data[(r.head+i)%len(r.data)])
	}
	return out
}

// Len returns the number of buffered values.
func (r *RingBuffer[T]) Len() int {
	return r.count
}

// Cap returns the buffer capacity.
func (r *RingBuffer[T]) Cap() int {
	return len(r.data)
}
