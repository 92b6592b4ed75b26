package tensor

// bytesPerElement is the size of one stored element (float64).
const bytesPerElement = 8

// buffer is the reference-counted storage behind a tensor's forward values.
//
// The node that allocated the buffer holds one reference; each view created
// from it holds another. The slice is dropped only when the last holder
// releases, so a view keeps its data alive after the owner is destroyed.
//
// Graphs are single-threaded, so unlike a shared CoW buffer no atomics or
// locks are needed here.
type buffer struct {
	data    []float64
	holders int
}

// newBuffer allocates a zero-filled buffer with a single holder.
func newBuffer(size int) *buffer {
	return &buffer{
		data:    make([]float64, size),
		holders: 1,
	}
}

// addRef registers one more holder (a view).
func (b *buffer) addRef() {
	b.holders++
}

// release drops one holder and reports whether the storage was freed.
func (b *buffer) release() bool {
	if b.holders <= 0 {
		return false
	}
	b.holders--
	if b.holders == 0 {
		b.data = nil
		return true
	}
	return false
}

// byteSize returns the size in bytes of the underlying storage.
func (b *buffer) byteSize() int64 {
	return int64(len(b.data)) * bytesPerElement
}
