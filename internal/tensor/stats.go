package tensor

// Stats counts allocations in a Graph. The counters only grow; the Live*
// helpers derive current occupancy from them.
type Stats struct {
	NodesCreated         int
	NodesDestroyed       int
	BuffersAllocated     int // data buffers (views do not allocate)
	BuffersFreed         int
	GradBuffersAllocated int
	GradBuffersFreed     int
	Retains              int
	Releases             int
	LiveBytes            int64 // data + gradient bytes currently held
}

// LiveNodes returns the number of nodes not yet destroyed.
func (s Stats) LiveNodes() int {
	return s.NodesCreated - s.NodesDestroyed
}

// LiveBuffers returns the number of data buffers not yet freed.
func (s Stats) LiveBuffers() int {
	return s.BuffersAllocated - s.BuffersFreed
}

// LiveGradBuffers returns the number of gradient buffers not yet freed.
func (s Stats) LiveGradBuffers() int {
	return s.GradBuffersAllocated - s.GradBuffersFreed
}
