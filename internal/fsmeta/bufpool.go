package fsmeta

import "fmt"

// BufferPool hands out a bounded number of PathMax scratch buffers.
type BufferPool struct {
	free chan []byte
}

// NewBufferPool creates a pool holding n buffers. A pool of size 0 is valid
// and always exhausted.
func NewBufferPool(n int) *BufferPool {
	p := &BufferPool{free: make(chan []byte, n)}
	for range n {
		p.free <- make([]byte, PathMax)
	}
	return p
}

// Get takes a buffer without blocking.
func (p *BufferPool) Get() ([]byte, error) {
	select {
	case b := <-p.free:
		return b, nil
	default:
		return nil, fmt.Errorf("%w: all %d buffers in use", ErrResourceExhausted, cap(p.free))
	}
}

// Put returns a buffer obtained from Get.
func (p *BufferPool) Put(b []byte) {
	select {
	case p.free <- b[:cap(b)]:
	default:
	}
}
