package core

import (
	"sync"

	"github.com/armon/circbuf"
)

const (
	minOutputTail     = 1024
	defaultOutputTail = 64 * 1024
	maxOutputTail     = 4 * 1024 * 1024
)

// BufferPool manages reusable circular buffers holding the tail of step output.
type BufferPool struct {
	pool    sync.Pool
	size    int64
	maxSize int64
	minSize int64
}

// NewBufferPool creates a new buffer pool with configurable sizes
func NewBufferPool(minSize, defaultSize, maxSize int64) *BufferPool {
	bp := &BufferPool{
		size:    defaultSize,
		maxSize: maxSize,
		minSize: minSize,
	}

	bp.pool = sync.Pool{
		New: func() interface{} {
			buf, _ := circbuf.NewBuffer(bp.size)
			return buf
		},
	}

	return bp
}

// Get retrieves a buffer from the pool or creates a new one
func (bp *BufferPool) Get() *circbuf.Buffer {
	return bp.pool.Get().(*circbuf.Buffer)
}

// GetSized retrieves a buffer holding at least size bytes, clamped to the
// pool bounds. Zero means the default size.
func (bp *BufferPool) GetSized(size int64) *circbuf.Buffer {
	if size <= 0 || size == bp.size {
		return bp.Get()
	}
	if size < bp.minSize {
		size = bp.minSize
	}
	if size > bp.maxSize {
		size = bp.maxSize
	}

	buf, _ := circbuf.NewBuffer(size)
	return buf
}

// Put returns a buffer to the pool for reuse
func (bp *BufferPool) Put(buf *circbuf.Buffer) {
	if buf == nil {
		return
	}

	buf.Reset()

	// Custom-sized buffers are left to the GC
	if buf.Size() == bp.size {
		bp.pool.Put(buf)
	}
}

// DefaultBufferPool provides the per-step output tails.
var DefaultBufferPool = NewBufferPool(minOutputTail, defaultOutputTail, maxOutputTail)
