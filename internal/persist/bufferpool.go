package persist

import (
	"bytes"
	"sync"
)

// BufferPool recycles the byte buffers used to stage corpus/failure entries
// and stats lines before an atomic write, trimmed from
// shwoo03-Project/smart web fuzzer's internal/memory/pool.go BufferPool
// (the teacher's discard-counter/gets/puts statistics fields are dropped:
// nothing in this package reports pool metrics).
type BufferPool struct {
	pool    sync.Pool
	maxSize int
}

// NewBufferPool returns a pool seeding new buffers at initialSize capacity
// and declining to retain any buffer that grew past maxSize.
func NewBufferPool(initialSize, maxSize int) *BufferPool {
	bp := &BufferPool{maxSize: maxSize}
	bp.pool = sync.Pool{
		New: func() interface{} {
			return bytes.NewBuffer(make([]byte, 0, initialSize))
		},
	}
	return bp
}

// Get returns a reset, ready-to-use buffer.
func (bp *BufferPool) Get() *bytes.Buffer {
	buf := bp.pool.Get().(*bytes.Buffer)
	buf.Reset()
	return buf
}

// Put returns buf to the pool, discarding it instead if it grew past
// maxSize.
func (bp *BufferPool) Put(buf *bytes.Buffer) {
	if buf == nil || buf.Cap() > bp.maxSize {
		return
	}
	buf.Reset()
	bp.pool.Put(buf)
}
