// Package buffer provides pooled byte buffers for packet payloads. Outputs
// allocate one buffer per outgoing frame; pooling keeps the steady-state
// send path free of per-packet heap allocations.
package buffer

import "sync"

const (
	smallBufSize = 4 * 1024
	largeBufSize = 64 * 1024
	maxBufSize   = 1024 * 1024 // buffers grown past this are left to the GC
)

var smallPool = sync.Pool{
	New: func() any {
		return &memBuffer{buf: make([]byte, 0, smallBufSize)}
	},
}

var largePool = sync.Pool{
	New: func() any {
		return &memBuffer{buf: make([]byte, 0, largeBufSize)}
	},
}

// Get returns a pooled buffer with Len() == size.
func Get(size int) PooledBuffer {
	var b *memBuffer
	if size >= largeBufSize {
		b = largePool.Get().(*memBuffer)
	} else {
		b = smallPool.Get().(*memBuffer)
	}
	if cap(b.buf) < size {
		b.buf = make([]byte, size)
	}
	b.buf = b.buf[:size]
	return b
}

type memBuffer struct {
	buf []byte
}

func (b *memBuffer) Data() []byte {
	return b.buf
}

func (b *memBuffer) Len() int {
	return len(b.buf)
}

func (b *memBuffer) Cap() int {
	return cap(b.buf)
}

func (b *memBuffer) Resize(size int) {
	if size > cap(b.buf) {
		grown := make([]byte, size)
		copy(grown, b.buf)
		b.buf = grown
		return
	}
	b.buf = b.buf[:size]
}

func (b *memBuffer) Release() {
	if cap(b.buf) > maxBufSize {
		return
	}
	b.buf = b.buf[:0]
	if cap(b.buf) >= largeBufSize {
		largePool.Put(b)
	} else {
		smallPool.Put(b)
	}
}
