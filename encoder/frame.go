package encoder

import (
	"time"

	"github.com/ugparu/gobroadcast"
	"github.com/ugparu/gobroadcast/utils/buffer"
)

type frame struct {
	buf buffer.PooledBuffer
	pts time.Duration
	dur time.Duration
}

// NewFrame copies data into a pooled buffer and wraps it as an AudioFrame.
// Ownership passes to whoever dequeues the frame; it is released exactly
// once, by the encoding worker.
func NewFrame(data []byte, pts, dur time.Duration) gobroadcast.AudioFrame {
	buf := buffer.Get(len(data))
	copy(buf.Data(), data)
	return &frame{buf: buf, pts: pts, dur: dur}
}

func (f *frame) Data() []byte {
	return f.buf.Data()
}

func (f *frame) Timestamp() time.Duration {
	return f.pts
}

func (f *frame) Duration() time.Duration {
	return f.dur
}

func (f *frame) Release() {
	f.buf.Release()
}
