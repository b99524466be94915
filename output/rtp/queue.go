package rtp

import (
	"github.com/ugparu/gobroadcast/mpegts"
)

// chunkQueue is the staging FIFO between bursty muxed arrivals and the
// fixed-size, clock-paced sends. Payload bytes and their per-packet
// clock-reference samples live in one structure and move in lockstep, so
// the two sequences cannot drift apart. Growth is unbounded on purpose:
// backpressure is the muxer's real-time production rate, not this queue.
type chunkQueue struct {
	chunkSize int

	data    []byte
	head    int
	refs    []int64
	refHead int
}

// compactThreshold bounds how much dead prefix the FIFO keeps before
// shifting live bytes back to the start of the backing slice.
const compactThreshold = 512 * 1024

func newChunkQueue(chunkSize int) *chunkQueue {
	return &chunkQueue{
		chunkSize: chunkSize,
		data:      make([]byte, 0, 4*chunkSize),
		refs:      make([]int64, 0, 4*chunkSize/mpegts.PacketSize),
	}
}

// push appends one muxed burst and its clock-reference samples. The 1:1
// pairing between TS packets and samples is re-validated here; a mismatch
// is a defect in the producer and fatal for the worker.
func (q *chunkQueue) push(data []byte, refs []int64) error {
	if len(data)%mpegts.PacketSize != 0 {
		return &mpegts.UnalignedDataError{}
	}
	if len(refs) != len(data)/mpegts.PacketSize {
		return &mpegts.PCRCountError{}
	}

	q.data = append(q.data, data...)
	q.refs = append(q.refs, refs...)
	return nil
}

// pop copies one complete chunk into dst and returns the clock-reference
// sample of its first TS packet. ok is false while less than one full chunk
// is buffered; the remainder stays queued.
func (q *chunkQueue) pop(dst []byte) (ref int64, ok bool) {
	if q.buffered() < q.chunkSize {
		return 0, false
	}

	copy(dst, q.data[q.head:q.head+q.chunkSize])
	ref = q.refs[q.refHead]

	q.head += q.chunkSize
	q.refHead += q.chunkSize / mpegts.PacketSize
	q.compact()
	return ref, true
}

// buffered returns the number of payload bytes currently staged.
func (q *chunkQueue) buffered() int {
	return len(q.data) - q.head
}

func (q *chunkQueue) compact() {
	if q.head == len(q.data) {
		q.data = q.data[:0]
		q.refs = q.refs[:0]
		q.head = 0
		q.refHead = 0
		return
	}
	if q.head >= compactThreshold {
		q.data = append(q.data[:0], q.data[q.head:]...)
		q.refs = append(q.refs[:0], q.refs[q.refHead:]...)
		q.head = 0
		q.refHead = 0
	}
}
