package gobroadcast

import "time"

// MuxedPacket is one burst of already-multiplexed transport-stream data
// handed from the muxer to an output. The payload is a whole number of
// 188-byte TS packets, each annotated with a 27 MHz program clock reference
// sample. Ownership transfers to the output on send; the output releases the
// packet once its bytes have been staged.
type MuxedPacket interface {
	Data() []byte  // Raw TS bytes, a whole number of 188-byte packets.
	PCRs() []int64 // One clock-reference sample per contained TS packet.
	Release()      // Returns the backing buffer to its pool.
}

// Stats is a snapshot of an output session's transmission counters.
type Stats struct {
	Packets uint32 // Packets sent since session open.
	Octets  uint32 // Payload octets sent since session open.
}

// Output defines the interface for clock-paced stream transmission.
type Output interface {
	Write()                      // Starts the output worker.
	Packets() chan<- MuxedPacket // Channel for muxed bursts to transmit.
	ResetBuffer()                // Signals an upstream drop; re-arms buffering and clock sync.
	Stats() Stats                // Returns current session counters.
	Done() <-chan struct{}       // Channel signaling worker termination.
	Close()                      // Stops the worker and releases resources.
}

// AudioFrame is one block of raw audio samples entering an encoder.
type AudioFrame interface {
	Data() []byte             // Raw interleaved samples.
	Timestamp() time.Duration // Presentation timestamp of the first sample.
	Duration() time.Duration  // Duration covered by the contained samples.
	Release()                 // Returns the backing buffer to its pool.
}

// CodedFrame is one fixed-duration encoded audio frame leaving an encoder.
// Its timestamp is extrapolated from the source frame timestamps and the
// fixed coded-frame duration, so input and output frame sizes may differ.
type CodedFrame struct {
	Data      []byte
	Timestamp time.Duration
	Duration  time.Duration
}

// AudioEncoder defines the queue contract of the audio encoding stage. The
// bounded channels are the frame slot lists: the producer blocks while they
// are full, the encoder blocks while they are empty.
type AudioEncoder interface {
	Encode()                     // Starts the encoding worker.
	Samples() chan<- AudioFrame  // Channel for raw frames to encode.
	Packets() <-chan *CodedFrame // Channel providing coded frames.
	Done() <-chan struct{}       // Channel signaling worker termination.
	Close()                      // Stops encoding and releases resources.
}
