package mpegts

import (
	"github.com/ugparu/gobroadcast"
	"github.com/ugparu/gobroadcast/utils/buffer"
)

// UnalignedDataError indicates a muxed payload whose length is not a whole
// number of TS packets.
type UnalignedDataError struct {
}

// Error returns the error message for UnalignedDataError.
func (UnalignedDataError) Error() string {
	return "payload is not a whole number of TS packets"
}

// PCRCountError indicates a muxed payload whose clock-reference list does
// not hold exactly one sample per contained TS packet.
type PCRCountError struct {
}

// Error returns the error message for PCRCountError.
func (PCRCountError) Error() string {
	return "clock-reference count does not match TS packet count"
}

type muxedPacket struct {
	buf  buffer.PooledBuffer
	pcrs []int64
}

// NewMuxedPacket copies data into a pooled buffer and pairs it with its
// per-packet clock-reference samples. The pairing is validated here, at the
// producer side, so the two sequences can never diverge downstream.
func NewMuxedPacket(data []byte, pcrs []int64) (gobroadcast.MuxedPacket, error) {
	if len(data)%PacketSize != 0 {
		return nil, &UnalignedDataError{}
	}
	if len(pcrs) != len(data)/PacketSize {
		return nil, &PCRCountError{}
	}

	buf := buffer.Get(len(data))
	copy(buf.Data(), data)

	return &muxedPacket{
		buf:  buf,
		pcrs: append(make([]int64, 0, len(pcrs)), pcrs...),
	}, nil
}

func (p *muxedPacket) Data() []byte {
	return p.buf.Data()
}

func (p *muxedPacket) PCRs() []int64 {
	return p.pcrs
}

func (p *muxedPacket) Release() {
	p.buf.Release()
}
