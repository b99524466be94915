package rtp

import (
	"math/rand/v2"
	"sync/atomic"

	"github.com/pion/rtp"

	"github.com/ugparu/gobroadcast/utils/buffer"
)

// MPEGTSPayloadType is the static RTP payload type assigned to MPEG-2
// transport streams (RFC 3551).
const MPEGTSPayloadType = 33

// session holds the per-stream RTP state: a wrapping 16-bit sequence
// counter, the SSRC fixed at open, and the sender statistics the (unused)
// receiver-report path would consume.
type session struct {
	seq  uint16
	ssrc uint32

	packetCount atomic.Uint32
	octetCount  atomic.Uint32
}

func newSession() *session {
	// The SSRC must merely be unlikely to collide within one RTP session
	// scope; non-crypto random is sufficient.
	return &session{ssrc: rand.Uint32()}
}

// packetize frames one fixed-size TS chunk with a 12-byte RTP header and
// returns the wire frame in a pooled buffer the caller must Release. The
// sequence counter advances once per call; ref is the chunk's 27 MHz
// clock-reference sample, truncated to the 32-bit timestamp field.
func (s *session) packetize(payload []byte, ref int64) (buffer.PooledBuffer, error) {
	h := rtp.Header{
		Version:        2,
		PayloadType:    MPEGTSPayloadType,
		SequenceNumber: s.seq,
		Timestamp:      uint32(ref), //nolint:gosec // wrap is the wire format
		SSRC:           s.ssrc,
	}

	frame := buffer.Get(h.MarshalSize() + len(payload))
	n, err := h.MarshalTo(frame.Data())
	if err != nil {
		frame.Release()
		return nil, err
	}
	copy(frame.Data()[n:], payload)

	s.seq++
	s.packetCount.Add(1)
	s.octetCount.Add(uint32(len(payload))) //nolint:gosec // payload fits a datagram

	return frame, nil
}
