// Package mpegts holds the transport-stream level types shared by the mux
// and output stages: packet framing constants, PCR extraction and the muxed
// burst handed between them.
package mpegts

const (
	// PacketSize is the fixed length of one TS packet.
	PacketSize = 188
	// SyncByte starts every TS packet.
	SyncByte = 0x47
	// PCRClockRate is the MPEG system clock frequency the clock-reference
	// samples are expressed in.
	PCRClockRate = 27_000_000
	// PacketsPerDatagram is the conventional number of TS packets carried
	// in one RTP payload (1316 bytes, below the usual 1500-byte MTU).
	PacketsPerDatagram = 7
	// DatagramSize is the resulting RTP payload length.
	DatagramSize = PacketSize * PacketsPerDatagram

	adaptationFlag = 0x20
	pcrFlag        = 0x10
	minPCRFieldLen = 7
)

// ParsePCR extracts the program clock reference from the adaptation field of
// a single TS packet, in 27 MHz ticks. ok is false when the packet is
// malformed or carries no PCR.
func ParsePCR(pkt []byte) (pcr int64, ok bool) {
	if len(pkt) != PacketSize || pkt[0] != SyncByte {
		return 0, false
	}
	if pkt[3]&adaptationFlag == 0 {
		return 0, false
	}
	if int(pkt[4]) < minPCRFieldLen || pkt[5]&pcrFlag == 0 {
		return 0, false
	}

	// 33-bit base in 90 kHz units followed by 6 reserved bits and a
	// 9-bit extension in 27 MHz units.
	base := int64(pkt[6])<<25 |
		int64(pkt[7])<<17 |
		int64(pkt[8])<<9 |
		int64(pkt[9])<<1 |
		int64(pkt[10])>>7
	ext := int64(pkt[10]&0x01)<<8 | int64(pkt[11])

	return base*300 + ext, true
}
