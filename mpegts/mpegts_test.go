package mpegts

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// tsPacketWithPCR builds a valid TS packet whose adaptation field carries
// the given 27 MHz PCR value.
func tsPacketWithPCR(pcr int64) []byte {
	pkt := make([]byte, PacketSize)
	pkt[0] = SyncByte
	pkt[3] = adaptationFlag
	pkt[4] = minPCRFieldLen
	pkt[5] = pcrFlag

	base := pcr / 300
	ext := pcr % 300
	pkt[6] = byte(base >> 25)
	pkt[7] = byte(base >> 17)
	pkt[8] = byte(base >> 9)
	pkt[9] = byte(base >> 1)
	pkt[10] = byte(base<<7) | 0x7E | byte(ext>>8)
	pkt[11] = byte(ext)
	return pkt
}

func TestParsePCRRoundTrip(t *testing.T) {
	t.Parallel()

	for _, want := range []int64{0, 1, 299, 27_000_000, 8_589_934_591 * 300} {
		pcr, ok := ParsePCR(tsPacketWithPCR(want))
		require.True(t, ok)
		require.Equal(t, want, pcr)
	}
}

func TestParsePCRNoAdaptation(t *testing.T) {
	t.Parallel()

	pkt := make([]byte, PacketSize)
	pkt[0] = SyncByte
	pkt[3] = 0x10 // payload only
	_, ok := ParsePCR(pkt)
	require.False(t, ok)
}

func TestParsePCRNoPCRFlag(t *testing.T) {
	t.Parallel()

	pkt := make([]byte, PacketSize)
	pkt[0] = SyncByte
	pkt[3] = adaptationFlag
	pkt[4] = minPCRFieldLen
	_, ok := ParsePCR(pkt)
	require.False(t, ok)
}

func TestParsePCRBadPacket(t *testing.T) {
	t.Parallel()

	_, ok := ParsePCR(make([]byte, PacketSize))
	require.False(t, ok)
	_, ok = ParsePCR(make([]byte, 10))
	require.False(t, ok)
}

func TestNewMuxedPacket(t *testing.T) {
	t.Parallel()

	data := make([]byte, 2*PacketSize)
	pkt, err := NewMuxedPacket(data, []int64{100, 200})
	require.NoError(t, err)
	require.Len(t, pkt.Data(), 2*PacketSize)
	require.Equal(t, []int64{100, 200}, pkt.PCRs())
	pkt.Release()
}

func TestNewMuxedPacketUnaligned(t *testing.T) {
	t.Parallel()

	_, err := NewMuxedPacket(make([]byte, PacketSize+1), []int64{0})
	target := &UnalignedDataError{}
	require.ErrorAs(t, err, &target)
}

func TestNewMuxedPacketPCRMismatch(t *testing.T) {
	t.Parallel()

	_, err := NewMuxedPacket(make([]byte, 2*PacketSize), []int64{0})
	target := &PCRCountError{}
	require.ErrorAs(t, err, &target)
}
