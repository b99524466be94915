package rtp

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/ugparu/gobroadcast/mpegts"
)

// burst builds n TS packets of patterned bytes plus one reference per packet.
func burst(seed byte, n int, firstRef int64) (data []byte, refs []int64) {
	data = make([]byte, n*mpegts.PacketSize)
	refs = make([]int64, n)
	for i := range n {
		for j := range mpegts.PacketSize {
			data[i*mpegts.PacketSize+j] = seed + byte(i)
		}
		refs[i] = firstRef + int64(i)
	}
	return data, refs
}

func TestQueueLockstepDequeue(t *testing.T) {
	t.Parallel()

	q := newChunkQueue(2 * mpegts.PacketSize)

	data, refs := burst(1, 3, 100)
	require.NoError(t, q.push(data, refs))

	// Three packets staged, chunk needs two: one chunk out, one retained.
	dst := make([]byte, 2*mpegts.PacketSize)
	ref, ok := q.pop(dst)
	require.True(t, ok)
	require.Equal(t, int64(100), ref)
	require.Equal(t, data[:2*mpegts.PacketSize], dst)
	require.Equal(t, mpegts.PacketSize, q.buffered())

	_, ok = q.pop(dst)
	require.False(t, ok)

	// The retained packet pairs with the next burst.
	data2, refs2 := burst(10, 1, 200)
	require.NoError(t, q.push(data2, refs2))
	ref, ok = q.pop(dst)
	require.True(t, ok)
	require.Equal(t, int64(102), ref)
	require.Equal(t, data[2*mpegts.PacketSize:], dst[:mpegts.PacketSize])
	require.Equal(t, data2, dst[mpegts.PacketSize:])
}

func TestQueueRejectsDivergence(t *testing.T) {
	t.Parallel()

	q := newChunkQueue(mpegts.PacketSize)

	err := q.push(make([]byte, mpegts.PacketSize+1), []int64{0})
	target := &mpegts.UnalignedDataError{}
	require.ErrorAs(t, err, &target)

	err = q.push(make([]byte, 2*mpegts.PacketSize), []int64{0})
	countTarget := &mpegts.PCRCountError{}
	require.ErrorAs(t, err, &countTarget)
}

// TestQueueFIFORandomized interleaves random-size pushes and pops and
// verifies strict FIFO order of both payload chunks and their references.
func TestQueueFIFORandomized(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewPCG(7, 11))
	q := newChunkQueue(mpegts.PacketSize)

	var nextIn, nextOut int64
	dst := make([]byte, mpegts.PacketSize)

	for range 2000 {
		if rng.IntN(2) == 0 {
			n := 1 + rng.IntN(5)
			data := make([]byte, n*mpegts.PacketSize)
			refs := make([]int64, n)
			for i := range n {
				data[i*mpegts.PacketSize] = byte(nextIn)
				refs[i] = nextIn
				nextIn++
			}
			require.NoError(t, q.push(data, refs))
			continue
		}
		for range 1 + rng.IntN(4) {
			ref, ok := q.pop(dst)
			if !ok {
				break
			}
			require.Equal(t, nextOut, ref)
			require.Equal(t, byte(nextOut), dst[0])
			nextOut++
		}
	}

	// Drain the rest; every staged packet must come out, in order.
	for {
		ref, ok := q.pop(dst)
		if !ok {
			break
		}
		require.Equal(t, nextOut, ref)
		nextOut++
	}
	require.Equal(t, nextIn, nextOut)
	require.Zero(t, q.buffered())
}

func TestQueueCompactsDeadPrefix(t *testing.T) {
	t.Parallel()

	q := newChunkQueue(mpegts.PacketSize)
	dst := make([]byte, mpegts.PacketSize)

	packets := 2*compactThreshold/mpegts.PacketSize + 1
	for i := range packets {
		data, refs := burst(byte(i), 1, int64(i))
		require.NoError(t, q.push(data, refs))
		ref, ok := q.pop(dst)
		require.True(t, ok)
		require.Equal(t, int64(i), ref)
	}
	require.Zero(t, q.head)
}
