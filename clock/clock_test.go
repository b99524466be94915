package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/ugparu/gobroadcast/utils/lifecycle"
)

func TestDurationTicksRoundTrip(t *testing.T) {
	t.Parallel()

	require.Equal(t, time.Second, Duration(TicksPerSecond))
	require.Equal(t, time.Duration(0), Duration(0))
	require.Equal(t, 500*time.Millisecond, Duration(TicksPerSecond/2))
	require.Equal(t, int64(TicksPerSecond), Ticks(time.Second))
	require.Equal(t, int64(TicksPerSecond/1000), Ticks(time.Millisecond))
}

func TestDeadlineAnchorsEpoch(t *testing.T) {
	t.Parallel()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	p := NewPacer()
	p.now = func() time.Time { return base }

	require.False(t, p.Synced())
	deadline, synced := p.Deadline(1_000_000)
	require.False(t, synced)
	require.Equal(t, base, deadline)
	require.True(t, p.Synced())
}

func TestDeadlineRelativeToEpoch(t *testing.T) {
	t.Parallel()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	p := NewPacer()
	p.now = func() time.Time { return base }

	const r0 = 27_000_000
	p.Deadline(r0)

	// One second of stream time past the epoch.
	deadline, synced := p.Deadline(r0 + TicksPerSecond)
	require.True(t, synced)
	require.Equal(t, base.Add(time.Second), deadline)

	// Deadlines are monotonic for monotonic references.
	later, _ := p.Deadline(r0 + 2*TicksPerSecond)
	require.True(t, later.After(deadline))
}

func TestResetReanchors(t *testing.T) {
	t.Parallel()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	p := NewPacer()
	p.now = func() time.Time { return base }

	p.Deadline(100)
	p.Reset()
	require.False(t, p.Synced())

	// A wildly different reference after the reset must not inherit the
	// old epoch: it anchors a fresh one and is due immediately.
	now := base.Add(5 * time.Second)
	p.now = func() time.Time { return now }
	deadline, synced := p.Deadline(900_000_000)
	require.False(t, synced)
	require.Equal(t, now, deadline)

	deadline, synced = p.Deadline(900_000_000 + TicksPerSecond)
	require.True(t, synced)
	require.Equal(t, now.Add(time.Second), deadline)
}

func TestWaitImmediateWhenUnsynced(t *testing.T) {
	t.Parallel()

	p := NewPacer()
	start := time.Now()
	require.NoError(t, p.Wait(123456, nil))
	require.Less(t, time.Since(start), 100*time.Millisecond)
}

func TestWaitPastDueReturnsImmediately(t *testing.T) {
	t.Parallel()

	p := NewPacer()
	p.Deadline(0)
	start := time.Now()
	// The reference is far in the past relative to the anchored epoch.
	require.NoError(t, p.Wait(0, nil))
	require.Less(t, time.Since(start), 100*time.Millisecond)
}

func TestWaitCancellable(t *testing.T) {
	t.Parallel()

	p := NewPacer()
	p.Deadline(0)

	stopCh := make(chan struct{})
	go func() {
		time.Sleep(10 * time.Millisecond)
		close(stopCh)
	}()

	// Deadline one minute out; cancellation must cut the wait short.
	start := time.Now()
	err := p.Wait(60*TicksPerSecond, stopCh)
	target := &lifecycle.BreakError{}
	require.ErrorAs(t, err, &target)
	require.Less(t, time.Since(start), time.Second)
}
