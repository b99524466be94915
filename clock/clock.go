// Package clock maps the 27 MHz clock-reference domain of a transport
// stream onto wall-clock send deadlines. The Pacer is the only component
// allowed to suspend the output worker besides its input wait, and both
// suspensions honor the worker's stop channel.
package clock

import (
	"time"

	"github.com/ugparu/gobroadcast/utils/lifecycle"
)

// TicksPerSecond is the MPEG system clock frequency.
const TicksPerSecond = 27_000_000

// Duration converts a tick count into wall-clock time without overflowing
// for any realistic stream position.
func Duration(ticks int64) time.Duration {
	sec := ticks / TicksPerSecond
	rem := ticks % TicksPerSecond
	return time.Duration(sec)*time.Second + time.Duration(rem*int64(time.Second)/TicksPerSecond)
}

// Ticks converts wall-clock time into 27 MHz ticks.
func Ticks(d time.Duration) int64 {
	sec := int64(d / time.Second)
	rem := int64(d % time.Second)
	return sec*TicksPerSecond + rem*TicksPerSecond/int64(time.Second)
}

// Pacer tracks the mapping between stream clock references and wall-clock
// time. It starts unsynchronized; the first reference it sees anchors an
// epoch and every later reference is scheduled relative to that anchor.
// Reset drops the anchor after an upstream discontinuity so drift cannot
// accumulate across a gap.
//
// A Pacer is owned by a single worker goroutine and is not safe for
// concurrent use.
type Pacer struct {
	epochRef  int64
	epochWall time.Time
	synced    bool

	now func() time.Time
}

func NewPacer() *Pacer {
	return &Pacer{now: time.Now}
}

// Synced reports whether an epoch is currently anchored.
func (p *Pacer) Synced() bool {
	return p.synced
}

// Reset marks a stream discontinuity. The next reference passed to Deadline
// or Wait re-anchors the epoch and its unit is emitted immediately.
func (p *Pacer) Reset() {
	p.synced = false
}

// Deadline returns the wall-clock instant at which the unit stamped ref is
// due. When the pacer was unsynchronized the call anchors a new epoch at
// ref and returns the current instant with synced == false.
func (p *Pacer) Deadline(ref int64) (deadline time.Time, synced bool) {
	if !p.synced {
		p.epochRef = ref
		p.epochWall = p.now()
		p.synced = true
		return p.epochWall, false
	}

	return p.epochWall.Add(Duration(ref - p.epochRef)), true
}

// Wait blocks the caller until the send deadline for ref, or returns a
// BreakError when the stop channel fires first. Past-due deadlines return
// immediately: the packet goes out late but no catch-up scheduling beyond
// that is attempted.
func (p *Pacer) Wait(ref int64, stopCh <-chan struct{}) error {
	deadline, synced := p.Deadline(ref)
	if !synced {
		return nil
	}

	d := deadline.Sub(p.now())
	if d <= 0 {
		return nil
	}

	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-stopCh:
		return &lifecycle.BreakError{}
	}
}
