// Package encoder hosts the audio encoding worker of the pipeline. The
// codec itself is pluggable behind FrameEncoder; this package owns the
// queue contract around it: bounded frame channels, cooperative
// cancellation, frame ownership and output timestamping.
package encoder

import (
	"time"

	"github.com/ugparu/gobroadcast"
	"github.com/ugparu/gobroadcast/utils"
	"github.com/ugparu/gobroadcast/utils/lifecycle"
)

// FrameEncoder converts raw sample blocks into coded frames. Encode may
// return zero or more frames per call since input and output frame sizes
// rarely match. Implementations set Duration on every returned frame;
// Timestamp is assigned by the worker.
type FrameEncoder interface {
	Init(sampleRate uint32, channels uint8) error
	Encode(frame gobroadcast.AudioFrame) ([]*gobroadcast.CodedFrame, error)
	Close()
}

type audioEncoder struct {
	lifecycle.AsyncManager[*audioEncoder]

	enc        FrameEncoder
	sampleRate uint32
	channels   uint8

	// Output PTS is extrapolated: anchored to the source timestamp, then
	// advanced by the fixed coded-frame duration. expectedIn tracks where
	// the input timeline should continue so gaps re-anchor the output.
	nextPTS    time.Duration
	expectedIn time.Duration
	anchored   bool

	inpFrames chan gobroadcast.AudioFrame
	outFrames chan *gobroadcast.CodedFrame
}

// New creates an audio encoding worker. chanSize bounds both frame queues;
// a full output queue blocks the encoder, a full input queue blocks the
// producer.
func New(chanSize int, sampleRate uint32, channels uint8, enc FrameEncoder) gobroadcast.AudioEncoder {
	e := &audioEncoder{
		AsyncManager: nil,
		enc:          enc,
		sampleRate:   sampleRate,
		channels:     channels,
		nextPTS:      0,
		expectedIn:   0,
		anchored:     false,
		inpFrames:    make(chan gobroadcast.AudioFrame, chanSize),
		outFrames:    make(chan *gobroadcast.CodedFrame, chanSize),
	}
	e.AsyncManager = lifecycle.NewAsyncManager(e)

	return e
}

// Encode initializes the codec and starts the worker loop. Codec init
// failure is fatal: the worker never starts and Done closes immediately.
func (e *audioEncoder) Encode() {
	_ = e.Start(func(e *audioEncoder) error {
		return e.enc.Init(e.sampleRate, e.channels)
	})
}

func (e *audioEncoder) Step(stopCh <-chan struct{}) error {
	select {
	case <-stopCh:
		return &lifecycle.BreakError{}
	case f := <-e.inpFrames:
		if f == nil {
			return &utils.NilPacketError{}
		}

		// Re-anchor on the first frame and whenever the input timeline
		// jumps by more than one frame.
		gap := f.Timestamp() - e.expectedIn
		if gap < 0 {
			gap = -gap
		}
		if !e.anchored || gap > f.Duration() {
			e.nextPTS = f.Timestamp()
			e.anchored = true
		}
		e.expectedIn = f.Timestamp() + f.Duration()

		frames, err := e.enc.Encode(f)
		// The frame is owned by this worker from dequeue on; this is its
		// single release point, on success and failure alike.
		f.Release()
		if err != nil {
			return err
		}

		for _, cf := range frames {
			cf.Timestamp = e.nextPTS
			e.nextPTS += cf.Duration
			select {
			case e.outFrames <- cf:
			case <-stopCh:
				return &lifecycle.BreakError{}
			}
		}
	}
	return nil
}

func (e *audioEncoder) Close_() { //nolint:revive // required by lifecycle.AsyncInstance interface
	e.enc.Close()
	close(e.outFrames)
}

func (e *audioEncoder) String() string {
	return "AUDIO_ENCODER"
}

// Samples returns the input channel for raw frames.
func (e *audioEncoder) Samples() chan<- gobroadcast.AudioFrame {
	return e.inpFrames
}

// Packets returns the channel of coded frames.
func (e *audioEncoder) Packets() <-chan *gobroadcast.CodedFrame {
	return e.outFrames
}
