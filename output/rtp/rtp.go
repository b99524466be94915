// Package rtp implements the clock-paced RTP/UDP output stage. The worker
// drains muxed transport-stream bursts from its input channel, stages them
// in a paired payload/clock-reference FIFO, and emits fixed-size chunks as
// RTP packets at the instants dictated by the stream's own clock.
package rtp

import (
	"errors"
	"fmt"

	"github.com/ugparu/gobroadcast"
	"github.com/ugparu/gobroadcast/clock"
	"github.com/ugparu/gobroadcast/mpegts"
	"github.com/ugparu/gobroadcast/transport/udp"
	"github.com/ugparu/gobroadcast/utils"
	"github.com/ugparu/gobroadcast/utils/lifecycle"
	"github.com/ugparu/gobroadcast/utils/logger"
)

// Config describes one RTP output session.
type Config struct {
	// Target is the destination in udp://host:port?opt=... form.
	Target string
	// PacketsPerChunk is the number of 188-byte TS packets per RTP payload.
	// Zero selects the conventional 7 (1316 bytes).
	PacketsPerChunk int
	// LowLatency starts pacing with zero pre-buffered bursts instead of
	// the default two, trading jitter resilience for minimum latency.
	LowLatency bool
	// ChanSize is the capacity of the input channel.
	ChanSize int
}

// normalModeGate is the number of muxed bursts that must arrive before the
// first packet is paced, absorbing upstream jitter at session start and
// after every buffer reset.
const normalModeGate = 2

const defaultChanSize = 64

type rtpOutput struct {
	lifecycle.AsyncManager[*rtpOutput]

	cfg   Config
	sess  *session
	conn  *udp.Conn
	queue *chunkQueue
	pacer *clock.Pacer
	chunk []byte

	inpCh   chan gobroadcast.MuxedPacket
	resetCh chan struct{}

	gate    int
	arrived int
	ready   bool
}

// New creates an RTP output for the given target. The transport is opened
// by Write; construction never touches the network.
func New(cfg Config) gobroadcast.Output {
	if cfg.PacketsPerChunk <= 0 {
		cfg.PacketsPerChunk = mpegts.PacketsPerDatagram
	}
	if cfg.ChanSize <= 0 {
		cfg.ChanSize = defaultChanSize
	}

	gate := normalModeGate
	if cfg.LowLatency {
		gate = 0
	}

	o := &rtpOutput{
		AsyncManager: nil,
		cfg:          cfg,
		sess:         nil,
		conn:         nil,
		queue:        nil,
		pacer:        nil,
		chunk:        nil,
		inpCh:        make(chan gobroadcast.MuxedPacket, cfg.ChanSize),
		resetCh:      make(chan struct{}, 1),
		gate:         gate,
		arrived:      0,
		ready:        false,
	}
	o.AsyncManager = lifecycle.NewAsyncManager(o)

	return o
}

// Write opens the transport and RTP session and starts the worker loop. A
// setup failure is fatal: the worker never enters its loop and Done is
// closed immediately.
func (o *rtpOutput) Write() {
	startFunc := func(o *rtpOutput) error {
		conn, err := udp.Open(o.cfg.Target)
		if err != nil {
			return fmt.Errorf("rtp: open transport: %w", err)
		}
		o.conn = conn
		o.sess = newSession()
		chunkSize := o.cfg.PacketsPerChunk * mpegts.PacketSize
		o.queue = newChunkQueue(chunkSize)
		o.pacer = clock.NewPacer()
		o.chunk = make([]byte, chunkSize)

		logger.Infof(o, "session open: ssrc=%08x chunk=%dB gate=%d", o.sess.ssrc, chunkSize, o.gate)
		return nil
	}
	if err := o.Start(startFunc); err != nil {
		started := &lifecycle.StartedAlreadyError{}
		if !errors.As(err, &started) {
			logger.Errorf(o, "failed to start: %s", err.Error())
		}
	}
}

// Step handles one worker iteration: block until data, a reset or stop;
// drain every burst already available; then pace and transmit complete
// chunks. Cancellation is re-checked at every wait inside the iteration.
func (o *rtpOutput) Step(stopCh <-chan struct{}) error {
	select {
	case <-stopCh:
		return &lifecycle.BreakError{}
	case <-o.resetCh:
		o.onReset()
	case pkt := <-o.inpCh:
		if err := o.stage(pkt); err != nil {
			return err
		}
	}

	// Snapshot everything the muxer has queued so far before any slow
	// network work, so the producer never waits on a send.
	for {
		select {
		case <-stopCh:
			return &lifecycle.BreakError{}
		case <-o.resetCh:
			o.onReset()
			continue
		case pkt := <-o.inpCh:
			if err := o.stage(pkt); err != nil {
				return err
			}
			continue
		default:
		}
		break
	}

	if !o.ready {
		if o.arrived < o.gate {
			return nil
		}
		o.ready = true
	}

	return o.pump(stopCh)
}

// onReset consumes one upstream drop notification: re-arm the buffering
// gate and drop the pacing epoch so the next chunk re-anchors it.
func (o *rtpOutput) onReset() {
	logger.Info(o, "output buffer reset")
	o.ready = false
	o.arrived = 0
	o.pacer.Reset()
}

// stage copies one muxed burst into the staging queue and releases it. A
// pairing violation between payload and clock references is a producer
// defect and stops the worker.
func (o *rtpOutput) stage(pkt gobroadcast.MuxedPacket) error {
	if pkt == nil {
		return &utils.NilPacketError{}
	}
	err := o.queue.push(pkt.Data(), pkt.PCRs())
	pkt.Release()
	if err != nil {
		return err
	}
	o.arrived++
	return nil
}

// pump transmits every complete chunk currently staged, sleeping until each
// chunk's deadline. Send failures are fatal for the session; there is no
// per-packet retry.
func (o *rtpOutput) pump(stopCh <-chan struct{}) error {
	for {
		ref, ok := o.queue.pop(o.chunk)
		if !ok {
			return nil
		}

		if err := o.pacer.Wait(ref, stopCh); err != nil {
			return err
		}

		frame, err := o.sess.packetize(o.chunk, ref)
		if err != nil {
			return fmt.Errorf("rtp: packetize: %w", err)
		}
		_, err = o.conn.Write(frame.Data())
		frame.Release()
		if err != nil {
			return fmt.Errorf("rtp: send failed: %w", err)
		}
	}
}

// Close_ runs exactly once when the worker stops, on both the cancellation
// and the fatal-error paths.
func (o *rtpOutput) Close_() { //nolint:revive // required by lifecycle.AsyncInstance interface
	if o.conn != nil {
		st := o.Stats()
		logger.Infof(o, "session closed: packets=%d octets=%d", st.Packets, st.Octets)
		_ = o.conn.Close()
	}
	close(o.inpCh)
}

// Packets returns the input channel for muxed bursts.
func (o *rtpOutput) Packets() chan<- gobroadcast.MuxedPacket {
	return o.inpCh
}

// ResetBuffer signals an upstream buffer drop. The notification is
// consumed once per worker iteration; collapsing duplicates is harmless
// since one re-sync covers them all.
func (o *rtpOutput) ResetBuffer() {
	select {
	case o.resetCh <- struct{}{}:
	default:
	}
}

// Stats returns a snapshot of the session counters.
func (o *rtpOutput) Stats() gobroadcast.Stats {
	if o.sess == nil {
		return gobroadcast.Stats{Packets: 0, Octets: 0}
	}
	return gobroadcast.Stats{
		Packets: o.sess.packetCount.Load(),
		Octets:  o.sess.octetCount.Load(),
	}
}

// String implements fmt.Stringer for logging.
func (o *rtpOutput) String() string {
	return fmt.Sprintf("RTP_OUT %s", o.cfg.Target)
}
