// Package udp owns the datagram endpoint an output transmits through. A
// target is described by a URL of the form
//
//	udp://host:port?ttl=32&localport=0&pkt_size=1316&buffer_size=65536&reuse=1&connect=1&miface=eth0
//
// Multicast destinations are detected from the address itself; TTL and
// outgoing interface options are applied before the endpoint is handed to
// the caller. Unrecognized or malformed option values are replaced by
// defaults with a warning, never an error.
package udp

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"sync"
	"syscall"

	"golang.org/x/net/ipv4"
	"golang.org/x/net/ipv6"
	"golang.org/x/sys/unix"

	"github.com/ugparu/gobroadcast/utils/logger"
)

const (
	// defaultPacketSize bounds a datagram to a single ethernet frame.
	defaultPacketSize = 1472
	// defaultTTL is the conventional contribution-feed multicast scope.
	defaultTTL = 16
)

// IsMulticastAddress reports whether ip falls in the multicast range of its
// family. Detection depends on nothing but the destination address.
func IsMulticastAddress(ip net.IP) bool {
	return ip.IsMulticast()
}

type options struct {
	ttl        int
	localPort  int
	packetSize int
	bufferSize int
	reuse      bool
	reuseSet   bool
	connect    bool
	miface     string
}

// Conn is an open UDP endpoint. Sends are addressed unless the target
// requested connect mode, in which case the destination was bound at the
// socket layer and plain sends are used.
type Conn struct {
	conn        *net.UDPConn
	raddr       *net.UDPAddr
	isMulticast bool
	connected   bool
	ttl         int
	packetSize  int
	localPort   int

	closeOnce sync.Once
	closeErr  error
}

func parseOptions(q url.Values) options {
	o := options{
		ttl:        defaultTTL,
		packetSize: defaultPacketSize,
	}

	intOpt := func(name string, def int) int {
		v := q.Get(name)
		if v == "" {
			return def
		}
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			logger.Warningf("UDP_OUT", "ignoring bad option %s=%q, using %d", name, v, def)
			return def
		}
		return n
	}

	o.ttl = intOpt("ttl", o.ttl)
	o.localPort = intOpt("localport", 0)
	o.packetSize = intOpt("pkt_size", o.packetSize)
	o.bufferSize = intOpt("buffer_size", 0)
	o.miface = q.Get("miface")

	if q.Has("reuse") {
		o.reuseSet = true
		// A bare or non-numeric value is a request to enable it.
		n, err := strconv.Atoi(q.Get("reuse"))
		o.reuse = err != nil || n != 0
	}
	if v := q.Get("connect"); v != "" {
		n, err := strconv.Atoi(v)
		o.connect = err != nil || n != 0
	}

	return o
}

// Open resolves the target, creates and binds the socket, applies the
// requested socket options and returns an endpoint ready to send.
func Open(target string) (*Conn, error) {
	u, err := url.Parse(target)
	if err != nil {
		return nil, fmt.Errorf("udp: parse target %q: %w", target, err)
	}
	if u.Scheme != "udp" {
		return nil, fmt.Errorf("udp: unsupported scheme %q", u.Scheme)
	}

	raddr, err := net.ResolveUDPAddr("udp", u.Host)
	if err != nil {
		return nil, fmt.Errorf("udp: resolve %q: %w", u.Host, err)
	}

	opts := parseOptions(u.Query())
	isMulticast := IsMulticastAddress(raddr.IP)

	// Follow the requested reuse option; for multicast it defaults to
	// enabled unless explicitly disabled.
	reuse := opts.reuse || (isMulticast && !opts.reuseSet)
	control := func(_, _ string, rc syscall.RawConn) error {
		if !reuse {
			return nil
		}
		var soErr error
		if err := rc.Control(func(fd uintptr) {
			soErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
		}); err != nil {
			return err
		}
		return soErr
	}

	var uc *net.UDPConn
	if opts.connect {
		d := net.Dialer{
			Control:   control,
			LocalAddr: &net.UDPAddr{Port: opts.localPort},
		}
		nc, err := d.Dial("udp", raddr.String())
		if err != nil {
			return nil, fmt.Errorf("udp: connect %s: %w", raddr, err)
		}
		uc = nc.(*net.UDPConn)
	} else {
		lc := net.ListenConfig{Control: control}
		pc, err := lc.ListenPacket(context.Background(), "udp", fmt.Sprintf(":%d", opts.localPort))
		if err != nil {
			return nil, fmt.Errorf("udp: bind port %d: %w", opts.localPort, err)
		}
		uc = pc.(*net.UDPConn)
	}

	c := &Conn{
		conn:        uc,
		raddr:       raddr,
		isMulticast: isMulticast,
		connected:   opts.connect,
		ttl:         opts.ttl,
		packetSize:  opts.packetSize,
	}
	if laddr, ok := uc.LocalAddr().(*net.UDPAddr); ok {
		c.localPort = laddr.Port
	}

	if opts.bufferSize > 0 {
		// Keeping the kernel send buffer small limits latency.
		if err := uc.SetWriteBuffer(opts.bufferSize); err != nil {
			logger.Warningf(c, "could not set send buffer to %d: %s", opts.bufferSize, err.Error())
		}
	}

	if isMulticast {
		if err := c.applyMulticastOptions(opts); err != nil {
			_ = uc.Close()
			return nil, err
		}
	}

	logger.Infof(c, "endpoint open: multicast=%t connected=%t localport=%d", isMulticast, opts.connect, c.localPort)
	return c, nil
}

// applyMulticastOptions sets TTL and the outgoing interface through the
// family-appropriate option set.
func (c *Conn) applyMulticastOptions(opts options) error {
	var ifi *net.Interface
	if opts.miface != "" {
		var err error
		if ifi, err = net.InterfaceByName(opts.miface); err != nil {
			logger.Warningf(c, "unknown multicast interface %q, using default: %s", opts.miface, err.Error())
			ifi = nil
		}
	}

	if c.raddr.IP.To4() != nil {
		p := ipv4.NewPacketConn(c.conn)
		if err := p.SetMulticastTTL(opts.ttl); err != nil {
			return fmt.Errorf("udp: set multicast ttl: %w", err)
		}
		if ifi != nil {
			if err := p.SetMulticastInterface(ifi); err != nil {
				return fmt.Errorf("udp: set multicast interface: %w", err)
			}
		}
		return nil
	}

	p := ipv6.NewPacketConn(c.conn)
	if err := p.SetMulticastHopLimit(opts.ttl); err != nil {
		return fmt.Errorf("udp: set multicast hop limit: %w", err)
	}
	if ifi != nil {
		if err := p.SetMulticastInterface(ifi); err != nil {
			return fmt.Errorf("udp: set multicast interface: %w", err)
		}
	}
	return nil
}

// Write sends one datagram. Failures propagate to the caller; the endpoint
// never retries (the receiver is expected to tolerate loss).
func (c *Conn) Write(b []byte) (int, error) {
	if c.connected {
		return c.conn.Write(b)
	}
	return c.conn.WriteToUDP(b, c.raddr)
}

// Close releases the socket. Repeated calls are safe; only the first one
// closes the descriptor.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.conn.Close()
	})
	return c.closeErr
}

func (c *Conn) IsMulticast() bool {
	return c.isMulticast
}

func (c *Conn) TTL() int {
	return c.ttl
}

// MaxPacketSize returns the configured datagram size limit.
func (c *Conn) MaxPacketSize() int {
	return c.packetSize
}

func (c *Conn) LocalPort() int {
	return c.localPort
}

func (c *Conn) RemoteAddr() *net.UDPAddr {
	return c.raddr
}

func (c *Conn) String() string {
	return fmt.Sprintf("UDP_OUT %s", c.raddr)
}
