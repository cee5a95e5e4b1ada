package transport

import (
	"crypto/tls"
	"errors"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/indigo-web/slotted/internal/timer"
)

// Op is a socket operation of a connection slot. Operations of the same kind never overlap;
// different kinds may, e.g. a WebSocket receive and send.
type Op uint32

const (
	OpReceive Op = 1 << iota
	OpSend
	OpDisconnect
	OpAborting
)

var (
	ErrBusy    = errors.New("transport: operation of the same kind is already in flight")
	ErrAborted = errors.New("transport: connection is aborted")
	ErrUnbound = errors.New("transport: no connection is bound")
)

// aLongTimeAgo is a deadline that makes pending I/O fail immediately.
var aLongTimeAgo = time.Unix(1, 0)

// Conn is the socket of a connection slot. It is rebound to a new net.Conn on every accept,
// the Conn itself lives as long as the slot does.
type Conn struct {
	// mu guards the binding against a concurrent Abort. The owner of the slot reads conn
	// without it, as it is the only one to rebind.
	mu      sync.Mutex
	conn    net.Conn
	ops     atomic.Uint32
	timeout time.Duration
}

// NewConn returns an unbound Conn. Receives fail when no data arrives within the
// timeout, zero means no timeout.
func NewConn(timeout time.Duration) *Conn {
	return &Conn{timeout: timeout}
}

// Bind attaches the freshly accepted connection and clears every operation flag.
func (c *Conn) Bind(conn net.Conn) {
	c.mu.Lock()
	c.conn = conn
	c.ops.Store(0)
	c.mu.Unlock()
}

// Bound reports whether a connection is attached.
func (c *Conn) Bound() bool {
	return c.conn != nil
}

func (c *Conn) begin(op Op) error {
	for {
		ops := c.ops.Load()
		switch {
		case ops&uint32(OpAborting) != 0 && op != OpDisconnect:
			return ErrAborted
		case ops&uint32(op) != 0:
			return ErrBusy
		}

		if c.ops.CompareAndSwap(ops, ops|uint32(op)) {
			return nil
		}
	}
}

func (c *Conn) end(clear Op) {
	for {
		ops := c.ops.Load()
		if c.ops.CompareAndSwap(ops, ops&^uint32(clear)) {
			return
		}
	}
}

// Receive reads into p, waiting at most the receive timeout. It returns either some bytes
// or an error, io.EOF if the peer closed the connection.
func (c *Conn) Receive(p []byte) (int, error) {
	if c.conn == nil {
		return 0, ErrUnbound
	}

	if err := c.begin(OpReceive); err != nil {
		return 0, err
	}
	defer c.end(OpReceive)

	if c.timeout > 0 {
		if err := c.conn.SetReadDeadline(timer.Now().Add(c.timeout)); err != nil {
			return 0, err
		}

		// an Abort racing with the line above may have had its deadline overwritten
		if c.Aborted() {
			return 0, ErrAborted
		}
	}

	for {
		n, err := c.conn.Read(p)
		if n > 0 {
			// an error accompanying the data shows up again on the next read
			return n, nil
		}

		if err != nil {
			return 0, err
		}
	}
}

// Send writes p completely.
func (c *Conn) Send(p []byte) error {
	if c.conn == nil {
		return ErrUnbound
	}

	if err := c.begin(OpSend); err != nil {
		return err
	}
	defer c.end(OpSend)

	_, err := c.conn.Write(p)
	return err
}

// Disconnect closes the connection and leaves the Conn unbound.
func (c *Conn) Disconnect() error {
	if err := c.begin(OpDisconnect); err != nil {
		return err
	}
	defer c.end(OpDisconnect | OpAborting)

	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()

	if conn == nil {
		return nil
	}

	return conn.Close()
}

// Abort makes pending and further operations fail, except Disconnect. It is safe to call
// from any goroutine.
func (c *Conn) Abort() {
	for {
		ops := c.ops.Load()
		if c.ops.CompareAndSwap(ops, ops|uint32(OpAborting)) {
			break
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		_ = c.conn.SetDeadline(aLongTimeAgo)
	}
}

// Aborted reports whether Abort was called since the connection was bound.
func (c *Conn) Aborted() bool {
	return c.ops.Load()&uint32(OpAborting) != 0
}

func (c *Conn) RemoteAddr() net.Addr {
	if c.conn == nil {
		return nil
	}

	return c.conn.RemoteAddr()
}

func (c *Conn) LocalAddr() net.Addr {
	if c.conn == nil {
		return nil
	}

	return c.conn.LocalAddr()
}

// Secure reports whether the connection is encrypted.
func (c *Conn) Secure() bool {
	_, ok := c.conn.(*tls.Conn)
	return ok
}
