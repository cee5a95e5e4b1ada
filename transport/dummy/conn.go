// Package dummy provides an in-memory net.Conn serving scripted data, for driving a whole
// connection without sockets.
package dummy

import (
	"io"
	"net"
	"sync"
	"time"
)

// Conn serves the chunks it was initialised with, one per Read, and journals everything
// written into it. Once the chunks are over, reads return io.EOF, unless set to loop.
type Conn struct {
	mu      sync.Mutex
	chunks  [][]byte
	pointer int
	pending []byte
	written []byte
	remote  net.Addr

	circular, nop, closed bool
}

func NewConn(chunks ...[]byte) *Conn {
	return &Conn{
		chunks: chunks,
		remote: Addr("dummy:12345"),
	}
}

// Circular makes the Conn start over once all the chunks were served. Useful for
// benchmarking.
func (c *Conn) Circular() *Conn {
	c.circular = true
	return c
}

// Nop disables journaling.
func (c *Conn) Nop() *Conn {
	c.nop = true
	return c
}

func (c *Conn) Read(b []byte) (n int, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return 0, net.ErrClosed
	}

	if len(c.pending) == 0 {
		if c.pointer >= len(c.chunks) {
			if !c.circular || len(c.chunks) == 0 {
				return 0, io.EOF
			}

			c.pointer = 0
		}

		c.pending = c.chunks[c.pointer]
		c.pointer++
	}

	n = copy(b, c.pending)
	c.pending = c.pending[n:]

	return n, nil
}

func (c *Conn) Write(b []byte) (n int, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return 0, net.ErrClosed
	}

	if !c.nop {
		c.written = append(c.written, b...)
	}

	return len(b), nil
}

// Written returns everything written so far.
func (c *Conn) Written() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	return string(c.written)
}

func (c *Conn) Close() error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()

	return nil
}

// Closed reports whether Close was called.
func (c *Conn) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.closed
}

func (c *Conn) LocalAddr() net.Addr {
	return Addr("dummy:80")
}

func (c *Conn) RemoteAddr() net.Addr {
	return c.remote
}

func (c *Conn) SetDeadline(time.Time) error {
	return nil
}

func (c *Conn) SetReadDeadline(time.Time) error {
	return nil
}

func (c *Conn) SetWriteDeadline(time.Time) error {
	return nil
}

// Addr is a net.Addr with a fixed string representation.
type Addr string

func (Addr) Network() string {
	return "dummy"
}

func (a Addr) String() string {
	return string(a)
}
