package websocket

import (
	"context"
	"encoding/binary"
	"errors"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// Link is the connection the frames travel over. Its receive side is a buffer of received
// but not yet consumed bytes, its send side a fixed window the frames are composed in.
type Link interface {
	// Peek returns the buffered bytes, receiving more until at least min of them are there.
	Peek(min int) ([]byte, error)
	// Discard consumes n bytes of those returned by Peek.
	Discard(n int)
	// SendWindow returns the memory outgoing frames are composed in. It is owned by the Conn
	// and persists between calls.
	SendWindow() []byte
	// Send writes the bytes completely.
	Send(b []byte) error
}

type state = uint32

const (
	stateHeader state = iota
	stateBody
	// stateClosing means the peer's close frame was received.
	stateClosing
	stateClosed
	stateFailed
)

type closeFrame struct {
	status uint16
	reason string
}

// Conn is a server-side WebSocket connection. Receive and Send may be called concurrently
// with each other; concurrent calls of the same direction are serialized.
type Conn struct {
	ctx   context.Context
	link  Link
	state atomic.Uint32

	recvMu    sync.Mutex
	opcode    Opcode
	fin       bool
	remaining uint64
	mask      [4]byte
	maskIndex int
	peerClose atomic.Pointer[closeFrame]

	sendLock *semaphore.Weighted
	// sendOp is the opcode of the next outgoing data frame.
	sendOp         Opcode
	startOfMessage bool
	buffered       int
	control        [headroom + maxControlPayload]byte
}

// New returns a Conn speaking over the link. The context is done once the underlying
// connection is gone.
func New(ctx context.Context, link Link) *Conn {
	return &Conn{
		ctx:            ctx,
		link:           link,
		sendLock:       semaphore.NewWeighted(1),
		startOfMessage: true,
	}
}

// Context returns the context of the connection.
func (c *Conn) Context() context.Context {
	return c.ctx
}

// CloseStatus returns the status code and the reason the peer closed the connection with.
// Both are zero values until a close frame is received. StatusNoStatus is reported for a
// close frame without a status.
func (c *Conn) CloseStatus() (uint16, string) {
	frame := c.peerClose.Load()
	if frame == nil {
		return 0, ""
	}

	return frame.status, frame.reason
}

// Receive reads the payload of the current frame into p. It returns once the frame is over
// or p is full, whatever happens first. fin is true only for the call completing the final
// frame of a message; a payload bigger than p is therefore returned in multiple calls with
// the same opcode.
//
// A close frame is returned as (Close, true, 0) and its content is available via CloseStatus.
// Pings are returned to the caller like any other frame. After a close frame or a failure,
// ErrClosed or ErrProtocol is returned.
func (c *Conn) Receive(p []byte) (op Opcode, fin bool, n int, err error) {
	c.recvMu.Lock()
	defer c.recvMu.Unlock()

	return c.receive(p)
}

func (c *Conn) receive(p []byte) (Opcode, bool, int, error) {
	for {
		switch c.state.Load() {
		case stateHeader:
			if err := c.readHeader(); err != nil {
				return c.fail(err)
			}

			if c.opcode == Close {
				return c.readClose()
			}

			if c.remaining == 0 {
				return c.opcode, c.fin, 0, nil
			}

			c.state.Store(stateBody)
		case stateBody:
			n, err := c.readBody(p)
			if err != nil {
				_, _, _, err = c.fail(err)
				return c.opcode, false, n, err
			}

			if c.remaining > 0 {
				return c.opcode, false, n, nil
			}

			c.state.Store(stateHeader)
			return c.opcode, c.fin, n, nil
		case stateFailed:
			return 0, false, 0, ErrProtocol
		default:
			return 0, false, 0, ErrClosed
		}
	}
}

func (c *Conn) fail(err error) (Opcode, bool, int, error) {
	if errors.Is(err, ErrProtocol) {
		c.state.Store(stateFailed)
	} else {
		c.state.Store(stateClosed)
	}

	return 0, false, 0, err
}

func (c *Conn) readHeader() error {
	b, err := c.link.Peek(2)
	if err != nil {
		return err
	}

	b0, b1 := b[0], b[1]
	op := Opcode(b0 & 0x0F)
	if b0&rsvBits != 0 || !op.valid() || b1&maskBit == 0 {
		return ErrProtocol
	}

	length := uint64(b1 &^ maskBit)
	size := 2 + len(c.mask)
	switch length {
	case 126:
		size += 2
	case 127:
		size += 8
	}

	if op.IsControl() && (length > maxControlPayload || b0&finBit == 0) {
		return ErrProtocol
	}

	if b, err = c.link.Peek(size); err != nil {
		return err
	}

	switch length {
	case 126:
		length = uint64(binary.BigEndian.Uint16(b[2:4]))
	case 127:
		length = binary.BigEndian.Uint64(b[2:10])
	}

	c.opcode = op
	c.fin = b0&finBit != 0
	c.remaining = length
	copy(c.mask[:], b[size-len(c.mask):size])
	c.maskIndex = 0
	c.link.Discard(size)

	return nil
}

func (c *Conn) readBody(p []byte) (n int, err error) {
	for c.remaining > 0 && n < len(p) {
		var buf []byte
		if buf, err = c.link.Peek(1); err != nil {
			return n, err
		}

		chunk := min(len(buf), len(p)-n)
		if uint64(chunk) > c.remaining {
			chunk = int(c.remaining)
		}

		c.unmask(p[n:n+chunk], buf[:chunk])
		c.link.Discard(chunk)
		n += chunk
		c.remaining -= uint64(chunk)
	}

	return n, nil
}

// readClose consumes the close frame, which must be buffered completely.
func (c *Conn) readClose() (Opcode, bool, int, error) {
	length := int(c.remaining)
	if length == 1 {
		// the status code takes two bytes
		return c.fail(ErrProtocol)
	}

	buf, err := c.link.Peek(length)
	if err != nil {
		return c.fail(err)
	}

	payload := buf[:length]
	c.unmask(payload, payload)
	frame := &closeFrame{status: StatusNoStatus}
	if length >= 2 {
		frame.status = binary.BigEndian.Uint16(payload)
		frame.reason = string(payload[2:])
	}

	c.link.Discard(length)
	c.remaining = 0
	c.peerClose.Store(frame)
	c.state.CompareAndSwap(stateHeader, stateClosing)

	return Close, true, 0, nil
}

func (c *Conn) unmask(dst, src []byte) {
	for i, b := range src {
		dst[i] = b ^ c.mask[c.maskIndex]
		c.maskIndex = (c.maskIndex + 1) & 3
	}
}

// Send writes p as a part of a message of type op. Messages may be sent in pieces: the type
// of a message is taken from its first Send, and the message ends with the Send having
// endOfMessage set. Pieces not filling the send window are held back until the window is
// full or the message ends. Payloads exceeding the window are split into multiple frames.
//
// Control frames are sent immediately and may interleave with the pieces of a message.
func (c *Conn) Send(ctx context.Context, op Opcode, p []byte, endOfMessage bool) error {
	if err := c.sendLock.Acquire(ctx, 1); err != nil {
		return err
	}
	defer c.sendLock.Release(1)

	if op.IsControl() {
		return c.sendControl(op, p)
	}

	if !op.valid() {
		return ErrProtocol
	}

	if c.startOfMessage && c.buffered == 0 {
		c.sendOp = op
	}

	window := c.link.SendWindow()
	maxlen := min(len(window)-headroom, maxFramePayload)
	payload := window[headroom : headroom+maxlen]

	for {
		if c.state.Load() >= stateClosed {
			return ErrClosed
		}

		n := copy(payload[c.buffered:], p)
		p = p[n:]
		length := c.buffered + n
		last := len(p) == 0

		if last && !endOfMessage {
			c.buffered = length
			c.startOfMessage = false
			return nil
		}

		c.buffered = 0
		b0 := byte(c.sendOp)
		if last {
			b0 |= finBit
		}

		from := putHeader(window, headroom, b0, length)
		if err := c.link.Send(window[from : headroom+length]); err != nil {
			c.state.Store(stateClosed)
			return err
		}

		c.sendOp = Continuation
		if last {
			c.startOfMessage = true
			return nil
		}
	}
}

func (c *Conn) sendControl(op Opcode, p []byte) error {
	if len(p) > maxControlPayload {
		return ErrProtocol
	}

	if c.state.Load() >= stateClosed {
		return ErrClosed
	}

	n := copy(c.control[headroom:], p)
	from := putHeader(c.control[:], headroom, finBit|byte(op), n)
	if err := c.link.Send(c.control[from : headroom+n]); err != nil {
		c.state.Store(stateClosed)
		return err
	}

	return nil
}

// sendClose sends a close frame. A reason too long for a control frame is dropped.
func (c *Conn) sendClose(status uint16, reason string) error {
	if len(reason) > maxCloseReasonSize {
		reason = ""
	}

	var payload [maxControlPayload]byte
	binary.BigEndian.PutUint16(payload[:2], status)
	n := 2 + copy(payload[2:], reason)

	return c.sendControl(Close, payload[:n])
}

// Close sends a close frame with the status and the reason and waits for the peer to
// acknowledge it. Frames received in the meantime are discarded. If the peer closed the
// connection first, its close frame is answered.
func (c *Conn) Close(ctx context.Context, status uint16, reason string) error {
	if c.state.Load() == stateClosed {
		return nil
	}

	if err := c.sendLock.Acquire(ctx, 1); err != nil {
		return err
	}
	defer c.sendLock.Release(1)

	if err := c.sendClose(status, reason); err != nil {
		if errors.Is(err, ErrClosed) {
			return nil
		}

		return err
	}

	c.recvMu.Lock()
	defer c.recvMu.Unlock()

	var scratch [512]byte
	for {
		switch c.state.Load() {
		case stateHeader, stateBody:
			if _, _, _, err := c.receive(scratch[:]); err != nil {
				c.state.Store(stateClosed)
				return err
			}
		default:
			c.state.Store(stateClosed)
			return nil
		}
	}
}
