package server

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/indigo-web/slotted/http"
	"github.com/indigo-web/slotted/http/proto"
	"github.com/indigo-web/slotted/http/status"
	"github.com/indigo-web/slotted/internal/chunked"
	"github.com/indigo-web/slotted/internal/timer"
	"github.com/indigo-web/slotted/internal/wire"
	"github.com/indigo-web/slotted/websocket"
	"github.com/indigo-web/utils/strcomp"
	"github.com/indigo-web/utils/uf"
)

const crlf = "\r\n"

var (
	errLengthMismatch  = errors.New("written body length differs from the declared Content-Length")
	errBadFramingValue = errors.New("response carries multiple or malformed Content-Length or Connection headers")
)

// responseBody accumulates the response body in the body region of the slot. The headers
// are composed into the staging region the moment the first bytes must go out, and merged
// with the body so both are sent at once.
type responseBody struct {
	s *Slot
	// buffered is the number of body bytes waiting in the body region
	buffered int
	// written is the total number of body bytes accepted from the handler
	written     uint64
	declared    uint64
	headersSent bool
	chunked     bool
	hasServer   bool
	hasDate     bool
	err         error
	upgrade     func(conn *websocket.Conn) error
	protocol    string
}

func (r *responseBody) reset() {
	*r = responseBody{
		s:        r.s,
		declared: wire.UnknownLength,
	}
}

func (r *responseBody) HeadersSent() bool {
	return r.headersSent
}

func (r *responseBody) Write(b []byte) (int, error) {
	if r.err != nil {
		return 0, r.err
	}

	if !r.headersSent {
		if err := r.prepare(); err != nil {
			return 0, err
		}
	}

	if r.s.req.IsHead() {
		return len(b), nil
	}

	if r.declared != wire.UnknownLength && r.written+uint64(len(b)) > r.declared {
		r.s.closing = true
		r.err = http.ErrContentLengthExceeded
		return 0, r.err
	}

	total := len(b)
	body := r.s.mem.Body()

	for len(b) > 0 {
		if r.buffered == 0 && len(b) >= len(body) && r.headersSent && !r.chunked {
			// nothing to frame, so the bytes go out right from the caller's memory
			if err := r.transmit(b); err != nil {
				return total - len(b), err
			}

			r.written += uint64(len(b))
			return total, nil
		}

		n := copy(body[r.buffered:], b)
		r.buffered += n
		r.written += uint64(n)
		b = b[n:]

		if r.buffered == len(body) {
			if err := r.flush(); err != nil {
				return total - len(b), err
			}
		}
	}

	return total, nil
}

func (r *responseBody) Flush() error {
	if r.err != nil {
		return r.err
	}

	if !r.headersSent {
		if err := r.prepare(); err != nil {
			return err
		}
	}

	return r.flush()
}

// flush sends the buffered body, preceded by the headers if they aren't sent yet.
func (r *responseBody) flush() error {
	window := r.s.mem.Response()
	from := r.s.mem.BodyOffset()
	to := from + r.buffered

	switch {
	case !r.headersSent:
		hlen, err := r.head()
		if err != nil {
			r.err = err
			return err
		}

		if r.chunked && r.buffered > 0 {
			from, to = chunked.Wrap(window, from, r.buffered)
		}

		from, to = mergeRegions(window, hlen, from, to)
		r.headersSent = true
	case r.buffered == 0:
		return nil
	case r.chunked:
		from, to = chunked.Wrap(window, from, r.buffered)
	}

	r.buffered = 0
	return r.transmit(window[from:to])
}

// finish returns the last part of the response. If the headers weren't sent yet, the
// body length is known by now.
func (r *responseBody) finish() ([]byte, error) {
	if r.err != nil {
		return nil, r.err
	}

	head := r.s.req.IsHead()
	window := r.s.mem.Response()
	from := r.s.mem.BodyOffset()
	to := from + r.buffered

	if !r.headersSent {
		if err := r.prepare(); err != nil {
			return nil, err
		}

		switch {
		case head:
		case r.declared == wire.UnknownLength:
			r.declared = uint64(r.buffered)
		case r.declared != uint64(r.buffered):
			return nil, errLengthMismatch
		}

		hlen, err := r.head()
		if err != nil {
			return nil, err
		}

		from, to = mergeRegions(window, hlen, from, to)
		r.headersSent = true

		return window[from:to], nil
	}

	switch {
	case r.chunked:
		if r.buffered > 0 {
			from, to = chunked.Wrap(window, from, r.buffered)
		}

		to = chunked.AppendTerminator(window, to)
	case !head && r.declared != wire.UnknownLength && r.written != r.declared:
		return nil, errLengthMismatch
	}

	r.buffered = 0
	return window[from:to], nil
}

// prepare applies the response headers affecting the framing.
func (r *responseBody) prepare() error {
	s := r.s
	r.declared = wire.UnknownLength
	r.hasServer, r.hasDate = false, false
	var lengths, connections int

	for key, value := range s.response.Headers().Pairs() {
		switch {
		case strcomp.EqualFold(key, "Content-Length"):
			lengths++
			length, err := strconv.ParseUint(value, 10, 64)
			if err != nil || lengths > 1 || length == wire.UnknownLength {
				return errBadFramingValue
			}

			r.declared = length
		case strcomp.EqualFold(key, "Connection"):
			if connections++; connections > 1 {
				return errBadFramingValue
			}

			switch {
			case strcomp.EqualFold(value, "close"):
				s.keepAlive = false
			case strcomp.EqualFold(value, "keep-alive"):
				s.keepAlive = true
			}
		case strcomp.EqualFold(key, "Server"):
			r.hasServer = true
		case strcomp.EqualFold(key, "Date"):
			r.hasDate = true
		}
	}

	return nil
}

// head composes the response headers into the staging region and returns their length.
// The framing is decided here: a known length is sent as Content-Length, an unknown one
// makes the body chunked, or delimited by closing the connection for HTTP/1.0.
func (r *responseBody) head() (int, error) {
	s := r.s
	fields := s.response.Reveal()
	h := headWriter{buf: s.mem.Staging()[:0]}

	code, reason := fields.Code, fields.Reason
	if !status.Valid(code) {
		code, reason = status.InternalServerError, ""
	}

	if len(reason) == 0 {
		reason = status.Text(code)
	}

	h.str("HTTP/1.1 ")
	h.code(code)
	if len(reason) > 0 {
		h.str(" ")
		h.str(reason)
	}
	h.str(crlf)

	r.userHeaders(&h)

	switch {
	case r.declared != wire.UnknownLength:
		if r.declared > 0 || !bodyless(code) {
			h.str("Content-Length: ")
			h.uint(r.declared)
			h.str(crlf)
		}
	case s.req.IsHead():
	case s.req.Proto == proto.HTTP10:
		s.keepAlive = false
	default:
		r.chunked = true
		h.str("Transfer-Encoding: chunked\r\n")
	}

	switch {
	case !s.persistent():
		h.str("Connection: close\r\n")
	case s.req.Proto == proto.HTTP10:
		h.str("Connection: keep-alive\r\n")
	}

	h.str(crlf)
	if h.overflow {
		return 0, status.ErrResponseHeadersTooBig
	}

	return len(h.buf), nil
}

// userHeaders writes the headers set by the handler along with the default ones. The
// framing headers are left out, as they are produced by the engine.
func (r *responseBody) userHeaders(h *headWriter) {
	for key, value := range r.s.response.Headers().Pairs() {
		if isFraming(key) {
			continue
		}

		h.header(key, value)
	}

	if !r.hasServer && len(r.s.cfg.Server.Name) > 0 {
		h.header("Server", r.s.cfg.Server.Name)
	}

	if !r.hasDate {
		h.header("Date", timer.Date())
	}
}

// cannedError composes 500 Internal Server Error with no body, closing the connection.
// Anything composed before is dropped.
func (r *responseBody) cannedError() []byte {
	const (
		statusLine = "HTTP/1.1 500 Internal Server Error\r\n"
		trailing   = "Content-Length: 0\r\nConnection: close\r\n\r\n"
	)

	h := headWriter{buf: r.s.mem.Staging()[:0]}
	h.str(statusLine)
	h.header("Server", r.s.cfg.Server.Name)
	h.header("Date", timer.Date())
	h.str(trailing)
	if h.overflow {
		h = headWriter{buf: r.s.mem.Staging()[:0]}
		h.str(statusLine)
		h.str(trailing)
	}

	r.headersSent = true
	return h.buf
}

func (r *responseBody) Upgrade(protocol string, fn func(conn *websocket.Conn) error) error {
	switch {
	case !r.s.req.WebSocket():
		return http.ErrNotUpgradable
	case r.headersSent:
		return http.ErrHeadersSent
	}

	r.upgrade, r.protocol = fn, protocol
	return nil
}

// switching composes 101 Switching Protocols, accepting the WebSocket upgrade.
func (r *responseBody) switching() ([]byte, error) {
	s := r.s
	if err := r.prepare(); err != nil {
		return nil, err
	}

	h := headWriter{buf: s.mem.Staging()[:0]}
	h.str("HTTP/1.1 101 Switching Protocols\r\nUpgrade: websocket\r\nConnection: Upgrade\r\n")
	h.header("Sec-WebSocket-Accept", websocket.AcceptKey(s.req.WebSocketKey))
	if len(r.protocol) > 0 {
		h.header("Sec-WebSocket-Protocol", r.protocol)
	}

	r.userHeaders(&h)
	h.str(crlf)
	if h.overflow {
		return nil, status.ErrResponseHeadersTooBig
	}

	r.headersSent = true
	return h.buf, nil
}

func (r *responseBody) transmit(b []byte) error {
	if err := r.s.transmit(b); err != nil {
		r.err = fmt.Errorf("%w: %w", http.ErrConnectionClosed, err)
		return r.err
	}

	return nil
}

// mergeRegions makes the headers at window[:hlen] and the body at window[from:to] adjacent
// by moving the shorter of them, and returns the bounds of the result.
func mergeRegions(window []byte, hlen, from, to int) (int, int) {
	if hlen < to-from {
		copy(window[from-hlen:from], window[:hlen])
		return from - hlen, to
	}

	copy(window[hlen:], window[from:to])
	return 0, hlen + to - from
}

func isFraming(key string) bool {
	switch len(key) {
	case len("Connection"):
		return strcomp.EqualFold(key, "Connection")
	case len("Content-Length"):
		return strcomp.EqualFold(key, "Content-Length")
	case len("Transfer-Encoding"):
		return strcomp.EqualFold(key, "Transfer-Encoding")
	}

	return false
}

// bodyless tells whether responses with the code never carry a body.
func bodyless(code status.Code) bool {
	return code < 200 || code == status.NoContent || code == status.NotModified
}

// headWriter appends to a fixed region, never growing past its capacity.
type headWriter struct {
	buf      []byte
	overflow bool
}

func (h *headWriter) str(s string) {
	if len(h.buf)+len(s) > cap(h.buf) {
		h.overflow = true
		return
	}

	h.buf = append(h.buf, s...)
}

func (h *headWriter) header(key, value string) {
	h.str(key)
	h.str(": ")
	h.str(value)
	h.str(crlf)
}

func (h *headWriter) code(code status.Code) {
	var digits [3]byte
	h.str(uf.B2S(status.AppendCode(digits[:0], code)))
}

func (h *headWriter) uint(n uint64) {
	var digits [20]byte
	h.str(uf.B2S(strconv.AppendUint(digits[:0], n, 10)))
}
