package websocket

import (
	"crypto/sha1"
	"encoding/base64"
	"errors"
)

// Opcode identifies the kind of a frame.
type Opcode uint8

const (
	Continuation Opcode = 0x0
	Text         Opcode = 0x1
	Binary       Opcode = 0x2
	Close        Opcode = 0x8
	Ping         Opcode = 0x9
	Pong         Opcode = 0xA
)

// IsControl reports whether frames of the opcode are control frames, which can't be
// fragmented and carry at most 125 bytes of payload.
func (o Opcode) IsControl() bool {
	return o >= Close
}

func (o Opcode) valid() bool {
	return o <= Binary || (o >= Close && o <= Pong)
}

func (o Opcode) String() string {
	switch o {
	case Continuation:
		return "continuation"
	case Text:
		return "text"
	case Binary:
		return "binary"
	case Close:
		return "close"
	case Ping:
		return "ping"
	case Pong:
		return "pong"
	default:
		return "unknown"
	}
}

// Close status codes of RFC 6455, 7.4.1.
const (
	StatusNormal        uint16 = 1000
	StatusGoingAway     uint16 = 1001
	StatusProtocolError uint16 = 1002
	StatusUnsupported   uint16 = 1003
	StatusNoStatus      uint16 = 1005
	StatusInvalidData   uint16 = 1007
	StatusTooBig        uint16 = 1009
	StatusInternalError uint16 = 1011
)

var (
	ErrClosed   = errors.New("websocket: connection is closed")
	ErrProtocol = errors.New("websocket: protocol violation")
)

const (
	finBit  = 0x80
	rsvBits = 0x70
	maskBit = 0x80

	// headroom is reserved in front of the payload in the send window for the longest
	// header a frame of at most maxFramePayload bytes needs.
	headroom           = 4
	maxFramePayload    = 65535
	maxControlPayload  = 125
	maxCloseReasonSize = maxControlPayload - 2
)

const acceptGUID = "258EAFA5-E914-47DA-95CA-C5AB0DC85B11"

// AcceptKey computes the Sec-WebSocket-Accept value for the client's Sec-WebSocket-Key.
func AcceptKey(key string) string {
	hash := sha1.New()
	hash.Write([]byte(key))
	hash.Write([]byte(acceptGUID))

	return base64.StdEncoding.EncodeToString(hash.Sum(nil))
}

// putHeader writes an unmasked frame header ending right before window[at] and returns the
// position it starts at. at must be at least 4 when length is above 125.
func putHeader(window []byte, at int, b0 byte, length int) int {
	if length < 126 {
		window[at-2] = b0
		window[at-1] = byte(length)
		return at - 2
	}

	window[at-4] = b0
	window[at-3] = 126
	window[at-2] = byte(length >> 8)
	window[at-1] = byte(length)
	return at - 4
}
