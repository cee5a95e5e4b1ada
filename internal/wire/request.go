package wire

import (
	"math"

	"github.com/indigo-web/slotted/http/method"
	"github.com/indigo-web/slotted/http/proto"
	"github.com/indigo-web/slotted/kv"
)

// UnknownLength is the Content-Length of a body whose size isn't known in advance, which is
// the case for chunked requests until their terminal chunk is seen.
const UnknownLength uint64 = math.MaxUint64

type upgradeCond uint8

const (
	condGet upgradeCond = 1 << iota
	condUpgradeWebSocket
	condConnectionUpgrade
	condVersion13
	condKey

	condAll = condGet | condUpgradeWebSocket | condConnectionUpgrade | condVersion13 | condKey
)

// Request is the parse state of the single in-flight request of a connection. It is reset,
// never reallocated, between requests. Every string points into the connection scratch
// buffer and is valid until the next request is parsed.
type Request struct {
	Method     method.Method
	MethodName string
	Path       string
	Query      string
	Proto      proto.Proto
	ProtoName  string
	Headers    *kv.Storage
	// ContentLength is UnknownLength for chunked bodies.
	ContentLength uint64
	Chunked       bool
	KeepAlive     bool
	Expect100     bool
	WebSocketKey  string

	conds     upgradeCond
	hasLength bool
}

func NewRequest() *Request {
	return &Request{
		Headers: kv.NewPrealloc(16),
	}
}

// Reset prepares the state for the next request.
func (r *Request) Reset() {
	headers := r.Headers.Clear()
	*r = Request{Headers: headers}
}

// IsHead tells whether the response must not carry a body.
func (r *Request) IsHead() bool {
	return r.Method == method.HEAD
}

// WebSocket reports whether the request meets every condition of a WebSocket upgrade:
// a GET with Upgrade: websocket, Connection: Upgrade, Sec-WebSocket-Version: 13 and a
// Sec-WebSocket-Key.
func (r *Request) WebSocket() bool {
	return r.conds == condAll
}
