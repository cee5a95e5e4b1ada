package http

import (
	"context"
	"io"
	"math"
	"net"

	"github.com/indigo-web/slotted/http/method"
	"github.com/indigo-web/slotted/http/proto"
	"github.com/indigo-web/slotted/kv"
)

type (
	Headers = *kv.Storage
	Header  = kv.Pair
)

// UnknownLength is the ContentLength of chunked requests.
const UnknownLength uint64 = math.MaxUint64

// Request represents HTTP request. It is reused for every request of the connection, so
// nothing of it must be retained after the handler returns.
type Request struct {
	// Method is an enum representing the request method. It is method.Unknown for methods
	// not having a dedicated enum value, their name is still available in MethodName.
	Method     method.Method
	MethodName string
	// Path is the request path. Percent-encoded UTF-8 sequences are decoded, encoded ASCII
	// characters are left as they are.
	Path string
	// Query is the raw query string, without the leading question mark.
	Query string
	// Proto is the protocol version of the request.
	Proto proto.Proto
	// Scheme is either http or https.
	Scheme string
	// Headers holds non-normalized header pairs in their original order, even though lookup
	// is case-insensitive.
	Headers Headers
	// ContentLength is the declared length of the body. For chunked requests it is
	// UnknownLength until the body is read completely, and the actual length afterward.
	ContentLength uint64
	Chunked       bool
	// Upgradable tells whether the request is a valid WebSocket upgrade, so that
	// Response.Upgrade can be used.
	Upgradable bool
	// Body streams the request body, decoding the chunked encoding if applied. It returns
	// io.EOF once the body is over.
	Body io.Reader
	// Remote and Local hold the addresses of the connection.
	Remote, Local net.Addr
	// Ctx is done once the peer disconnects while the request is being served.
	Ctx context.Context

	response *Response
}

func NewRequest(headers Headers, body io.Reader, response *Response) *Request {
	return &Request{
		Headers:  headers,
		Body:     body,
		Ctx:      context.Background(),
		response: response,
	}
}

// Respond returns the Response object of the request.
func (r *Request) Respond() *Response {
	return r.response
}

// IsHead tells whether the response body is going to be discarded.
func (r *Request) IsHead() bool {
	return r.Method == method.HEAD
}
