package http

import (
	"io"
	"strconv"

	"github.com/indigo-web/slotted/http/mime"
	"github.com/indigo-web/slotted/http/status"
	"github.com/indigo-web/slotted/internal/response"
	"github.com/indigo-web/slotted/websocket"
	"github.com/indigo-web/utils/uf"
	json "github.com/json-iterator/go"
)

// Stream is the connection side of a response. Written bytes are buffered and sent once the
// buffer is full, on Flush or when the handler returns. The response headers go out with the
// first bytes sent, after which they can't be changed anymore.
type Stream interface {
	io.Writer
	Flush() error
	HeadersSent() bool
	Upgrade(protocol string, fn func(conn *websocket.Conn) error) error
}

type Response struct {
	fields *response.Fields
	stream Stream
}

// NewResponse returns a new instance of the Response object with status code set to 200 OK.
// NOTE: it's recommended to use Request.Respond() method inside of handlers, if there's no
// clear reason otherwise
func NewResponse(stream Stream) *Response {
	return &Response{
		fields: response.NewFields(),
		stream: stream,
	}
}

// Code sets the response code. Codes out of 100..999 are answered with 500 Internal Server
// Error instead.
func (r *Response) Code(code status.Code) *Response {
	r.fields.Code = code
	return r
}

// Reason sets a custom reason phrase. By default, the well-known text of the status code is
// used.
func (r *Response) Reason(text string) *Response {
	r.fields.Reason = text
	return r
}

// Header adds the values to the key. Setting Connection, Content-Length or
// Transfer-Encoding affects the response framing:
//   - Connection: close closes the connection after the response, keep-alive keeps it open;
//   - Content-Length declares the body length, which is then enforced. Otherwise, the body
//     either fits the buffer and gets its length computed, or is sent chunked;
//   - Transfer-Encoding is ignored, as the framing is chosen automatically.
func (r *Response) Header(key string, values ...string) *Response {
	for _, value := range values {
		r.fields.Headers.Add(key, value)
	}

	return r
}

// ContentType sets the Content-Type header value, replacing the previous one.
func (r *Response) ContentType(value mime.MIME) *Response {
	r.fields.Headers.Set("Content-Type", value)
	return r
}

// ContentLength declares the length of the body. Writing more than that fails with
// ErrContentLengthExceeded, and writing less closes the connection.
func (r *Response) ContentLength(length uint64) *Response {
	r.fields.Headers.Set("Content-Length", strconv.FormatUint(length, 10))
	return r
}

// Headers exposes the response headers.
func (r *Response) Headers() Headers {
	return r.fields.Headers
}

// HeadersSent tells whether the headers already went out, so that changing the code or
// the headers has no effect anymore.
func (r *Response) HeadersSent() bool {
	return r.stream.HeadersSent()
}

// Write implements io.Writer. Body writes of HEAD requests are discarded.
func (r *Response) Write(b []byte) (n int, err error) {
	return r.stream.Write(b)
}

// String writes the string to the body.
func (r *Response) String(body string) error {
	_, err := r.stream.Write(uf.S2B(body))
	return err
}

// Bytes writes b to the body.
func (r *Response) Bytes(body []byte) error {
	_, err := r.stream.Write(body)
	return err
}

// Flush sends everything buffered so far, the headers included.
func (r *Response) Flush() error {
	return r.stream.Flush()
}

// JSON serializes the model into the body and sets the JSON content type, unless the
// headers are already sent.
func (r *Response) JSON(model any) error {
	if !r.stream.HeadersSent() {
		r.ContentType(mime.JSON)
	}

	stream := json.ConfigDefault.BorrowStream(r.stream)
	stream.WriteVal(model)
	err := stream.Flush()
	json.ConfigDefault.ReturnStream(stream)

	return err
}

// Error sets the response code matching the error. If an instance of status.HTTPError is
// passed, its code is used, otherwise it's 500 Internal Server Error. Nothing happens if
// err is nil.
func (r *Response) Error(err error) *Response {
	if err == nil {
		return r
	}

	if http, ok := err.(status.HTTPError); ok {
		return r.Code(http.Code)
	}

	return r.Code(status.InternalServerError)
}

// Upgrade switches the connection to WebSocket, answering with 101 Switching Protocols
// together with the headers set so far. The protocol is sent as Sec-WebSocket-Protocol, if
// not empty. The switch happens once the handler returns: fn then serves the connection,
// which is closed after fn returns. Nothing written to the response is sent. ErrNotUpgradable
// is returned if the request isn't a valid upgrade, ErrHeadersSent if it's too late for it.
func (r *Response) Upgrade(protocol string, fn func(conn *websocket.Conn) error) error {
	return r.stream.Upgrade(protocol, fn)
}

// Reveal returns a struct with values, filled by the handler. Used mostly in internal purposes
func (r *Response) Reveal() *response.Fields {
	return r.fields
}

// Clear discards the code, the reason and the headers.
func (r *Response) Clear() *Response {
	r.fields.Clear()
	return r
}
