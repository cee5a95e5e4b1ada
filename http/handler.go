package http

// Handler serves a request. It is called exactly once per request, and the connection
// proceeds only after it returns.
//
// Returning an error is a handler fault: unless the response headers are already sent,
// the response is replaced by 500 Internal Server Error, otherwise the connection is
// closed. Panics are treated the same way.
type Handler interface {
	Serve(request *Request, response *Response) error
}

// HandlerFunc is a function adapted to the Handler interface.
type HandlerFunc func(request *Request, response *Response) error

func (h HandlerFunc) Serve(request *Request, response *Response) error {
	return h(request, response)
}
