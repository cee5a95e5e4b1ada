package status

type HTTPError struct {
	Message string
	Code    Code
}

func NewError(code Code, message string) error {
	return HTTPError{
		Code:    code,
		Message: message,
	}
}

func (h HTTPError) Error() string {
	return h.Message
}

var (
	ErrCloseConnection = NewError(InternalServerError, "actively closing the connection")

	ErrBadRequest            = NewError(BadRequest, "bad request")
	ErrBadRequestLine        = NewError(BadRequest, "malformed request line")
	ErrBadMethod             = NewError(BadRequest, "malformed request method")
	ErrBadPath               = NewError(BadRequest, "request path must be absolute or an asterisk")
	ErrBadHeader             = NewError(BadRequest, "malformed header line")
	ErrBadContentLength      = NewError(BadRequest, "malformed Content-Length value")
	ErrBadChunk              = NewError(BadRequest, "malformed chunk-encoded data")
	ErrHeaderFieldsTooLarge  = NewError(RequestHeaderFieldsTooLarge, "too large headers section")
	ErrResponseHeadersTooBig = NewError(InternalServerError, "response headers exceed the staging buffer")
	ErrUnsupportedProtocol   = NewError(HTTPVersionNotSupported, "HTTP version not supported")
	ErrInternalServerError   = NewError(InternalServerError, "internal server error")
)
