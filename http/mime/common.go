package mime

import (
	"strings"
)

type MIME = string

const (
	OctetStream MIME = "application/octet-stream"
	Plain       MIME = "text/plain"
	HTML        MIME = "text/html"
	JSON        MIME = "application/json"
	XML         MIME = "text/xml"
)

// WithCharset appends the charset parameter to the MIME.
func WithCharset(mime MIME, charset Charset) string {
	return mime + ";charset=" + charset
}

// Complies returns whether the Content-Type value denotes the MIME. Parameters are
// ignored and an empty value is considered compatible with any MIME.
func Complies(mime MIME, with string) bool {
	with, _, _ = strings.Cut(with, ";")
	with = strings.TrimSpace(with)
	return len(with) == 0 || strings.EqualFold(with, mime)
}
