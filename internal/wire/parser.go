package wire

import (
	"bytes"

	"github.com/indigo-web/slotted/http/method"
	"github.com/indigo-web/slotted/http/proto"
	"github.com/indigo-web/slotted/http/status"
	"github.com/indigo-web/slotted/internal/buffer"
	"github.com/indigo-web/utils/uf"
)

var headEnd = []byte("\r\n\r\n")

// FindRequestEnd returns the position right after the CRLFCRLF terminating the request head,
// or -1 if it isn't there yet. It always scans from the beginning of b, so a terminator split
// between two receives is found once its last byte arrives.
func FindRequestEnd(b []byte) int {
	pos := bytes.Index(b, headEnd)
	if pos == -1 {
		return -1
	}

	return pos + len(headEnd)
}

// Parse parses the request head b, which must end exactly after the CRLFCRLF as reported by
// FindRequestEnd. Strings are copied into scratch, so they outlive movements of the receive
// buffer.
func Parse(b []byte, req *Request, scratch *buffer.Buffer) error {
	pos, err := parseRequestLine(b, req, scratch)
	if err != nil {
		return err
	}

	// the request line is followed by the headers, terminated by the second CRLF of the
	// head terminator
	return parseHeaders(b[pos:len(b)-2], req, scratch)
}

func parseRequestLine(b []byte, req *Request, scratch *buffer.Buffer) (pos int, err error) {
	m, n := matchMethod(b)
	if n == 0 {
		return 0, status.ErrBadMethod
	}

	req.Method = m
	if m != method.Unknown {
		req.MethodName = m.String()
	} else {
		if req.MethodName, err = copyString(scratch, b[:n]); err != nil {
			return 0, err
		}
	}

	if m == method.GET {
		req.conds |= condGet
	}

	pos = n + 1 // the space

	pos, err = parsePath(b, pos, req, scratch)
	if err != nil {
		return 0, err
	}

	if pos >= len(b) || b[pos] != ' ' {
		return 0, status.ErrBadRequestLine
	}

	pos++
	cr := bytes.IndexByte(b[pos:], '\r')
	if cr == -1 || pos+cr+1 >= len(b) || b[pos+cr+1] != '\n' {
		return 0, status.ErrBadRequestLine
	}

	token := b[pos : pos+cr]
	req.Proto = proto.FromBytes(token)
	switch req.Proto {
	case proto.HTTP10, proto.HTTP11:
		req.ProtoName = req.Proto.String()
	case proto.HTTP1x:
		if req.ProtoName, err = copyString(scratch, token); err != nil {
			return 0, err
		}
	default:
		return 0, status.ErrUnsupportedProtocol
	}

	req.KeepAlive = req.Proto.KeepAliveByDefault()

	return pos + cr + 2, nil
}

// matchMethod recognizes the method token including the following space. The common methods
// are matched by their exact prefixes, anything else falls back to a token scan. Returns the
// length of the token, or 0 if there's no valid one.
func matchMethod(b []byte) (method.Method, int) {
	if len(b) == 0 {
		return method.Unknown, 0
	}

	switch b[0] {
	case 'G':
		if hasPrefix(b, "GET ") {
			return method.GET, 3
		}
	case 'P':
		switch {
		case hasPrefix(b, "POST "):
			return method.POST, 4
		case hasPrefix(b, "PUT "):
			return method.PUT, 3
		case hasPrefix(b, "PATCH "):
			return method.PATCH, 5
		}
	case 'H':
		if hasPrefix(b, "HEAD ") {
			return method.HEAD, 4
		}
	case 'D':
		if hasPrefix(b, "DELETE ") {
			return method.DELETE, 6
		}
	case 'T':
		if hasPrefix(b, "TRACE ") {
			return method.TRACE, 5
		}
	case 'O':
		if hasPrefix(b, "OPTIONS ") {
			return method.OPTIONS, 7
		}
	case 'C':
		if hasPrefix(b, "CONNECT ") {
			return method.CONNECT, 7
		}
	}

	for i, c := range b {
		if c == ' ' {
			return method.Unknown, i
		}

		if !isTokenChar(c) {
			break
		}
	}

	return method.Unknown, 0
}

func hasPrefix(b []byte, prefix string) bool {
	return len(b) >= len(prefix) && uf.B2S(b[:len(prefix)]) == prefix
}

func copyString(scratch *buffer.Buffer, data []byte) (string, error) {
	str, ok := scratch.Copy(data)
	if !ok {
		return "", status.ErrHeaderFieldsTooLarge
	}

	return str, nil
}

// tokenChars are the tchar of RFC 9110, 5.6.2.
var tokenChars = func() (table [256]bool) {
	for c := '0'; c <= '9'; c++ {
		table[c] = true
	}

	for c := 'a'; c <= 'z'; c++ {
		table[c] = true
		table[c-'a'+'A'] = true
	}

	for _, c := range "!#$%&'*+-.^_`|~" {
		table[c] = true
	}

	return table
}()

func isTokenChar(c byte) bool {
	return tokenChars[c]
}
