package wire

import (
	"bytes"
	"iter"
	"strconv"
	"strings"

	"github.com/indigo-web/slotted/http/status"
	"github.com/indigo-web/slotted/internal/buffer"
	"github.com/indigo-web/utils/strcomp"
	"github.com/indigo-web/utils/uf"
)

// parseHeaders parses the header lines of b, each of them terminated by CRLF. A line starting
// with a space or a tab continues the previous header: its value is stored as one more value
// of that header and triggers no side effects.
func parseHeaders(b []byte, req *Request, scratch *buffer.Buffer) error {
	var key string

	for len(b) > 0 {
		eol := bytes.IndexByte(b, '\r')
		if eol == -1 || eol+1 >= len(b) || b[eol+1] != '\n' {
			return status.ErrBadHeader
		}

		line := b[:eol]
		b = b[eol+2:]

		if len(line) == 0 {
			return status.ErrBadHeader
		}

		if line[0] == ' ' || line[0] == '\t' {
			if len(key) == 0 {
				return status.ErrBadHeader
			}

			value, err := copyValue(scratch, line)
			if err != nil {
				return err
			}

			req.Headers.Add(key, value)
			continue
		}

		colon := 0
		for ; colon < len(line) && line[colon] != ':'; colon++ {
			if !isTokenChar(line[colon]) {
				return status.ErrBadHeader
			}
		}

		if colon == 0 || colon == len(line) {
			return status.ErrBadHeader
		}

		var err error
		if key, err = copyString(scratch, line[:colon]); err != nil {
			return err
		}

		value, err := copyValue(scratch, line[colon+1:])
		if err != nil {
			return err
		}

		req.Headers.Add(key, value)
		if err = processHeader(req, key, value); err != nil {
			return err
		}
	}

	if !req.Chunked && !req.hasLength {
		req.ContentLength = 0
	}

	return nil
}

// processHeader applies the side effects of the headers relevant for framing and upgrading.
func processHeader(req *Request, key, value string) error {
	switch len(key) {
	case len("Connection"):
		if strcomp.EqualFold(key, "Connection") {
			processConnection(req, value)
		}
	case len("Expect"):
		if strcomp.EqualFold(key, "Expect") {
			req.Expect100 = strcomp.EqualFold(value, "100-continue")
		}
	case len("Upgrade"):
		if strcomp.EqualFold(key, "Upgrade") && strcomp.EqualFold(value, "websocket") {
			req.conds |= condUpgradeWebSocket
		}
	case len("Content-Length"):
		if strcomp.EqualFold(key, "Content-Length") {
			return processContentLength(req, value)
		}
	case len("Transfer-Encoding"): // as long as Sec-WebSocket-Key
		switch {
		case strcomp.EqualFold(key, "Transfer-Encoding"):
			return processTransferEncoding(req, value)
		case strcomp.EqualFold(key, "Sec-WebSocket-Key") && len(value) > 0:
			req.WebSocketKey = value
			req.conds |= condKey
		}
	case len("Sec-WebSocket-Version"):
		if strcomp.EqualFold(key, "Sec-WebSocket-Version") && value == "13" {
			req.conds |= condVersion13
		}
	}

	return nil
}

func processConnection(req *Request, value string) {
	for token := range tokens(value) {
		switch {
		case strcomp.EqualFold(token, "close"):
			req.KeepAlive = false
		case strcomp.EqualFold(token, "keep-alive"):
			req.KeepAlive = true
		case strcomp.EqualFold(token, "upgrade"):
			req.conds |= condConnectionUpgrade
		}
	}
}

func processContentLength(req *Request, value string) error {
	length, err := strconv.ParseUint(value, 10, 64)
	if err != nil || length == UnknownLength {
		return status.ErrBadContentLength
	}

	if req.hasLength && req.ContentLength != length && !req.Chunked {
		return status.ErrBadContentLength
	}

	req.hasLength = true
	if !req.Chunked {
		req.ContentLength = length
	}

	return nil
}

func processTransferEncoding(req *Request, value string) error {
	var last string
	for token := range tokens(value) {
		last = token
	}

	if !strcomp.EqualFold(last, "chunked") {
		// the body can't be delimited in any other way
		return status.ErrBadRequest
	}

	req.Chunked = true
	req.ContentLength = UnknownLength

	return nil
}

// tokens iterates over the comma-separated elements of a header value.
func tokens(value string) iter.Seq[string] {
	return func(yield func(string) bool) {
		for len(value) > 0 {
			var token string
			token, value, _ = strings.Cut(value, ",")
			if token = strings.Trim(token, " \t"); len(token) > 0 && !yield(token) {
				return
			}
		}
	}
}

// copyValue trims the value and copies it into the scratch. Control characters other
// than HT are rejected.
func copyValue(scratch *buffer.Buffer, raw []byte) (string, error) {
	raw = trimWS(raw)
	for _, c := range raw {
		if (c < ' ' && c != '\t') || c == 0x7F {
			return "", status.ErrBadHeader
		}
	}

	return copyString(scratch, raw)
}

func trimWS(b []byte) []byte {
	return uf.S2B(strings.Trim(uf.B2S(b), " \t"))
}
