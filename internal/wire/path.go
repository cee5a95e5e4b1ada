package wire

import (
	"bytes"
	"unicode/utf8"

	"github.com/indigo-web/slotted/http/status"
	"github.com/indigo-web/slotted/internal/buffer"
	"github.com/indigo-web/slotted/internal/hexconv"
)

// parsePath parses the request target starting at pos and returns the position of the
// space following it.
//
// Percent-encoded bytes are decoded only when they are not ASCII, i.e. parts of a UTF-8
// sequence. Encoded ASCII stays encoded, so "%2F" is never confused with a path separator.
// Malformed escapes are kept literally and invalid UTF-8 is replaced by '?'.
func parsePath(b []byte, pos int, req *Request, scratch *buffer.Buffer) (int, error) {
	if pos >= len(b) {
		return 0, status.ErrBadRequestLine
	}

	switch b[pos] {
	case '/':
	case '*':
		if pos+1 < len(b) && b[pos+1] == ' ' {
			req.Path = "*"
			return pos + 1, nil
		}

		return 0, status.ErrBadPath
	default:
		return 0, status.ErrBadPath
	}

	var nonASCII, ok bool

	for ; pos < len(b); pos++ {
		switch c := b[pos]; c {
		case ' ', '?':
			goto query
		case '\r', '\n':
			scratch.Discard()
			return 0, status.ErrBadRequestLine
		case '%':
			if pos+2 < len(b) {
				hi, lo := hexconv.Halfbyte[b[pos+1]], hexconv.Halfbyte[b[pos+2]]
				if hi != hexconv.Invalid && lo != hexconv.Invalid && hi >= 0x8 {
					ok = scratch.AppendByte(hi<<4 | lo)
					nonASCII = true
					pos += 2
					break
				}
			}

			ok = scratch.AppendByte(c)
		default:
			if c >= utf8.RuneSelf {
				nonASCII = true
			}

			ok = scratch.AppendByte(c)
		}

		if !ok {
			scratch.Discard()
			return 0, status.ErrHeaderFieldsTooLarge
		}
	}

	scratch.Discard()
	return 0, status.ErrBadRequestLine

query:
	if nonASCII {
		sanitizeUTF8(scratch.Preview())
	}

	req.Path = scratch.String()

	if b[pos] != '?' {
		return pos, nil
	}

	pos++
	end := bytes.IndexByte(b[pos:], ' ')
	if end == -1 || bytes.IndexByte(b[pos:pos+end], '\r') != -1 {
		return 0, status.ErrBadRequestLine
	}

	var err error
	req.Query, err = copyString(scratch, b[pos:pos+end])

	return pos + end, err
}

func sanitizeUTF8(b []byte) {
	for i := 0; i < len(b); {
		if b[i] < utf8.RuneSelf {
			i++
			continue
		}

		r, size := utf8.DecodeRune(b[i:])
		if r == utf8.RuneError && size <= 1 {
			b[i] = '?'
			i++
			continue
		}

		i += size
	}
}
