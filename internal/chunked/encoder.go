package chunked

import (
	"math/bits"

	"github.com/indigo-web/slotted/internal/hexconv"
)

const crlf = "\r\n"

// Terminator ends a chunked body with no trailer fields.
const Terminator = "0\r\n\r\n"

// HeadroomFor returns how many bytes must be free in front of a payload of n bytes for Wrap
// to put the size line there.
func HeadroomFor(n int) int {
	return hexlen(n) + len(crlf)
}

// Wrap turns window[start:start+n] into a single chunk in place. The size line is written
// backwards into the bytes preceding start and the CRLF right after the payload, so the
// caller must reserve HeadroomFor(n) bytes before and 2 bytes after. The chunk occupies
// window[from:to] afterwards.
func Wrap(window []byte, start, n int) (from, to int) {
	to = start + n
	to += copy(window[to:], crlf)

	from = start - len(crlf)
	copy(window[from:], crlf)

	for i := hexlen(n); i > 0; i-- {
		from--
		window[from] = hexconv.Upper[n&0xf]
		n >>= 4
	}

	return from, to
}

// AppendTerminator writes the zero-length chunk at window[at:] and returns the new end.
func AppendTerminator(window []byte, at int) int {
	return at + copy(window[at:], Terminator)
}

func hexlen(n int) int {
	if n == 0 {
		return 1
	}

	return (bits.Len64(uint64(n))-1)>>2 + 1
}
