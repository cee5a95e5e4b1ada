package chunked

import (
	"math"

	"github.com/indigo-web/slotted/http/status"
	"github.com/indigo-web/slotted/internal/hexconv"
)

type state uint8

const (
	eHex state = iota
	eAfterHex
	eAfterHexCR
	eData
	eAfterDataCR
	eAfterTrailerLF
	eAfterLastCR
	eEnd
	eTrailer
	eAfterTrailerCR
)

// Decoder is a byte-at-a-time state machine over chunked transfer encoding. It never copies
// the payload: the caller feeds framing bytes into ProcessByte until DataAvailable becomes
// positive, copies at most that many payload bytes by itself and reports them via Consume.
// Chunk extensions and trailer fields are skipped.
type Decoder struct {
	avail int64
	next  int64
	state state
}

func NewDecoder() *Decoder {
	return new(Decoder)
}

// Reset prepares the decoder for the next body.
func (d *Decoder) Reset() {
	*d = Decoder{}
}

// DataAvailable returns how many payload bytes follow in the current chunk. Zero means the
// next byte is framing, a negative value means the terminal chunk was seen.
func (d *Decoder) DataAvailable() int {
	if d.avail > math.MaxInt32 {
		return math.MaxInt32
	}

	return int(d.avail)
}

// Consume marks n payload bytes of the current chunk as read.
func (d *Decoder) Consume(n int) {
	d.avail -= int64(n)
}

// Done reports whether the terminal chunk and the trailer section were fully processed.
func (d *Decoder) Done() bool {
	return d.state == eEnd
}

// ProcessByte feeds a single framing byte. It returns true exactly once, when the body
// is over.
func (d *Decoder) ProcessByte(c byte) (done bool, err error) {
	switch d.state {
	case eHex:
		goto hex
	case eAfterHex:
		goto afterHex
	case eAfterHexCR:
		goto afterHexCR
	case eData:
		goto data
	case eAfterDataCR:
		goto afterDataCR
	case eAfterTrailerLF:
		goto afterTrailerLF
	case eTrailer:
		goto trailer
	case eAfterTrailerCR:
		goto afterTrailerCR
	case eAfterLastCR:
		goto afterLastCR
	default:
		return false, status.ErrBadChunk
	}

hex:
	if h := hexconv.Halfbyte[c]; h != hexconv.Invalid {
		if d.next > math.MaxInt64>>4 {
			return false, status.ErrBadChunk
		}

		d.next = d.next<<4 | int64(h)
		return false, nil
	}

	d.state = eAfterHex

afterHex:
	// everything up to CR is a chunk extension, which is ignored
	if c == '\r' {
		d.state = eAfterHexCR
	}

	return false, nil

afterHexCR:
	if c == '\n' {
		d.state = eData
		d.avail = d.next
		return false, nil
	}

	d.state = eAfterHex
	return false, nil

data:
	if d.avail > 0 {
		return false, status.ErrBadChunk
	}

	if c == '\r' {
		d.state = eAfterDataCR
		return false, nil
	}

	if d.next != 0 {
		return false, status.ErrBadChunk
	}

	d.state = eTrailer
	return false, nil

afterDataCR:
	if c != '\n' {
		return false, status.ErrBadChunk
	}

	if d.next == 0 {
		return d.end(), nil
	}

	d.state = eHex
	d.next = 0
	return false, nil

afterTrailerLF:
	if c == '\r' {
		d.state = eAfterLastCR
	} else {
		d.state = eTrailer
	}

	return false, nil

trailer:
	if c == '\r' {
		d.state = eAfterTrailerCR
	}

	return false, nil

afterTrailerCR:
	if c != '\n' {
		return false, status.ErrBadChunk
	}

	d.state = eAfterTrailerLF
	return false, nil

afterLastCR:
	if c != '\n' {
		return false, status.ErrBadChunk
	}

	return d.end(), nil
}

func (d *Decoder) end() bool {
	d.state = eEnd
	d.avail = -1
	return true
}
