package server

import (
	"errors"
	"io"
)

// requestBody streams the body of the current request straight out of the receive region,
// decoding the chunked encoding on the fly.
type requestBody struct {
	s *Slot
	// read is the number of body bytes handed out so far
	read      uint64
	done      bool
	continued bool
	// broken is set once the body can't be read anymore, making the connection unusable
	broken bool
	err    error
}

func (b *requestBody) reset() {
	b.read = 0
	b.done = true
	b.continued = false
	b.broken = false
	b.err = nil
}

func (b *requestBody) init() {
	req := b.s.req
	b.done = !req.Chunked && req.ContentLength == 0
	b.continued = !req.Expect100 || b.done
}

func (b *requestBody) Read(p []byte) (n int, err error) {
	switch {
	case b.err != nil:
		return 0, b.err
	case b.done:
		return 0, io.EOF
	case len(p) == 0:
		return 0, nil
	}

	if !b.continued {
		// the interim response goes out only if the body is actually being read
		b.continued = true
		if err = b.s.transmit(b.s.mem.Continue()); err != nil {
			return 0, b.fail(err)
		}
	}

	for {
		if b.s.start == b.s.end {
			if err = b.s.receive(); err != nil {
				if errors.Is(err, io.EOF) {
					err = io.ErrUnexpectedEOF
				}

				return 0, b.fail(err)
			}
		}

		if b.s.req.Chunked {
			n, err = b.readChunked(p)
		} else {
			n = b.readPlain(p)
		}

		if err != nil {
			return n, b.fail(err)
		}

		switch {
		case n > 0:
			return n, nil
		case b.done:
			return 0, io.EOF
		}
	}
}

func (b *requestBody) readPlain(p []byte) int {
	s := b.s
	left := s.req.ContentLength - b.read
	n := min(len(p), s.end-s.start)
	if uint64(n) > left {
		n = int(left)
	}

	copy(p, s.recv[s.start:s.start+n])
	s.start += n
	b.read += uint64(n)
	b.done = b.read == s.req.ContentLength

	return n
}

// readChunked decodes as much of the buffered data as fits into p.
func (b *requestBody) readChunked(p []byte) (n int, err error) {
	s := b.s
	dec := s.decoder

	for s.start < s.end && n < len(p) {
		if avail := dec.DataAvailable(); avail > 0 {
			chunk := min(avail, s.end-s.start, len(p)-n)
			copy(p[n:], s.recv[s.start:s.start+chunk])
			dec.Consume(chunk)
			s.start += chunk
			n += chunk
			continue
		}

		var last bool
		last, err = dec.ProcessByte(s.recv[s.start])
		s.start++
		if err != nil {
			return n, err
		}

		if last {
			b.done = true
			break
		}
	}

	b.read += uint64(n)
	if b.done {
		s.req.ContentLength = b.read
		s.request.ContentLength = b.read
	}

	return n, nil
}

// discard reads the rest of the body into the staging region, which is free until the
// response is composed.
func (b *requestBody) discard() error {
	scratch := b.s.mem.Staging()
	for !b.done {
		if _, err := b.Read(scratch); err != nil && !errors.Is(err, io.EOF) {
			return err
		}
	}

	return nil
}

func (b *requestBody) fail(err error) error {
	b.err = err
	b.broken = true
	b.s.closing = true
	return err
}
