package server

import (
	"errors"
	"fmt"

	"github.com/indigo-web/slotted/websocket"
)

var errFrameTooLong = errors.New("frame header doesn't fit into the receive region")

func (s *Slot) upgraded() state {
	packet, err := s.stream.switching()
	if err != nil {
		s.log.Debugf("slot %d: refusing the upgrade: %s", s.id, err)
		return s.fail()
	}

	if err = s.transmit(packet); err != nil {
		return eDisconnecting
	}

	s.idling.Store(true)
	if s.pool.stopping() {
		s.conn.Abort()
	}

	conn := websocket.New(s.ctx, link{s})
	if err = s.serveWebSocket(conn); err != nil {
		s.log.Warnf("slot %d: websocket handler failed: %s", s.id, err)
	}

	s.idling.Store(false)

	return eDisconnecting
}

func (s *Slot) serveWebSocket(conn *websocket.Conn) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	return s.stream.upgrade(conn)
}

// link exposes the slot memory and connection to the frame codec.
type link struct {
	s *Slot
}

func (l link) Peek(min int) ([]byte, error) {
	s := l.s
	if min > len(s.recv) {
		return nil, errFrameTooLong
	}

	for s.end-s.start < min {
		if s.start > 0 && len(s.recv)-s.start < min {
			s.end = copy(s.recv, s.recv[s.start:s.end])
			s.start = 0
		}

		n, err := s.conn.Receive(s.recv[s.end:])
		if err != nil {
			s.cancel()
			return nil, err
		}

		s.end += n
	}

	return s.recv[s.start:s.end], nil
}

func (l link) Discard(n int) {
	l.s.start += n
}

func (l link) SendWindow() []byte {
	return l.s.mem.SendWindow()
}

// Send may run concurrently with Peek, so it touches nothing but the connection.
func (l link) Send(b []byte) error {
	if err := l.s.conn.Send(b); err != nil {
		l.s.cancel()
		return err
	}

	return nil
}
