package server

import (
	"context"
	"fmt"
	"net"
	"sync/atomic"

	"github.com/indigo-web/slotted/config"
	"github.com/indigo-web/slotted/http"
	"github.com/indigo-web/slotted/http/status"
	"github.com/indigo-web/slotted/internal/arena"
	"github.com/indigo-web/slotted/internal/buffer"
	"github.com/indigo-web/slotted/internal/chunked"
	"github.com/indigo-web/slotted/internal/wire"
	"github.com/indigo-web/slotted/logging"
	"github.com/indigo-web/slotted/transport"
)

type state uint8

const (
	eAccepting state = iota
	eAwaitingHeaders
	eDispatching
	eDraining
	eComposing
	eSending
	eUpgraded
	eDisconnecting
	eStopped
)

func (s state) String() string {
	switch s {
	case eAccepting:
		return "accepting"
	case eAwaitingHeaders:
		return "awaiting headers"
	case eDispatching:
		return "dispatching"
	case eDraining:
		return "draining"
	case eComposing:
		return "composing"
	case eSending:
		return "sending"
	case eUpgraded:
		return "upgraded"
	case eDisconnecting:
		return "disconnecting"
	case eStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Slot serves one connection at a time, reusing its memory region for every request
// of every connection it ever serves.
type Slot struct {
	id      int
	pool    *Pool
	cfg     *config.Config
	log     logging.Logger
	handler http.Handler
	mem     arena.Slot
	conn    *transport.Conn

	// the unread received bytes are recv[start:end]
	recv       []byte
	start, end int

	req      *wire.Request
	scratch  *buffer.Buffer
	decoder  *chunked.Decoder
	request  *http.Request
	response *http.Response
	body     requestBody
	stream   responseBody

	ctx       context.Context
	cancel    context.CancelFunc
	keepAlive bool
	// closing forbids keeping the connection whatever the request or the handler wants
	closing bool
	fault   bool
	// packet is the composed response part waiting to be sent
	packet []byte
	// idling is set while the slot waits for a request or serves a WebSocket, so a stopping
	// pool may abort it
	idling atomic.Bool
}

func newSlot(id int, pool *Pool, mem arena.Slot) *Slot {
	s := &Slot{
		id:      id,
		pool:    pool,
		cfg:     pool.cfg,
		log:     pool.log,
		handler: pool.handler,
		mem:     mem,
		conn:    transport.NewConn(pool.cfg.NET.ReadTimeout),
		recv:    mem.Receive(),
		req:     wire.NewRequest(),
		scratch: buffer.New(mem.Size()),
		decoder: chunked.NewDecoder(),
		ctx:     context.Background(),
		cancel:  func() {},
	}

	s.body.s = s
	s.stream.s = s
	s.response = http.NewResponse(&s.stream)
	s.request = http.NewRequest(s.req.Headers, &s.body, s.response)

	return s
}

// Run loops the state machine until the pool stops.
func (s *Slot) Run() {
	for st := eAccepting; st != eStopped; {
		st = s.step(st)
	}
}

// step performs the work of the state and returns the next one.
func (s *Slot) step(st state) state {
	switch st {
	case eAccepting:
		return s.accept()
	case eAwaitingHeaders:
		return s.awaitHeaders()
	case eDispatching:
		return s.dispatch()
	case eDraining:
		return s.drain()
	case eComposing:
		return s.compose()
	case eSending:
		return s.send()
	case eUpgraded:
		return s.upgraded()
	case eDisconnecting:
		return s.disconnect()
	default:
		panic(fmt.Sprintf("BUG: slot %d is in unexpected state %s", s.id, st))
	}
}

func (s *Slot) accept() state {
	conn, ok := s.pool.next()
	if !ok {
		return eStopped
	}

	s.bind(conn)
	return eAwaitingHeaders
}

func (s *Slot) bind(conn net.Conn) {
	s.conn.Bind(conn)
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.start, s.end = 0, 0
	s.request.Remote = s.conn.RemoteAddr()
	s.request.Local = s.conn.LocalAddr()
	s.request.Scheme = "http"
	if s.conn.Secure() {
		s.request.Scheme = "https"
	}

	s.request.Ctx = s.ctx
}

// reset prepares the per-request state.
func (s *Slot) reset() {
	s.req.Reset()
	s.scratch.Clear()
	s.decoder.Reset()
	s.response.Clear()
	s.body.reset()
	s.stream.reset()
	s.fault = false
	s.closing = false
	s.packet = nil
}

func (s *Slot) awaitHeaders() state {
	s.reset()

	for {
		if end := wire.FindRequestEnd(s.recv[s.start:s.end]); end != -1 {
			return s.parse(end)
		}

		if s.end-s.start == len(s.recv) {
			s.log.Debugf("slot %d: %s: head exceeds %d bytes", s.id, status.ErrHeaderFieldsTooLarge, len(s.recv))
			return s.fail()
		}

		idle := s.start == s.end
		if idle {
			// nothing of the next request arrived yet, so a stopping pool may abort the wait
			s.idling.Store(true)
			if s.pool.stopping() {
				s.idling.Store(false)
				return eDisconnecting
			}
		}

		err := s.receive()
		if idle {
			s.idling.Store(false)
		}

		if err != nil {
			return eDisconnecting
		}
	}
}

func (s *Slot) parse(end int) state {
	err := wire.Parse(s.recv[s.start:s.start+end], s.req, s.scratch)
	s.start += end
	if err != nil {
		s.log.Debugf("slot %d: bad request from %s: %s", s.id, s.request.Remote, err)
		return s.fail()
	}

	s.keepAlive = s.req.KeepAlive
	s.request.Method = s.req.Method
	s.request.MethodName = s.req.MethodName
	s.request.Path = s.req.Path
	s.request.Query = s.req.Query
	s.request.Proto = s.req.Proto
	s.request.ContentLength = s.req.ContentLength
	s.request.Chunked = s.req.Chunked
	s.request.Upgradable = s.req.WebSocket()
	s.body.init()

	return eDispatching
}

func (s *Slot) dispatch() state {
	if err := s.serve(); err != nil {
		s.log.Warnf("slot %d: %s %s: handler failed: %s", s.id, s.request.MethodName, s.request.Path, err)
		s.fault = true
	}

	switch {
	case s.fault:
		if s.stream.headersSent {
			return eDisconnecting
		}

		return s.fail()
	case s.stream.upgrade != nil:
		return eUpgraded
	case !s.body.done:
		return eDraining
	default:
		return eComposing
	}
}

// serve calls the handler, turning a panic into an error.
func (s *Slot) serve() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	return s.handler.Serve(s.request, s.response)
}

func (s *Slot) drain() state {
	if s.body.broken {
		s.closing = true
		return eComposing
	}

	if s.req.Expect100 && !s.body.continued {
		// the peer is still waiting for the permission to send the body
		s.closing = true
		return eComposing
	}

	if err := s.body.discard(); err != nil {
		s.log.Debugf("slot %d: draining the request body: %s", s.id, err)
		return eDisconnecting
	}

	return eComposing
}

func (s *Slot) compose() state {
	packet, err := s.stream.finish()
	switch {
	case err == nil:
		s.packet = packet
		return eSending
	case s.stream.headersSent:
		s.log.Debugf("slot %d: closing the connection: %s", s.id, err)
		return eDisconnecting
	default:
		s.log.Debugf("slot %d: %s", s.id, err)
		return s.fail()
	}
}

func (s *Slot) send() state {
	if len(s.packet) > 0 {
		if err := s.transmit(s.packet); err != nil {
			return eDisconnecting
		}
	}

	if !s.persistent() {
		return eDisconnecting
	}

	return eAwaitingHeaders
}

// persistent tells whether the connection is kept after the current response.
func (s *Slot) persistent() bool {
	return s.keepAlive && !s.closing && !s.pool.stopping()
}

func (s *Slot) disconnect() state {
	s.cancel()
	_ = s.conn.Disconnect()
	s.pool.release()

	return eAccepting
}

// fail sends the canned 500 response and closes the connection.
func (s *Slot) fail() state {
	s.closing = true
	s.packet = s.stream.cannedError()
	return eSending
}

// receive reads more bytes into the receive region, moving the unread ones to its beginning
// first.
func (s *Slot) receive() error {
	if s.start > 0 {
		s.end = copy(s.recv, s.recv[s.start:s.end])
		s.start = 0
	}

	n, err := s.conn.Receive(s.recv[s.end:])
	if err != nil {
		s.cancel()
		return err
	}

	s.end += n
	return nil
}

func (s *Slot) transmit(b []byte) error {
	if err := s.conn.Send(b); err != nil {
		s.cancel()
		s.closing = true
		return err
	}

	return nil
}
