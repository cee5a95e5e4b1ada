package server

import (
	"net"
	"sync"
	"sync/atomic"

	"github.com/indigo-web/slotted/alloc"
	"github.com/indigo-web/slotted/config"
	"github.com/indigo-web/slotted/http"
	"github.com/indigo-web/slotted/internal/arena"
	"github.com/indigo-web/slotted/logging"
)

// Pool owns the connection slots. Each slot runs in its own goroutine, picking up the
// connections handed over by the transports. The pool only grows: slots and their memory
// live until the pool is stopped.
type Pool struct {
	cfg      *config.Config
	log      logging.Logger
	handler  http.Handler
	strategy alloc.Strategy

	mu     sync.Mutex
	blocks []*arena.Block
	slots  []*Slot

	connected atomic.Int64
	conns     chan net.Conn
	stop      chan struct{}
	halted    atomic.Bool
	once      sync.Once
	wg        sync.WaitGroup
}

func NewPool(cfg *config.Config, log logging.Logger, handler http.Handler, strategy alloc.Strategy) *Pool {
	return &Pool{
		cfg:      cfg,
		log:      log,
		handler:  handler,
		strategy: strategy,
		conns:    make(chan net.Conn),
		stop:     make(chan struct{}),
	}
}

// Start allocates the initial slots.
func (p *Pool) Start() {
	p.mu.Lock()
	p.grow(p.strategy.NewSlots(0, 0))
	p.mu.Unlock()
}

// Serve hands the connection over to an idle slot, blocking until one is available. If the
// pool is stopped meanwhile, the connection is closed.
func (p *Pool) Serve(conn net.Conn) {
	p.mu.Lock()
	p.grow(p.strategy.NewSlots(len(p.slots), int(p.connected.Load())))
	p.mu.Unlock()

	p.connected.Add(1)
	select {
	case p.conns <- conn:
	case <-p.stop:
		p.connected.Add(-1)
		_ = conn.Close()
	}
}

// Stop makes slots finish their current requests and exit. Idle connections are closed
// immediately, the busy ones after the response is sent. Stop doesn't wait for that.
func (p *Pool) Stop() {
	p.once.Do(func() {
		p.halted.Store(true)
		close(p.stop)

		p.mu.Lock()
		defer p.mu.Unlock()

		for _, s := range p.slots {
			if s.idling.Load() {
				s.conn.Abort()
			}
		}
	})
}

// Wait blocks until every slot exits.
func (p *Pool) Wait() {
	p.wg.Wait()
}

// Slots returns the total number of slots.
func (p *Pool) Slots() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return len(p.slots)
}

// Connected returns the number of connections being served or handed over.
func (p *Pool) Connected() int {
	return int(p.connected.Load())
}

// grow must be called with p.mu held.
func (p *Pool) grow(n int) {
	if n <= 0 || p.halted.Load() {
		return
	}

	block := arena.New(n, p.cfg.Buffer.Size)
	p.blocks = append(p.blocks, block)

	for i := range n {
		s := newSlot(len(p.slots), p, block.Slot(i))
		p.slots = append(p.slots, s)
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			s.Run()
		}()
	}

	p.log.Infof("pool: allocated %d slots, %d in total", n, len(p.slots))
}

func (p *Pool) next() (net.Conn, bool) {
	select {
	case conn := <-p.conns:
		return conn, true
	case <-p.stop:
		return nil, false
	}
}

func (p *Pool) stopping() bool {
	return p.halted.Load()
}

func (p *Pool) release() {
	p.connected.Add(-1)
}
