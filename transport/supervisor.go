package transport

import (
	"net"
	"sync"

	"github.com/indigo-web/slotted/config"
	"golang.org/x/sync/errgroup"
)

// Supervisor runs the accept loops of multiple transports. As soon as one of them exits,
// all the others are stopped too.
type Supervisor struct {
	once *sync.Once
	ts   []boundTransport
}

func NewSupervisor() Supervisor {
	return Supervisor{
		once: new(sync.Once),
	}
}

// Add binds the transport. If binding fails, every transport added before is closed.
func (s *Supervisor) Add(addr string, transport Transport, cb func(net.Conn)) error {
	err := transport.Bind(addr)
	if err != nil {
		s.close()
		return err
	}

	s.ts = append(s.ts, boundTransport{
		cb: cb,
		t:  transport,
	})

	return nil
}

// Run blocks until every accept loop exits and returns the first error any of them
// returned. The transports are closed afterward.
func (s *Supervisor) Run(cfg config.NET) error {
	var g errgroup.Group

	for _, t := range s.ts {
		g.Go(func() error {
			defer s.Stop()
			return t.t.Listen(cfg, t.cb)
		})
	}

	err := g.Wait()
	s.close()

	return err
}

// Stop makes all the accept loops exit. It doesn't wait for them.
func (s *Supervisor) Stop() {
	s.once.Do(func() {
		for _, t := range s.ts {
			t.t.Stop()
		}
	})
}

// Addrs returns the addresses of all the bound transports.
func (s *Supervisor) Addrs() []net.Addr {
	addrs := make([]net.Addr, 0, len(s.ts))
	for _, t := range s.ts {
		addrs = append(addrs, t.t.Addr())
	}

	return addrs
}

func (s *Supervisor) close() {
	for _, t := range s.ts {
		t.t.Close()
	}
}

type boundTransport struct {
	cb func(conn net.Conn)
	t  Transport
}
