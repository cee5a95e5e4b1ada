package transport

import (
	"net"

	"github.com/indigo-web/slotted/config"
)

// Transport is a listening endpoint. Listen runs the accept loop, handing every accepted
// connection to cb synchronously: a slow cb slows down accepting, which leaves new peers
// waiting in the listen backlog.
type Transport interface {
	Bind(addr string) error
	Listen(cfg config.NET, cb func(conn net.Conn)) error
	// Addr returns the bound address. It is nil before Bind.
	Addr() net.Addr
	// Stop interrupts the accept loop within the AcceptLoopInterruptPeriod.
	Stop()
	Close()
}
