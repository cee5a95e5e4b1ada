package transport

import (
	"crypto/tls"
	"net"
	"time"
)

// TLS decorates the TCP transport: accepted connections are wrapped by tls.Server, so the
// handshake happens on the first read. Everything else behaves like plain TCP.
type TLS struct {
	cfg *tls.Config
	TCP
}

func NewTLS(cfg *tls.Config, bindRetry time.Duration) *TLS {
	return &TLS{
		cfg: cfg,
		TCP: newTCP(nil, bindRetry),
	}
}

func (t *TLS) Bind(addr string) error {
	tcp, err := bindTCP(addr, t.retry)
	if err != nil {
		return err
	}

	t.TCP = newTCP(tlsAdapter{tcp, tls.NewListener(tcp, t.cfg)}, t.retry)

	return nil
}

type tlsAdapter struct {
	*net.TCPListener
	tls net.Listener
}

func (t tlsAdapter) Accept() (net.Conn, error) {
	return t.tls.Accept()
}
