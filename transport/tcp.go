package transport

import (
	"errors"
	"net"
	"os"
	"sync/atomic"
	"time"

	"github.com/indigo-web/slotted/config"
	"github.com/indigo-web/slotted/internal/timer"
)

type listener interface {
	net.Listener
	SetDeadline(t time.Time) error
}

// bindRetryPeriod is the pause between two attempts to bind.
const bindRetryPeriod = 100 * time.Millisecond

type TCP struct {
	l     listener
	retry time.Duration
	stop  *atomic.Bool
}

// NewTCP returns a plain TCP transport. A failing bind is retried for the given duration.
func NewTCP(bindRetry time.Duration) *TCP {
	tcp := newTCP(nil, bindRetry)
	return &tcp
}

func newTCP(l listener, bindRetry time.Duration) TCP {
	return TCP{
		l:     l,
		retry: bindRetry,
		stop:  new(atomic.Bool),
	}
}

func bindTCP(addr string, retry time.Duration) (*net.TCPListener, error) {
	tcpaddr, err := net.ResolveTCPAddr("tcp", addr)
	if err != nil {
		return nil, err
	}

	deadline := time.Now().Add(retry)
	for {
		l, err := net.ListenTCP("tcp", tcpaddr)
		if err == nil || time.Now().After(deadline) {
			return l, err
		}

		time.Sleep(bindRetryPeriod)
	}
}

func (t *TCP) Bind(addr string) (err error) {
	t.l, err = bindTCP(addr, t.retry)
	return err
}

func (t *TCP) Listen(cfg config.NET, cb func(conn net.Conn)) error {
	for !t.stop.Load() {
		err := t.l.SetDeadline(timer.Now().Add(cfg.AcceptLoopInterruptPeriod))
		if err != nil {
			return err
		}

		conn, err := t.l.Accept()
		if err != nil {
			if errors.Is(err, os.ErrDeadlineExceeded) {
				continue
			}

			if t.stop.Load() {
				return nil
			}

			return err
		}

		cb(conn)
	}

	return nil
}

func (t *TCP) Addr() net.Addr {
	if t.l == nil {
		return nil
	}

	return t.l.Addr()
}

func (t *TCP) Stop() {
	t.stop.Store(true)
}

func (t *TCP) Close() {
	if t.l != nil {
		_ = t.l.Close()
	}
}
