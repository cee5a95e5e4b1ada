package transport

import (
	"fmt"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/indigo-web/slotted/config"
	"github.com/indigo-web/slotted/http/status"
	"github.com/stretchr/testify/require"
)

type transportMock struct {
	stopped     *atomic.Bool
	closed      atomic.Bool
	bound       bool
	once        bool
	loop        time.Duration
	returnError error
}

func newMock(loop time.Duration, returnError error, once bool) *transportMock {
	return &transportMock{
		stopped:     new(atomic.Bool),
		once:        once,
		loop:        loop,
		returnError: returnError,
	}
}

func (t *transportMock) Bind(string) error {
	t.bound = true
	return nil
}

func (t *transportMock) Listen(config.NET, func(conn net.Conn)) error {
	for !t.stopped.Load() && !t.once {
		time.Sleep(t.loop)
	}

	return t.returnError
}

func (t *transportMock) Stop() {
	t.stopped.Store(true)
}

func (t *transportMock) Addr() net.Addr {
	return nil
}

func (t *transportMock) Close() {
	t.closed.Store(true)
}

type failingBind struct {
	*transportMock
}

func (failingBind) Bind(string) error {
	return status.ErrInternalServerError
}

func runParallel(fn func() error) chan error {
	c := make(chan error)

	go func() {
		c <- fn()
	}()

	return c
}

func runAtMost(sup *Supervisor, timeout time.Duration) error {
	select {
	case err := <-runParallel(func() error {
		return sup.Run(config.Default().NET)
	}):
		return err
	case <-time.After(timeout):
		return fmt.Errorf("supervisor timeouted")
	}
}

func TestSupervisor(t *testing.T) {
	newSupervisor := func(ts ...*transportMock) (*Supervisor, error) {
		sup := NewSupervisor()
		for _, transport := range ts {
			if err := sup.Add("", transport, nil); err != nil {
				return nil, err
			}
		}

		return &sup, nil
	}

	t.Run("die without error", func(t *testing.T) {
		sup, err := newSupervisor(
			newMock(100*time.Millisecond, nil, false),
			newMock(200*time.Millisecond, nil, true),
		)
		require.NoError(t, err)
		require.NoError(t, runAtMost(sup, 300*time.Millisecond))
	})

	t.Run("die with error", func(t *testing.T) {
		sup, err := newSupervisor(
			newMock(100*time.Millisecond, nil, false),
			newMock(200*time.Millisecond, status.ErrCloseConnection, true),
		)
		require.NoError(t, err)
		require.EqualError(t, runAtMost(sup, 300*time.Millisecond), status.ErrCloseConnection.Error())
	})

	t.Run("stop", func(t *testing.T) {
		sup, err := newSupervisor(
			newMock(100*time.Millisecond, nil, false),
			newMock(200*time.Millisecond, nil, false),
		)
		require.NoError(t, err)
		c := runParallel(func() error {
			return sup.Run(config.Default().NET)
		})
		time.Sleep(200 * time.Millisecond)
		sup.Stop()

		select {
		case err = <-c:
			require.NoError(t, err)
		case <-time.After(300 * time.Millisecond):
			require.Fail(t, "supervisor did not stop running on time")
		}

		for _, tr := range sup.ts {
			require.True(t, tr.t.(*transportMock).closed.Load())
		}
	})

	t.Run("failed bind closes the bound", func(t *testing.T) {
		sup := NewSupervisor()
		first := newMock(time.Millisecond, nil, true)
		require.NoError(t, sup.Add("", first, nil))
		require.Error(t, sup.Add("", &failingBind{first}, nil))
		require.True(t, first.closed.Load())
	})
}
