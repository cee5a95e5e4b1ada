package slotted

import (
	"net"
	"os"
	"sync"

	"github.com/indigo-web/slotted/alloc"
	"github.com/indigo-web/slotted/config"
	"github.com/indigo-web/slotted/http"
	"github.com/indigo-web/slotted/internal/address"
	"github.com/indigo-web/slotted/internal/server"
	"github.com/indigo-web/slotted/logging"
	"github.com/indigo-web/slotted/transport"
)

// App binds the listeners and serves every connection they accept with a single handler.
type App struct {
	cfg        *config.Config
	log        logging.Logger
	strategy   alloc.Strategy
	transports []Transport
	hooks      hooks

	mu         sync.Mutex
	stopped    bool
	supervisor transport.Supervisor
	pool       *server.Pool
}

// New returns a new App instance, listening for plain connections on the address.
func New(addr string) *App {
	a := &App{
		cfg: config.Default(),
		log: logging.New(os.Stderr, logging.Info),
	}

	return a.Listen(addr, TCP())
}

// Tune replaces the default config.
func (a *App) Tune(cfg *config.Config) *App {
	a.cfg = cfg
	return a
}

// Logger replaces the default logger, which writes into the stderr.
func (a *App) Logger(log logging.Logger) *App {
	a.log = log
	return a
}

// Strategy replaces the default pool growth, which follows the config.
func (a *App) Strategy(strategy alloc.Strategy) *App {
	a.strategy = strategy
	return a
}

// Listen adds a listener on the address. If no transport is given, plain TCP is used.
func (a *App) Listen(addr string, optionalTransport ...Transport) *App {
	t := optional(optionalTransport, TCP())
	t.addr = address.Normalize(addr)
	a.transports = append(a.transports, t)

	return a
}

// AutoHTTPS adds an encrypted listener on the address. Certificates are obtained
// automatically, or self-signed if the address is local.
func (a *App) AutoHTTPS(addr string, domains ...string) *App {
	return a.Listen(addr, autoHTTPS(a.log, addr, domains...))
}

// NotifyOnStart calls the callback at the moment, when all the listeners are bound.
func (a *App) NotifyOnStart(cb func()) *App {
	a.hooks.OnStart = cb
	return a
}

// NotifyOnStop calls the callback at the moment, when all the listeners are closed and
// every connection is served to the end.
func (a *App) NotifyOnStop(cb func()) *App {
	a.hooks.OnStop = cb
	return a
}

// Serve starts the application and blocks until it's stopped, either by Stop or by a
// failing listener.
func (a *App) Serve(h http.Handler) error {
	if err := a.cfg.Validate(); err != nil {
		return err
	}

	pool := newPool(a.cfg, a.log, h, a.strategy)
	sv, err := newSupervisor(a.cfg, a.transports, pool)
	if err != nil {
		return err
	}

	a.mu.Lock()
	a.supervisor, a.pool = sv, pool
	if a.stopped {
		sv.Stop()
	}
	a.mu.Unlock()

	pool.Start()
	for _, addr := range sv.Addrs() {
		a.log.Infof("listening on %s", addr)
	}

	callIfNotNil(a.hooks.OnStart)
	err = sv.Run(a.cfg.NET)
	if err != nil {
		a.log.Errorf("listener failed: %s", err)
	}

	pool.Stop()
	pool.Wait()
	callIfNotNil(a.hooks.OnStop)

	return err
}

// Stop closes the listeners, finishes the in-flight requests and closes every connection.
//
// NOTE: the call isn't blocking. So by that, after the method returned, the server
// will still be working
func (a *App) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.stopped = true
	if a.pool != nil {
		a.supervisor.Stop()
		a.pool.Stop()
	}
}

// Addrs returns the bound addresses. It's empty until the application is started.
func (a *App) Addrs() []net.Addr {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.pool == nil {
		return nil
	}

	return a.supervisor.Addrs()
}

type hooks struct {
	OnStart, OnStop func()
}

func callIfNotNil(f func()) {
	if f != nil {
		f()
	}
}

func optional[T any](optionals []T, otherwise T) T {
	if len(optionals) == 0 {
		return otherwise
	}

	return optionals[0]
}
