package slotted

import (
	"github.com/indigo-web/slotted/alloc"
	"github.com/indigo-web/slotted/config"
	"github.com/indigo-web/slotted/http"
	"github.com/indigo-web/slotted/internal/server"
	"github.com/indigo-web/slotted/logging"
	"github.com/indigo-web/slotted/transport"
)

func newStrategy(cfg config.Pool) alloc.Strategy {
	return alloc.Growth{
		Start:    cfg.Initial,
		Delta:    cfg.Delta,
		Max:      cfg.Max,
		KeepFree: cfg.KeepFree,
	}
}

func newPool(cfg *config.Config, log logging.Logger, h http.Handler, strategy alloc.Strategy) *server.Pool {
	if strategy == nil {
		strategy = newStrategy(cfg.Pool)
	}

	return server.NewPool(cfg, log, h, strategy)
}

// newSupervisor binds every transport, handing their connections over to the pool.
func newSupervisor(cfg *config.Config, transports []Transport, pool *server.Pool) (transport.Supervisor, error) {
	for _, t := range transports {
		if t.error != nil {
			return transport.Supervisor{}, t.error
		}
	}

	sv := transport.NewSupervisor()
	for _, t := range transports {
		if err := sv.Add(t.addr, t.spawn(cfg), pool.Serve); err != nil {
			return transport.Supervisor{}, err
		}
	}

	return sv, nil
}
