package config

import (
	"errors"
	"fmt"
	"time"
)

type (
	Buffer struct {
		// Size is the per-connection buffer size R. Every connection slot reserves 3*R + 16
		// bytes: R for the received request head, R for response headers staging and R for
		// the response body, surrounded by chunk-framing headroom. Request heads and response
		// headers longer than R are answered with 500 and the connection is closed.
		Size int
	}

	Pool struct {
		// Initial is the number of connection slots allocated on start.
		Initial int
		// Delta is how many slots are added on each growth.
		Delta int
		// Max caps the total number of slots. Once reached, new peers wait in the
		// listen backlog until a slot frees up.
		Max int
		// KeepFree is the low-water mark: the pool grows as soon as fewer than KeepFree
		// slots are idle.
		KeepFree int
	}

	NET struct {
		// ReadTimeout controls the maximal lifetime of IDLE connections. If no data was
		// received in this period of time, it'll be closed.
		ReadTimeout time.Duration
		// AcceptLoopInterruptPeriod controls how often will the Accept() call be interrupted
		// in order to check whether it's time to stop.
		AcceptLoopInterruptPeriod time.Duration
		// BindRetry is how long a failing bind is retried before giving up. Zero disables
		// retries.
		BindRetry time.Duration
	}

	Server struct {
		// Name is sent in the Server header of every response, unless the handler sets
		// its own.
		Name string
	}
)

// Config holds settings used across the engine, mainly buffer sizes and pool limits.
//
// You must ALWAYS modify defaults (returned via Default()) and NEVER try to initialize the
// config manually, because most likely this will result in ambiguous errors.
type Config struct {
	Buffer Buffer
	Pool   Pool
	NET    NET
	Server Server
}

// Default returns default config.
func Default() *Config {
	return &Config{
		Buffer: Buffer{
			Size: 8 * 1024,
		},
		Pool: Pool{
			Initial:  64,
			Delta:    64,
			Max:      16 * 1024,
			KeepFree: 16,
		},
		NET: NET{
			ReadTimeout:               90 * time.Second,
			AcceptLoopInterruptPeriod: 5 * time.Second,
			BindRetry:                 0,
		},
		Server: Server{
			Name: "slotted",
		},
	}
}

const (
	MinBufferSize = 1024
	MaxBufferSize = 64 * 1024
)

var ErrInvalid = errors.New("invalid config")

// Validate checks whether the values are coherent.
func (c *Config) Validate() error {
	switch {
	case c.Buffer.Size < MinBufferSize || c.Buffer.Size > MaxBufferSize:
		return fmt.Errorf("%w: buffer size %d is out of [%d, %d]",
			ErrInvalid, c.Buffer.Size, MinBufferSize, MaxBufferSize)
	case c.Pool.Initial <= 0:
		return fmt.Errorf("%w: initial pool size must be positive", ErrInvalid)
	case c.Pool.Max < c.Pool.Initial:
		return fmt.Errorf("%w: max pool size %d is less than initial %d",
			ErrInvalid, c.Pool.Max, c.Pool.Initial)
	case c.Pool.Delta < 0 || c.Pool.KeepFree < 0:
		return fmt.Errorf("%w: pool delta and keep-free must not be negative", ErrInvalid)
	case c.NET.AcceptLoopInterruptPeriod <= 0:
		return fmt.Errorf("%w: accept loop interrupt period must be positive", ErrInvalid)
	case c.NET.ReadTimeout < 0 || c.NET.BindRetry < 0:
		return fmt.Errorf("%w: timeouts must not be negative", ErrInvalid)
	}

	return nil
}
