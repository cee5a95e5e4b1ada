package slotted

import (
	"crypto/tls"
	"errors"

	"github.com/indigo-web/slotted/config"
	"github.com/indigo-web/slotted/transport"
)

var (
	ErrBadCertificate = errors.New("one or more passed certificates are empty")
	ErrNoCertificates = errors.New("no certificates were passed")
)

// Transport describes how connections are accepted on a listen address.
type Transport struct {
	addr  string // must be left intact. Used by App entity only
	spawn func(cfg *config.Config) transport.Transport
	error error
}

// TCP accepts plain connections.
func TCP() Transport {
	return Transport{
		spawn: func(cfg *config.Config) transport.Transport {
			return transport.NewTCP(cfg.NET.BindRetry)
		},
	}
}

// TLS accepts encrypted connections using the certificate and the key found at the paths.
func TLS(cert, key string) Transport {
	c, err := tls.LoadX509KeyPair(cert, key)
	if err != nil {
		// there's no way to report it here. Save it in the transport, the App returns it
		// before binding anything
		return Transport{error: err}
	}

	return HTTPS(c)
}

// HTTPS accepts encrypted connections using the certificates.
func HTTPS(certs ...tls.Certificate) Transport {
	switch {
	case len(certs) == 0:
		return Transport{error: ErrNoCertificates}
	case !noEmptyCerts(certs):
		return Transport{error: ErrBadCertificate}
	}

	return withTLSConfig(&tls.Config{Certificates: certs})
}

func withTLSConfig(tlsCfg *tls.Config) Transport {
	return Transport{
		spawn: func(cfg *config.Config) transport.Transport {
			return transport.NewTLS(tlsCfg, cfg.NET.BindRetry)
		},
	}
}

// Cert loads the certificate. In case of an error an empty certificate is returned, which
// is reported as ErrBadCertificate on start.
func Cert(cert, key string) tls.Certificate {
	c, _ := tls.LoadX509KeyPair(cert, key)
	return c
}

func noEmptyCerts(certs []tls.Certificate) bool {
	for _, c := range certs {
		if c.Certificate == nil {
			return false
		}
	}

	return true
}
