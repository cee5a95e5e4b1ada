// Package address deals with the listen addresses given by the user.
package address

import (
	"net"
	"strings"
)

const DefaultHost = "0.0.0.0"

// Normalize fills in the default host if the address carries only a port.
func Normalize(addr string) string {
	if len(host(addr)) == 0 {
		return DefaultHost + addr
	}

	return addr
}

// IsLocalhost reports whether the address points at the loopback by name or by IP.
func IsLocalhost(addr string) bool {
	h := host(addr)
	if strings.EqualFold(h, "localhost") {
		return true
	}

	ip := net.ParseIP(h)
	return ip != nil && ip.IsLoopback()
}

func host(addr string) string {
	colon := strings.LastIndexByte(addr, ':')
	if colon != -1 {
		addr = addr[:colon]
	}

	return strings.Trim(addr, "[]")
}
