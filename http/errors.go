package http

import (
	"errors"
)

var (
	ErrNotUpgradable         = errors.New("request is not a valid WebSocket upgrade")
	ErrHeadersSent           = errors.New("response headers are already sent")
	ErrContentLengthExceeded = errors.New("written more than the declared Content-Length")
	ErrConnectionClosed      = errors.New("connection is closed")
)
