package proto

type Proto uint8

const (
	Unknown Proto = iota
	HTTP10
	HTTP11
	// HTTP1x is any other HTTP/1.<minor> version. It is served with HTTP/1.1 semantics.
	HTTP1x
)

func (p Proto) String() string {
	switch p {
	case HTTP10:
		return "HTTP/1.0"
	case HTTP11:
		return "HTTP/1.1"
	case HTTP1x:
		return "HTTP/1.x"
	default:
		return ""
	}
}

// KeepAliveByDefault reports whether a connection speaking the protocol stays open
// unless asked otherwise.
func (p Proto) KeepAliveByDefault() bool {
	return p != HTTP10
}

const (
	tokenLength = len("HTTP/x.x")
	scheme      = "HTTP/1."
)

// FromBytes recognizes the version token. The two common versions are matched by a plain
// byte comparison; other HTTP/1 minors are accepted as HTTP1x, everything else is Unknown.
func FromBytes(raw []byte) Proto {
	if len(raw) != tokenLength || string(raw[:len(scheme)]) != scheme {
		return Unknown
	}

	switch minor := raw[tokenLength-1]; minor {
	case '0':
		return HTTP10
	case '1':
		return HTTP11
	default:
		if minor >= '2' && minor <= '9' {
			return HTTP1x
		}

		return Unknown
	}
}
