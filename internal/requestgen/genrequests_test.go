package requestgen

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	hdrs := Headers(3)
	require.Equal(t, 3, hdrs.Len())
	require.Equal(t, "localhost", hdrs.Value("Host"))

	request := string(Generate("hello", hdrs))
	require.True(t, strings.HasPrefix(request, "GET /hello HTTP/1.1\r\n"))
	require.True(t, strings.HasSuffix(request, "Host: localhost\r\n\r\n"))
	require.Equal(t, 5, strings.Count(request, "\r\n"))
}
