package address

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	require.Equal(t, "0.0.0.0:8080", Normalize(":8080"))
	require.Equal(t, "localhost:8080", Normalize("localhost:8080"))
	require.Equal(t, "[::1]:8080", Normalize("[::1]:8080"))
}

func TestIsLocalhost(t *testing.T) {
	for _, addr := range []string{"localhost:80", "LOCALHOST:443", "127.0.0.1:80", "[::1]:80"} {
		require.True(t, IsLocalhost(addr), addr)
	}

	for _, addr := range []string{":80", "0.0.0.0:80", "example.com:443", "10.0.0.1:80"} {
		require.False(t, IsLocalhost(addr), addr)
	}
}
