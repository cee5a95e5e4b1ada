package mime

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestComplies(t *testing.T) {
	for _, tc := range []string{"", JSON, JSON + ";", JSON + "; charset=utf-8", "Application/JSON"} {
		require.True(t, Complies(JSON, tc), tc)
	}

	require.False(t, Complies(JSON, Plain))
}

func TestWithCharset(t *testing.T) {
	require.Equal(t, "text/plain;charset=utf-8", WithCharset(Plain, UTF8))
}
