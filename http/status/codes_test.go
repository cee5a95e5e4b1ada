package status

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCodes(t *testing.T) {
	t.Run("append code", func(t *testing.T) {
		for _, code := range []Code{Continue, OK, NotFound, InternalServerError, 999} {
			require.Equal(t, strconv.Itoa(int(code)), string(AppendCode(nil, code)))
		}
	})

	t.Run("validity", func(t *testing.T) {
		require.True(t, Valid(Continue))
		require.True(t, Valid(Max))
		require.False(t, Valid(99))
		require.False(t, Valid(1000))
	})

	t.Run("text", func(t *testing.T) {
		require.Equal(t, "OK", Text(OK))
		require.Equal(t, "Internal Server Error", Text(InternalServerError))
		require.Empty(t, Text(599))
		require.Empty(t, Text(60000))
	})
}
