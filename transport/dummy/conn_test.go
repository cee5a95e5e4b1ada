package dummy

import (
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConn(t *testing.T) {
	t.Run("chunks", func(t *testing.T) {
		conn := NewConn([]byte("Hello, "), []byte("world!"))
		buf := make([]byte, 4)
		var got []byte
		for {
			n, err := conn.Read(buf)
			if err == io.EOF {
				break
			}

			require.NoError(t, err)
			require.LessOrEqual(t, n, 4)
			got = append(got, buf[:n]...)
		}

		require.Equal(t, "Hello, world!", string(got))
	})

	t.Run("circular", func(t *testing.T) {
		conn := NewConn([]byte("ab")).Circular()
		buf := make([]byte, 8)
		for range 3 {
			n, err := conn.Read(buf)
			require.NoError(t, err)
			require.Equal(t, "ab", string(buf[:n]))
		}
	})

	t.Run("journal", func(t *testing.T) {
		conn := NewConn()
		_, err := conn.Write([]byte("Hello, "))
		require.NoError(t, err)
		_, err = conn.Write([]byte("world!"))
		require.NoError(t, err)
		require.Equal(t, "Hello, world!", conn.Written())

		require.NoError(t, conn.Close())
		require.True(t, conn.Closed())
		_, err = conn.Write([]byte("x"))
		require.Error(t, err)
	})
}
