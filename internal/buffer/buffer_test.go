package buffer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func pushSegment(t *testing.T, buff *Buffer, text string) {
	str, ok := buff.Copy([]byte(text))
	require.True(t, ok)
	require.Equal(t, text, str)
}

func BenchmarkBuffer(b *testing.B) {
	buff := New(1024)
	smallString := []byte(strings.Repeat("a", 1023))

	b.ReportAllocs()
	b.SetBytes(int64(len(smallString)))
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		_ = buff.Append(smallString...)
		buff.Clear()
	}
}

func TestBuffer(t *testing.T) {
	t.Run("segments", func(t *testing.T) {
		buff := New(20)
		pushSegment(t, buff, "Hello")
		pushSegment(t, buff, "Here")
		require.True(t, buff.AppendByte('!'))
		require.Equal(t, 1, buff.SegmentLength())
		require.Equal(t, "!", string(buff.Preview()))
		require.Equal(t, "!", buff.String())
	})

	t.Run("capacity is fixed", func(t *testing.T) {
		buff := New(8)
		first, ok := buff.Copy([]byte("Hello"))
		require.True(t, ok)
		require.False(t, buff.Append([]byte("World")...))
		require.True(t, buff.Append([]byte("Wor")...))
		require.False(t, buff.AppendByte('l'))
		require.Equal(t, "Hello", first)
	})

	t.Run("discard", func(t *testing.T) {
		buff := New(16)
		pushSegment(t, buff, "keep")
		require.True(t, buff.Append([]byte("drop")...))
		buff.Discard()
		require.Zero(t, buff.SegmentLength())
		pushSegment(t, buff, "next")
	})

	t.Run("clear", func(t *testing.T) {
		buff := New(5)
		pushSegment(t, buff, "Hello")
		buff.Clear()
		pushSegment(t, buff, "World")
	})

	t.Run("finished segments do not grow into the next", func(t *testing.T) {
		buff := New(16)
		seg := buff.Finish()
		require.True(t, buff.Append([]byte("abc")...))
		require.Len(t, seg, 0)
		require.Equal(t, 0, cap(seg))
	})
}
